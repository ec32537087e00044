package repository

import (
	"context"
	"sync"

	"cod-verifier/models"
)

// MemoryIntentRepo is an in-process IntentRepository. Used in test mode
// and in tests; safe for concurrent use.
type MemoryIntentRepo struct {
	mu      sync.RWMutex
	intents map[string]models.PaymentIntent // by intent id
}

func NewMemoryIntentRepo() *MemoryIntentRepo {
	return &MemoryIntentRepo{intents: make(map[string]models.PaymentIntent)}
}

func (m *MemoryIntentRepo) Create(ctx context.Context, intent *models.PaymentIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[intent.IntentID] = *intent
	return nil
}

func (m *MemoryIntentRepo) GetByID(ctx context.Context, intentID string) (*models.PaymentIntent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	intent, ok := m.intents[intentID]
	if !ok {
		return nil, ErrIntentNotFound
	}
	copied := intent
	return &copied, nil
}

func (m *MemoryIntentRepo) GetByOrderRef(ctx context.Context, orderRef string) (*models.PaymentIntent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, intent := range m.intents {
		if intent.OrderRef == orderRef {
			copied := intent
			return &copied, nil
		}
	}
	return nil, ErrIntentNotFound
}

func (m *MemoryIntentRepo) Update(ctx context.Context, intent *models.PaymentIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.intents[intent.IntentID]; !ok {
		return ErrIntentNotFound
	}
	m.intents[intent.IntentID] = *intent
	return nil
}
