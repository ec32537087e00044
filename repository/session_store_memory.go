package repository

import (
	"context"
	"sync"
	"time"

	"cod-verifier/models"
)

type memorySessionEntry struct {
	session   models.VerificationSession
	expiresAt time.Time
}

// MemorySessionStore is an in-process SessionStore with the same TTL
// semantics as the Redis one. Used in test mode and in tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]memorySessionEntry
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:      ttl,
		sessions: make(map[string]memorySessionEntry),
	}
}

func (m *MemorySessionStore) Get(ctx context.Context, sessionID string) (*models.VerificationSession, error) {
	m.mu.RLock()
	entry, ok := m.sessions[sessionID]
	m.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	session := entry.session
	return &session, nil
}

func (m *MemorySessionStore) Save(ctx context.Context, sessionID string, session *models.VerificationSession) error {
	session.UpdatedAt = time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = memorySessionEntry{
		session:   *session,
		expiresAt: time.Now().Add(m.ttl),
	}
	return nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}
