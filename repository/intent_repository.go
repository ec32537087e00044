package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"cod-verifier/models"
)

// ErrIntentNotFound is returned when no intent exists for the given key.
var ErrIntentNotFound = errors.New("payment intent not found")

// IntentRepository persists PaymentIntent rows. Status transitions go
// through the Confirmation Resolver, which is the single writer; the
// repository itself only stores what the resolver decided.
type IntentRepository interface {
	Create(ctx context.Context, intent *models.PaymentIntent) error
	GetByID(ctx context.Context, intentID string) (*models.PaymentIntent, error)
	GetByOrderRef(ctx context.Context, orderRef string) (*models.PaymentIntent, error)
	Update(ctx context.Context, intent *models.PaymentIntent) error
}

type gormIntentRepo struct {
	db *gorm.DB
}

func NewGormIntentRepo(db *gorm.DB) IntentRepository {
	return &gormIntentRepo{db: db}
}

func (r *gormIntentRepo) Create(ctx context.Context, intent *models.PaymentIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

func (r *gormIntentRepo) GetByID(ctx context.Context, intentID string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).Where("intent_id = ?", intentID).First(&intent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIntentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *gormIntentRepo) GetByOrderRef(ctx context.Context, orderRef string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).Where("order_ref = ?", orderRef).First(&intent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIntentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *gormIntentRepo) Update(ctx context.Context, intent *models.PaymentIntent) error {
	return r.db.WithContext(ctx).Save(intent).Error
}
