package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cod-verifier/models"
)

func TestMemorySessionStoreTTL(t *testing.T) {
	store := NewMemorySessionStore(20 * time.Millisecond)
	ctx := context.Background()

	session := &models.VerificationSession{
		Phone:    "+917039940998",
		Region:   models.RegionIN,
		Code:     "123456",
		IssuedAt: time.Now(),
	}
	require.NoError(t, store.Save(ctx, "sess", session))

	got, err := store.Get(ctx, "sess")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "123456", got.Code)

	time.Sleep(30 * time.Millisecond)

	expired, err := store.Get(ctx, "sess")
	require.NoError(t, err)
	assert.Nil(t, expired, "expired sessions read as absent")
}

func TestMemorySessionStoreIsolatesCopies(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess", &models.VerificationSession{Code: "111111"}))

	first, err := store.Get(ctx, "sess")
	require.NoError(t, err)
	first.Code = "mutated"

	second, err := store.Get(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, "111111", second.Code, "callers must not share the stored value")
}

func TestMemoryIntentRepo(t *testing.T) {
	repo := NewMemoryIntentRepo()
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "order_1")
	assert.ErrorIs(t, err, ErrIntentNotFound)

	intent := &models.PaymentIntent{
		IntentID: "order_1",
		OrderRef: "ref_1",
		Amount:   100,
		Currency: "INR",
		Status:   models.IntentCreated,
	}
	require.NoError(t, repo.Create(ctx, intent))

	byRef, err := repo.GetByOrderRef(ctx, "ref_1")
	require.NoError(t, err)
	assert.Equal(t, "order_1", byRef.IntentID)

	byRef.Status = models.IntentCaptured
	require.NoError(t, repo.Update(ctx, byRef))

	got, err := repo.GetByID(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, models.IntentCaptured, got.Status)

	err = repo.Update(ctx, &models.PaymentIntent{IntentID: "order_missing"})
	assert.ErrorIs(t, err, ErrIntentNotFound)
}
