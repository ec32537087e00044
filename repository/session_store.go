package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cod-verifier/models"
)

// SessionStore holds short-lived per-customer verification state, keyed by
// the customer's session id. Absent sessions are returned as (nil, nil).
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*models.VerificationSession, error)
	Save(ctx context.Context, sessionID string, session *models.VerificationSession) error
	Delete(ctx context.Context, sessionID string) error
}

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore returns a SessionStore backed by Redis with the
// given TTL applied on every write.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	return &redisSessionStore{client: client, ttl: ttl}
}

func (r *redisSessionStore) key(sessionID string) string {
	return fmt.Sprintf("codver:session:%s", sessionID)
}

func (r *redisSessionStore) Get(ctx context.Context, sessionID string) (*models.VerificationSession, error) {
	data, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session models.VerificationSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *redisSessionStore) Save(ctx context.Context, sessionID string, session *models.VerificationSession) error {
	session.UpdatedAt = time.Now()

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, r.key(sessionID), data, r.ttl).Err()
}

func (r *redisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.key(sessionID)).Err()
}
