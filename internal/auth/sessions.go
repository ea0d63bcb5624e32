package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore tracks which session ids are still valid.
type SessionStore interface {
	Create(ctx context.Context, id, subject string, ttl time.Duration) error
	Active(ctx context.Context, id string) (bool, error)
	Revoke(ctx context.Context, id string) error
}

// RedisSessions keeps session ids in redis with the token TTL.
type RedisSessions struct {
	Client *redis.Client
	Prefix string
}

func (s RedisSessions) key(id string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "session:"
	}
	return prefix + id
}

// Create records a new session.
func (s RedisSessions) Create(ctx context.Context, id, subject string, ttl time.Duration) error {
	if s.Client == nil {
		return errors.New("auth: redis client not configured")
	}
	return s.Client.Set(ctx, s.key(id), subject, ttl).Err()
}

// Active reports whether the session exists and has not expired.
func (s RedisSessions) Active(ctx context.Context, id string) (bool, error) {
	if s.Client == nil {
		return false, errors.New("auth: redis client not configured")
	}
	n, err := s.Client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Revoke deletes the session.
func (s RedisSessions) Revoke(ctx context.Context, id string) error {
	if s.Client == nil {
		return errors.New("auth: redis client not configured")
	}
	return s.Client.Del(ctx, s.key(id)).Err()
}
