// Package idempotency guards mutating operations against blind retries.
// A caller claims a token before performing the side effect; a second claim
// of the same token reports that the work already happened.
package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore records idempotency tokens for redemption commits.
type TokenStore interface {
	// Claim marks the token as used. It returns false when the token was
	// already claimed, meaning the side effect must not run again.
	Claim(ctx context.Context, token string, ttl time.Duration) (bool, error)
	// Release frees a claimed token so a failed operation can be retried.
	Release(ctx context.Context, token string) error
}

const redisKeyPrefix = "storefront:redemption:"

// RedisStore stores tokens in redis so claims are shared across processes.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Claim sets the token key if absent.
func (s *RedisStore) Claim(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, redisKeyPrefix+token, 1, ttl).Result()
}

// Release deletes the token key.
func (s *RedisStore) Release(ctx context.Context, token string) error {
	return s.client.Del(ctx, redisKeyPrefix+token).Err()
}

// MemoryStore is a process-local token store used in tests and in
// deployments without redis. Claims are not shared across processes.
type MemoryStore struct {
	mu      sync.Mutex
	claimed map[string]time.Time // token -> expiry
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{claimed: make(map[string]time.Time)}
}

// Claim marks the token as used until its TTL elapses.
func (s *MemoryStore) Claim(_ context.Context, token string, ttl time.Duration) (bool, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if expiry, ok := s.claimed[token]; ok && now.Before(expiry) {
		return false, nil
	}
	s.claimed[token] = now.Add(ttl)
	return true, nil
}

// Release frees the token.
func (s *MemoryStore) Release(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claimed, token)
	return nil
}
