package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/redis/go-redis/v9"
)

// TokenStore keeps revoked token IDs and single-use password reset tokens.
type TokenStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	// Consume revokes jti and fails with ErrTokenRevoked when it already was.
	// Only one of several concurrent callers can consume the same jti.
	Consume(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PutResetToken(ctx context.Context, token, accountID string, ttl time.Duration) error
	// TakeResetToken returns the account bound to token and deletes it.
	TakeResetToken(ctx context.Context, token string) (string, error)
}

const (
	revokedPrefix = "auth:revoked:"
	resetPrefix   = "auth:reset:"
)

// RedisTokenStore implements TokenStore on Redis keys with TTLs.
type RedisTokenStore struct {
	client redis.Cmdable
}

// NewRedisTokenStore creates a Redis backed TokenStore.
func NewRedisTokenStore(client redis.Cmdable) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := s.client.Set(ctx, revokedPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Consume(ctx context.Context, jti string, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, revokedPrefix+jti, "1", ttl).Result()
	if err != nil {
		return fmt.Errorf("consume token: %w", err)
	}
	if !ok {
		return ErrTokenRevoked
	}
	return nil
}

func (s *RedisTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

func (s *RedisTokenStore) PutResetToken(ctx context.Context, token, accountID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, resetPrefix+token, accountID, ttl).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) TakeResetToken(ctx context.Context, token string) (string, error) {
	accountID, err := s.client.GetDel(ctx, resetPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvalidResetToken
	}
	if err != nil {
		return "", fmt.Errorf("take reset token: %w", err)
	}
	return accountID, nil
}

// MemoryTokenStore is a process-local TokenStore for single instance
// deployments and tests. Entries expire through ttlcache.
type MemoryTokenStore struct {
	mu      sync.Mutex
	revoked *ttlcache.Cache[string, struct{}]
	resets  *ttlcache.Cache[string, string]
}

// NewMemoryTokenStore creates an empty MemoryTokenStore and starts its
// eviction loops. Call Stop to end them.
func NewMemoryTokenStore() *MemoryTokenStore {
	s := &MemoryTokenStore{
		revoked: ttlcache.New[string, struct{}](ttlcache.WithDisableTouchOnHit[string, struct{}]()),
		resets:  ttlcache.New[string, string](ttlcache.WithDisableTouchOnHit[string, string]()),
	}
	go s.revoked.Start()
	go s.resets.Start()
	return s
}

// Stop ends the eviction loops.
func (s *MemoryTokenStore) Stop() {
	s.revoked.Stop()
	s.resets.Stop()
}

func (s *MemoryTokenStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	s.revoked.Set(jti, struct{}{}, ttl)
	return nil
}

func (s *MemoryTokenStore) Consume(_ context.Context, jti string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked.Get(jti) != nil {
		return ErrTokenRevoked
	}
	s.revoked.Set(jti, struct{}{}, ttl)
	return nil
}

func (s *MemoryTokenStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s.revoked.Get(jti) != nil, nil
}

func (s *MemoryTokenStore) PutResetToken(_ context.Context, token, accountID string, ttl time.Duration) error {
	s.resets.Set(token, accountID, ttl)
	return nil
}

func (s *MemoryTokenStore) TakeResetToken(_ context.Context, token string) (string, error) {
	item, ok := s.resets.GetAndDelete(token)
	if !ok || item == nil || item.IsExpired() {
		return "", ErrInvalidResetToken
	}
	return item.Value(), nil
}
