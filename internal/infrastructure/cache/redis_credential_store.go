package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quotedesk/backend/internal/domain/access"
	"github.com/quotedesk/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultCredentialKeyPrefix = "gateway:credential:"

// RedisCredentialStore implements access.CredentialStore using Redis.
// Suitable for distributed deployments where any instance may redeem a
// credential issued by another. The TTL on the key enforces credential
// expiry even if the process that issued it dies.
type RedisCredentialStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCredentialStore creates a Redis-backed credential store
func NewRedisCredentialStore(addr, password string, db int) (*RedisCredentialStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCredentialStore{
		client:    client,
		keyPrefix: defaultCredentialKeyPrefix,
	}, nil
}

// NewRedisCredentialStoreWithClient creates a store with an existing Redis client
func NewRedisCredentialStoreWithClient(client *redis.Client, keyPrefix string) *RedisCredentialStore {
	if keyPrefix == "" {
		keyPrefix = defaultCredentialKeyPrefix
	}
	return &RedisCredentialStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Put stores a pending credential. SETNX guards against token reuse:
// a colliding token is treated as a store failure rather than silently
// overwriting another subject's grant.
func (s *RedisCredentialStore) Put(ctx context.Context, cred *access.Credential) error {
	payload, err := json.Marshal(cred)
	if err != nil {
		return err
	}

	ttl := time.Until(cred.ExpiresAt)
	if ttl <= 0 {
		return shared.ErrInvalidInput
	}

	ok, err := s.client.SetNX(ctx, s.keyPrefix+cred.Token, payload, ttl).Result()
	if err != nil {
		return errors.Join(shared.ErrTransient, err)
	}
	if !ok {
		return shared.ErrConflict
	}
	return nil
}

// Consume atomically fetches and removes a credential by token using GETDEL,
// so a token redeems on at most one instance.
func (s *RedisCredentialStore) Consume(ctx context.Context, token string) (*access.Credential, error) {
	payload, err := s.client.GetDel(ctx, s.keyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNotFound
		}
		return nil, errors.Join(shared.ErrTransient, err)
	}

	var cred access.Credential
	if err := json.Unmarshal([]byte(payload), &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

// Close closes the Redis client
func (s *RedisCredentialStore) Close() error {
	return s.client.Close()
}

var _ access.CredentialStore = (*RedisCredentialStore)(nil)
