package cache

import (
	"github.com/quotedesk/backend/internal/domain/access"
	"github.com/quotedesk/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// GatewayBackends bundles the credential store and rate limiter so both
// always come from the same backend.
type GatewayBackends struct {
	CredentialStore access.CredentialStore
	RateLimiter     access.RateLimiter

	closeFns []func() error
}

// NewGatewayBackends creates gateway backends from configuration.
// When Redis is enabled but unreachable, falls back to in-memory with a
// warning: credentials then redeem only on the instance that issued them.
func NewGatewayBackends(cfg config.RedisConfig, logger *zap.Logger) *GatewayBackends {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Enabled {
		store, err := NewRedisCredentialStore(cfg.Addr(), cfg.Password, cfg.DB)
		if err == nil {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Addr(),
				Password: cfg.Password,
				DB:       cfg.DB,
			})
			logger.Info("gateway backends using Redis", zap.String("addr", cfg.Addr()))
			return &GatewayBackends{
				CredentialStore: store,
				RateLimiter:     NewRedisRateLimiter(client),
				closeFns:        []func() error{store.Close, client.Close},
			}
		}
		logger.Warn("Redis unavailable, falling back to in-memory gateway backends",
			zap.String("addr", cfg.Addr()), zap.Error(err))
	}

	store := NewInMemoryCredentialStore()
	return &GatewayBackends{
		CredentialStore: store,
		RateLimiter:     NewInMemoryRateLimiter(),
		closeFns:        []func() error{store.Close},
	}
}

// Close releases backend resources
func (b *GatewayBackends) Close() error {
	var firstErr error
	for _, fn := range b.closeFns {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
