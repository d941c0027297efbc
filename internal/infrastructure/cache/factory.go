package cache

import (
	"fmt"

	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/fenceline/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore creates the idempotency store named by the config
// backend. A Redis failure falls back to the in-memory store with a warning
// so a flaky cache never blocks payment entry.
func NewIdempotencyStore(cfg *config.Config, logger *zap.Logger) (shared.IdempotencyStore, error) {
	switch cfg.Idempotency.Backend {
	case "redis":
		store, err := NewRedisIdempotencyStore(RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("redis idempotency store unavailable, falling back to in-memory",
				zap.String("addr", cfg.Redis.Addr()),
				zap.Error(err))
			return NewInMemoryIdempotencyStore(), nil
		}
		return store, nil
	case "memory":
		return NewInMemoryIdempotencyStore(), nil
	default:
		return nil, fmt.Errorf("unknown idempotency backend: %q", cfg.Idempotency.Backend)
	}
}
