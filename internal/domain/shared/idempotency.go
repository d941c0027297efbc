package shared

import (
	"context"
	"time"
)

// IdempotencyStore records operation keys that have already been applied so a
// retried bulk payment does not apply the same amount to an invoice twice.
// Each per-invoice write in a bulk operation is keyed independently, which is
// what makes the writes individually retryable after a partial failure.
type IdempotencyStore interface {
	// MarkApplied marks an operation key as applied with a TTL.
	// Returns true if the key was newly marked, false if it was already applied.
	MarkApplied(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsApplied checks if an operation key has already been applied
	IsApplied(ctx context.Context, key string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for applied operation keys.
	// After this duration the same key can be applied again.
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
