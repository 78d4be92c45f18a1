package redis

import (
	"context"
	"time"

	"github.com/howard-metropia/trip-validation/internal/domain"
)

// LockStoreInterface defines the interface for distributed validation
// locking.
type LockStoreInterface interface {
	AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error)
	ReleaseTripLock(ctx context.Context, tripID string) error
	AcquirePairLock(ctx context.Context, pairKey string, ttl time.Duration) (bool, error)
	ReleasePairLock(ctx context.Context, pairKey string) error
}

// CacheStoreInterface defines the interface for result caching.
type CacheStoreInterface interface {
	GetResult(ctx context.Context, tripID string) (*domain.ValidationResult, error)
	SetResult(ctx context.Context, result *domain.ValidationResult) error
	InvalidateResult(ctx context.Context, tripID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface  = (*LockStore)(nil)
	_ CacheStoreInterface = (*CacheStore)(nil)
)
