package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/howard-metropia/trip-validation/internal/domain"
)

// CacheStore caches the latest validation result per trip so collaborator
// polling does not hit Postgres on every read.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// ResultCacheTTL bounds staleness between an override and the next read.
const ResultCacheTTL = 5 * time.Minute

const resultCachePrefix = "cache:validation:"

// GetResult retrieves a cached result. Returns nil on a cache miss.
func (s *CacheStore) GetResult(ctx context.Context, tripID string) (*domain.ValidationResult, error) {
	data, err := s.client.Get(ctx, resultCachePrefix+tripID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var result domain.ValidationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetResult stores the latest result for a trip.
func (s *CacheStore) SetResult(ctx context.Context, result *domain.ValidationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, resultCachePrefix+result.TripID, data, ResultCacheTTL).Err()
}

// InvalidateResult removes a trip's cached result, used after overrides.
func (s *CacheStore) InvalidateResult(ctx context.Context, tripID string) error {
	return s.client.Del(ctx, resultCachePrefix+tripID).Err()
}
