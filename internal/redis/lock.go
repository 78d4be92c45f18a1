package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis. Validation runs take a
// per-trip lock so a timer firing on one instance and a manual re-trigger
// on another cannot score the same trip twice; carpool runs additionally
// take the pair lock.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireTripLock attempts to acquire the validation lock for a trip.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:validation:trip:%s", tripID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseTripLock releases the validation lock for a trip.
func (s *LockStore) ReleaseTripLock(ctx context.Context, tripID string) error {
	key := fmt.Sprintf("lock:validation:trip:%s", tripID)

	return s.client.Del(ctx, key).Err()
}

// AcquirePairLock attempts to acquire the lock for a carpool pair key
// (driver_trip_id:passenger_trip_id), serializing the two sides' runs.
func (s *LockStore) AcquirePairLock(ctx context.Context, pairKey string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:validation:pair:%s", pairKey)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleasePairLock releases the lock for a carpool pair key.
func (s *LockStore) ReleasePairLock(ctx context.Context, pairKey string) error {
	key := fmt.Sprintf("lock:validation:pair:%s", pairKey)

	return s.client.Del(ctx, key).Err()
}
