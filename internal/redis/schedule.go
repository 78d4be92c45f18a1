package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const scheduleKey = "validation:schedule"

// ScheduleStore mirrors pending validation schedules in a Redis sorted
// set scored by due time, so a restarted process can re-arm its timers.
type ScheduleStore struct {
	client *redis.Client
}

// NewScheduleStore creates a new ScheduleStore.
func NewScheduleStore(client *redis.Client) *ScheduleStore {
	return &ScheduleStore{client: client}
}

// Add records a trip's validation due time.
func (s *ScheduleStore) Add(ctx context.Context, tripID string, due time.Time) error {
	return s.client.ZAdd(ctx, scheduleKey, redis.Z{
		Score:  float64(due.Unix()),
		Member: tripID,
	}).Err()
}

// Remove drops a trip's pending schedule.
func (s *ScheduleStore) Remove(ctx context.Context, tripID string) error {
	return s.client.ZRem(ctx, scheduleKey, tripID).Err()
}

// All returns every pending schedule keyed by trip id.
func (s *ScheduleStore) All(ctx context.Context) (map[string]time.Time, error) {
	entries, err := s.client.ZRangeWithScores(ctx, scheduleKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	pending := make(map[string]time.Time, len(entries))
	for _, e := range entries {
		id, ok := e.Member.(string)
		if !ok {
			continue
		}
		pending[id] = time.Unix(int64(e.Score), 0)
	}

	return pending, nil
}
