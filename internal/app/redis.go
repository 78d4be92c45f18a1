package app

import (
	"context"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"github.com/howard-metropia/trip-validation/internal/config"
)

// NewRedisClient connects the client backing the distributed validation
// locks, the result cache and the durable schedule mirror. With a New
// Relic application attached, every command is traced as a datastore
// segment on the active transaction.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, nrApp *newrelic.Application) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if nrApp != nil {
		client.AddHook(datastoreTraceHook{})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// datastoreTraceHook reports Redis commands to New Relic. Dialing is
// left untraced; connection setup noise drowns out the command timings
// that matter for lock contention.
type datastoreTraceHook struct{}

func (datastoreTraceHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (datastoreTraceHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if seg := startDatastoreSegment(ctx, cmd.Name()); seg != nil {
			defer seg.End()
		}
		return next(ctx, cmd)
	}
}

func (datastoreTraceHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if seg := startDatastoreSegment(ctx, "pipeline"); seg != nil {
			defer seg.End()
		}
		return next(ctx, cmds)
	}
}

func startDatastoreSegment(ctx context.Context, operation string) *newrelic.DatastoreSegment {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return nil
	}
	return &newrelic.DatastoreSegment{
		StartTime: txn.StartSegmentNow(),
		Product:   newrelic.DatastoreRedis,
		Operation: operation,
	}
}
