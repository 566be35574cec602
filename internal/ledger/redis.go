package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/javiersolana/crypto-swarm/internal/provider"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
)

const keyPrefix = "swarm:ledger:"

// RedisLedger is the persistent admit-once set. SET NX gives the
// atomic check-and-mark; the retention horizon rides on the key TTL, so
// expired entries admit again without any sweeper.
type RedisLedger struct {
	client  *redis.Client
	log     *logger.Logger
	horizon time.Duration
}

type RedisOption func(*RedisLedger)

// WithHorizon sets the retention horizon for admitted IDs.
func WithHorizon(d time.Duration) RedisOption {
	return func(l *RedisLedger) {
		if d > 0 {
			l.horizon = d
		}
	}
}

func NewRedisLedger(client *redis.Client, log *logger.Logger, opts ...RedisOption) *RedisLedger {
	l := &RedisLedger{
		client:  client,
		log:     log,
		horizon: 30 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit marks the event ID as seen. It returns true exactly once per ID
// within the retention horizon, regardless of concurrent callers. Any
// store failure is reported as ErrLedgerUnavailable; callers must not
// treat it as a duplicate.
func (l *RedisLedger) Admit(ctx context.Context, eventID string) (bool, error) {
	// An event without an identity can never be admitted.
	if eventID == "" {
		return false, nil
	}
	ok, err := l.client.SetNX(ctx, keyPrefix+eventID, 1, l.horizon).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", provider.ErrLedgerUnavailable, err)
	}
	return ok, nil
}

func (l *RedisLedger) Close() error {
	return nil
}
