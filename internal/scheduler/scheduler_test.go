package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	"github.com/javiersolana/crypto-swarm/internal/provider"
	"github.com/javiersolana/crypto-swarm/pkg/cache"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, string, float64) {}
func (nopMetrics) RecordCacheHit()                     {}
func (nopMetrics) RecordSkip()                         {}
func (nopMetrics) RecordAlert(string)                  {}
func (nopMetrics) RecordCycle(float64)                 {}
func (nopMetrics) RecordError(string)                  {}

type countingMetrics struct {
	nopMetrics
	skips atomic.Int64
}

func (m *countingMetrics) RecordSkip() { m.skips.Add(1) }

type fakeSource struct {
	name    string
	calls   atomic.Int64
	inUse   atomic.Int64
	maxUse  atomic.Int64
	delay   time.Duration
	failErr error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) RateBudget() rate.Limit { return rate.Inf }

func (f *fakeSource) Fetch(ctx context.Context, entity *models.WatchedEntity) (*models.EntityActivity, error) {
	f.calls.Add(1)
	cur := f.inUse.Add(1)
	defer f.inUse.Add(-1)
	for {
		prev := f.maxUse.Load()
		if cur <= prev || f.maxUse.CompareAndSwap(prev, cur) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failErr != nil {
		return nil, f.failErr
	}
	return &models.EntityActivity{Entity: entity.Key()}, nil
}

func reg(src provider.Source, name string, prio int) provider.Registration {
	return provider.Registration{
		Source: src,
		Descriptor: provider.Descriptor{
			Name:       name,
			Priority:   prio,
			Timeout:    time.Second,
			RateLimit:  rate.Inf,
			Burst:      1,
			Categories: []models.Category{models.CategoryTokenMarket},
		},
	}
}

func entity(addr string) *models.WatchedEntity {
	return &models.WatchedEntity{
		Address:  addr,
		Category: models.CategoryTokenMarket,
		Active:   true,
	}
}

func newMemory(t *testing.T) cache.Service {
	t.Helper()
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { mem.Close() })
	return mem
}

func TestRunCacheHitSkipsProviders(t *testing.T) {
	src := &fakeSource{name: "primary"}
	chain, err := provider.Build([]provider.Registration{reg(src, "primary", 0)})
	require.NoError(t, err)

	mem := newMemory(t)
	ent := entity("mint-a")
	seeded := &models.EntityActivity{Entity: ent.Key()}
	require.NoError(t, mem.Set(context.Background(), activityKey(ent), seeded, time.Minute))

	s := NewScheduler(chain, mem, logger.Nop(), nopMetrics{})
	results := s.Run(context.Background(), []*models.WatchedEntity{ent})

	require.Len(t, results, 1)
	require.Equal(t, models.ProviderCache, results[0].Provider)
	require.Zero(t, results[0].Latency)
	require.Equal(t, int64(0), src.calls.Load())
}

func TestRunFallsThroughChain(t *testing.T) {
	first := &fakeSource{name: "first", failErr: provider.ErrProviderTimeout}
	second := &fakeSource{name: "second"}
	chain, err := provider.Build([]provider.Registration{
		reg(first, "first", 0),
		reg(second, "second", 1),
	})
	require.NoError(t, err)

	s := NewScheduler(chain, newMemory(t), logger.Nop(), nopMetrics{})
	results := s.Run(context.Background(), []*models.WatchedEntity{entity("mint-b")})

	require.Len(t, results, 1)
	require.Equal(t, "second", results[0].Provider)
	require.Equal(t, int64(1), first.calls.Load())
	require.Equal(t, int64(1), second.calls.Load())
}

func TestRunSkipsWhenChainExhausted(t *testing.T) {
	first := &fakeSource{name: "first", failErr: provider.ErrProviderTimeout}
	second := &fakeSource{name: "second", failErr: errors.New("boom")}
	chain, err := provider.Build([]provider.Registration{
		reg(first, "first", 0),
		reg(second, "second", 1),
	})
	require.NoError(t, err)

	s := NewScheduler(chain, newMemory(t), logger.Nop(), nopMetrics{})
	results := s.Run(context.Background(), []*models.WatchedEntity{entity("mint-c")})

	require.Len(t, results, 1)
	require.True(t, results[0].Skipped())
	require.Error(t, results[0].Err)
	require.Nil(t, results[0].Activity)
}

func TestRunSuccessIsCached(t *testing.T) {
	src := &fakeSource{name: "primary"}
	chain, err := provider.Build([]provider.Registration{reg(src, "primary", 0)})
	require.NoError(t, err)

	mem := newMemory(t)
	s := NewScheduler(chain, mem, logger.Nop(), nopMetrics{})
	ent := entity("mint-d")

	first := s.Run(context.Background(), []*models.WatchedEntity{ent})
	require.Equal(t, "primary", first[0].Provider)

	second := s.Run(context.Background(), []*models.WatchedEntity{ent})
	require.Equal(t, models.ProviderCache, second[0].Provider)
	require.Equal(t, int64(1), src.calls.Load())
}

func TestRunBoundsConcurrency(t *testing.T) {
	src := &fakeSource{name: "slow", delay: 30 * time.Millisecond}
	chain, err := provider.Build([]provider.Registration{reg(src, "slow", 0)})
	require.NoError(t, err)

	s := NewScheduler(chain, newMemory(t), logger.Nop(), nopMetrics{}, WithWorkers(2))

	entities := make([]*models.WatchedEntity, 8)
	for i := range entities {
		entities[i] = entity("mint-" + string(rune('a'+i)))
	}
	results := s.Run(context.Background(), entities)

	require.Len(t, results, len(entities))
	for _, res := range results {
		require.Equal(t, "slow", res.Provider)
	}
	require.LessOrEqual(t, src.maxUse.Load(), int64(2))
}

func TestRunDeadlineSkipsRemaining(t *testing.T) {
	src := &fakeSource{name: "slow", delay: 200 * time.Millisecond}
	chain, err := provider.Build([]provider.Registration{reg(src, "slow", 0)})
	require.NoError(t, err)

	metrics := &countingMetrics{}
	s := NewScheduler(chain, newMemory(t), logger.Nop(), metrics, WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	entities := []*models.WatchedEntity{entity("mint-x"), entity("mint-y"), entity("mint-z")}
	results := s.Run(ctx, entities)

	require.Len(t, results, len(entities))
	for _, res := range results {
		require.True(t, res.Skipped())
	}
	// Deadline skips count in metrics the same as exhausted-chain skips.
	require.Equal(t, int64(len(entities)), metrics.skips.Load())
}
