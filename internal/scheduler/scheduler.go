package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	"github.com/javiersolana/crypto-swarm/internal/domain/repository"
	"github.com/javiersolana/crypto-swarm/internal/provider"
	"github.com/javiersolana/crypto-swarm/pkg/cache"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
)

// Scheduler fans a batch of watched entities across a fixed worker
// pool. Each entity resolves through cache first, then down its
// category's provider chain; entities whose whole chain fails are
// skipped for the cycle, never retried within it. Exactly one
// FetchResult comes back per entity.
type Scheduler struct {
	chain   *provider.Chain
	cache   cache.Service
	log     *logger.Logger
	metrics repository.Metrics
	workers int
}

type Option func(*Scheduler)

// WithWorkers bounds concurrent in-flight fetches.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

func NewScheduler(chain *provider.Chain, cacheSvc cache.Service, log *logger.Logger, metrics repository.Metrics, opts ...Option) *Scheduler {
	s := &Scheduler{
		chain:   chain,
		cache:   cacheSvc,
		log:     log,
		metrics: metrics,
		workers: 16,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run resolves every entity in the batch and returns their results in
// input order. The context's deadline bounds the whole cycle: entities
// not started before it expires come back as skips.
func (s *Scheduler) Run(ctx context.Context, entities []*models.WatchedEntity) []models.FetchResult {
	results := make([]models.FetchResult, len(entities))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i, entity := range entities {
		select {
		case <-ctx.Done():
			s.metrics.RecordSkip()
			results[i] = s.skip(entity, ctx.Err())
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, entity *models.WatchedEntity) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.resolve(ctx, entity)
		}(i, entity)
	}

	wg.Wait()
	return results
}

func (s *Scheduler) resolve(ctx context.Context, entity *models.WatchedEntity) models.FetchResult {
	key := activityKey(entity)

	var cached models.EntityActivity
	err := s.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		s.metrics.RecordCacheHit()
		return models.FetchResult{
			Entity:   entity.Key(),
			Activity: &cached,
			Provider: models.ProviderCache,
		}
	case errors.Is(err, cache.ErrCacheMiss):
	default:
		// Cache trouble degrades to the chain, never fails the entity.
		s.metrics.RecordError("cache")
		s.log.Warn("cache unavailable, falling through to providers",
			logger.String("entity", entity.Key()), logger.Error(err))
	}

	guards := s.chain.For(entity.Category)
	if len(guards) == 0 {
		s.metrics.RecordSkip()
		return s.skip(entity, fmt.Errorf("no providers serve category %q", entity.Category))
	}

	var lastErr error
	for _, guard := range guards {
		if ctx.Err() != nil {
			s.metrics.RecordSkip()
			return s.skip(entity, ctx.Err())
		}

		start := time.Now()
		activity, err := guard.Fetch(ctx, entity)
		elapsed := time.Since(start)
		if err != nil {
			lastErr = err
			s.metrics.RecordFetch(guard.Name(), "error", elapsed.Seconds())
			if !errors.Is(err, provider.ErrProviderNoData) {
				s.log.Debug("provider failed, trying next",
					logger.String("entity", entity.Key()),
					logger.String("provider", guard.Name()),
					logger.Error(err))
			}
			continue
		}

		s.metrics.RecordFetch(guard.Name(), "success", elapsed.Seconds())
		if err := s.cache.Set(ctx, key, activity, guard.CacheTTL()); err != nil {
			s.metrics.RecordError("cache")
			s.log.Warn("cache write failed", logger.String("entity", entity.Key()), logger.Error(err))
		}
		return models.FetchResult{
			Entity:   entity.Key(),
			Activity: activity,
			Provider: guard.Name(),
			Latency:  elapsed,
		}
	}

	s.metrics.RecordSkip()
	return s.skip(entity, lastErr)
}

func (s *Scheduler) skip(entity *models.WatchedEntity, err error) models.FetchResult {
	return models.FetchResult{
		Entity:   entity.Key(),
		Provider: models.ProviderNone,
		Err:      err,
	}
}

func activityKey(entity *models.WatchedEntity) string {
	return cache.GenerateKey("activity", entity.Key())
}
