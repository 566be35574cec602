package provider

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	xhttp "github.com/javiersolana/crypto-swarm/pkg/http"
)

// Guard wraps a Source with the reliability policy every chain entry
// carries: token-bucket rate limiting, a per-call timeout, a circuit
// breaker, and payload validation. The guard enforces the contract that
// an exhausted rate budget fails immediately with ErrProviderThrottled
// instead of queuing; moving to the next provider is the scheduler's job.
type Guard struct {
	source  Source
	desc    Descriptor
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuard builds a guard from a source and its descriptor. A zero
// descriptor rate limit falls back to the source's own budget.
func NewGuard(source Source, desc Descriptor) *Guard {
	limit := desc.RateLimit
	if limit == 0 {
		limit = source.RateBudget()
	}
	burst := desc.Burst
	if burst <= 0 {
		burst = 1
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        desc.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// An empty stream buffer is not a provider failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrProviderNoData)
		},
	})

	return &Guard{
		source:  source,
		desc:    desc,
		limiter: rate.NewLimiter(limit, burst),
		breaker: cb,
	}
}

// Name returns the guarded provider's name.
func (g *Guard) Name() string { return g.desc.Name }

// Descriptor returns the provider's immutable configuration.
func (g *Guard) Descriptor() Descriptor { return g.desc }

// CacheTTL returns the TTL applied when this provider's payloads are
// written to the cache store. Defaults to five minutes.
func (g *Guard) CacheTTL() time.Duration {
	if g.desc.CacheTTL > 0 {
		return g.desc.CacheTTL
	}
	return 5 * time.Minute
}

// Fetch resolves one entity through the guarded source.
func (g *Guard) Fetch(ctx context.Context, entity *models.WatchedEntity) (*models.EntityActivity, error) {
	if !g.limiter.Allow() {
		return nil, ErrProviderThrottled
	}

	timeout := g.desc.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.source.Fetch(fctx, entity)
	})
	if err != nil {
		var statusErr *xhttp.StatusError
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, ErrProviderThrottled
		case errors.Is(err, context.DeadlineExceeded):
			return nil, ErrProviderTimeout
		case errors.As(err, &statusErr) && statusErr.Throttled():
			return nil, errors.Join(ErrProviderThrottled, err)
		case Recoverable(err):
			return nil, err
		default:
			// Transport-level failures behave like timeouts for the
			// fallback policy.
			return nil, errors.Join(ErrProviderTimeout, err)
		}
	}

	activity, ok := out.(*models.EntityActivity)
	if !ok || activity == nil || activity.Entity == "" {
		return nil, ErrProviderMalformed
	}
	return activity, nil
}
