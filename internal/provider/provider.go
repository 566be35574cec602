package provider

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
)

var (
	// ErrProviderTimeout marks a fetch that exceeded its configured
	// per-call timeout. Never fatal; the scheduler moves down the chain.
	ErrProviderTimeout = errors.New("provider: fetch timed out")

	// ErrProviderThrottled marks a fetch refused because the provider's
	// rate budget is exhausted or its circuit is open. The provider fails
	// immediately rather than queuing.
	ErrProviderThrottled = errors.New("provider: rate limit exhausted")

	// ErrProviderMalformed marks a payload that failed validation.
	// Treated identically to a timeout for fallback purposes.
	ErrProviderMalformed = errors.New("provider: malformed response")

	// ErrProviderNoData marks a source that has nothing buffered for the
	// entity right now. Streaming sources return it so the chain falls
	// through to a polling source.
	ErrProviderNoData = errors.New("provider: no data buffered")

	// ErrCacheUnavailable marks a cache store failure. Degrades to the
	// provider chain, never fatal.
	ErrCacheUnavailable = errors.New("provider: cache unavailable")

	// ErrLedgerUnavailable marks a dedup ledger failure. Fatal for the
	// cycle: without dedup guarantees no events may be admitted.
	ErrLedgerUnavailable = errors.New("provider: dedup ledger unavailable")

	// ErrSubjectUnresolvable marks a subject whose current reference
	// value cannot be resolved. Used only by the backtest evaluator.
	ErrSubjectUnresolvable = errors.New("provider: subject unresolvable")
)

// Recoverable reports whether an error is a provider-local failure the
// scheduler recovers from by falling through the chain.
func Recoverable(err error) bool {
	return errors.Is(err, ErrProviderTimeout) ||
		errors.Is(err, ErrProviderThrottled) ||
		errors.Is(err, ErrProviderMalformed) ||
		errors.Is(err, ErrProviderNoData)
}

// Source is the single capability every upstream data source implements.
// Concrete adapters are registered into a Chain, never hard-wired.
type Source interface {
	// Name identifies the source in logs, metrics and fetch results.
	Name() string

	// Fetch resolves one entity to its current activity.
	Fetch(ctx context.Context, entity *models.WatchedEntity) (*models.EntityActivity, error)

	// RateBudget returns the source's sustained requests-per-second
	// budget, used to build its limiter.
	RateBudget() rate.Limit
}

// Descriptor is the immutable configuration of one provider in a chain.
// Lower priority is tried first.
type Descriptor struct {
	Name       string
	Priority   int
	Timeout    time.Duration
	RateLimit  rate.Limit
	Burst      int
	CacheTTL   time.Duration
	Categories []models.Category
}

// Serves reports whether the descriptor can serve the given category.
func (d *Descriptor) Serves(cat models.Category) bool {
	for _, c := range d.Categories {
		if c == cat {
			return true
		}
	}
	return false
}
