package repository

import (
	"context"
	"time"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
)

// Registry persists the set of watched entities. Load all / replace all /
// add one semantics; entities are deactivated, never deleted.
type Registry interface {
	LoadAll(ctx context.Context) ([]*models.WatchedEntity, error)
	ReplaceAll(ctx context.Context, entities []*models.WatchedEntity) error
	Add(ctx context.Context, entity *models.WatchedEntity) error
	Deactivate(ctx context.Context, key string) error
	TouchScanned(ctx context.Context, key string, at time.Time) error
}

// Ledger is the single source of truth for "has this event already
// produced a signal". Admit returns true exactly once per event ID, even
// under concurrent calls. Implementations synchronize internally.
type Ledger interface {
	Admit(ctx context.Context, eventID string) (bool, error)
	Close() error
}

// AlertLog is the append-only record of emitted alerts.
type AlertLog interface {
	Append(ctx context.Context, alerts []models.AlertRecord) error
	ListSince(ctx context.Context, since time.Time, minComposite float64) ([]models.AlertRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// EventArchive keeps admitted events for offline analysis. Archiving is
// best effort and never blocks alerting.
type EventArchive interface {
	Archive(ctx context.Context, cycleID string, events []models.EventRecord) error
}

// Publisher delivers emitted alerts to a downstream channel.
type Publisher interface {
	Publish(ctx context.Context, alert models.AlertRecord) error
	Close() error
}

// PriceLookup resolves the current reference value for a subject. Used
// only by the backtest evaluator; unresolvable subjects report
// provider.ErrSubjectUnresolvable.
type PriceLookup interface {
	CurrentPrice(ctx context.Context, subject string) (float64, error)
}

// Metrics records operational measurements.
type Metrics interface {
	RecordFetch(provider, outcome string, seconds float64)
	RecordCacheHit()
	RecordSkip()
	RecordAlert(tier string)
	RecordCycle(seconds float64)
	RecordError(kind string)
}
