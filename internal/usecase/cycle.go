package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	drepo "github.com/javiersolana/crypto-swarm/internal/domain/repository"
	"github.com/javiersolana/crypto-swarm/internal/provider"
	"github.com/javiersolana/crypto-swarm/internal/scheduler"
	"github.com/javiersolana/crypto-swarm/internal/scorer"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
)

// Cycle runs one full scan: load entities, fetch activity, dedup
// events, build and score signals, emit alerts. A Cycle is reused
// across runs; it owns the signal pool and the per-subject alert
// cooldown state.
type Cycle struct {
	registry  drepo.Registry
	scheduler *scheduler.Scheduler
	ledger    drepo.Ledger
	builder   *SignalBuilder
	scorer    *scorer.Scorer
	alertLog  drepo.AlertLog
	publisher drepo.Publisher
	archive   drepo.EventArchive
	metrics   drepo.Metrics
	log       *logger.Logger

	pool          *SignalPool
	category      models.Category
	deadline      time.Duration
	cooldown      time.Duration
	inactiveAfter time.Duration
	alerted       map[string]time.Time
	now           func() time.Time
}

type CycleOption func(*Cycle)

// WithCycleDeadline bounds the wall-clock time of one scan.
func WithCycleDeadline(d time.Duration) CycleOption {
	return func(c *Cycle) {
		if d > 0 {
			c.deadline = d
		}
	}
}

// WithAlertCooldown suppresses repeat alerts for a subject within d.
func WithAlertCooldown(d time.Duration) CycleOption {
	return func(c *Cycle) {
		if d > 0 {
			c.cooldown = d
		}
	}
}

// WithCategoryFilter restricts scans to one entity category. Zero value
// scans everything.
func WithCategoryFilter(cat models.Category) CycleOption {
	return func(c *Cycle) {
		c.category = cat
	}
}

// WithEventArchive stores admitted events for offline replay. Archive
// failures are logged, never fatal.
func WithEventArchive(a drepo.EventArchive) CycleOption {
	return func(c *Cycle) {
		c.archive = a
	}
}

// WithInactiveAfter deactivates entities that have not been scanned
// successfully for d. Zero disables the sweep.
func WithInactiveAfter(d time.Duration) CycleOption {
	return func(c *Cycle) {
		c.inactiveAfter = d
	}
}

func NewCycle(
	registry drepo.Registry,
	sched *scheduler.Scheduler,
	ledger drepo.Ledger,
	builder *SignalBuilder,
	score *scorer.Scorer,
	alertLog drepo.AlertLog,
	publisher drepo.Publisher,
	metrics drepo.Metrics,
	log *logger.Logger,
	opts ...CycleOption,
) *Cycle {
	c := &Cycle{
		registry:  registry,
		scheduler: sched,
		ledger:    ledger,
		builder:   builder,
		scorer:    score,
		alertLog:  alertLog,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		pool:      NewSignalPool(),
		deadline:  3 * time.Minute,
		cooldown:  2 * time.Hour,
		alerted:   make(map[string]time.Time),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes one scan cycle. A dedup ledger failure aborts the cycle:
// emitting duplicate alerts is worse than emitting none.
func (c *Cycle) Run(ctx context.Context) (*models.CycleSummary, error) {
	start := c.now()
	for subject, at := range c.alerted {
		if start.Sub(at) >= c.cooldown {
			delete(c.alerted, subject)
		}
	}

	summary := &models.CycleSummary{
		CycleID:    uuid.NewString(),
		StartedAt:  start,
		ByProvider: make(map[string]int),
	}

	entities, err := c.registry.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entities: %w", err)
	}
	active := make([]*models.WatchedEntity, 0, len(entities))
	for _, entity := range entities {
		if !entity.Active {
			continue
		}
		if c.category != "" && entity.Category != c.category {
			continue
		}
		// A long run of failed scans means every provider for the
		// entity is gone; stop burning budget on it.
		if c.inactiveAfter > 0 && !entity.LastScannedAt.IsZero() && start.Sub(entity.LastScannedAt) > c.inactiveAfter {
			if err := c.registry.Deactivate(ctx, entity.Key()); err != nil {
				c.log.Warn("deactivate failed", logger.String("entity", entity.Key()), logger.Error(err))
			} else {
				c.log.Info("entity deactivated after scan drought", logger.String("entity", entity.Key()))
			}
			continue
		}
		active = append(active, entity)
	}
	summary.Entities = len(active)
	if len(active) == 0 {
		summary.Elapsed = c.now().Sub(start)
		return summary, nil
	}

	cctx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()
	results := c.scheduler.Run(cctx, active)

	var events []models.EventRecord
	var states []models.SubjectState
	for _, res := range results {
		if res.Skipped() {
			summary.Skipped++
			continue
		}
		summary.ByProvider[res.Provider]++
		if res.Provider == models.ProviderCache {
			summary.FromCache++
		}
		if err := c.registry.TouchScanned(ctx, res.Entity, start); err != nil {
			c.log.Warn("touch scanned failed", logger.String("entity", res.Entity), logger.Error(err))
		}
		if res.Activity != nil {
			events = append(events, res.Activity.Events...)
			states = append(states, res.Activity.States...)
		}
	}

	admitted := make([]models.EventRecord, 0, len(events))
	for _, ev := range events {
		ok, err := c.ledger.Admit(ctx, ev.ID)
		if err != nil {
			if errors.Is(err, provider.ErrLedgerUnavailable) {
				return nil, fmt.Errorf("cycle %s aborted: %w", summary.CycleID, err)
			}
			return nil, fmt.Errorf("admit event %s: %w", ev.ID, err)
		}
		if ok {
			admitted = append(admitted, ev)
		} else {
			summary.Duplicates++
		}
	}
	summary.NewEvents = len(admitted)

	if c.archive != nil && len(admitted) > 0 {
		if err := c.archive.Archive(ctx, summary.CycleID, admitted); err != nil {
			c.metrics.RecordError("event_archive")
			c.log.Warn("event archive failed", logger.Error(err))
		}
	}

	now := c.now()
	c.pool.Add(c.builder.EventSignals(admitted, now))
	signals := append(c.pool.Active(now), c.builder.StateSignals(states, now)...)

	prices := make(map[string]float64, len(states))
	for _, st := range states {
		prices[st.Subject] = st.PriceUSD
	}

	for _, score := range c.scorer.ScoreAll(signals, now) {
		if score.Tier == models.TierNone {
			continue
		}
		if last, ok := c.alerted[score.Subject]; ok && now.Sub(last) < c.cooldown {
			continue
		}

		alert := models.AlertRecord{
			Subject:       score.Subject,
			Tier:          score.Tier.String(),
			Composite:     score.Composite,
			Confirmations: score.Confirmations,
			EntryPrice:    prices[score.Subject],
			CycleID:       summary.CycleID,
			Timestamp:     now,
		}
		summary.Alerts = append(summary.Alerts, alert)
		c.alerted[score.Subject] = now
		c.metrics.RecordAlert(alert.Tier)
	}

	if len(summary.Alerts) > 0 {
		if err := c.alertLog.Append(ctx, summary.Alerts); err != nil {
			c.metrics.RecordError("alert_log")
			c.log.Error("alert log append failed", logger.Error(err))
		}
		for _, alert := range summary.Alerts {
			if err := c.publisher.Publish(ctx, alert); err != nil {
				c.metrics.RecordError("publish")
				c.log.Error("alert publish failed", logger.String("subject", alert.Subject), logger.Error(err))
			}
		}
	}

	summary.Elapsed = c.now().Sub(start)
	c.metrics.RecordCycle(summary.Elapsed.Seconds())
	c.log.Info("scan cycle complete",
		logger.String("cycle", summary.CycleID),
		logger.Int("entities", summary.Entities),
		logger.Int("from_cache", summary.FromCache),
		logger.Int("skipped", summary.Skipped),
		logger.Int("new_events", summary.NewEvents),
		logger.Int("duplicates", summary.Duplicates),
		logger.Int("alerts", len(summary.Alerts)),
		logger.Duration("elapsed", summary.Elapsed))
	return summary, nil
}
