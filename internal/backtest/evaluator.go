package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	"github.com/javiersolana/crypto-swarm/internal/domain/repository"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
)

// Evaluator replays past alerts against current reference prices.
// Subjects whose price cannot be resolved any more are reported apart
// from the aggregates rather than being counted as losses; a dead pair
// and a losing trade are different findings.
type Evaluator struct {
	alerts repository.AlertLog
	prices repository.PriceLookup
	log    *logger.Logger
}

func NewEvaluator(alerts repository.AlertLog, prices repository.PriceLookup, log *logger.Logger) *Evaluator {
	return &Evaluator{alerts: alerts, prices: prices, log: log}
}

// Evaluate builds a report over all alerts since the given time with at
// least the given composite. Alerts with a non-positive recorded entry
// price can never produce a meaningful gain and count as unresolved.
func (e *Evaluator) Evaluate(ctx context.Context, since time.Time, minComposite float64) (*models.BacktestReport, error) {
	alerts, err := e.alerts.ListSince(ctx, since, minComposite)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	report := &models.BacktestReport{GeneratedAt: time.Now()}
	seen := make(map[string]bool)
	var wins int
	var gainSum float64

	for _, alert := range alerts {
		// One verdict per subject; the earliest alert sets the entry.
		if seen[alert.Subject] {
			continue
		}
		seen[alert.Subject] = true

		if alert.EntryPrice <= 0 {
			report.Unresolved = append(report.Unresolved, alert.Subject)
			continue
		}

		current, err := e.prices.CurrentPrice(ctx, alert.Subject)
		if err != nil || current <= 0 {
			e.log.Debug("subject unresolvable in backtest",
				logger.String("subject", alert.Subject), logger.Error(err))
			report.Unresolved = append(report.Unresolved, alert.Subject)
			continue
		}

		gain := (current - alert.EntryPrice) / alert.EntryPrice
		record := models.BacktestRecord{
			Subject:      alert.Subject,
			Tier:         alert.Tier,
			EntryPrice:   alert.EntryPrice,
			CurrentPrice: current,
			Gain:         gain,
			Profitable:   gain > 0,
			AlertTime:    alert.Timestamp,
		}
		report.Records = append(report.Records, record)

		gainSum += gain
		if record.Profitable {
			wins++
		}
	}

	if n := len(report.Records); n > 0 {
		report.WinRate = float64(wins) / float64(n)
		report.MeanGain = gainSum / float64(n)
		best, worst := 0, 0
		for i, rec := range report.Records {
			if rec.Gain > report.Records[best].Gain {
				best = i
			}
			if rec.Gain < report.Records[worst].Gain {
				worst = i
			}
		}
		report.Best = &report.Records[best]
		report.Worst = &report.Records[worst]
	}

	return report, nil
}
