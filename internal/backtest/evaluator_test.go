package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	"github.com/javiersolana/crypto-swarm/internal/provider"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
)

type fakeAlertLog struct {
	alerts []models.AlertRecord
	err    error
}

func (f *fakeAlertLog) Append(ctx context.Context, alerts []models.AlertRecord) error { return nil }

func (f *fakeAlertLog) ListSince(ctx context.Context, since time.Time, minComposite float64) ([]models.AlertRecord, error) {
	return f.alerts, f.err
}

func (f *fakeAlertLog) Health(ctx context.Context) error { return nil }

func (f *fakeAlertLog) Close() error { return nil }

type fakePrices struct {
	prices map[string]float64
}

func (f *fakePrices) CurrentPrice(ctx context.Context, subject string) (float64, error) {
	price, ok := f.prices[subject]
	if !ok {
		return 0, provider.ErrSubjectUnresolvable
	}
	return price, nil
}

func alert(subject string, entry float64) models.AlertRecord {
	return models.AlertRecord{
		Subject:    subject,
		Tier:       "PRIORITY",
		Composite:  8.0,
		EntryPrice: entry,
		Timestamp:  time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEvaluateAggregates(t *testing.T) {
	alerts := &fakeAlertLog{alerts: []models.AlertRecord{
		alert("mint-a", 1.0),
		alert("mint-b", 1.0),
		alert("mint-c", 1.0),
	}}
	prices := &fakePrices{prices: map[string]float64{
		"mint-a": 2.0, // +100%
		"mint-b": 0.5, // -50%
		// mint-c unresolvable
	}}

	e := NewEvaluator(alerts, prices, logger.Nop())
	report, err := e.Evaluate(context.Background(), time.Time{}, 0)
	require.NoError(t, err)

	require.Len(t, report.Records, 2)
	require.Equal(t, []string{"mint-c"}, report.Unresolved)
	require.InDelta(t, 0.5, report.WinRate, 1e-9)
	require.InDelta(t, 0.25, report.MeanGain, 1e-9)
	require.Equal(t, "mint-a", report.Best.Subject)
	require.Equal(t, "mint-b", report.Worst.Subject)
}

func TestEvaluateDedupesSubjects(t *testing.T) {
	early := alert("mint-a", 1.0)
	late := alert("mint-a", 4.0)
	late.Timestamp = early.Timestamp.Add(time.Hour)

	alerts := &fakeAlertLog{alerts: []models.AlertRecord{early, late}}
	prices := &fakePrices{prices: map[string]float64{"mint-a": 2.0}}

	e := NewEvaluator(alerts, prices, logger.Nop())
	report, err := e.Evaluate(context.Background(), time.Time{}, 0)
	require.NoError(t, err)

	require.Len(t, report.Records, 1)
	require.Equal(t, 1.0, report.Records[0].EntryPrice)
	require.InDelta(t, 1.0, report.Records[0].Gain, 1e-9)
}

func TestEvaluateZeroEntryPriceUnresolved(t *testing.T) {
	alerts := &fakeAlertLog{alerts: []models.AlertRecord{alert("mint-a", 0)}}
	prices := &fakePrices{prices: map[string]float64{"mint-a": 2.0}}

	e := NewEvaluator(alerts, prices, logger.Nop())
	report, err := e.Evaluate(context.Background(), time.Time{}, 0)
	require.NoError(t, err)

	require.Empty(t, report.Records)
	require.Equal(t, []string{"mint-a"}, report.Unresolved)
	require.Zero(t, report.WinRate)
}

func TestEvaluateEmptyLog(t *testing.T) {
	e := NewEvaluator(&fakeAlertLog{}, &fakePrices{}, logger.Nop())
	report, err := e.Evaluate(context.Background(), time.Time{}, 0)
	require.NoError(t, err)

	require.Empty(t, report.Records)
	require.Empty(t, report.Unresolved)
	require.Zero(t, report.WinRate)
	require.Zero(t, report.MeanGain)
	require.Nil(t, report.Best)
	require.Nil(t, report.Worst)
}
