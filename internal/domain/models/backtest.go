package models

import "time"

// BacktestRecord pairs a past alert emission with a later-observed
// reference value. Immutable once the later value is captured.
type BacktestRecord struct {
	Subject      string
	Tier         string
	EntryPrice   float64
	CurrentPrice float64
	Gain         float64
	Profitable   bool
	AlertTime    time.Time
}

// BacktestReport aggregates replayed alert performance. Unresolved
// subjects are excluded from WinRate and MeanGain but listed so they are
// never silently dropped.
type BacktestReport struct {
	Records    []BacktestRecord
	Unresolved []string
	WinRate    float64
	MeanGain   float64
	Best       *BacktestRecord
	Worst      *BacktestRecord
	GeneratedAt time.Time
}
