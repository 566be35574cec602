package models

import "time"

// AlertTier is the discrete alert priority derived from a composite
// score and its confirmation count.
type AlertTier int

const (
	TierNone AlertTier = iota
	TierStandard
	TierPriority
)

func (t AlertTier) String() string {
	switch t {
	case TierPriority:
		return "PRIORITY"
	case TierStandard:
		return "STANDARD"
	default:
		return "NONE"
	}
}

// CompositeScore is the scorer's output for one subject in one cycle.
// It is recomputed fresh every cycle; only the dedup ledger's effect on
// which signals exist carries state across cycles.
type CompositeScore struct {
	Subject       string
	RawScore      float64
	Confirmations int
	Multiplier    float64
	Composite     float64
	Tier          AlertTier
	Signals       []Signal
}

// AlertRecord is one append-only entry in the alert log, consumed by the
// backtest evaluator and by downstream delivery.
type AlertRecord struct {
	Subject       string    `json:"subject"`
	Tier          string    `json:"tier"`
	Composite     float64   `json:"composite"`
	Confirmations int       `json:"confirmations"`
	EntryPrice    float64   `json:"entry_price"`
	CycleID       string    `json:"cycle_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// CycleSummary is the user-visible outcome of one scan cycle.
type CycleSummary struct {
	CycleID     string         `json:"cycle_id"`
	StartedAt   time.Time      `json:"started_at"`
	Elapsed     time.Duration  `json:"elapsed"`
	Entities    int            `json:"entities"`
	FromCache   int            `json:"from_cache"`
	ByProvider  map[string]int `json:"by_provider"`
	Skipped     int            `json:"skipped"`
	NewEvents   int            `json:"new_events"`
	Duplicates  int            `json:"duplicates"`
	Alerts      []AlertRecord  `json:"alerts"`
}
