package models

import "time"

// EventKind labels a uniquely identified occurrence parsed out of a
// provider payload.
type EventKind string

const (
	EventWalletBuy EventKind = "wallet-buy"
	EventNewsItem  EventKind = "news-item"
	EventRepoPush  EventKind = "repo-push"
)

// EventRecord is a single occurrence attributable to one watched entity,
// concerning one subject (typically a token address). The ID is globally
// unique; the dedup ledger guarantees no ID produces a signal twice.
type EventRecord struct {
	ID        string    `json:"id"`
	Entity    string    `json:"entity"`
	Subject   string    `json:"subject"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Amount    float64   `json:"amount,omitempty"`
	Label     string    `json:"label,omitempty"`
}

// SubjectState is a point-in-time observation of a subject's market
// state, reported by market providers. Unlike events it has no identity:
// the observations it yields are rebuilt fresh every cycle and never pass
// through the dedup ledger.
type SubjectState struct {
	Subject        string    `json:"subject"`
	PriceUSD       float64   `json:"price_usd"`
	LiquidityUSD   float64   `json:"liquidity_usd"`
	Volume24h      float64   `json:"volume_24h"`
	PriceChange24h float64   `json:"price_change_24h"`
	Buys24h        int       `json:"buys_24h"`
	Sells24h       int       `json:"sells_24h"`
	PoolAgeHours   float64   `json:"pool_age_hours"`
	Accumulation   bool      `json:"accumulation"`
	CoordinatedPump bool     `json:"coordinated_pump"`
	Honeypot       bool      `json:"honeypot"`
	ObservedAt     time.Time `json:"observed_at"`
}

// EntityActivity is the payload a provider returns for one entity:
// the unique events it found plus any subject state observations.
type EntityActivity struct {
	Entity  string         `json:"entity"`
	Events  []EventRecord  `json:"events"`
	States  []SubjectState `json:"states,omitempty"`
}
