package models

import "time"

// SignalCategory names an independent signal source. Two signals from
// the same category never both count toward the confirmation count,
// though both contribute their weights.
type SignalCategory string

const (
	CategoryWalletActivity SignalCategory = "wallet-activity"
	CategorySentiment      SignalCategory = "sentiment"
	CategoryVolume         SignalCategory = "volume"
	CategoryFreshness      SignalCategory = "freshness"
	CategoryHolderGrowth   SignalCategory = "holder-growth"
	CategoryDevActivity    SignalCategory = "dev-activity"
	CategoryPenalty        SignalCategory = "penalty"
)

// Signal is one weighted, categorized observation about a subject.
// Penalty signals carry negative weights.
type Signal struct {
	Subject   string
	Category  SignalCategory
	Kind      string
	Weight    float64
	Source    string
	CreatedAt time.Time
	ExpiresAt time.Time // zero means no expiry
}

// Active reports whether the signal still counts at the given instant.
func (s *Signal) Active(now time.Time) bool {
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}
