package scorer

import (
	"sort"
	"time"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
)

// Scorer folds a subject's active signals into one composite score and
// an alert tier. Scoring is pure: the same signal set always yields the
// same result, independent of signal order.
type Scorer struct {
	standardThreshold float64
	priorityThreshold float64
}

type Option func(*Scorer)

// WithThresholds sets the tier cutoffs. Priority must not be below
// standard; the config layer validates that before construction.
func WithThresholds(standard, priority float64) Option {
	return func(s *Scorer) {
		s.standardThreshold = standard
		s.priorityThreshold = priority
	}
}

func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		standardThreshold: 5.0,
		priorityThreshold: 7.0,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const (
	strongMultiplier = 1.2
	weakMultiplier   = 0.7

	strongConfirmations = 3
)

// Score computes the composite for one subject at the given instant.
// Expired signals are ignored entirely. Penalty weights reduce the raw
// score but never count as confirmations.
func (s *Scorer) Score(subject string, signals []models.Signal, now time.Time) models.CompositeScore {
	active := make([]models.Signal, 0, len(signals))
	for _, sig := range signals {
		if sig.Active(now) {
			active = append(active, sig)
		}
	}

	// Canonical order before summing: float addition is not
	// associative, so the accumulation order must not depend on the
	// caller's ordering.
	sort.SliceStable(active, func(i, j int) bool {
		a, b := active[i], active[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	var raw float64
	confirming := make(map[models.SignalCategory]bool)
	for _, sig := range active {
		raw += sig.Weight
		if sig.Weight > 0 && sig.Category != models.CategoryPenalty {
			confirming[sig.Category] = true
		}
	}

	confirmations := len(confirming)
	multiplier := 1.0
	switch {
	case confirmations >= strongConfirmations:
		multiplier = strongMultiplier
	case confirmations == 1:
		multiplier = weakMultiplier
	}

	composite := raw * multiplier

	tier := models.TierNone
	switch {
	case composite >= s.priorityThreshold && confirmations >= strongConfirmations:
		tier = models.TierPriority
	case composite >= s.standardThreshold:
		tier = models.TierStandard
	}

	return models.CompositeScore{
		Subject:       subject,
		RawScore:      raw,
		Confirmations: confirmations,
		Multiplier:    multiplier,
		Composite:     composite,
		Tier:          tier,
		Signals:       active,
	}
}

// ScoreAll scores every subject in the signal set, keyed by subject.
func (s *Scorer) ScoreAll(signals []models.Signal, now time.Time) []models.CompositeScore {
	bySubject := make(map[string][]models.Signal)
	for _, sig := range signals {
		bySubject[sig.Subject] = append(bySubject[sig.Subject], sig)
	}

	subjects := make([]string, 0, len(bySubject))
	for subject := range bySubject {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	scores := make([]models.CompositeScore, 0, len(subjects))
	for _, subject := range subjects {
		scores = append(scores, s.Score(subject, bySubject[subject], now))
	}
	return scores
}
