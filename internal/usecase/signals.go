package usecase

import (
	"fmt"
	"sync"
	"time"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
)

// Default signal weights, overridable per-kind from configuration.
// Penalties are negative.
var defaultWeights = map[string]float64{
	"smart_wallet_buying":    3.0,
	"multiple_smart_wallets": 2.0,
	"github_active":          2.0,
	"news_positive":          1.5,
	"news_trending":          2.0,
	"volume_building":        3.0,
	"fresh_token":            1.5,
	"holder_growth":          2.0,

	"coordinated_pump":   -4.0,
	"honeypot":           -5.0,
	"already_pumped":     -2.0,
	"low_liquidity":      -1.5,
	"bearish_divergence": -3.0,
}

const (
	freshPoolMaxAgeHours = 24.0
	lowLiquidityFloorUSD = 10_000.0
	alreadyPumpedPct     = 300.0
	bearishDropPct       = -30.0
	trendingVoteBalance  = 5.0
)

// SignalBuilder turns admitted events and fresh market observations
// into weighted signals. Event signals carry a TTL so a buy seen once
// keeps contributing for a while; state signals are valid only for the
// cycle that observed them.
type SignalBuilder struct {
	weights map[string]float64
	ttl     time.Duration
}

func NewSignalBuilder(weights map[string]float64, ttl time.Duration) *SignalBuilder {
	merged := make(map[string]float64, len(defaultWeights))
	for kind, w := range defaultWeights {
		merged[kind] = w
	}
	for kind, w := range weights {
		merged[kind] = w
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SignalBuilder{weights: merged, ttl: ttl}
}

func (b *SignalBuilder) signal(subject, kind, source string, category models.SignalCategory, now time.Time, expires bool) models.Signal {
	s := models.Signal{
		Subject:   subject,
		Category:  category,
		Kind:      kind,
		Weight:    b.weights[kind],
		Source:    source,
		CreatedAt: now,
	}
	if expires {
		s.ExpiresAt = now.Add(b.ttl)
	}
	return s
}

// EventSignals maps freshly admitted events to signals. Events that
// failed ledger admission must not be passed in.
func (b *SignalBuilder) EventSignals(events []models.EventRecord, now time.Time) []models.Signal {
	var signals []models.Signal
	buyers := make(map[string]map[string]bool)

	for _, ev := range events {
		switch ev.Kind {
		case models.EventWalletBuy:
			signals = append(signals, b.signal(ev.Subject, "smart_wallet_buying", ev.Entity, models.CategoryWalletActivity, now, true))
			if buyers[ev.Subject] == nil {
				buyers[ev.Subject] = make(map[string]bool)
			}
			buyers[ev.Subject][ev.Entity] = true

		case models.EventNewsItem:
			kind := "news_positive"
			if ev.Amount >= trendingVoteBalance {
				kind = "news_trending"
			}
			if ev.Amount <= 0 {
				continue
			}
			signals = append(signals, b.signal(ev.Subject, kind, ev.Entity, models.CategorySentiment, now, true))

		case models.EventRepoPush:
			signals = append(signals, b.signal(ev.Subject, "github_active", ev.Entity, models.CategoryDevActivity, now, true))
		}
	}

	// Several distinct wallets converging on one subject in the same
	// batch is its own signal.
	for subject, wallets := range buyers {
		if len(wallets) >= 2 {
			source := fmt.Sprintf("%d wallets", len(wallets))
			signals = append(signals, b.signal(subject, "multiple_smart_wallets", source, models.CategoryWalletActivity, now, true))
		}
	}
	return signals
}

// StateSignals maps point-in-time market observations to signals. These
// never enter the pool: the next cycle replaces them wholesale.
func (b *SignalBuilder) StateSignals(states []models.SubjectState, now time.Time) []models.Signal {
	var signals []models.Signal
	for _, st := range states {
		if st.Subject == "" {
			continue
		}

		if st.LiquidityUSD > 0 && st.Volume24h > 2*st.LiquidityUSD {
			signals = append(signals, b.signal(st.Subject, "volume_building", "market", models.CategoryVolume, now, false))
		}
		if st.PoolAgeHours > 0 && st.PoolAgeHours <= freshPoolMaxAgeHours {
			signals = append(signals, b.signal(st.Subject, "fresh_token", "market", models.CategoryFreshness, now, false))
		}
		if st.Accumulation {
			signals = append(signals, b.signal(st.Subject, "holder_growth", "market", models.CategoryHolderGrowth, now, false))
		}

		if st.Honeypot {
			signals = append(signals, b.signal(st.Subject, "honeypot", "market", models.CategoryPenalty, now, false))
		}
		if st.CoordinatedPump {
			signals = append(signals, b.signal(st.Subject, "coordinated_pump", "market", models.CategoryPenalty, now, false))
		}
		if st.LiquidityUSD > 0 && st.LiquidityUSD < lowLiquidityFloorUSD {
			signals = append(signals, b.signal(st.Subject, "low_liquidity", "market", models.CategoryPenalty, now, false))
		}
		if st.PriceChange24h >= alreadyPumpedPct {
			signals = append(signals, b.signal(st.Subject, "already_pumped", "market", models.CategoryPenalty, now, false))
		}
		// Sellers dominating a steep drop means distribution, not a dip.
		if st.PriceChange24h <= bearishDropPct && st.Sells24h > st.Buys24h {
			signals = append(signals, b.signal(st.Subject, "bearish_divergence", "market", models.CategoryPenalty, now, false))
		}
	}
	return signals
}

// SignalPool holds event-derived signals across cycles until their TTL
// runs out. Safe for concurrent use.
type SignalPool struct {
	mu      sync.Mutex
	signals []models.Signal
}

func NewSignalPool() *SignalPool {
	return &SignalPool{}
}

// Add appends signals to the pool.
func (p *SignalPool) Add(signals []models.Signal) {
	if len(signals) == 0 {
		return
	}
	p.mu.Lock()
	p.signals = append(p.signals, signals...)
	p.mu.Unlock()
}

// Active prunes expired signals and returns the live set.
func (p *SignalPool) Active(now time.Time) []models.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()

	live := p.signals[:0]
	for _, s := range p.signals {
		if s.Active(now) {
			live = append(live, s)
		}
	}
	p.signals = live

	out := make([]models.Signal, len(live))
	copy(out, live)
	return out
}
