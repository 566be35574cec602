package discovery

import (
	"context"
	"fmt"
	"sort"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	drepo "github.com/javiersolana/crypto-swarm/internal/domain/repository"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
)

// Trader is one leaderboard entry from a discovery source. WinRate is
// normalized to 0..1.
type Trader struct {
	Address string
	PnLUSD  float64
	WinRate float64
	Trades  int
	ROIPct  float64
}

// LeaderboardSource fetches candidate wallets from an external ranking.
type LeaderboardSource interface {
	TopTraders(ctx context.Context) ([]Trader, error)
}

// Report summarizes one discovery run.
type Report struct {
	Fetched        int `json:"fetched"`
	Qualified      int `json:"qualified"`
	AlreadyTracked int `json:"already_tracked"`
	Added          int `json:"added"`
}

// Discoverer turns leaderboard traders into watched wallet entities.
// Runs are operator-triggered; the registry stays the single source of
// truth for what is watched.
type Discoverer struct {
	source   LeaderboardSource
	registry drepo.Registry
	log      *logger.Logger

	minPnLUSD  float64
	minWinRate float64
	minTrades  int
	maxWallets int
}

type Option func(*Discoverer)

// WithQualityFloor sets the minimum realized profit, win rate and trade
// count a trader must show before being tracked.
func WithQualityFloor(minPnLUSD, minWinRate float64, minTrades int) Option {
	return func(d *Discoverer) {
		if minPnLUSD > 0 {
			d.minPnLUSD = minPnLUSD
		}
		if minWinRate > 0 {
			d.minWinRate = minWinRate
		}
		if minTrades > 0 {
			d.minTrades = minTrades
		}
	}
}

// WithMaxWallets caps how many wallets one run may add.
func WithMaxWallets(n int) Option {
	return func(d *Discoverer) {
		if n > 0 {
			d.maxWallets = n
		}
	}
}

func NewDiscoverer(source LeaderboardSource, registry drepo.Registry, log *logger.Logger, opts ...Option) *Discoverer {
	d := &Discoverer{
		source:   source,
		registry: registry,
		log:      log,

		minPnLUSD:  10_000,
		minWinRate: 0.55,
		minTrades:  20,
		maxWallets: 50,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run fetches the leaderboard, filters for quality, and registers
// wallets not already tracked. Best traders register first when the cap
// bites.
func (d *Discoverer) Run(ctx context.Context) (*Report, error) {
	traders, err := d.source.TopTraders(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	report := &Report{Fetched: len(traders)}

	qualified := make([]Trader, 0, len(traders))
	for _, tr := range traders {
		if !validSolanaAddress(tr.Address) {
			continue
		}
		if tr.PnLUSD < d.minPnLUSD || tr.WinRate < d.minWinRate || tr.Trades < d.minTrades {
			continue
		}
		qualified = append(qualified, tr)
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].PnLUSD > qualified[j].PnLUSD
	})
	report.Qualified = len(qualified)

	existing, err := d.registry.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	tracked := make(map[string]bool, len(existing))
	for _, e := range existing {
		if e.Category == models.CategoryWalletSolana {
			tracked[e.Address] = true
		}
	}

	for _, tr := range qualified {
		if report.Added >= d.maxWallets {
			break
		}
		if tracked[tr.Address] {
			report.AlreadyTracked++
			continue
		}

		entity := &models.WatchedEntity{
			Address:  tr.Address,
			Category: models.CategoryWalletSolana,
			Label:    fmt.Sprintf("discovered: pnl $%.0f wr %.0f%%", tr.PnLUSD, tr.WinRate*100),
		}
		if err := d.registry.Add(ctx, entity); err != nil {
			return report, fmt.Errorf("add wallet %s: %w", tr.Address, err)
		}
		tracked[tr.Address] = true
		report.Added++
	}

	d.log.Info("wallet discovery complete",
		logger.Int("fetched", report.Fetched),
		logger.Int("qualified", report.Qualified),
		logger.Int("already_tracked", report.AlreadyTracked),
		logger.Int("added", report.Added))
	return report, nil
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var base58Set = func() map[rune]bool {
	set := make(map[rune]bool, len(base58Alphabet))
	for _, r := range base58Alphabet {
		set[r] = true
	}
	return set
}()

// validSolanaAddress reports whether s looks like a base58 Solana
// address (32 to 44 characters, no 0/O/I/l).
func validSolanaAddress(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	for _, r := range s {
		if !base58Set[r] {
			return false
		}
	}
	return true
}
