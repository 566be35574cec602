package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
)

// 44 and 32 base58 characters respectively.
const (
	addrA = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	addrB = "4Nd1mYvM7K2ZqPBHiRwW8GxQcVTkFjDa"
)

type fakeLeaderboard struct {
	traders []Trader
	err     error
}

func (f *fakeLeaderboard) TopTraders(ctx context.Context) ([]Trader, error) {
	return f.traders, f.err
}

type fakeRegistry struct {
	entities []*models.WatchedEntity
	added    []*models.WatchedEntity
}

func (f *fakeRegistry) LoadAll(ctx context.Context) ([]*models.WatchedEntity, error) {
	return f.entities, nil
}

func (f *fakeRegistry) ReplaceAll(ctx context.Context, entities []*models.WatchedEntity) error {
	f.entities = entities
	return nil
}

func (f *fakeRegistry) Add(ctx context.Context, entity *models.WatchedEntity) error {
	f.added = append(f.added, entity)
	return nil
}

func (f *fakeRegistry) Deactivate(ctx context.Context, key string) error { return nil }

func (f *fakeRegistry) TouchScanned(ctx context.Context, key string, at time.Time) error {
	return nil
}

func TestRunFiltersAndRegisters(t *testing.T) {
	source := &fakeLeaderboard{traders: []Trader{
		{Address: addrA, PnLUSD: 50_000, WinRate: 0.7, Trades: 40},
		{Address: addrB, PnLUSD: 12_000, WinRate: 0.6, Trades: 25},
		{Address: addrA[:10], PnLUSD: 90_000, WinRate: 0.9, Trades: 100}, // malformed address
		{Address: addrB, PnLUSD: 500, WinRate: 0.9, Trades: 100},        // pnl below floor
	}}
	reg := &fakeRegistry{}
	d := NewDiscoverer(source, reg, logger.Nop())

	report, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, report.Fetched)
	require.Equal(t, 2, report.Qualified)
	require.Equal(t, 2, report.Added)

	// Highest PnL registers first.
	require.Equal(t, addrA, reg.added[0].Address)
	require.Equal(t, models.CategoryWalletSolana, reg.added[0].Category)
}

func TestRunSkipsTrackedWallets(t *testing.T) {
	source := &fakeLeaderboard{traders: []Trader{
		{Address: addrA, PnLUSD: 50_000, WinRate: 0.7, Trades: 40},
	}}
	reg := &fakeRegistry{entities: []*models.WatchedEntity{
		{Address: addrA, Category: models.CategoryWalletSolana, Active: true},
	}}
	d := NewDiscoverer(source, reg, logger.Nop())

	report, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.AlreadyTracked)
	require.Zero(t, report.Added)
	require.Empty(t, reg.added)
}

func TestRunHonorsWalletCap(t *testing.T) {
	source := &fakeLeaderboard{traders: []Trader{
		{Address: addrA, PnLUSD: 50_000, WinRate: 0.7, Trades: 40},
		{Address: addrB, PnLUSD: 40_000, WinRate: 0.7, Trades: 40},
	}}
	reg := &fakeRegistry{}
	d := NewDiscoverer(source, reg, logger.Nop(), WithMaxWallets(1))

	report, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Added)
	require.Equal(t, addrA, reg.added[0].Address)
}

func TestNormalizeTraderFieldVariants(t *testing.T) {
	raw := gmgnTrader{
		Address:        addrA,
		RealizedProfit: 20_000,
		WinrateB:       65, // percent form
		Buys:           30,
		Sells:          15,
	}
	tr := raw.normalize()
	require.Equal(t, addrA, tr.Address)
	require.Equal(t, 20_000.0, tr.PnLUSD)
	require.InDelta(t, 0.65, tr.WinRate, 1e-9)
	require.Equal(t, 45, tr.Trades)
}

func TestValidSolanaAddress(t *testing.T) {
	require.True(t, validSolanaAddress(addrA))
	require.True(t, validSolanaAddress(addrB))
	require.False(t, validSolanaAddress("too-short"))
	require.False(t, validSolanaAddress(addrA+"00000000000000")) // too long
	require.False(t, validSolanaAddress("0OIl"+addrB[4:]))       // excluded glyphs
}
