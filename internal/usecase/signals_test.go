package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestEventSignalsWalletBuys(t *testing.T) {
	b := NewSignalBuilder(nil, time.Hour)
	events := []models.EventRecord{
		{ID: "buy:1", Entity: "wallet-solana:a", Subject: "mint-x", Kind: models.EventWalletBuy, Timestamp: testNow},
		{ID: "buy:2", Entity: "wallet-solana:b", Subject: "mint-x", Kind: models.EventWalletBuy, Timestamp: testNow},
	}

	signals := b.EventSignals(events, testNow)
	require.Len(t, signals, 3)

	kinds := make(map[string]int)
	for _, s := range signals {
		kinds[s.Kind]++
		require.Equal(t, "mint-x", s.Subject)
		require.Equal(t, testNow.Add(time.Hour), s.ExpiresAt)
	}
	require.Equal(t, 2, kinds["smart_wallet_buying"])
	require.Equal(t, 1, kinds["multiple_smart_wallets"])
}

func TestEventSignalsSingleWalletNoConvergence(t *testing.T) {
	b := NewSignalBuilder(nil, time.Hour)
	events := []models.EventRecord{
		{ID: "buy:1", Entity: "wallet-solana:a", Subject: "mint-x", Kind: models.EventWalletBuy, Timestamp: testNow},
	}

	signals := b.EventSignals(events, testNow)
	require.Len(t, signals, 1)
	require.Equal(t, "smart_wallet_buying", signals[0].Kind)
	require.Equal(t, 3.0, signals[0].Weight)
}

func TestEventSignalsNews(t *testing.T) {
	b := NewSignalBuilder(nil, time.Hour)
	events := []models.EventRecord{
		{ID: "news:1", Entity: "news-feed:PEPE", Subject: "PEPE", Kind: models.EventNewsItem, Amount: 2},
		{ID: "news:2", Entity: "news-feed:PEPE", Subject: "PEPE", Kind: models.EventNewsItem, Amount: 8},
		{ID: "news:3", Entity: "news-feed:PEPE", Subject: "PEPE", Kind: models.EventNewsItem, Amount: -3},
	}

	signals := b.EventSignals(events, testNow)
	require.Len(t, signals, 2)
	require.Equal(t, "news_positive", signals[0].Kind)
	require.Equal(t, "news_trending", signals[1].Kind)
}

func TestEventSignalsWeightOverride(t *testing.T) {
	b := NewSignalBuilder(map[string]float64{"github_active": 4.5}, time.Hour)
	events := []models.EventRecord{
		{ID: "push:1", Entity: "repo:o/r", Subject: "o/r", Kind: models.EventRepoPush},
	}

	signals := b.EventSignals(events, testNow)
	require.Len(t, signals, 1)
	require.Equal(t, 4.5, signals[0].Weight)
}

func TestStateSignalsHealthyToken(t *testing.T) {
	b := NewSignalBuilder(nil, time.Hour)
	states := []models.SubjectState{{
		Subject:      "mint-y",
		LiquidityUSD: 50_000,
		Volume24h:    150_000,
		PoolAgeHours: 6,
		Accumulation: true,
		ObservedAt:   testNow,
	}}

	signals := b.StateSignals(states, testNow)
	require.Len(t, signals, 3)

	kinds := make(map[string]bool)
	for _, s := range signals {
		kinds[s.Kind] = true
		require.True(t, s.ExpiresAt.IsZero())
	}
	require.True(t, kinds["volume_building"])
	require.True(t, kinds["fresh_token"])
	require.True(t, kinds["holder_growth"])
}

func TestStateSignalsPenalties(t *testing.T) {
	b := NewSignalBuilder(nil, time.Hour)
	states := []models.SubjectState{{
		Subject:        "mint-z",
		LiquidityUSD:   4_000,
		PriceChange24h: 450,
		Honeypot:       true,
		CoordinatedPump: true,
		ObservedAt:     testNow,
	}}

	signals := b.StateSignals(states, testNow)

	var total float64
	for _, s := range signals {
		require.Equal(t, models.CategoryPenalty, s.Category)
		total += s.Weight
	}
	require.Equal(t, -5.0-4.0-1.5-2.0, total)
}

func TestStateSignalsBearishDivergence(t *testing.T) {
	b := NewSignalBuilder(nil, time.Hour)
	states := []models.SubjectState{{
		Subject:        "mint-d",
		LiquidityUSD:   80_000,
		PriceChange24h: -45,
		Buys24h:        20,
		Sells24h:       120,
		ObservedAt:     testNow,
	}}

	signals := b.StateSignals(states, testNow)
	require.Len(t, signals, 1)
	require.Equal(t, "bearish_divergence", signals[0].Kind)
	require.Equal(t, -3.0, signals[0].Weight)
}

func TestSignalPoolPrunesExpired(t *testing.T) {
	p := NewSignalPool()
	p.Add([]models.Signal{
		{Subject: "a", Kind: "smart_wallet_buying", ExpiresAt: testNow.Add(time.Hour)},
		{Subject: "b", Kind: "smart_wallet_buying", ExpiresAt: testNow.Add(-time.Minute)},
	})

	active := p.Active(testNow)
	require.Len(t, active, 1)
	require.Equal(t, "a", active[0].Subject)

	// The expired signal is gone for good.
	require.Len(t, p.Active(testNow), 1)
}
