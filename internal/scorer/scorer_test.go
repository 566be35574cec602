package scorer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func sig(cat models.SignalCategory, kind string, weight float64) models.Signal {
	return models.Signal{
		Subject:   "mint-a",
		Category:  cat,
		Kind:      kind,
		Weight:    weight,
		CreatedAt: testNow,
	}
}

func TestScoreTripleConfirmation(t *testing.T) {
	s := NewScorer()
	score := s.Score("mint-a", []models.Signal{
		sig(models.CategoryWalletActivity, "smart_wallet_buying", 3.0),
		sig(models.CategoryVolume, "volume_building", 3.0),
		sig(models.CategoryHolderGrowth, "holder_growth", 2.0),
	}, testNow)

	require.Equal(t, 8.0, score.RawScore)
	require.Equal(t, 3, score.Confirmations)
	require.Equal(t, 1.2, score.Multiplier)
	require.InDelta(t, 9.6, score.Composite, 1e-9)
	require.Equal(t, models.TierPriority, score.Tier)
}

func TestScoreSingleCategoryDampened(t *testing.T) {
	s := NewScorer()
	score := s.Score("mint-a", []models.Signal{
		sig(models.CategoryWalletActivity, "smart_wallet_buying", 3.0),
	}, testNow)

	require.Equal(t, 3.0, score.RawScore)
	require.Equal(t, 1, score.Confirmations)
	require.Equal(t, 0.7, score.Multiplier)
	require.InDelta(t, 2.1, score.Composite, 1e-9)
	require.Equal(t, models.TierNone, score.Tier)
}

func TestScoreTwoCategoriesNeutralMultiplier(t *testing.T) {
	s := NewScorer()
	score := s.Score("mint-a", []models.Signal{
		sig(models.CategoryWalletActivity, "smart_wallet_buying", 3.0),
		sig(models.CategoryVolume, "volume_building", 3.0),
	}, testNow)

	require.Equal(t, 2, score.Confirmations)
	require.Equal(t, 1.0, score.Multiplier)
	require.InDelta(t, 6.0, score.Composite, 1e-9)
	require.Equal(t, models.TierStandard, score.Tier)
}

func TestScorePenaltyNeverConfirms(t *testing.T) {
	s := NewScorer()
	score := s.Score("mint-a", []models.Signal{
		sig(models.CategoryWalletActivity, "smart_wallet_buying", 3.0),
		sig(models.CategoryPenalty, "honeypot", -5.0),
	}, testNow)

	require.Equal(t, -2.0, score.RawScore)
	require.Equal(t, 1, score.Confirmations)
	require.Equal(t, 0.7, score.Multiplier)
	require.InDelta(t, -1.4, score.Composite, 1e-9)
	require.Equal(t, models.TierNone, score.Tier)
}

func TestScoreHighCompositeWithoutBreadthStaysStandard(t *testing.T) {
	s := NewScorer()
	score := s.Score("mint-a", []models.Signal{
		sig(models.CategoryWalletActivity, "smart_wallet_buying", 3.0),
		sig(models.CategoryWalletActivity, "multiple_smart_wallets", 2.0),
		sig(models.CategoryVolume, "volume_building", 3.0),
	}, testNow)

	require.Equal(t, 2, score.Confirmations)
	require.InDelta(t, 8.0, score.Composite, 1e-9)
	require.Equal(t, models.TierStandard, score.Tier)
}

func TestScoreExpiredSignalsIgnored(t *testing.T) {
	s := NewScorer()
	expired := sig(models.CategoryVolume, "volume_building", 3.0)
	expired.ExpiresAt = testNow.Add(-time.Minute)

	score := s.Score("mint-a", []models.Signal{
		sig(models.CategoryWalletActivity, "smart_wallet_buying", 3.0),
		expired,
	}, testNow)

	require.Equal(t, 3.0, score.RawScore)
	require.Equal(t, 1, score.Confirmations)
	require.Len(t, score.Signals, 1)
}

func TestScoreOrderIndependent(t *testing.T) {
	s := NewScorer()
	signals := []models.Signal{
		sig(models.CategoryWalletActivity, "smart_wallet_buying", 3.0),
		sig(models.CategoryVolume, "volume_building", 3.0),
		sig(models.CategoryPenalty, "low_liquidity", -1.5),
		sig(models.CategoryHolderGrowth, "holder_growth", 2.0),
	}
	reversed := make([]models.Signal, len(signals))
	for i, v := range signals {
		reversed[len(signals)-1-i] = v
	}

	a := s.Score("mint-a", signals, testNow)
	b := s.Score("mint-a", reversed, testNow)
	require.Equal(t, a, b)
}

func TestScoreOrderIndependentDecimalWeights(t *testing.T) {
	// 0.1 + 0.2 + 0.3 and 0.3 + 0.2 + 0.1 differ in their last bit;
	// the raw score must not depend on input order.
	s := NewScorer()
	signals := []models.Signal{
		sig(models.CategoryWalletActivity, "smart_wallet_buying", 0.1),
		sig(models.CategoryVolume, "volume_building", 0.2),
		sig(models.CategoryHolderGrowth, "holder_growth", 0.3),
	}
	reversed := make([]models.Signal, len(signals))
	for i, v := range signals {
		reversed[len(signals)-1-i] = v
	}

	a := s.Score("mint-a", signals, testNow)
	b := s.Score("mint-a", reversed, testNow)
	require.Equal(t, a, b)
}

func TestScoreOrderIndependentSameKind(t *testing.T) {
	// Two signals of the same kind from different wallets: output order
	// must still be canonical.
	s := NewScorer()
	fromA := sig(models.CategoryWalletActivity, "smart_wallet_buying", 3.0)
	fromA.Source = "wallet-a"
	fromB := sig(models.CategoryWalletActivity, "smart_wallet_buying", 3.0)
	fromB.Source = "wallet-b"

	a := s.Score("mint-a", []models.Signal{fromA, fromB}, testNow)
	b := s.Score("mint-a", []models.Signal{fromB, fromA}, testNow)
	require.Equal(t, a, b)
	require.Equal(t, "wallet-a", a.Signals[0].Source)
	require.Equal(t, "wallet-b", a.Signals[1].Source)
}

func TestScoreEmptySignalSet(t *testing.T) {
	s := NewScorer()
	score := s.Score("mint-a", nil, testNow)

	require.Zero(t, score.RawScore)
	require.Zero(t, score.Confirmations)
	require.Equal(t, 1.0, score.Multiplier)
	require.Equal(t, models.TierNone, score.Tier)
}

func TestScoreAllGroupsBySubject(t *testing.T) {
	s := NewScorer()
	other := sig(models.CategoryVolume, "volume_building", 3.0)
	other.Subject = "mint-b"

	scores := s.ScoreAll([]models.Signal{
		sig(models.CategoryWalletActivity, "smart_wallet_buying", 3.0),
		other,
	}, testNow)

	require.Len(t, scores, 2)
	require.Equal(t, "mint-a", scores[0].Subject)
	require.Equal(t, "mint-b", scores[1].Subject)
}
