package provider

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	xhttp "github.com/javiersolana/crypto-swarm/pkg/http"
)

type stubSource struct {
	name string
	fn   func(ctx context.Context, e *models.WatchedEntity) (*models.EntityActivity, error)
}

func (s *stubSource) Name() string           { return s.name }
func (s *stubSource) RateBudget() rate.Limit { return rate.Inf }

func (s *stubSource) Fetch(ctx context.Context, e *models.WatchedEntity) (*models.EntityActivity, error) {
	if s.fn != nil {
		return s.fn(ctx, e)
	}
	return &models.EntityActivity{Entity: e.Address}, nil
}

func okSource(name string) *stubSource { return &stubSource{name: name} }

func desc(name string, priority int, cats ...models.Category) Descriptor {
	return Descriptor{
		Name:       name,
		Priority:   priority,
		Timeout:    time.Second,
		RateLimit:  rate.Inf,
		Categories: cats,
	}
}

func TestChainOrderedByPriority(t *testing.T) {
	chain, err := Build([]Registration{
		{Source: okSource("slow"), Descriptor: desc("slow", 2, models.CategoryWalletSolana)},
		{Source: okSource("fast"), Descriptor: desc("fast", 0, models.CategoryWalletSolana)},
		{Source: okSource("mid"), Descriptor: desc("mid", 1, models.CategoryWalletSolana)},
	})
	require.NoError(t, err)

	guards := chain.For(models.CategoryWalletSolana)
	require.Len(t, guards, 3)
	require.Equal(t, "fast", guards[0].Name())
	require.Equal(t, "mid", guards[1].Name())
	require.Equal(t, "slow", guards[2].Name())
}

func TestChainFiltersByCategory(t *testing.T) {
	chain, err := Build([]Registration{
		{Source: okSource("sol"), Descriptor: desc("sol", 0, models.CategoryWalletSolana)},
		{Source: okSource("evm"), Descriptor: desc("evm", 0, models.CategoryWalletEVM)},
	})
	require.NoError(t, err)

	require.Len(t, chain.For(models.CategoryWalletSolana), 1)
	require.Len(t, chain.For(models.CategoryWalletEVM), 1)
	require.Empty(t, chain.For(models.CategoryNewsFeed))
}

func TestBuildRejectsUncategorizedProvider(t *testing.T) {
	_, err := Build([]Registration{
		{Source: okSource("orphan"), Descriptor: Descriptor{Name: "orphan"}},
	})
	require.Error(t, err)
}

func TestGuardThrottlesImmediately(t *testing.T) {
	d := desc("budget1", 0, models.CategoryWalletSolana)
	d.RateLimit = rate.Every(time.Hour)
	d.Burst = 1
	g := NewGuard(okSource("budget1"), d)

	entity := &models.WatchedEntity{Address: "w1", Category: models.CategoryWalletSolana}

	start := time.Now()
	_, err := g.Fetch(context.Background(), entity)
	require.NoError(t, err)

	_, err = g.Fetch(context.Background(), entity)
	require.ErrorIs(t, err, ErrProviderThrottled)
	require.Less(t, time.Since(start), 200*time.Millisecond, "throttle must not queue")
}

func TestGuardClassifiesUpstream429(t *testing.T) {
	limited := &stubSource{name: "limited", fn: func(ctx context.Context, e *models.WatchedEntity) (*models.EntityActivity, error) {
		return nil, &xhttp.StatusError{Code: http.StatusTooManyRequests, Body: "rate limit exceeded"}
	}}
	g := NewGuard(limited, desc("limited", 0, models.CategoryWalletSolana))

	entity := &models.WatchedEntity{Address: "w1", Category: models.CategoryWalletSolana}
	_, err := g.Fetch(context.Background(), entity)
	require.ErrorIs(t, err, ErrProviderThrottled)
	require.NotErrorIs(t, err, ErrProviderTimeout)
}

func TestGuardTimesOutSlowSource(t *testing.T) {
	slow := &stubSource{name: "slow", fn: func(ctx context.Context, e *models.WatchedEntity) (*models.EntityActivity, error) {
		select {
		case <-time.After(time.Second):
			return &models.EntityActivity{Entity: e.Address}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}
	d := desc("slow", 0, models.CategoryWalletSolana)
	d.Timeout = 30 * time.Millisecond
	g := NewGuard(slow, d)

	_, err := g.Fetch(context.Background(), &models.WatchedEntity{Address: "w1"})
	require.ErrorIs(t, err, ErrProviderTimeout)
}

func TestGuardRejectsMalformedPayload(t *testing.T) {
	bad := &stubSource{name: "bad", fn: func(ctx context.Context, e *models.WatchedEntity) (*models.EntityActivity, error) {
		return &models.EntityActivity{}, nil // missing entity
	}}
	g := NewGuard(bad, desc("bad", 0, models.CategoryWalletSolana))

	_, err := g.Fetch(context.Background(), &models.WatchedEntity{Address: "w1"})
	require.ErrorIs(t, err, ErrProviderMalformed)
}
