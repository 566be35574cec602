package adapters

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	"github.com/javiersolana/crypto-swarm/internal/provider"
	swarmhttp "github.com/javiersolana/crypto-swarm/pkg/http"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
	"github.com/javiersolana/crypto-swarm/pkg/util"
)

// DexScreener resolves token market state from the DexScreener pairs
// API. It doubles as the reference price source for backtests.
type DexScreener struct {
	client  *swarmhttp.Client
	log     *logger.Logger
	baseURL string
	chain   string
	budget  rate.Limit
}

func NewDexScreener(client *swarmhttp.Client, log *logger.Logger, baseURL, chain string) *DexScreener {
	return &DexScreener{
		client:  client,
		log:     log,
		baseURL: baseURL,
		chain:   chain,
		budget:  rate.Limit(5),
	}
}

func (d *DexScreener) Name() string { return "dexscreener" }

func (d *DexScreener) RateBudget() rate.Limit { return d.budget }

type dexPair struct {
	PairAddress   string `json:"pairAddress"`
	PriceUSD      string `json:"priceUsd"`
	PairCreatedAt int64  `json:"pairCreatedAt"`
	Liquidity     struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Txns struct {
		H24 struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
}

func (d *DexScreener) Fetch(ctx context.Context, entity *models.WatchedEntity) (*models.EntityActivity, error) {
	pair, err := d.bestPair(ctx, entity.Address)
	if err != nil {
		return nil, err
	}

	activity := &models.EntityActivity{Entity: entity.Key()}
	if pair == nil {
		return activity, nil
	}

	now := time.Now()
	buys := pair.Txns.H24.Buys
	sells := pair.Txns.H24.Sells
	total := buys + sells

	state := models.SubjectState{
		Subject:        entity.Address,
		PriceUSD:       util.ParseFloatDefault(pair.PriceUSD, 0),
		LiquidityUSD:   pair.Liquidity.USD,
		Volume24h:      pair.Volume.H24,
		PriceChange24h: pair.PriceChange.H24,
		Buys24h:        buys,
		Sells24h:       sells,
		PoolAgeHours:   util.HoursSince(util.FromUnixMillis(pair.PairCreatedAt), now),
		Accumulation:   buys > 100 && float64(buys) > float64(sells)*1.5,
		ObservedAt:     now,
	}

	// Many buys with almost no sells is the classic honeypot footprint.
	if buys > 50 && sells < 5 {
		state.Honeypot = true
	}
	// Extremely one-sided flow on an already vertical chart reads as a
	// coordinated push rather than organic demand.
	if total > 100 && float64(buys) > float64(total)*0.9 && pair.PriceChange.H24 > 100 {
		state.CoordinatedPump = true
	}

	activity.States = append(activity.States, state)
	return activity, nil
}

// CurrentPrice resolves the present reference price of a subject.
func (d *DexScreener) CurrentPrice(ctx context.Context, subject string) (float64, error) {
	pair, err := d.bestPair(ctx, subject)
	if err != nil {
		return 0, err
	}
	if pair == nil {
		return 0, fmt.Errorf("%w: %s has no pairs", provider.ErrSubjectUnresolvable, subject)
	}
	price := util.ParseFloatDefault(pair.PriceUSD, 0)
	if price <= 0 {
		return 0, fmt.Errorf("%w: %s has no price", provider.ErrSubjectUnresolvable, subject)
	}
	return price, nil
}

// bestPair returns the deepest pair for a token, nil if none exist.
func (d *DexScreener) bestPair(ctx context.Context, token string) (*dexPair, error) {
	var pairs []dexPair
	err := d.client.SendAndParse(ctx, &swarmhttp.RequestOptions{
		Method: "GET",
		URL:    fmt.Sprintf("%s/tokens/v1/%s/%s", d.baseURL, d.chain, token),
	}, &pairs)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, nil
	}

	best := &pairs[0]
	for i := 1; i < len(pairs); i++ {
		if pairs[i].Liquidity.USD > best.Liquidity.USD {
			best = &pairs[i]
		}
	}
	return best, nil
}
