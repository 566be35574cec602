package adapters

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	swarmhttp "github.com/javiersolana/crypto-swarm/pkg/http"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
)

// Mints that never count as a buy target.
var skipMints = map[string]bool{
	"So11111111111111111111111111111111111111112":  true, // wrapped SOL
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": true, // USDC
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": true, // USDT
}

// Helius resolves Solana wallets through the Helius enhanced
// transactions API. Parsed swaps where the wallet receives a
// non-stable mint become buy events.
type Helius struct {
	client   *swarmhttp.Client
	log      *logger.Logger
	apiKey   string
	baseURL  string
	budget   rate.Limit
	lookback time.Duration
}

type HeliusOption func(*Helius)

func WithHeliusLookback(d time.Duration) HeliusOption {
	return func(h *Helius) { h.lookback = d }
}

func WithHeliusRateBudget(r rate.Limit) HeliusOption {
	return func(h *Helius) { h.budget = r }
}

func NewHelius(client *swarmhttp.Client, log *logger.Logger, apiKey, baseURL string, opts ...HeliusOption) *Helius {
	h := &Helius{
		client:   client,
		log:      log,
		apiKey:   apiKey,
		baseURL:  baseURL,
		budget:   rate.Limit(5),
		lookback: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Helius) Name() string { return "helius" }

func (h *Helius) RateBudget() rate.Limit { return h.budget }

type heliusTransfer struct {
	FromUserAccount string  `json:"fromUserAccount"`
	ToUserAccount   string  `json:"toUserAccount"`
	Mint            string  `json:"mint"`
	TokenAmount     float64 `json:"tokenAmount"`
	Amount          float64 `json:"amount"`
}

type heliusTransaction struct {
	Signature       string           `json:"signature"`
	Timestamp       int64            `json:"timestamp"`
	TokenTransfers  []heliusTransfer `json:"tokenTransfers"`
	NativeTransfers []heliusTransfer `json:"nativeTransfers"`
}

func (h *Helius) Fetch(ctx context.Context, entity *models.WatchedEntity) (*models.EntityActivity, error) {
	var txs []heliusTransaction
	err := h.client.SendAndParse(ctx, &swarmhttp.RequestOptions{
		Method: "GET",
		URL:    fmt.Sprintf("%s/v0/addresses/%s/transactions", h.baseURL, entity.Address),
		QueryParams: map[string][]string{
			"api-key": {h.apiKey},
			"type":    {"SWAP"},
		},
	}, &txs)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-h.lookback)
	activity := &models.EntityActivity{Entity: entity.Key()}
	for _, tx := range txs {
		ev, ok := h.parseSwap(&tx, entity, cutoff)
		if !ok {
			continue
		}
		activity.Events = append(activity.Events, ev)
	}
	h.log.Debug("helius wallet scanned",
		logger.String("wallet", entity.Address),
		logger.Int("transactions", len(txs)),
		logger.Int("buys", len(activity.Events)))
	return activity, nil
}

func (h *Helius) parseSwap(tx *heliusTransaction, entity *models.WatchedEntity, cutoff time.Time) (models.EventRecord, bool) {
	if tx.Signature == "" || tx.Timestamp == 0 {
		return models.EventRecord{}, false
	}
	ts := time.Unix(tx.Timestamp, 0)
	if ts.Before(cutoff) {
		return models.EventRecord{}, false
	}

	var boughtMint string
	var boughtAmount float64
	for _, tr := range tx.TokenTransfers {
		if tr.ToUserAccount == entity.Address && tr.Mint != "" && !skipMints[tr.Mint] {
			boughtMint = tr.Mint
			boughtAmount = tr.TokenAmount
		}
	}
	if boughtMint == "" {
		return models.EventRecord{}, false
	}

	return models.EventRecord{
		ID:        "buy:" + tx.Signature,
		Entity:    entity.Key(),
		Subject:   boughtMint,
		Kind:      models.EventWalletBuy,
		Timestamp: ts,
		Amount:    boughtAmount,
		Label:     entity.Label,
	}, true
}
