package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	"github.com/javiersolana/crypto-swarm/internal/provider"
	swarmhttp "github.com/javiersolana/crypto-swarm/pkg/http"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
)

// SolanaRPC is the free fallback for Solana wallets when the enhanced
// transactions API is unavailable. Plain JSON-RPC only exposes
// signatures, so buys carry the wallet itself as subject; the event ID
// is still the transaction signature and dedup applies as usual.
type SolanaRPC struct {
	client   *swarmhttp.Client
	log      *logger.Logger
	rpcURL   string
	budget   rate.Limit
	lookback time.Duration
	sigLimit int
}

func NewSolanaRPC(client *swarmhttp.Client, log *logger.Logger, rpcURL string) *SolanaRPC {
	return &SolanaRPC{
		client:   client,
		log:      log,
		rpcURL:   rpcURL,
		budget:   rate.Limit(2),
		lookback: 24 * time.Hour,
		sigLimit: 20,
	}
}

func (s *SolanaRPC) Name() string { return "solana-rpc" }

func (s *SolanaRPC) RateBudget() rate.Limit { return s.budget }

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type signatureInfo struct {
	Signature string  `json:"signature"`
	BlockTime int64   `json:"blockTime"`
	Err       any     `json:"err"`
	Memo      *string `json:"memo"`
}

func (s *SolanaRPC) Fetch(ctx context.Context, entity *models.WatchedEntity) (*models.EntityActivity, error) {
	sigs, err := s.signaturesForAddress(ctx, entity.Address)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-s.lookback)
	activity := &models.EntityActivity{Entity: entity.Key()}
	for _, sig := range sigs {
		if sig.Err != nil || sig.Signature == "" || sig.BlockTime == 0 {
			continue
		}
		ts := time.Unix(sig.BlockTime, 0)
		if ts.Before(cutoff) {
			continue
		}
		activity.Events = append(activity.Events, models.EventRecord{
			ID:        "buy:" + sig.Signature,
			Entity:    entity.Key(),
			Subject:   entity.Address,
			Kind:      models.EventWalletBuy,
			Timestamp: ts,
			Label:     entity.Label,
		})
	}
	return activity, nil
}

func (s *SolanaRPC) signaturesForAddress(ctx context.Context, address string) ([]signatureInfo, error) {
	var resp rpcResponse
	err := s.client.SendAndParse(ctx, &swarmhttp.RequestOptions{
		Method: "POST",
		URL:    s.rpcURL,
		Body: &rpcRequest{
			JSONRPC: "2.0",
			ID:      1,
			Method:  "getSignaturesForAddress",
			Params:  []interface{}{address, map[string]int{"limit": s.sigLimit}},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: rpc error %d: %s",
			provider.ErrProviderMalformed, resp.Error.Code, resp.Error.Message)
	}

	var sigs []signatureInfo
	if err := json.Unmarshal(resp.Result, &sigs); err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrProviderMalformed, err)
	}
	return sigs, nil
}
