package adapters

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	swarmhttp "github.com/javiersolana/crypto-swarm/pkg/http"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
	"github.com/javiersolana/crypto-swarm/pkg/util"
)

var skipSymbols = map[string]bool{
	"USDC": true, "USDT": true, "DAI": true, "WETH": true, "WBNB": true,
}

// EVMScanner resolves EVM wallets through an Etherscan-compatible API
// (Etherscan, Basescan). Incoming ERC-20 transfers become buy events.
type EVMScanner struct {
	client   *swarmhttp.Client
	log      *logger.Logger
	name     string
	baseURL  string
	apiKey   string
	budget   rate.Limit
	lookback time.Duration
}

func NewEVMScanner(client *swarmhttp.Client, log *logger.Logger, name, baseURL, apiKey string) *EVMScanner {
	return &EVMScanner{
		client:   client,
		log:      log,
		name:     name,
		baseURL:  baseURL,
		apiKey:   apiKey,
		budget:   rate.Limit(4),
		lookback: 24 * time.Hour,
	}
}

func (e *EVMScanner) Name() string { return e.name }

func (e *EVMScanner) RateBudget() rate.Limit { return e.budget }

type scannerTransfer struct {
	Hash            string `json:"hash"`
	TimeStamp       string `json:"timeStamp"`
	To              string `json:"to"`
	ContractAddress string `json:"contractAddress"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
	Value           string `json:"value"`
}

type scannerResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Result  []scannerTransfer `json:"result"`
}

func (e *EVMScanner) Fetch(ctx context.Context, entity *models.WatchedEntity) (*models.EntityActivity, error) {
	var resp scannerResponse
	err := e.client.SendAndParse(ctx, &swarmhttp.RequestOptions{
		Method: "GET",
		URL:    e.baseURL,
		QueryParams: map[string][]string{
			"module":  {"account"},
			"action":  {"tokentx"},
			"address": {entity.Address},
			"sort":    {"desc"},
			"apikey":  {e.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	// Status "0" with "No transactions found" is a valid empty result.
	activity := &models.EntityActivity{Entity: entity.Key()}
	if resp.Status != "1" {
		return activity, nil
	}

	cutoff := time.Now().Add(-e.lookback)
	wallet := strings.ToLower(entity.Address)
	for _, tx := range resp.Result {
		if strings.ToLower(tx.To) != wallet || tx.Hash == "" {
			continue
		}
		if skipSymbols[strings.ToUpper(tx.TokenSymbol)] {
			continue
		}
		unix, _ := strconv.ParseInt(tx.TimeStamp, 10, 64)
		ts := time.Unix(unix, 0)
		if ts.Before(cutoff) {
			continue
		}

		decimals := util.ParseIntDefault(tx.TokenDecimal, 18)
		raw := util.ParseFloatDefault(tx.Value, 0)
		amount := raw / pow10(decimals)

		activity.Events = append(activity.Events, models.EventRecord{
			ID:        "buy:" + tx.Hash,
			Entity:    entity.Key(),
			Subject:   strings.ToLower(tx.ContractAddress),
			Kind:      models.EventWalletBuy,
			Timestamp: ts,
			Amount:    amount,
			Label:     entity.Label,
		})
	}
	return activity, nil
}

func pow10(n int) float64 {
	v := 1.0
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
