package discovery

import (
	"context"
	"fmt"

	swarmhttp "github.com/javiersolana/crypto-swarm/pkg/http"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
)

// GMGN reads the gmgn.ai public leaderboard, the same endpoints its
// frontend uses. Several timeframe and ordering combinations are merged
// so one hot week does not dominate the candidate set.
type GMGN struct {
	client  *swarmhttp.Client
	log     *logger.Logger
	baseURL string
}

func NewGMGN(client *swarmhttp.Client, log *logger.Logger, baseURL string) *GMGN {
	if baseURL == "" {
		baseURL = "https://gmgn.ai/defi/quotation/v1/rank/sol/swaps"
	}
	return &GMGN{client: client, log: log, baseURL: baseURL}
}

// Field names vary between gmgn endpoints; both spellings are accepted.
type gmgnTrader struct {
	WalletAddress  string  `json:"wallet_address"`
	Address        string  `json:"address"`
	PnL            float64 `json:"pnl"`
	RealizedProfit float64 `json:"realized_profit"`
	WinrateA       float64 `json:"winrate"`
	WinrateB       float64 `json:"win_rate"`
	TotalTrades    int     `json:"total_trades"`
	Buys           int     `json:"buy"`
	Sells          int     `json:"sell"`
	ROI            float64 `json:"roi"`
	PnLPercentage  float64 `json:"pnl_percentage"`
}

type gmgnResponse struct {
	Code int `json:"code"`
	Data struct {
		Rank []gmgnTrader `json:"rank"`
	} `json:"data"`
}

func (g *GMGN) TopTraders(ctx context.Context) ([]Trader, error) {
	merged := make(map[string]Trader)

	for _, timeframe := range []string{"7d", "30d"} {
		for _, orderBy := range []string{"pnl", "winrate"} {
			var resp gmgnResponse
			err := g.client.SendAndParse(ctx, &swarmhttp.RequestOptions{
				Method: "GET",
				URL:    fmt.Sprintf("%s/%s", g.baseURL, timeframe),
				Headers: map[string]string{
					"Accept":  "application/json",
					"Referer": "https://gmgn.ai/",
				},
				QueryParams: map[string][]string{
					"orderby":   {orderBy},
					"direction": {"desc"},
				},
			}, &resp)
			if err != nil {
				// Partial coverage beats none when one page is down.
				g.log.Warn("gmgn leaderboard page failed",
					logger.String("timeframe", timeframe),
					logger.String("orderby", orderBy),
					logger.Error(err))
				continue
			}

			for _, raw := range resp.Data.Rank {
				tr := raw.normalize()
				if tr.Address == "" {
					continue
				}
				if _, seen := merged[tr.Address]; !seen {
					merged[tr.Address] = tr
				}
			}
		}
	}

	traders := make([]Trader, 0, len(merged))
	for _, tr := range merged {
		traders = append(traders, tr)
	}
	return traders, nil
}

func (t *gmgnTrader) normalize() Trader {
	addr := t.WalletAddress
	if addr == "" {
		addr = t.Address
	}

	pnl := t.PnL
	if pnl == 0 {
		pnl = t.RealizedProfit
	}

	winRate := t.WinrateA
	if winRate == 0 {
		winRate = t.WinrateB
	}
	if winRate > 1 {
		winRate /= 100
	}

	trades := t.TotalTrades
	if trades == 0 {
		trades = t.Buys + t.Sells
	}

	roi := t.ROI
	if roi == 0 {
		roi = t.PnLPercentage
	}
	if roi <= 1 {
		roi *= 100
	}

	return Trader{
		Address: addr,
		PnLUSD:  pnl,
		WinRate: winRate,
		Trades:  trades,
		ROIPct:  roi,
	}
}
