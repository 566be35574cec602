package adapters

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	"github.com/javiersolana/crypto-swarm/internal/provider"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
)

// HeliusStream is a push-fed Solana wallet source. A background loop
// holds a transactionSubscribe WebSocket open for all tracked wallets
// and buffers parsed events per wallet; Fetch drains a wallet's buffer
// without touching the network, so the stream sits at priority zero
// ahead of the polling sources. The loop reconnects with exponential
// backoff and gives up for the session on a 403.
type HeliusStream struct {
	log   *logger.Logger
	wsURL string

	mu      sync.Mutex
	wallets map[string]bool
	buffer  map[string][]models.EventRecord
	conn    *websocket.Conn
	failed  bool

	reconnectBase time.Duration
	reconnectMax  time.Duration
	pingInterval  time.Duration
}

func NewHeliusStream(log *logger.Logger, wsURL string, wallets []string) *HeliusStream {
	set := make(map[string]bool, len(wallets))
	for _, w := range wallets {
		set[w] = true
	}
	return &HeliusStream{
		log:           log,
		wsURL:         wsURL,
		wallets:       set,
		buffer:        make(map[string][]models.EventRecord),
		reconnectBase: 2 * time.Second,
		reconnectMax:  60 * time.Second,
		pingInterval:  30 * time.Second,
	}
}

func (h *HeliusStream) Name() string { return "helius-ws" }

// RateBudget is effectively unlimited: Fetch reads local buffers.
func (h *HeliusStream) RateBudget() rate.Limit { return rate.Inf }

// Start runs the subscribe loop until ctx is cancelled.
func (h *HeliusStream) Start(ctx context.Context) {
	go h.run(ctx)
}

func (h *HeliusStream) run(ctx context.Context) {
	delay := h.reconnectBase
	for ctx.Err() == nil {
		err := h.connectAndListen(ctx)
		h.mu.Lock()
		failed := h.failed
		h.mu.Unlock()
		if failed {
			h.log.Warn("wallet stream disabled for this session")
			return
		}
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			h.log.Warn("wallet stream disconnected", logger.Error(err), logger.Duration("retry_in", delay))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > h.reconnectMax {
			delay = h.reconnectMax
		}
	}
}

type wsSubscribe struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type wsNotification struct {
	Params struct {
		Result struct {
			Signature   string `json:"signature"`
			Transaction struct {
				Transaction struct {
					Message struct {
						AccountKeys []struct {
							Pubkey string `json:"pubkey"`
						} `json:"accountKeys"`
					} `json:"message"`
				} `json:"transaction"`
			} `json:"transaction"`
		} `json:"result"`
	} `json:"params"`
}

func (h *HeliusStream) connectAndListen(ctx context.Context) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, h.wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == 403 {
			h.mu.Lock()
			h.failed = true
			h.mu.Unlock()
		}
		return err
	}
	h.mu.Lock()
	h.conn = conn
	addresses := make([]string, 0, len(h.wallets))
	for w := range h.wallets {
		addresses = append(addresses, w)
	}
	h.mu.Unlock()
	defer conn.Close()

	sub := &wsSubscribe{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "transactionSubscribe",
		Params: []interface{}{
			map[string]interface{}{"accountInclude": addresses},
			map[string]interface{}{
				"commitment":                     "confirmed",
				"encoding":                       "jsonParsed",
				"transactionDetails":             "full",
				"maxSupportedTransactionVersion": 0,
			},
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}
	h.log.Info("wallet stream connected", logger.Int("wallets", len(addresses)))

	go func() {
		ticker := time.NewTicker(h.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var note wsNotification
		if err := json.Unmarshal(raw, &note); err != nil {
			continue
		}
		h.handle(&note)
	}
}

func (h *HeliusStream) handle(note *wsNotification) {
	sig := note.Params.Result.Signature
	if sig == "" {
		return
	}
	now := time.Now()
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, key := range note.Params.Result.Transaction.Transaction.Message.AccountKeys {
		if !h.wallets[key.Pubkey] {
			continue
		}
		entity := string(models.CategoryWalletSolana) + ":" + key.Pubkey
		h.buffer[key.Pubkey] = append(h.buffer[key.Pubkey], models.EventRecord{
			ID:        "buy:" + sig,
			Entity:    entity,
			Subject:   key.Pubkey,
			Kind:      models.EventWalletBuy,
			Timestamp: now,
		})
	}
}

// Fetch drains buffered events for the wallet. With nothing buffered it
// reports no data so the scheduler falls through to a polling source.
func (h *HeliusStream) Fetch(ctx context.Context, entity *models.WatchedEntity) (*models.EntityActivity, error) {
	h.mu.Lock()
	events := h.buffer[entity.Address]
	delete(h.buffer, entity.Address)
	h.mu.Unlock()

	if len(events) == 0 {
		return nil, provider.ErrProviderNoData
	}
	return &models.EntityActivity{Entity: entity.Key(), Events: events}, nil
}
