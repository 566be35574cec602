package models

import "time"

// Category classifies a watched entity by the kind of upstream
// data that can serve it.
type Category string

const (
	CategoryWalletSolana Category = "wallet-solana"
	CategoryWalletEVM    Category = "wallet-evm"
	CategoryTokenMarket  Category = "token-market"
	CategoryNewsFeed     Category = "news-feed"
	CategoryRepo         Category = "repo"
)

// WatchedEntity is an address or identifier polled on every scan cycle.
// Entities are created by operator action, never deleted. The only field
// mutated after creation is LastScannedAt; inactive entities are
// deactivated, not removed.
type WatchedEntity struct {
	Address       string    `json:"address"`
	Category      Category  `json:"category"`
	Label         string    `json:"label"`
	CreatedAt     time.Time `json:"created_at"`
	LastScannedAt time.Time `json:"last_scanned_at"`
	Active        bool      `json:"active"`
}

// Key returns the registry key for the entity.
func (e *WatchedEntity) Key() string {
	return string(e.Category) + ":" + e.Address
}
