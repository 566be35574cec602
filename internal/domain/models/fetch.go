package models

import "time"

// ProviderCache is the provider name reported when a result was served
// from the cache store; ProviderNone when the whole chain was exhausted.
const (
	ProviderCache = "cache"
	ProviderNone  = "none"
)

// FetchResult is the outcome of resolving one entity in one scan cycle.
// Exactly one result is produced per entity per cycle: either a payload
// from a provider (or the cache), or a skip with Provider == "none".
type FetchResult struct {
	Entity   string
	Activity *EntityActivity
	Provider string
	Latency  time.Duration
	Err      error
}

// Skipped reports whether the entity resolved to nothing this cycle.
func (r *FetchResult) Skipped() bool {
	return r.Provider == ProviderNone
}
