package ledger

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger keeps the admit-once set in process memory. Used in
// tests and single-node runs without Redis; admissions do not survive a
// restart.
type MemoryLedger struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	horizon time.Duration
	now     func() time.Time
}

type MemoryOption func(*MemoryLedger)

func WithMemoryHorizon(d time.Duration) MemoryOption {
	return func(l *MemoryLedger) {
		if d > 0 {
			l.horizon = d
		}
	}
}

func NewMemoryLedger(opts ...MemoryOption) *MemoryLedger {
	l := &MemoryLedger{
		seen:    make(map[string]time.Time),
		horizon: 30 * 24 * time.Hour,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *MemoryLedger) Admit(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, nil
	}

	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if at, ok := l.seen[eventID]; ok && now.Sub(at) < l.horizon {
		return false, nil
	}
	l.seen[eventID] = now

	// Opportunistic purge keeps the map from growing without bound.
	if len(l.seen) > 1 && len(l.seen)%4096 == 0 {
		for id, at := range l.seen {
			if now.Sub(at) >= l.horizon {
				delete(l.seen, id)
			}
		}
	}
	return true, nil
}

func (l *MemoryLedger) Close() error {
	return nil
}
