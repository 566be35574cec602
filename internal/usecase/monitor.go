package usecase

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
)

// Monitor drives scan cycles on a fixed interval and remembers the most
// recent summary for the ops surface.
type Monitor struct {
	cycle    *Cycle
	interval time.Duration
	log      *logger.Logger

	mu   sync.RWMutex
	last *models.CycleSummary
}

func NewMonitor(cycle *Cycle, interval time.Duration, log *logger.Logger) *Monitor {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return &Monitor{cycle: cycle, interval: interval, log: log}
}

// RunOnce executes a single cycle.
func (m *Monitor) RunOnce(ctx context.Context) (*models.CycleSummary, error) {
	summary, err := m.cycle.Run(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.last = summary
	m.mu.Unlock()
	return summary, nil
}

// Run loops until the context is cancelled. One cycle runs immediately;
// a failed cycle is logged and the loop keeps going. Each wait is
// jittered so replicas drift apart instead of hammering upstreams in
// lockstep.
func (m *Monitor) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := m.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.log.Error("scan cycle failed", logger.Error(err))
		}

		timer.Reset(m.jittered())
	}
}

// jittered returns the interval shifted by up to ten percent either way.
func (m *Monitor) jittered() time.Duration {
	spread := int64(m.interval) / 10
	if spread == 0 {
		return m.interval
	}
	return m.interval + time.Duration(rand.Int63n(2*spread)-spread)
}

// LastSummary returns the most recent completed cycle, nil before the
// first one finishes.
func (m *Monitor) LastSummary() *models.CycleSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}
