package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryAdmitOnce(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	ok, err := l.Admit(ctx, "buy:sig-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Admit(ctx, "buy:sig-1")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = l.Admit(ctx, "buy:sig-2")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryAdmitConcurrent(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	const n = 64
	var admitted atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			ok, err := l.Admit(ctx, "news:42")
			require.NoError(t, err)
			if ok {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(1), admitted.Load())
}

func TestMemoryHorizonReadmits(t *testing.T) {
	l := NewMemoryLedger(WithMemoryHorizon(time.Hour))
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }
	ctx := context.Background()

	ok, err := l.Admit(ctx, "push:repo:1")
	require.NoError(t, err)
	require.True(t, ok)

	// Still inside the horizon.
	l.now = func() time.Time { return base.Add(30 * time.Minute) }
	ok, err = l.Admit(ctx, "push:repo:1")
	require.NoError(t, err)
	require.False(t, ok)

	// Past the horizon the ID admits again.
	l.now = func() time.Time { return base.Add(2 * time.Hour) }
	ok, err = l.Admit(ctx, "push:repo:1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryEmptyIDNeverAdmits(t *testing.T) {
	l := NewMemoryLedger()
	ok, err := l.Admit(context.Background(), "")
	require.NoError(t, err)
	require.False(t, ok)
}
