package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunAttemptsEveryJobExactlyOnce(t *testing.T) {
	t.Parallel()

	const n = 50
	var mu sync.Mutex
	seen := make(map[int]int)

	New(8).Run(context.Background(), n, func(_ context.Context, i int) {
		mu.Lock()
		seen[i]++
		mu.Unlock()
	})

	require.Len(t, seen, n)
	for i, count := range seen {
		require.Equal(t, 1, count, "job %d ran %d times", i, count)
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	t.Parallel()

	const width = 4
	var active, peak atomic.Int32

	New(width).Run(context.Background(), 40, func(_ context.Context, _ int) {
		cur := active.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		active.Add(-1)
	})

	require.LessOrEqual(t, peak.Load(), int32(width))
	require.Positive(t, peak.Load())
}

func TestRunStopsFeedingOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Int32

	New(1).Run(ctx, 1000, func(_ context.Context, i int) {
		if i == 3 {
			cancel()
		}
		ran.Add(1)
		time.Sleep(time.Millisecond)
	})

	require.Less(t, ran.Load(), int32(1000))
}

func TestNewClampsWidth(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1, New(0).Width())
	require.Equal(t, 1, New(-3).Width())
	require.Equal(t, 8, New(8).Width())
}
