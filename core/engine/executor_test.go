package engine

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorRunsEveryTask(t *testing.T) {
	var seen [50]atomic.Bool

	stats, err := NewExecutor(4).Run(context.Background(), 50, func(ctx context.Context, i int) error {
		seen[i].Store(true)
		if i%10 == 0 {
			return stderrors.New("boom")
		}
		return nil
	})
	require.NoError(t, err)

	for i := range seen {
		assert.True(t, seen[i].Load(), "task %d", i)
	}
	assert.Equal(t, int64(50), stats.Total)
	assert.Equal(t, int64(45), stats.Completed)
	assert.Equal(t, int64(5), stats.Failed)
	assert.Equal(t, 4, stats.MaxConcurrency)
}

func TestExecutorBoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32

	_, err := NewExecutor(3).Run(context.Background(), 30, func(ctx context.Context, i int) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestExecutorAbandonsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	defer close(release)

	started := make(chan struct{}, 10)
	go func() {
		<-started
		cancel()
	}()

	start := time.Now()
	_, err := NewExecutor(2).Run(ctx, 10, func(ctx context.Context, i int) error {
		started <- struct{}{}
		<-release
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestExecutorEmptyRun(t *testing.T) {
	stats, err := NewExecutor(0).Run(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}
