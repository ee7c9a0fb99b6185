package engine

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Task processes the i-th item of a run
type Task func(ctx context.Context, i int) error

// Executor runs independent tasks on a bounded number of goroutines
type Executor struct {
	maxWorkers int
}

// ExecutionStats tracks one run
type ExecutionStats struct {
	Total          int64
	Completed      int64
	Failed         int64
	Skipped        int64
	MaxConcurrency int
	StartTime      time.Time
	EndTime        time.Time
}

// Duration returns the wall time of the run
func (s *ExecutionStats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// NewExecutor creates an executor
func NewExecutor(maxWorkers int) *Executor {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &Executor{maxWorkers: maxWorkers}
}

// Run calls task for 0..n-1. Task errors are counted, not propagated; each
// task is expected to record its own outcome.
//
// When ctx ends Run returns ctx.Err() at once. Tasks already running are
// left to finish in the background and their output must be discarded by
// the caller; tasks not yet started are skipped.
func (e *Executor) Run(ctx context.Context, n int, task Task) (*ExecutionStats, error) {
	stats := &ExecutionStats{
		Total:     int64(n),
		StartTime: time.Now(),
	}
	if n == 0 {
		stats.EndTime = stats.StartTime
		return stats, nil
	}

	workers := min(e.maxWorkers, n)
	stats.MaxConcurrency = workers

	var completed, failed, skipped atomic.Int64
	done := make(chan struct{})

	go func() {
		defer close(done)

		var g errgroup.Group
		g.SetLimit(workers)
		for i := 0; i < n; i++ {
			i := i
			g.Go(func() error {
				if ctx.Err() != nil {
					skipped.Add(1)
					return nil
				}
				if err := task(ctx, i); err != nil {
					failed.Add(1)
					return nil
				}
				completed.Add(1)
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		stats.EndTime = time.Now()
		return stats, ctx.Err()
	}

	stats.Completed = completed.Load()
	stats.Failed = failed.Load()
	stats.Skipped = skipped.Load()
	stats.EndTime = time.Now()

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}
