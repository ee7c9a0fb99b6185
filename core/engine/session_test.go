package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taxmap/core/catalog"
	"taxmap/core/currency"
	"taxmap/internal/errors"
)

// gatedRates blocks the first Snapshot call until released
type gatedRates struct {
	table   *currency.RateTable
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newGatedRates() *gatedRates {
	return &gatedRates{
		table:   currency.Fallback(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedRates) Snapshot(ctx context.Context) (*currency.RateTable, error) {
	if g.calls.Add(1) == 1 {
		close(g.entered)
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.table, nil
}

func newTestSession(t *testing.T, rates RateSource) *Session {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return NewSession(cat, rates, NewOrchestrator(WithLogger(zap.NewNop())))
}

func TestSessionLastRequestWins(t *testing.T) {
	rates := newGatedRates()
	s := newTestSession(t, rates)

	var mu sync.Mutex
	var published []float64
	s.Subscribe(func(b *Batch) {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, b.Request.MonthlySalary)
	})

	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), Request{MonthlySalary: 1000})
		firstErr <- err
	}()
	<-rates.entered

	second, err := s.Submit(context.Background(), Request{MonthlySalary: 2000})
	require.NoError(t, err)
	assert.Equal(t, 2000.0, second.Request.MonthlySalary)

	assert.ErrorIs(t, <-firstErr, ErrSuperseded)

	mu.Lock()
	assert.Equal(t, []float64{2000}, published)
	mu.Unlock()
	assert.Same(t, second, s.Latest())
}

func TestSessionInvalidInputClears(t *testing.T) {
	s := newTestSession(t, currency.NewStaticProvider(currency.Fallback()))

	var batches []*Batch
	s.Subscribe(func(b *Batch) { batches = append(batches, b) })

	_, err := s.Submit(context.Background(), Request{MonthlySalary: 2500})
	require.NoError(t, err)
	require.False(t, s.Latest().Empty())

	_, err = s.Submit(context.Background(), Request{MonthlySalary: 0})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInvalidInput))

	require.Len(t, batches, 2)
	assert.True(t, batches[1].Empty())
	assert.True(t, s.Latest().Empty())
}

func TestSessionClearSupersedesInFlight(t *testing.T) {
	rates := newGatedRates()
	s := newTestSession(t, rates)

	errc := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), Request{MonthlySalary: 1000})
		errc <- err
	}()
	<-rates.entered

	s.Clear()
	assert.ErrorIs(t, <-errc, ErrSuperseded)
	assert.True(t, s.Latest().Empty())
}
