package currency

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"taxmap/internal/errors"
	"taxmap/internal/logging"
)

// Provider owns the current rate table. Readers block in Snapshot until the
// first table is installed; after that the table is swapped atomically and
// never mutated, so callers always see one complete snapshot.
type Provider struct {
	source  Source
	timeout time.Duration
	logger  *zap.Logger

	current   atomic.Pointer[RateTable]
	ready     chan struct{}
	readyOnce sync.Once
	startOnce sync.Once

	// serializes refreshes
	mu sync.Mutex
}

// ProviderOption configures a Provider
type ProviderOption func(*Provider)

// WithTimeout bounds each fetch from the source
func WithTimeout(d time.Duration) ProviderOption {
	return func(p *Provider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ProviderOption {
	return func(p *Provider) { p.logger = l }
}

// NewProvider creates a provider. A nil source means offline: the static
// fallback table is used.
func NewProvider(source Source, opts ...ProviderOption) *Provider {
	p := &Provider{
		source:  source,
		timeout: 5 * time.Second,
		logger:  logging.Named("currency"),
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewStaticProvider creates a provider that is ready immediately with table
func NewStaticProvider(table *RateTable) *Provider {
	p := NewProvider(StaticSource{Table: table})
	p.install(table)
	return p
}

// Snapshot returns the current table, starting the first load if needed and
// waiting for it to finish or for ctx to end.
func (p *Provider) Snapshot(ctx context.Context) (*RateTable, error) {
	if t := p.current.Load(); t != nil {
		return t, nil
	}

	p.startOnce.Do(func() {
		go func() {
			// the first load outlives the caller that triggered it
			_, _ = p.Refresh(context.Background())
		}()
	})

	select {
	case <-p.ready:
		return p.current.Load(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Current returns the installed table or nil before the first load
func (p *Provider) Current() *RateTable {
	return p.current.Load()
}

// Ready reports whether a table is installed
func (p *Provider) Ready() bool {
	return p.current.Load() != nil
}

// Refresh fetches a new table and installs it. On failure the current live
// table is kept; if there is none the fallback table is installed. The
// returned error is a RateFetchFailure for logging, never fatal.
func (p *Provider) Refresh(ctx context.Context) (*RateTable, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source == nil {
		t := Fallback()
		p.install(t)
		return t, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	table, err := p.source.Fetch(fetchCtx)
	if err == nil && table == nil {
		err = errors.RateFetch("source returned no table", nil)
	}
	if err != nil {
		if cur := p.current.Load(); cur != nil && cur.Origin() != OriginFallback {
			p.logger.Warn("rate refresh failed, keeping current rates",
				zap.String("snapshot", cur.ID()),
				zap.Error(err))
			return cur, err
		}

		fb := Fallback()
		p.logger.Warn("rate fetch failed, using fallback rates",
			zap.String("snapshot", fb.ID()),
			zap.Error(err))
		p.install(fb)
		return fb, err
	}

	p.install(table)
	return table, nil
}

func (p *Provider) install(t *RateTable) {
	p.current.Store(t)
	p.readyOnce.Do(func() { close(p.ready) })
}
