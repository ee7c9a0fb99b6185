package engine

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"taxmap/core/catalog"
	"taxmap/internal/errors"
	"taxmap/internal/logging"
)

// ErrSuperseded is returned to a request that a newer one replaced
var ErrSuperseded = stderrors.New("calculation superseded by a newer request")

// ResultConsumer receives each accepted batch. An empty batch means the
// results were cleared.
type ResultConsumer func(*Batch)

// Session is the application state owned by a front end: the catalog, the
// rate source, and the latest results.
//
// Submissions follow last-request-wins: starting a request cancels the one
// in flight, and a superseded request never publishes. Consumers are called
// with the session locked, in submission order, and must not call back into
// the session.
type Session struct {
	catalog      *catalog.Catalog
	rates        RateSource
	orchestrator *Orchestrator
	logger       *zap.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	latest     *Batch
	consumers  []ResultConsumer
}

// NewSession creates a session
func NewSession(cat *catalog.Catalog, rates RateSource, orchestrator *Orchestrator) *Session {
	if orchestrator == nil {
		orchestrator = NewOrchestrator()
	}
	return &Session{
		catalog:      cat,
		rates:        rates,
		orchestrator: orchestrator,
		logger:       logging.Named("session"),
	}
}

// Subscribe registers a consumer for future batches
func (s *Session) Subscribe(c ResultConsumer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumers = append(s.consumers, c)
}

// Latest returns the most recently published batch, or nil
func (s *Session) Latest() *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Clear cancels any in-flight request and publishes an empty batch
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.publishLocked(&Batch{CalculatedAt: time.Now().UTC()})
}

// Submit runs req against the whole catalog. It returns ErrSuperseded if a
// newer Submit or Clear happened before this one finished. An invalid
// request clears the results and returns an InvalidInput error.
func (s *Session) Submit(ctx context.Context, req Request) (*Batch, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		s.Clear()
		return nil, err
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	if s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	cc, err := NewCalculationContext(runCtx, s.catalog, s.rates)
	if err != nil {
		return nil, s.runError(gen, err)
	}

	batch, err := s.orchestrator.CalculateAll(runCtx, cc, req)
	if err != nil {
		return nil, s.runError(gen, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.logger.Debug("discarding superseded results", zap.String("run_id", batch.RunID))
		return nil, ErrSuperseded
	}
	s.cancel = nil
	s.publishLocked(batch)
	return batch, nil
}

func (s *Session) runError(gen uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return ErrSuperseded
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Internal("calculation failed", err)
}

func (s *Session) publishLocked(b *Batch) {
	s.latest = b
	for _, c := range s.consumers {
		c(b)
	}
}
