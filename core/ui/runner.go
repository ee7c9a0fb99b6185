// Package ui - Calculation runner with live feedback
package ui

import (
	"context"
	"time"

	"taxmap/core/catalog"
	"taxmap/core/engine"
)

// CalculationRunner runs a catalog-wide calculation behind spinners
type CalculationRunner struct {
	w            *Writer
	orchestrator *engine.Orchestrator
	showSpinner  bool
}

// NewCalculationRunner creates a runner
func NewCalculationRunner(w *Writer, orchestrator *engine.Orchestrator, showSpinner bool) *CalculationRunner {
	return &CalculationRunner{
		w:            w,
		orchestrator: orchestrator,
		showSpinner:  showSpinner,
	}
}

// Run waits for exchange rates, then calculates every country
func (r *CalculationRunner) Run(ctx context.Context, cat *catalog.Catalog, rates engine.RateSource, req engine.Request) (*engine.Batch, error) {
	start := time.Now()

	var cc engine.CalculationContext
	err := r.phase("Loading exchange rates", func() error {
		var err error
		cc, err = engine.NewCalculationContext(ctx, cat, rates)
		return err
	})
	if err != nil {
		r.w.Error("Exchange rates unavailable: %v", err)
		return nil, err
	}
	r.w.Debug("rate table %s (%s, %d currencies)", cc.Rates.ID(), cc.Rates.Origin(), cc.Rates.Len())

	var batch *engine.Batch
	err = r.phase("Calculating taxes", func() error {
		var err error
		batch, err = r.orchestrator.CalculateAll(ctx, cc, req)
		return err
	})
	if err != nil {
		r.w.Error("Calculation failed: %v", err)
		return nil, err
	}

	if batch.Failed > 0 {
		r.w.Warning("%d countries failed to calculate", batch.Failed)
		for _, res := range batch.Results {
			if res.Failed() {
				r.w.Debug("%s: %s", res.CountryKey, res.Error)
			}
		}
	}
	r.w.Debug("completed in %s", FormatDuration(time.Since(start)))

	return batch, nil
}

func (r *CalculationRunner) phase(label string, fn func() error) error {
	if !r.showSpinner {
		return fn()
	}
	spinner := r.w.NewSpinner(label + "...")
	spinner.Start()
	err := fn()
	spinner.Stop(err == nil)
	return err
}
