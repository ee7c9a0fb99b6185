package cmd

import (
	"context"
	"time"

	"taxmap/core/catalog"
	"taxmap/core/currency"
	"taxmap/core/engine"
	"taxmap/core/ui"
	"taxmap/internal/config"
	"taxmap/internal/logging"
)

// loadCatalog returns the built-in catalog, merged with path when set
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		path = config.Get().Catalog.Path
	}
	return catalog.Load(path)
}

// newProvider builds the rate provider described by the config
func newProvider(cfg *config.Config, offline bool) *currency.Provider {
	if offline || cfg.Rates.Offline {
		return currency.NewProvider(nil)
	}
	source := currency.NewHTTPSource(cfg.Rates.URL,
		currency.WithMaxRetries(cfg.Rates.MaxRetries),
		currency.WithSourceLogger(logging.Named("rates")))
	return currency.NewProvider(source, currency.WithTimeout(cfg.Rates.Timeout()))
}

func newOrchestrator(cfg *config.Config) *engine.Orchestrator {
	return engine.NewOrchestrator(engine.WithWorkers(cfg.Engine.Workers))
}

func newWriter() *ui.Writer {
	w := ui.NewWriter(nil, config.Get().Output.NoColor)
	if verbose {
		w.SetVerbosity(2)
	}
	return w
}

// commandContext bounds a one-shot command; the rate fetch has its own timeout
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}
