package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taxmap/core/currency"
	"taxmap/core/tax"
	"taxmap/core/types"
	"taxmap/internal/errors"
	"taxmap/internal/logging"
)

// Orchestrator calculates every country in a catalog for one request
type Orchestrator struct {
	executor *Executor
	logger   *zap.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithWorkers bounds concurrent per-country tasks
func WithWorkers(n int) Option {
	return func(o *Orchestrator) { o.executor = NewExecutor(n) }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		executor: NewExecutor(8),
		logger:   logging.Named("engine"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CalculateAll converts the salary into each country's currency, computes
// its taxes, and converts the result into the display currency.
//
// Only an invalid request is rejected. A country whose pipeline fails is
// reported as a zeroed result carrying an error message; the batch always
// holds exactly one result per catalog entry. If ctx ends first the run is
// abandoned and ctx.Err() is returned.
func (o *Orchestrator) CalculateAll(ctx context.Context, cc CalculationContext, req Request) (*Batch, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := cc.validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := o.logger.With(zap.String("run_id", runID))

	profiles := cc.Catalog.Profiles()
	results := make([]types.TaxResult, len(profiles))

	stats, err := o.executor.Run(ctx, len(profiles), func(ctx context.Context, i int) error {
		res, err := o.calculateOne(cc.Rates, profiles[i], req, log)
		if err != nil {
			log.Error("country calculation failed",
				zap.String("country", profiles[i].Key),
				zap.Error(err))
			results[i] = failedResult(profiles[i], req, err)
			return err
		}
		results[i] = res
		return nil
	})
	if err != nil {
		log.Debug("calculation abandoned", zap.Error(err))
		return nil, err
	}

	Rank(results)

	batch := &Batch{
		RunID:          runID,
		Request:        req,
		Results:        results,
		RateSnapshotID: cc.Rates.ID(),
		RateOrigin:     cc.Rates.Origin(),
		CalculatedAt:   time.Now().UTC(),
		Duration:       stats.Duration(),
	}
	for _, r := range results {
		if r.Failed() {
			batch.Failed++
		}
		if r.RateDegraded {
			batch.Degraded++
		}
	}

	log.Info("calculation complete",
		zap.Int("countries", len(results)),
		zap.Int("failed", batch.Failed),
		zap.Int("degraded", batch.Degraded),
		zap.String("rates", cc.Rates.Origin().String()),
		zap.Duration("duration", batch.Duration))

	return batch, nil
}

// CalculateCountry runs the same pipeline for a single catalog key. Unlike
// CalculateAll, a failure is returned to the caller.
func (o *Orchestrator) CalculateCountry(cc CalculationContext, key string, req Request) (types.TaxResult, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return types.TaxResult{}, err
	}
	if err := cc.validate(); err != nil {
		return types.TaxResult{}, err
	}

	profile, err := cc.Catalog.Get(key)
	if err != nil {
		return types.TaxResult{}, err
	}

	res, err := o.calculateOne(cc.Rates, profile, req, o.logger)
	if err != nil {
		return types.TaxResult{}, err
	}
	res.Rank = 1
	return res, nil
}

func (o *Orchestrator) calculateOne(rates *currency.RateTable, p *types.CountryTaxProfile, req Request, log *zap.Logger) (res types.TaxResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Calculation(p.Key, fmt.Errorf("panic: %v", r))
		}
	}()

	inRate, inDegraded := o.rate(rates, req.InputCurrency, p.Currency, log)
	res, err = tax.CalculateCountryTax(req.MonthlySalary*inRate, p)
	if err != nil {
		if errors.IsType(err, errors.TypeCalculation) {
			return res, err
		}
		return res, errors.Calculation(p.Key, err)
	}

	outRate, outDegraded := o.rate(rates, p.Currency, req.DisplayCurrency, log)
	res.Display = res.Local.Scale(outRate, req.DisplayCurrency)
	res.ExchangeRate = inRate
	res.RateDegraded = inDegraded || outDegraded
	return res, nil
}

// rate looks up from->to, degrading to 1 with a warning when a code is
// missing from the table.
func (o *Orchestrator) rate(rates *currency.RateTable, from, to types.CurrencyCode, log *zap.Logger) (float64, bool) {
	r, err := rates.Lookup(from, to)
	if err != nil {
		log.Warn("exchange rate not found, using 1",
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.String("snapshot", rates.ID()))
		return 1, true
	}
	return r, false
}

func failedResult(p *types.CountryTaxProfile, req Request, err error) types.TaxResult {
	return types.TaxResult{
		CountryKey:   p.Key,
		CountryName:  p.Name,
		CountryCode:  p.CountryCode,
		System:       p.System,
		Local:        types.Amounts{Currency: p.Currency},
		Display:      types.Amounts{Currency: req.DisplayCurrency},
		ExchangeRate: 1,
		Coordinates:  p.Coordinates,
		Error:        err.Error(),
	}
}

// Rank sorts results by display total tax, highest first, keeping the
// incoming order for ties, and numbers them from 1.
func Rank(results []types.TaxResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Display.TotalTax > results[j].Display.TotalTax
	})
	for i := range results {
		results[i].Rank = i + 1
	}
}
