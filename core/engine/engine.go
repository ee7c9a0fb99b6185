// Package engine runs the tax calculation across the whole country catalog:
// currency normalization, per-country isolation of failures, ranking, and
// a session that keeps only the latest request's results.
package engine

import (
	"context"
	"math"
	"time"

	"taxmap/core/catalog"
	"taxmap/core/currency"
	"taxmap/core/types"
	"taxmap/internal/errors"
)

// RateSource supplies a complete rate table, blocking until one is ready
type RateSource interface {
	Snapshot(ctx context.Context) (*currency.RateTable, error)
}

// CalculationContext is everything a run reads: the catalog and one rate
// snapshot. Both are read-only.
type CalculationContext struct {
	Catalog *catalog.Catalog
	Rates   *currency.RateTable
}

// NewCalculationContext waits for rates and pairs them with cat
func NewCalculationContext(ctx context.Context, cat *catalog.Catalog, rates RateSource) (CalculationContext, error) {
	table, err := rates.Snapshot(ctx)
	if err != nil {
		return CalculationContext{}, err
	}
	return CalculationContext{Catalog: cat, Rates: table}, nil
}

func (c CalculationContext) validate() error {
	if c.Catalog == nil {
		return errors.Internal("calculation context has no catalog", nil)
	}
	if c.Rates == nil {
		return errors.Internal("calculation context has no rate table", nil)
	}
	return nil
}

// Request is one calculation request
type Request struct {
	MonthlySalary   float64            `json:"monthly_salary"`
	InputCurrency   types.CurrencyCode `json:"input_currency"`
	DisplayCurrency types.CurrencyCode `json:"display_currency"`
}

// Normalize upper-cases currencies and defaults empty ones to USD
func (r Request) Normalize() Request {
	r.InputCurrency = types.NormalizeCurrency(string(r.InputCurrency))
	r.DisplayCurrency = types.NormalizeCurrency(string(r.DisplayCurrency))
	if r.InputCurrency == "" {
		r.InputCurrency = types.CurrencyUSD
	}
	if r.DisplayCurrency == "" {
		r.DisplayCurrency = types.CurrencyUSD
	}
	return r
}

// Validate rejects non-positive or non-finite salaries
func (r Request) Validate() error {
	if math.IsNaN(r.MonthlySalary) || math.IsInf(r.MonthlySalary, 0) || r.MonthlySalary <= 0 {
		return errors.InvalidInputf("monthly salary must be a positive finite number, got %v", r.MonthlySalary)
	}
	return nil
}

// Batch is the outcome of one catalog-wide run
type Batch struct {
	// RunID identifies the run in logs
	RunID string `json:"run_id"`

	// Request is the normalized request
	Request Request `json:"request"`

	// Results are sorted by display total tax, highest first
	Results []types.TaxResult `json:"results"`

	// RateSnapshotID identifies the rate table used
	RateSnapshotID string `json:"rate_snapshot_id,omitempty"`

	// RateOrigin tells whether live or fallback rates were used
	RateOrigin currency.Origin `json:"rate_origin"`

	// CalculatedAt is when the run finished
	CalculatedAt time.Time `json:"calculated_at"`

	// Duration is the run's wall time
	Duration time.Duration `json:"duration_ns"`

	// Failed counts error-tagged results
	Failed int `json:"failed"`

	// Degraded counts results that used a fallback exchange rate of 1
	Degraded int `json:"degraded"`
}

// Empty reports whether the batch has no results
func (b *Batch) Empty() bool {
	return b == nil || len(b.Results) == 0
}

// Find returns the result for a country key
func (b *Batch) Find(key string) (types.TaxResult, bool) {
	if b == nil {
		return types.TaxResult{}, false
	}
	for _, r := range b.Results {
		if r.CountryKey == key {
			return r, true
		}
	}
	return types.TaxResult{}, false
}
