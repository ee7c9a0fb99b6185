// Package tax implements the pure tax calculations for a single country:
// progressive brackets, special levies, VAT on spending, and the engine
// that combines them into a TaxResult.
package tax

import (
	"math"

	"taxmap/core/types"
)

// walkBrackets visits brackets in order with the slice of annualIncome taxed
// in each one. Income at or below a bracket's floor contributes nothing to it.
// The walk stops once the running remainder is exhausted.
func walkBrackets(annualIncome float64, brackets []types.TaxBracket, visit func(i int, b types.TaxBracket, taxable float64)) {
	remaining := annualIncome

	for i, b := range brackets {
		if remaining <= 0 {
			break
		}

		size := math.Inf(1)
		if width, bounded := b.Width(); bounded {
			size = width
		}
		inBracket := min(remaining, size)

		taxable := 0.0
		if annualIncome > b.Min {
			taxable = min(inBracket, annualIncome-b.Min)
		}
		visit(i, b, taxable)

		remaining -= inBracket
	}
}

// ComputeProgressiveTax returns the tax owed on annualIncome using marginal
// rate accumulation over ascending brackets.
func ComputeProgressiveTax(annualIncome float64, brackets []types.TaxBracket) float64 {
	if annualIncome <= 0 || len(brackets) == 0 {
		return 0
	}

	var total float64
	walkBrackets(annualIncome, brackets, func(_ int, b types.TaxBracket, taxable float64) {
		total += taxable * (b.Rate / 100)
	})
	return total
}

// BracketFill is the share of income that landed in one bracket
type BracketFill struct {
	Bracket types.TaxBracket `json:"bracket"`
	Taxable float64          `json:"taxable"`
	Tax     float64          `json:"tax"`

	// FillPct is how much of a bounded bracket is used, 0-100.
	// The open top bracket reports 100 once any income reaches it.
	FillPct float64 `json:"fill_pct"`
}

// Breakdown returns one entry per bracket describing how annualIncome fills
// it. Brackets beyond the exhausted remainder are reported empty.
func Breakdown(annualIncome float64, brackets []types.TaxBracket) []BracketFill {
	fills := make([]BracketFill, len(brackets))
	for i, b := range brackets {
		fills[i].Bracket = b
	}
	if annualIncome <= 0 {
		return fills
	}

	walkBrackets(annualIncome, brackets, func(i int, b types.TaxBracket, taxable float64) {
		fills[i].Taxable = taxable
		fills[i].Tax = taxable * (b.Rate / 100)
		if width, bounded := b.Width(); bounded && width > 0 {
			fills[i].FillPct = math.Min(100, taxable/width*100)
		} else if taxable > 0 {
			fills[i].FillPct = 100
		}
	})
	return fills
}

// MarginalRate returns the rate of the highest bracket that income reaches
func MarginalRate(annualIncome float64, brackets []types.TaxBracket) float64 {
	rate := 0.0
	for _, b := range brackets {
		if annualIncome > b.Min {
			rate = b.Rate
		}
	}
	return rate
}
