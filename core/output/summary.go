package output

import (
	"github.com/shopspring/decimal"

	"taxmap/core/types"
)

// Summary aggregates display-currency totals across a batch
type Summary struct {
	Count      int             `json:"count"`
	Failed     int             `json:"failed"`
	Total      decimal.Decimal `json:"total_tax"`
	Average    decimal.Decimal `json:"average_tax"`
	Max        decimal.Decimal `json:"max_tax"`
	MaxCountry string          `json:"max_country,omitempty"`
	Min        decimal.Decimal `json:"min_tax"`
	MinCountry string          `json:"min_country,omitempty"`
}

// Summarize computes average, highest and lowest display total tax. Ties
// resolve to the first result in order.
func Summarize(results []types.TaxResult) Summary {
	s := Summary{Count: len(results)}
	if len(results) == 0 {
		return s
	}

	for i, r := range results {
		if r.Failed() {
			s.Failed++
		}
		v := decimal.NewFromFloat(r.Display.TotalTax)
		s.Total = s.Total.Add(v)
		if i == 0 || v.GreaterThan(s.Max) {
			s.Max = v
			s.MaxCountry = r.CountryName
		}
		if i == 0 || v.LessThan(s.Min) {
			s.Min = v
			s.MinCountry = r.CountryName
		}
	}
	s.Average = s.Total.Div(decimal.NewFromInt(int64(len(results))))

	return s
}

// Tier buckets a country's burden relative to the highest in the batch
type Tier string

const (
	TierHaven     Tier = "haven"
	TierLow       Tier = "low"
	TierMediumLow Tier = "medium-low"
	TierMedium    Tier = "medium"
	TierHigh      Tier = "high"
	TierHighest   Tier = "highest"
)

// ClassifyTier places totalTax on a scale relative to maxTax
func ClassifyTier(totalTax, maxTax float64) Tier {
	if totalTax <= 0 {
		return TierHaven
	}
	if maxTax <= 0 {
		return TierHighest
	}

	ratio := totalTax / maxTax
	switch {
	case ratio <= 0.2:
		return TierLow
	case ratio <= 0.4:
		return TierMediumLow
	case ratio <= 0.6:
		return TierMedium
	case ratio <= 0.8:
		return TierHigh
	default:
		return TierHighest
	}
}

// Money rounds an amount to two decimals for display and export
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Percent rounds a percentage to two decimals
func Percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Rate rounds an exchange rate to four decimals
func Rate(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(4)
}
