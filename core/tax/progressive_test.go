package tax

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taxmap/core/types"
)

func twoBand() []types.TaxBracket {
	return []types.TaxBracket{
		types.Bracket(0, 1000, 0),
		types.OpenBracket(1000, 20),
	}
}

func TestComputeProgressiveTax(t *testing.T) {
	usLike := []types.TaxBracket{
		types.Bracket(0, 10000, 10),
		types.Bracket(10000, 40000, 20),
		types.OpenBracket(40000, 40),
	}

	tests := []struct {
		name     string
		income   float64
		brackets []types.TaxBracket
		want     float64
	}{
		{"two band", 5000, twoBand(), 800},
		{"at first ceiling", 1000, twoBand(), 0},
		{"zero income", 0, twoBand(), 0},
		{"negative income", -10, twoBand(), 0},
		{"no brackets", 5000, nil, 0},
		{"inside first band", 5000, usLike, 500},
		{"spans two bands", 25000, usLike, 1000 + 3000},
		{"reaches open band", 100000, usLike, 1000 + 6000 + 24000},
		{"single open band", 12000, []types.TaxBracket{types.OpenBracket(0, 18)}, 2160},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeProgressiveTax(tt.income, tt.brackets), 1e-9)
		})
	}
}

func TestComputeProgressiveTaxGappedBrackets(t *testing.T) {
	// Catalog brackets are often written with a one unit gap: 0-12550, 12551-...
	brackets := []types.TaxBracket{
		types.Bracket(0, 12550, 10),
		types.OpenBracket(12551, 12),
	}

	got := ComputeProgressiveTax(20000, brackets)
	assert.InDelta(t, 1255+(20000-12551)*0.12, got, 1e-9)
}

func TestComputeProgressiveTaxIsMonotonic(t *testing.T) {
	brackets := []types.TaxBracket{
		types.Bracket(0, 12550, 10),
		types.Bracket(12551, 50800, 12),
		types.Bracket(50801, 129500, 22),
		types.OpenBracket(129501, 37),
	}

	prev := 0.0
	for income := 0.0; income <= 300000; income += 737 {
		got := ComputeProgressiveTax(income, brackets)
		assert.GreaterOrEqual(t, got, prev, "income %v", income)
		prev = got
	}
}

func TestBreakdown(t *testing.T) {
	brackets := []types.TaxBracket{
		types.Bracket(0, 10000, 10),
		types.Bracket(10000, 40000, 20),
		types.OpenBracket(40000, 40),
	}

	fills := Breakdown(25000, brackets)
	assert.Len(t, fills, 3)

	assert.InDelta(t, 10000, fills[0].Taxable, 1e-9)
	assert.InDelta(t, 100, fills[0].FillPct, 1e-9)
	assert.InDelta(t, 15000, fills[1].Taxable, 1e-9)
	assert.InDelta(t, 50, fills[1].FillPct, 1e-9)
	assert.Zero(t, fills[2].Taxable)
	assert.Zero(t, fills[2].FillPct)

	var sum float64
	for _, f := range fills {
		sum += f.Tax
	}
	assert.InDelta(t, ComputeProgressiveTax(25000, brackets), sum, 1e-9)
}

func TestMarginalRate(t *testing.T) {
	assert.Equal(t, 0.0, MarginalRate(500, twoBand()))
	assert.Equal(t, 20.0, MarginalRate(5000, twoBand()))
}
