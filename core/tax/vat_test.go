package tax

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taxmap/core/types"
)

func rate(v float64) *float64 { return &v }

func TestComputeVAT(t *testing.T) {
	tests := []struct {
		name    string
		net     float64
		profile *types.VATProfile
		want    VAT
	}{
		{"nil profile", 1000, nil, VAT{}},
		{"no vat", 1000, &types.VATProfile{HasVAT: false, Standard: rate(20)}, VAT{}},
		{"missing standard", 1000, &types.VATProfile{HasVAT: true}, VAT{}},
		{"standard 20", 1000, &types.VATProfile{HasVAT: true, Standard: rate(20)}, VAT{Amount: 1000.0 * 20 / 120, Rate: 20, Applied: true}},
		{"reduced ignored", 1000, &types.VATProfile{HasVAT: true, Standard: rate(19), Reduced: []float64{7}}, VAT{Amount: 1000.0 * 19 / 119, Rate: 19, Applied: true}},
		{"negative net clamps", -50, &types.VATProfile{HasVAT: true, Standard: rate(20)}, VAT{Rate: 20, Applied: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeVAT(tt.net, tt.profile)
			assert.InDelta(t, tt.want.Amount, got.Amount, 1e-9)
			assert.Equal(t, tt.want.Rate, got.Rate)
			assert.Equal(t, tt.want.Applied, got.Applied)
		})
	}
}
