package tax

import "taxmap/core/types"

// VAT is the estimated consumption tax on spending
type VAT struct {
	Amount  float64 `json:"amount"`
	Rate    float64 `json:"rate"`
	Applied bool    `json:"applied"`
}

// ComputeVAT backs the VAT component out of netSpendable, treating all of it
// as spent on goods at the standard rate: amount = net * rate / (100 + rate).
// Reduced and zero-rated categories are not modelled.
func ComputeVAT(netSpendable float64, profile *types.VATProfile) VAT {
	if profile == nil || !profile.HasVAT || profile.Standard == nil {
		return VAT{}
	}

	rate := *profile.Standard
	if netSpendable <= 0 || rate <= 0 {
		return VAT{Rate: rate, Applied: true}
	}

	return VAT{
		Amount:  netSpendable * rate / (100 + rate),
		Rate:    rate,
		Applied: true,
	}
}
