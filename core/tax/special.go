package tax

import "taxmap/core/types"

// SpecialTaxes is the accumulated result of a country's levies
type SpecialTaxes struct {
	Total     float64                `json:"total"`
	Breakdown []types.SpecialTaxItem `json:"breakdown"`
}

// ComputeSpecialTaxes charges each rule independently on baseIncome.
//
// Every rule is charged on the gross base handed in, whatever its declared
// Target. Items whose Target says otherwise are marked TargetIgnored so
// callers can surface the mismatch.
func ComputeSpecialTaxes(baseIncome float64, rules []types.SpecialTaxRule) SpecialTaxes {
	out := SpecialTaxes{Breakdown: []types.SpecialTaxItem{}}

	for _, rule := range rules {
		amount := baseIncome * (rule.Rate / 100)
		out.Total += amount
		out.Breakdown = append(out.Breakdown, types.SpecialTaxItem{
			Type:          rule.Type,
			Rate:          rule.Rate,
			Target:        rule.Target,
			Description:   rule.Description,
			Amount:        amount,
			TargetIgnored: rule.Target != "" && rule.Target != types.LevyBaseGross,
		})
	}

	return out
}
