// Package api - Side-by-side comparison of two countries
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"taxmap/api/envelope"
	"taxmap/core/types"
	"taxmap/internal/errors"
)

// CompareResponse is the output of GET /api/v1/compare
type CompareResponse struct {
	Base      types.TaxResult `json:"base"`
	Head      types.TaxResult `json:"head"`
	Delta     CompareDelta    `json:"delta"`
	InputHash string          `json:"input_hash"`
}

// CompareDelta is head minus base in the display currency
type CompareDelta struct {
	TotalTax      decimal.Decimal `json:"total_tax"`
	NetIncome     decimal.Decimal `json:"net_income"`
	EffectiveRate decimal.Decimal `json:"effective_rate"`
	Summary       string          `json:"summary"`
}

// Compare handles GET /api/v1/compare?base=&head=&salary=&input=&display=
func (h *Handler) Compare(c *gin.Context) {
	baseKey, headKey := c.Query("base"), c.Query("head")
	if baseKey == "" || headKey == "" {
		writeError(c, errors.InvalidInput("base and head country keys are required"))
		return
	}

	salary, err := strconv.ParseFloat(c.Query("salary"), 64)
	if err != nil {
		writeError(c, errors.InvalidInputf("salary must be a number, got %q", c.Query("salary")))
		return
	}

	env, cc, err := h.prepare(c.Request.Context(), envelope.RawInput{
		MonthlySalary:   salary,
		InputCurrency:   c.Query("input"),
		DisplayCurrency: c.Query("display"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	base, err := h.orchestrator.CalculateCountry(cc, baseKey, env.Request())
	if err != nil {
		writeError(c, err)
		return
	}
	head, err := h.orchestrator.CalculateCountry(cc, headKey, env.Request())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, CompareResponse{
		Base:      base,
		Head:      head,
		Delta:     computeDelta(base, head),
		InputHash: env.InputHash,
	})
}

func computeDelta(base, head types.TaxResult) CompareDelta {
	totalTax := decimal.NewFromFloat(head.Display.TotalTax).Sub(decimal.NewFromFloat(base.Display.TotalTax)).Round(2)
	d := CompareDelta{
		TotalTax:      totalTax,
		NetIncome:     decimal.NewFromFloat(head.Display.NetIncome).Sub(decimal.NewFromFloat(base.Display.NetIncome)).Round(2),
		EffectiveRate: decimal.NewFromFloat(head.EffectiveRate).Sub(decimal.NewFromFloat(base.EffectiveRate)).Round(2),
	}

	switch totalTax.Sign() {
	case 1:
		d.Summary = head.CountryName + " costs " + totalTax.StringFixed(2) + " " + string(head.Display.Currency) + " more per year than " + base.CountryName
	case -1:
		d.Summary = head.CountryName + " saves " + totalTax.Neg().StringFixed(2) + " " + string(head.Display.Currency) + " per year over " + base.CountryName
	default:
		d.Summary = head.CountryName + " and " + base.CountryName + " cost the same"
	}
	return d
}
