package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taxmap/core/catalog"
	"taxmap/core/currency"
	"taxmap/core/tax"
	"taxmap/core/types"
	"taxmap/internal/errors"
)

func testContext(t *testing.T) CalculationContext {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return CalculationContext{Catalog: cat, Rates: currency.Fallback()}
}

func testOrchestrator() *Orchestrator {
	return NewOrchestrator(WithWorkers(4), WithLogger(zap.NewNop()))
}

func TestCalculateAllCompleteAndSorted(t *testing.T) {
	cc := testContext(t)

	batch, err := testOrchestrator().CalculateAll(context.Background(), cc, Request{
		MonthlySalary:   5000,
		InputCurrency:   "usd",
		DisplayCurrency: "EUR",
	})
	require.NoError(t, err)

	require.Len(t, batch.Results, cc.Catalog.Len())
	assert.Equal(t, types.CurrencyCode("USD"), batch.Request.InputCurrency)
	assert.Equal(t, currency.OriginFallback, batch.RateOrigin)
	assert.Equal(t, cc.Rates.ID(), batch.RateSnapshotID)
	assert.NotEmpty(t, batch.RunID)
	assert.Zero(t, batch.Failed)

	seen := make(map[string]bool)
	for i, r := range batch.Results {
		seen[r.CountryKey] = true
		assert.Equal(t, i+1, r.Rank)
		assert.Equal(t, types.CurrencyCode("EUR"), r.Display.Currency)
		if i > 0 {
			assert.GreaterOrEqual(t, batch.Results[i-1].Display.TotalTax, r.Display.TotalTax)
		}

		for _, a := range []types.Amounts{r.Local, r.Display} {
			tol := 1e-9 * math.Max(1, a.GrossIncome)
			assert.InDelta(t, a.IncomeTax+a.SpecialTaxAmount+a.VATAmount, a.TotalTax, tol, r.CountryKey)
			assert.InDelta(t, a.GrossIncome-a.TotalTax, a.NetIncome, tol, r.CountryKey)
		}
	}
	for _, key := range cc.Catalog.Keys() {
		assert.True(t, seen[key], key)
	}
}

func TestCalculateAllConvertsCurrencies(t *testing.T) {
	cc := testContext(t)

	batch, err := testOrchestrator().CalculateAll(context.Background(), cc, Request{
		MonthlySalary:   5000,
		InputCurrency:   "USD",
		DisplayCurrency: "EUR",
	})
	require.NoError(t, err)

	us, ok := batch.Find("united_states")
	require.True(t, ok)
	assert.Equal(t, 1.0, us.ExchangeRate)
	assert.Equal(t, 60000.0, us.Local.GrossIncome)
	assert.InDelta(t, us.Local.TotalTax*0.85, us.Display.TotalTax, 1e-9)
	assert.InDelta(t, 60000*0.85, us.Display.GrossIncome, 1e-9)

	de, ok := batch.Find("germany")
	require.True(t, ok)
	assert.InDelta(t, 0.85, de.ExchangeRate, 1e-12)
	assert.InDelta(t, 51000, de.Local.GrossIncome, 1e-6)
	assert.InDelta(t, 51000, de.Display.GrossIncome, 1e-6)
	assert.True(t, de.HasVAT)
	assert.Equal(t, 19.0, de.VATRate)
}

func TestCalculateAllDegradesMissingCurrency(t *testing.T) {
	cc := testContext(t)

	batch, err := testOrchestrator().CalculateAll(context.Background(), cc, Request{
		MonthlySalary:   1000,
		InputCurrency:   "USD",
		DisplayCurrency: "EUR",
	})
	require.NoError(t, err)

	// UAH is not in the fallback table
	ua, ok := batch.Find("ukraine")
	require.True(t, ok)
	assert.False(t, ua.Failed())
	assert.True(t, ua.RateDegraded)
	assert.Equal(t, 1.0, ua.ExchangeRate)
	assert.Equal(t, 12000.0, ua.Local.GrossIncome)
	assert.InDelta(t, 2160, ua.Local.IncomeTax, 1e-9)
	assert.InDelta(t, 600, ua.Local.SpecialTaxAmount, 1e-9)
	assert.True(t, ua.HasSpecialTaxes)
	assert.Positive(t, batch.Degraded)
}

func TestCalculateAllIsolatesFailures(t *testing.T) {
	broken := &types.CountryTaxProfile{Key: "broken", Name: "Broken", Currency: "USD", System: types.SystemFlat}
	healthy := &types.CountryTaxProfile{Key: "healthy", Name: "Healthy", Currency: "USD", System: types.SystemFlat,
		Brackets: []types.TaxBracket{types.OpenBracket(0, 10)}}
	cc := CalculationContext{Catalog: catalog.New(broken, healthy), Rates: currency.Fallback()}

	batch, err := testOrchestrator().CalculateAll(context.Background(), cc, Request{MonthlySalary: 1000})
	require.NoError(t, err)
	require.Len(t, batch.Results, 2)

	assert.Equal(t, "healthy", batch.Results[0].CountryKey)
	failed := batch.Results[1]
	assert.Equal(t, "broken", failed.CountryKey)
	assert.True(t, failed.Failed())
	assert.Zero(t, failed.Display.TotalTax)
	assert.Equal(t, 1.0, failed.ExchangeRate)
	assert.Equal(t, 1, batch.Failed)
}

func TestCalculateAllRejectsInvalidSalary(t *testing.T) {
	cc := testContext(t)

	for _, salary := range []float64{0, -100, math.NaN(), math.Inf(1)} {
		batch, err := testOrchestrator().CalculateAll(context.Background(), cc, Request{MonthlySalary: salary})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.TypeInvalidInput))
		assert.Nil(t, batch)
	}
}

func TestCalculateAllIsDeterministic(t *testing.T) {
	cc := testContext(t)
	req := Request{MonthlySalary: 3200, InputCurrency: "GBP", DisplayCurrency: "USD"}

	a, err := testOrchestrator().CalculateAll(context.Background(), cc, req)
	require.NoError(t, err)
	b, err := NewOrchestrator(WithWorkers(1), WithLogger(zap.NewNop())).CalculateAll(context.Background(), cc, req)
	require.NoError(t, err)

	require.Equal(t, len(a.Results), len(b.Results))
	for i := range a.Results {
		assert.Equal(t, a.Results[i].CountryKey, b.Results[i].CountryKey)
	}
}

func TestCalculateAllCancelled(t *testing.T) {
	cc := testContext(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testOrchestrator().CalculateAll(ctx, cc, Request{MonthlySalary: 1000})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateCountry(t *testing.T) {
	cc := testContext(t)
	o := testOrchestrator()

	r, err := o.CalculateCountry(cc, "United Kingdom", Request{MonthlySalary: 4000, InputCurrency: "GBP", DisplayCurrency: "GBP"})
	require.NoError(t, err)
	assert.Equal(t, "united_kingdom", r.CountryKey)
	assert.Equal(t, 1.0, r.ExchangeRate)
	assert.Equal(t, r.Local.TotalTax, r.Display.TotalTax)
	assert.True(t, r.HasVAT)

	_, err = o.CalculateCountry(cc, "atlantis", Request{MonthlySalary: 4000})
	assert.True(t, errors.IsType(err, errors.TypeProfileNotFound))

	_, err = o.CalculateCountry(cc, "france", Request{MonthlySalary: -1})
	assert.True(t, errors.IsType(err, errors.TypeInvalidInput))
}

func TestCatalogIncomeTaxIsMonotonic(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	for _, p := range cat.Profiles() {
		prev := 0.0
		for income := 0.0; income <= 2_000_000; income += 9_973 {
			got, err := tax.IncomeTax(income, p)
			require.NoError(t, err, p.Key)
			assert.GreaterOrEqual(t, got+1e-9, prev, "%s at %v", p.Key, income)
			prev = got
		}
	}
}

func TestRankIsStable(t *testing.T) {
	results := []types.TaxResult{
		{CountryKey: "a", Display: types.Amounts{TotalTax: 10}},
		{CountryKey: "b", Display: types.Amounts{TotalTax: 20}},
		{CountryKey: "c", Display: types.Amounts{TotalTax: 10}},
		{CountryKey: "d", Display: types.Amounts{TotalTax: 0}},
	}
	Rank(results)

	keys := []string{results[0].CountryKey, results[1].CountryKey, results[2].CountryKey, results[3].CountryKey}
	assert.Equal(t, []string{"b", "a", "c", "d"}, keys)
	assert.Equal(t, 4, results[3].Rank)
}
