package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taxmap/core/catalog"
	"taxmap/core/currency"
	"taxmap/core/engine"
	"taxmap/core/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testServer(t *testing.T, mutate ...func(*Options)) *Server {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	opts := Options{
		Version:      "test",
		Catalog:      cat,
		Rates:        currency.NewStaticProvider(currency.Fallback()),
		Orchestrator: engine.NewOrchestrator(engine.WithWorkers(4), engine.WithLogger(zap.NewNop())),
		Logger:       zap.NewNop(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	return NewServer(opts)
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	rec := do(testServer(t), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "fallback", body["rates"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDEchoed(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}

func TestCalculate(t *testing.T) {
	s := testServer(t)
	rec := do(s, http.MethodPost, "/api/v1/calculate",
		`{"monthly_salary": 5000, "input_currency": "usd", "display_currency": "EUR"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, rec.Header().Get("X-Input-Hash"), 64)

	var resp struct {
		Batch struct {
			Results []types.TaxResult `json:"results"`
			Request engine.Request    `json:"request"`
		} `json:"batch"`
		Summary struct {
			Count int `json:"count"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, s.handler.catalog.Len(), len(resp.Batch.Results))
	assert.Equal(t, len(resp.Batch.Results), resp.Summary.Count)
	assert.Equal(t, types.CurrencyCode("USD"), resp.Batch.Request.InputCurrency)
	for i := 1; i < len(resp.Batch.Results); i++ {
		assert.GreaterOrEqual(t, resp.Batch.Results[i-1].Display.TotalTax, resp.Batch.Results[i].Display.TotalTax)
	}
}

func TestCalculateInvalidSalary(t *testing.T) {
	for _, body := range []string{
		`{"monthly_salary": 0}`,
		`{"monthly_salary": -10}`,
		`{"monthly_salary": "lots"}`,
		`not json`,
	} {
		rec := do(testServer(t), http.MethodPost, "/api/v1/calculate", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Code, body)
	}
}

func TestCalculateRatesUnavailable(t *testing.T) {
	s := testServer(t, func(o *Options) {
		// never becomes ready
		o.Rates = currency.NewProvider(blockingSource{})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/calculate", strings.NewReader(`{"monthly_salary": 100}`))
	ctx, cancel := context.WithTimeout(req.Context(), 20*time.Millisecond)
	defer cancel()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type blockingSource struct{}

func (blockingSource) Fetch(ctx context.Context) (*currency.RateTable, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestExport(t *testing.T) {
	rec := do(testServer(t), http.MethodPost, "/api/v1/export",
		`{"monthly_salary": 5000, "display_currency": "GBP"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "tax-comparison-GBP-")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Total Tax (GBP)", records[0][3])
	assert.Greater(t, len(records), 40)
}

func TestListCountries(t *testing.T) {
	s := testServer(t)

	rec := do(s, http.MethodGet, "/api/v1/countries", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all CountriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Equal(t, s.handler.catalog.Len(), all.Count)

	rec = do(s, http.MethodGet, "/api/v1/countries?system=flat", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var flat CountriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flat))
	assert.Less(t, flat.Count, all.Count)
	for _, c := range flat.Countries {
		assert.Equal(t, types.SystemFlat, c.System)
	}

	rec = do(s, http.MethodGet, "/api/v1/countries?system=feudal", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCountry(t *testing.T) {
	s := testServer(t)

	rec := do(s, http.MethodGet, "/api/v1/countries/ukraine", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p types.CountryTaxProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, types.CurrencyCode("UAH"), p.Currency)
	require.Len(t, p.SpecialTaxes, 1)
	assert.Equal(t, "military_tax", p.SpecialTaxes[0].Type)

	rec = do(s, http.MethodGet, "/api/v1/countries/atlantis", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PROFILE_NOT_FOUND", decodeError(t, rec).Code)
}

func TestCountryTax(t *testing.T) {
	s := testServer(t)

	rec := do(s, http.MethodGet, "/api/v1/countries/germany/tax?salary=5000&input=EUR&display=EUR", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CountryTaxResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "germany", resp.Result.CountryKey)
	assert.Equal(t, 1, resp.Result.Rank)
	assert.InDelta(t, 60000, resp.Result.Local.GrossIncome, 1e-6)
	assert.NotEmpty(t, resp.Brackets)
	assert.Greater(t, resp.MarginalRate, 0.0)

	sum := 0.0
	for _, b := range resp.Brackets {
		sum += b.Tax
	}
	assert.InDelta(t, resp.Result.Local.IncomeTax, sum, 1e-6)
	assert.Empty(t, resp.Explanations)
}

func TestCountryTaxExplain(t *testing.T) {
	rec := do(testServer(t), http.MethodGet, "/api/v1/countries/germany/tax?salary=5000&input=EUR&explain=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CountryTaxResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Explanations)
	assert.Equal(t, "gross_income", resp.Explanations[0].Component)
	assert.Equal(t, "60000.00", resp.Explanations[0].Amount)
	assert.Equal(t, "total_tax", resp.Explanations[len(resp.Explanations)-1].Component)
}

func TestCountryTaxBadSalary(t *testing.T) {
	s := testServer(t)

	rec := do(s, http.MethodGet, "/api/v1/countries/germany/tax?salary=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodGet, "/api/v1/countries/germany/tax?salary=-5", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodGet, "/api/v1/countries/nowhere/tax?salary=5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompare(t *testing.T) {
	s := testServer(t)

	rec := do(s, http.MethodGet, "/api/v1/compare?base=germany&head=united_arab_emirates&salary=5000", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CompareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Delta.TotalTax.IsNegative())
	assert.Contains(t, resp.Delta.Summary, "saves")

	rec = do(s, http.MethodGet, "/api/v1/compare?base=germany&salary=5000", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRates(t *testing.T) {
	rec := do(testServer(t), http.MethodGet, "/api/v1/rates", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RatesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.CurrencyCode("USD"), resp.Base)
	assert.Equal(t, currency.OriginFallback, resp.Origin)
	assert.Equal(t, 46, resp.Count)
	assert.Equal(t, 1.0, resp.Rates["USD"])
}

func TestNoRoute(t *testing.T) {
	rec := do(testServer(t), http.MethodGet, "/api/v2/anything", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestRateLimit(t *testing.T) {
	s := testServer(t, func(o *Options) {
		o.RequestsPerSecond = 0.001
		o.Burst = 2
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(s, http.MethodGet, "/version", "").Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// health is exempt
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/health", "").Code)

	assert.Equal(t, 0, s.Limiter().Cleanup(time.Now()))
	assert.Equal(t, 1, s.Limiter().Cleanup(time.Now().Add(time.Hour)))
}

func TestCORS(t *testing.T) {
	s := testServer(t, func(o *Options) {
		o.AllowedOrigins = []string{"https://taxmap.example"}
	})

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	req.Header.Set("Origin", "https://taxmap.example")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, "https://taxmap.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
