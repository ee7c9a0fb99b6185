// Package api - HTTP handlers for the tax comparison API
// Handlers only decode input, call the engine and serialize output.
package api

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taxmap/api/envelope"
	"taxmap/core/catalog"
	"taxmap/core/currency"
	"taxmap/core/engine"
	"taxmap/core/explanation"
	"taxmap/core/output"
	"taxmap/core/tax"
	"taxmap/core/types"
	"taxmap/internal/errors"
)

// RateProvider is the subset of currency.Provider the handlers use
type RateProvider interface {
	Snapshot(ctx context.Context) (*currency.RateTable, error)
	Current() *currency.RateTable
}

// Handler serves the API routes
type Handler struct {
	catalog      *catalog.Catalog
	rates        RateProvider
	orchestrator *engine.Orchestrator
	normalizer   *envelope.Normalizer
	audit        envelope.AuditLogger
	logger       *zap.Logger
	version      string
	started      time.Time
}

// NewHandler creates a handler
func NewHandler(opts Options) *Handler {
	return &Handler{
		catalog:      opts.Catalog,
		rates:        opts.Rates,
		orchestrator: opts.Orchestrator,
		normalizer:   envelope.NewNormalizer(opts.DefaultInputCurrency, opts.DefaultDisplayCurrency),
		audit:        envelope.ZapAuditLogger{Logger: opts.Logger.Named("audit")},
		logger:       opts.Logger,
		version:      opts.Version,
		started:      time.Now(),
	}
}

// prepare normalizes raw input and pins it to the current rate snapshot
func (h *Handler) prepare(ctx context.Context, raw envelope.RawInput) (*envelope.InputEnvelope, engine.CalculationContext, error) {
	env, err := h.normalizer.Normalize(raw)
	if err != nil {
		return nil, engine.CalculationContext{}, err
	}
	cc, err := engine.NewCalculationContext(ctx, h.catalog, h.rates)
	if err != nil {
		return nil, engine.CalculationContext{}, err
	}
	env.Pin(cc.Rates.ID())
	return env, cc, nil
}

// runBatch calculates every country for a request body and records an audit entry
func (h *Handler) runBatch(c *gin.Context) (*engine.Batch, *envelope.InputEnvelope, bool) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.InvalidInputf("invalid request body: %v", err))
		return nil, nil, false
	}

	start := time.Now()
	env, cc, err := h.prepare(c.Request.Context(), envelope.RawInput{
		MonthlySalary:   req.MonthlySalary,
		InputCurrency:   req.InputCurrency,
		DisplayCurrency: req.DisplayCurrency,
	})
	if err != nil {
		writeError(c, err)
		return nil, nil, false
	}

	entry := envelope.CreateAuditEntry(env, GetRequestID(c), c.ClientIP(), c.Request.UserAgent())
	batch, err := h.orchestrator.CalculateAll(c.Request.Context(), cc, env.Request())
	entry.SetDuration(time.Since(start))
	if err != nil {
		entry.MarkFailed(err)
		h.audit.Log(entry)
		writeError(c, err)
		return nil, nil, false
	}
	h.audit.Log(entry)

	c.Header("X-Input-Hash", env.InputHash)
	return batch, env, true
}

// Calculate handles POST /api/v1/calculate
func (h *Handler) Calculate(c *gin.Context) {
	batch, _, ok := h.runBatch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, CalculateResponse{
		Batch:   batch,
		Summary: output.Summarize(batch.Results),
	})
}

// Export handles POST /api/v1/export
func (h *Handler) Export(c *gin.Context) {
	batch, env, ok := h.runBatch(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := (output.CSVFormatter{}).Render(&buf, output.NewReport(batch)); err != nil {
		writeError(c, errors.Internal("csv export failed", err))
		return
	}

	filename := fmt.Sprintf("tax-comparison-%s-%s.csv", env.DisplayCurrency, env.ShortHash())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ListCountries handles GET /api/v1/countries. The optional system query
// parameter filters by tax system.
func (h *Handler) ListCountries(c *gin.Context) {
	var filter types.SystemKind
	if s := c.Query("system"); s != "" {
		kind, ok := types.ParseSystemKind(strings.ToLower(s))
		if !ok {
			writeError(c, errors.InvalidInputf("unknown tax system %q", s))
			return
		}
		filter = kind
	}

	countries := make([]CountrySummary, 0, h.catalog.Len())
	for _, p := range h.catalog.Profiles() {
		if filter != "" && p.System != filter {
			continue
		}
		countries = append(countries, summarizeProfile(p))
	}

	c.JSON(http.StatusOK, CountriesResponse{Countries: countries, Count: len(countries)})
}

// GetCountry handles GET /api/v1/countries/:key
func (h *Handler) GetCountry(c *gin.Context) {
	profile, err := h.catalog.Get(c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// CountryTax handles GET /api/v1/countries/:key/tax
func (h *Handler) CountryTax(c *gin.Context) {
	profile, err := h.catalog.Get(c.Param("key"))
	if err != nil {
		writeError(c, err)
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

	res, err := h.orchestrator.CalculateCountry(cc, profile.Key, env.Request())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := CountryTaxResponse{Result: res}
	if profile.System == types.SystemProgressive {
		resp.Brackets = tax.Breakdown(res.Local.GrossIncome, profile.Brackets)
		resp.MarginalRate = tax.MarginalRate(res.Local.GrossIncome, profile.Brackets)
	} else if n := len(profile.Brackets); n > 0 && profile.System == types.SystemFlat {
		resp.MarginalRate = profile.Brackets[0].Rate
	}

	if c.Query("explain") == "true" {
		resp.Explanations = explanation.Explain(res, profile, env.MonthlySalary, env.InputCurrency)
	}

	c.Header("X-Input-Hash", env.InputHash)
	c.JSON(http.StatusOK, resp)
}

// Rates handles GET /api/v1/rates
func (h *Handler) Rates(c *gin.Context) {
	table, err := h.rates.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, RatesResponse{
		ID:        table.ID(),
		Base:      table.Base(),
		Origin:    table.Origin(),
		FetchedAt: table.FetchedAt(),
		Count:     table.Len(),
		Rates:     table.Rates(),
	})
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	resp := gin.H{
		"status":    "healthy",
		"version":   h.version,
		"countries": h.catalog.Len(),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"time":      time.Now().UTC().Format(time.RFC3339),
	}
	if t := h.rates.Current(); t != nil {
		resp["rates"] = t.Origin().String()
	} else {
		resp["rates"] = "loading"
	}
	c.JSON(http.StatusOK, resp)
}

// Version handles GET /version
func (h *Handler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":     h.version,
		"engine":      "taxmap",
		"api_version": "v1",
	})
}

// statusFor maps domain error types to HTTP statuses
func statusFor(t errors.Type) int {
	switch t {
	case errors.TypeInvalidInput:
		return http.StatusBadRequest
	case errors.TypeProfileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	t := errors.TypeOf(err)
	message := err.Error()
	var e *errors.Error
	if stderrors.As(err, &e) {
		message = e.Message
	}
	_ = c.Error(err)
	abortWithError(c, statusFor(t), string(t), message)
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: GetRequestID(c),
	}})
}
