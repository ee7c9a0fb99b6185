package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"taxmap/core/types"
	"taxmap/internal/errors"
	"taxmap/internal/logging"
)

//go:generate mockgen -source=source.go -destination=mocks/mock_source.go -package=mocks

// Source produces a complete rate table
type Source interface {
	Fetch(ctx context.Context) (*RateTable, error)
}

// HTTPSource fetches rates from an exchangerate-api style JSON endpoint:
// {"base": "USD", "rates": {"EUR": 0.85, ...}}
type HTTPSource struct {
	url        string
	client     *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// HTTPOption configures an HTTPSource
type HTTPOption func(*HTTPSource)

// WithHTTPClient sets the HTTP client
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.client = c }
}

// WithMaxRetries sets the retry count after the first attempt
func WithMaxRetries(n int) HTTPOption {
	return func(s *HTTPSource) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithInitialBackoff sets the first retry delay
func WithInitialBackoff(d time.Duration) HTTPOption {
	return func(s *HTTPSource) { s.backoff = d }
}

// WithSourceLogger sets the logger
func WithSourceLogger(l *zap.Logger) HTTPOption {
	return func(s *HTTPSource) { s.logger = l }
}

// NewHTTPSource creates a source for url
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:        url,
		client:     &http.Client{Timeout: 10 * time.Second},
		maxRetries: 2,
		backoff:    250 * time.Millisecond,
		logger:     logging.Named("currency"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Fetch downloads and validates a rate table, retrying transient failures
// with exponential backoff until ctx expires.
func (s *HTTPSource) Fetch(ctx context.Context) (*RateTable, error) {
	var table *RateTable
	attempt := 0

	operation := func() error {
		attempt++
		t, err := s.fetchOnce(ctx)
		if err != nil {
			s.logger.Debug("rate fetch attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		table = t
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = s.backoff
	expBackoff.MaxInterval = 2 * time.Second
	expBackoff.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(s.maxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.RateFetch("rate fetch abandoned", ctxErr)
		}
		return nil, errors.RateFetch(fmt.Sprintf("failed to fetch rates from %s", s.url), err)
	}

	s.logger.Info("exchange rates fetched",
		zap.String("snapshot", table.ID()),
		zap.Int("currencies", table.Len()),
		zap.Int("attempts", attempt))
	return table, nil
}

func (s *HTTPSource) fetchOnce(ctx context.Context) (*RateTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("rate API returned status %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var payload ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode rates: %w", err))
	}

	base := types.NormalizeCurrency(payload.Base)
	if base == "" {
		base = types.CurrencyUSD
	}
	rates := make(map[types.CurrencyCode]float64, len(payload.Rates))
	for code, rate := range payload.Rates {
		rates[types.NormalizeCurrency(code)] = rate
	}

	table, err := NewRateTable(base, rates, OriginLive, time.Now())
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return table, nil
}

// StaticSource always returns the same table
type StaticSource struct {
	Table *RateTable
}

// Fetch returns the static table
func (s StaticSource) Fetch(ctx context.Context) (*RateTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Table == nil {
		return nil, errors.RateFetch("static source has no table", nil)
	}
	return s.Table, nil
}
