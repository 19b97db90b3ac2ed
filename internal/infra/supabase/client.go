// Package supabase provides a client for the Supabase PostgREST API,
// used as the document store for templates, transactions, accounts,
// credit lines and alerts.
package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/infra/resilience"
)

var tracer = otel.Tracer("supabase")

// BatchCeiling is the per-request row limit the store enforces on bulk
// inserts. Callers must stay below it; the generation engine chunks at
// 450 to leave headroom.
const BatchCeiling = 500

// Client wraps HTTP calls to Supabase PostgREST.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
	}
}

// doRequest executes an authenticated request to Supabase PostgREST.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("supabase returned status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return body, nil
}

// getWithRetry runs a GET through the circuit breaker and the retry
// policy. Used by the generation engine's read paths, which must ride
// out transient store hiccups without failing a whole run.
func (c *Client) getWithRetry(ctx context.Context, path string) ([]byte, error) {
	var body []byte
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			b, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// parseDate accepts the two date encodings the store produces: full
// RFC3339 timestamps and bare YYYY-MM-DD dates.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func parseDatePtr(s string) *time.Time {
	t := parseDate(s)
	if t.IsZero() {
		return nil
	}
	return &t
}
