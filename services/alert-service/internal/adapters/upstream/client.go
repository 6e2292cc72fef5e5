// Package upstream provides the live-call plumbing shared by the data adapters: per-call
// timeouts, per-provider rate limiting and JSON decoding. Every failure comes back as an
// *apperr.UpstreamError so the adapter can decide to fall back.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
)

const (
	// DefaultTimeout bounds a single live call, including rate-limit waiting.
	DefaultTimeout = 8 * time.Second
	maxBodyBytes   = 5 << 20
)

// Counter is the metrics surface adapters use to count fallbacks.
type Counter interface {
	IncrementCustom(name string)
}

type noopCounter struct{}

func (noopCounter) IncrementCustom(string) {}

// NoOpCounter discards counts.
var NoOpCounter Counter = noopCounter{}

// Options configures a Client.
type Options struct {
	// Timeout bounds each call. Zero means DefaultTimeout.
	Timeout time.Duration
	// RatePerSecond limits calls to the provider. Zero disables limiting.
	RatePerSecond float64
	// Burst is the limiter burst size. Zero means 1.
	Burst int
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client performs bounded calls against one provider.
type Client struct {
	provider string
	http     *http.Client
	timeout  time.Duration
	limiter  *rate.Limiter
}

// New creates a client for the named provider.
func New(provider string, opts Options) *Client {
	c := &Client{
		provider: provider,
		http:     opts.HTTPClient,
		timeout:  opts.Timeout,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return c
}

// Provider returns the provider name used in logs and source tags.
func (c *Client) Provider() string {
	return c.provider
}

// GetJSON issues a GET with the given query and headers and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, op, rawURL string, query url.Values, headers map[string]string, out any) *apperr.UpstreamError {
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + query.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return c.fail(op, 0, fmt.Errorf("failed to build request: %w", err))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(ctx, op, req, out)
}

// PostForm issues a form-encoded POST and decodes the JSON body into out.
func (c *Client) PostForm(ctx context.Context, op, rawURL string, form url.Values, out any) *apperr.UpstreamError {
	req, err := http.NewRequest(http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return c.fail(op, 0, fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(ctx, op, req, out)
}

func (c *Client) do(ctx context.Context, op string, req *http.Request, out any) *apperr.UpstreamError {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.fail(op, 0, fmt.Errorf("rate limit wait: %w", err))
		}
	}

	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return c.fail(op, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.fail(op, 0, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apperr.UpstreamError{
			Provider:   c.provider,
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200)),
		}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return c.fail(op, 0, fmt.Errorf("failed to decode response: %w", err))
		}
	}
	return nil
}

func (c *Client) fail(op string, status int, err error) *apperr.UpstreamError {
	return &apperr.UpstreamError{Provider: c.provider, Op: op, StatusCode: status, Err: err}
}

// LogFallback records that an adapter is serving synthetic data instead of a live result.
func LogFallback(adapter string, uerr *apperr.UpstreamError, counter Counter, attrs ...any) {
	args := append([]any{"adapter", adapter, "error", uerr}, attrs...)
	slog.Warn("Upstream unavailable, serving synthetic data", args...)
	if counter != nil {
		counter.IncrementCustom("adapter_fallback_" + adapter)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
