// Package upstream holds the third-party HTTP clients. Every call runs with an
// explicit timeout behind a per-service circuit breaker, and failures are
// classified into domain upstream errors.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fitcommunity/config"
	"fitcommunity/internal/domain"
	"fitcommunity/internal/logging"
	"fitcommunity/internal/metrics"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

const maxBody = 4 << 20

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
}

// Client is a JSON HTTP client for one upstream service.
type Client struct {
	name      string
	baseURL   string
	apiKey    string
	userAgent string
	headers   map[string]string
	http      *http.Client
	cb        *gobreaker.CircuitBreaker[[]byte]
}

type Option func(*Client)

// WithHeader adds a static header to every request.
func WithHeader(k, v string) Option {
	return func(c *Client) { c.headers[k] = v }
}

// WithHTTPClient replaces the transport; tests point it at httptest servers.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a client for one upstream. The breaker opens after five
// consecutive failures and retries after thirty seconds.
func NewClient(name string, svc config.ServiceConfig, userAgent string, opts ...Option) *Client {
	timeout := svc.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		name:      name,
		baseURL:   strings.TrimRight(svc.BaseURL, "/"),
		apiKey:    svc.APIKey,
		userAgent: userAgent,
		headers:   map[string]string{},
		http:      &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	metrics.UpstreamBreakerState.WithLabelValues(name).Set(0)
	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// a 4xx is our fault, not the upstream's
			var se *StatusError
			if errors.As(err, &se) && se.Status >= 400 && se.Status < 500 && se.Status != http.StatusTooManyRequests {
				return true
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("service", name).Str("from", from.String()).Str("to", to.String()).Msg("upstream breaker state change")
			metrics.UpstreamBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return c
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (c *Client) Name() string   { return c.name }
func (c *Client) APIKey() string { return c.apiKey }

// State exposes the breaker state for health output.
func (c *Client) State() string { return c.cb.State().String() }

// GetJSON issues GET baseURL+path?query and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, headers map[string]string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	body, err := c.do(ctx, http.MethodGet, u, nil, headers)
	if err != nil {
		return err
	}
	return c.decode(body, out)
}

// PostJSON marshals in, POSTs it and returns the raw response body.
func (c *Client) PostJSON(ctx context.Context, path string, in any, headers map[string]string) ([]byte, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, c.baseURL+path, payload, headers)
}

func (c *Client) decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		metrics.UpstreamRequests.WithLabelValues(c.name, "error").Inc()
		return domain.Upstream(c.name, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, u string, payload []byte, headers map[string]string) ([]byte, error) {
	body, err := c.cb.Execute(func() ([]byte, error) {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rd)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			snippet := string(b)
			if len(snippet) > 200 {
				snippet = snippet[:200]
			}
			return nil, &StatusError{Status: resp.StatusCode, Body: snippet}
		}
		return b, nil
	})
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(c.name, "error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("service", c.name).Msg("upstream call failed")
		return nil, c.classify(err)
	}
	metrics.UpstreamRequests.WithLabelValues(c.name, "ok").Inc()
	return body, nil
}

func (c *Client) classify(err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return domain.UpstreamUnavailable(c.name, err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return domain.UpstreamTimeout(c.name, err)
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.Status == http.StatusServiceUnavailable || se.Status == http.StatusTooManyRequests {
			return domain.UpstreamUnavailable(c.name, err)
		}
		return domain.Upstream(c.name, err)
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return domain.UpstreamUnavailable(c.name, err)
	}
	return domain.Upstream(c.name, err)
}

func unavailable(c *Client, err error) error {
	return domain.UpstreamUnavailable(c.name, err)
}
