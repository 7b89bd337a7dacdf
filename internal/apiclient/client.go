// internal/apiclient/client.go
// Package apiclient talks to the forecast outputs API: the granularity catalog,
// per-model metrics and prediction series, and the chat endpoint.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mwiater/gridcast/internal/forecast"
	"github.com/mwiater/gridcast/internal/logging"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when the API answers 404 for a resource.
var ErrNotFound = errors.New("resource not found")

// StatusError reports a non-2xx response other than 404.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, body)
}

// Client is an outputs API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit paces outbound requests. A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New builds a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

type granularitiesResponse struct {
	Granularities []forecast.Granularity `json:"granularities"`
}

type availableResponse struct {
	Available map[string][]forecast.CatalogEntry `json:"available"`
}

type chatRequest struct {
	Message string `json:"message"`
	Context any    `json:"context"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Granularities fetches the granularity catalog.
func (c *Client) Granularities(ctx context.Context) ([]forecast.Granularity, error) {
	body, err := c.do(ctx, http.MethodGet, "/granularities", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch granularities: %w", err)
	}
	var out granularitiesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode granularities: %w", err)
	}
	return out.Granularities, nil
}

// Available fetches the trained (model, horizon) pairs for every granularity.
func (c *Client) Available(ctx context.Context) (map[string][]forecast.CatalogEntry, error) {
	body, err := c.do(ctx, http.MethodGet, "/available", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch available models: %w", err)
	}
	var out availableResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode available models: %w", err)
	}
	if out.Available == nil {
		out.Available = map[string][]forecast.CatalogEntry{}
	}
	return out.Available, nil
}

// Catalog fetches granularities and availability together.
func (c *Client) Catalog(ctx context.Context) (forecast.Catalog, error) {
	grans, err := c.Granularities(ctx)
	if err != nil {
		return forecast.Catalog{}, err
	}
	avail, err := c.Available(ctx)
	if err != nil {
		return forecast.Catalog{}, err
	}
	return forecast.Catalog{Granularities: grans, Available: avail}, nil
}

func modelQuery(code, model string, horizon int) url.Values {
	q := url.Values{}
	q.Set("granularity", code)
	q.Set("model", model)
	q.Set("horizon", strconv.Itoa(horizon))
	return q
}

// Metrics fetches and validates one model's evaluation metrics.
func (c *Client) Metrics(ctx context.Context, code, model string, horizon int) (forecast.MetricsSnapshot, error) {
	body, err := c.do(ctx, http.MethodGet, "/metrics", modelQuery(code, model, horizon), nil)
	if err != nil {
		return forecast.MetricsSnapshot{}, fmt.Errorf("fetch metrics for %s: %w", model, err)
	}
	m, err := forecast.DecodeMetrics(body)
	if err != nil {
		return forecast.MetricsSnapshot{}, fmt.Errorf("metrics for %s: %w", model, err)
	}
	return m, nil
}

// Predictions fetches and validates one model's prediction series.
func (c *Client) Predictions(ctx context.Context, code, model string, horizon int) ([]forecast.PredictionPoint, error) {
	body, err := c.do(ctx, http.MethodGet, "/predict", modelQuery(code, model, horizon), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch predictions for %s: %w", model, err)
	}
	s, err := forecast.DecodeSeries(body)
	if err != nil {
		return nil, fmt.Errorf("predictions for %s: %w", model, err)
	}
	return s.Series, nil
}

// Chat posts a user message with its dashboard context and returns the reply text.
func (c *Client) Chat(ctx context.Context, message string, dashboard any) (string, error) {
	payload, err := json.Marshal(chatRequest{Message: message, Context: dashboard})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, "/chat", nil, payload)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return out.Response, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	logging.LogRequest("GRIDCAST->API", c.baseURL, path, map[string]string{"method": method, "query": query.Encode()})
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	logging.LogRequest("API->GRIDCAST", c.baseURL, path, body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
