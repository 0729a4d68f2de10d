// Package openstates is the HTTP client for the OpenStates v3 API. It
// authenticates with X-API-KEY, classifies failures, retries transient ones
// and honors 429 Retry-After windows through a ratelimit.Tracker.
package openstates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/legisloom/pkg/logging"
	"github.com/Sternrassler/legisloom/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public OpenStates v3 endpoint.
const DefaultBaseURL = "https://v3.openstates.org"

// maxBodyBytes bounds a single response body.
const maxBodyBytes = 16 << 20

// billIncludes are requested with every bill detail.
var billIncludes = []string{
	"sponsorships",
	"abstracts",
	"other_titles",
	"other_identifiers",
	"actions",
	"sources",
	"documents",
	"versions",
	"votes",
	"related_bills",
}

// Prometheus metrics for upstream requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "legis_openstates_requests_total",
		Help: "Total upstream requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "legis_openstates_request_duration_seconds",
		Help:    "Upstream request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "legis_openstates_errors_total",
		Help: "Total upstream errors by class",
	}, []string{"class"})
)

// Endpoint labels.
const (
	endpointBill     = "bill"
	endpointSearch   = "search"
	endpointDocument = "document"
)

// Config holds the client configuration.
type Config struct {
	// APIKey is sent as X-API-KEY (REQUIRED).
	APIKey string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout per HTTP request.
	Timeout time.Duration

	// RateLimiter gates requests after a 429. Defaults to an in-process tracker.
	RateLimiter *ratelimit.Tracker

	// Retry overrides the per-class retry configuration.
	Retry *RetryConfig

	// HTTPClient replaces the default client (for testing).
	HTTPClient *http.Client
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:    apiKey,
		BaseURL:   DefaultBaseURL,
		UserAgent: "legisloom/1.0",
		Timeout:   10 * time.Second,
	}
}

// Client is the OpenStates client.
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.Tracker
	baseURL     string
	config      Config
	logger      zerolog.Logger
}

// SearchParams filters a bill search.
type SearchParams struct {
	Query        string
	Jurisdiction string
	Session      string
	Subject      string
	Page         int
	PerPage      int
}

// Pagination is the paging block of a search response.
type Pagination struct {
	PerPage    int `json:"per_page"`
	Page       int `json:"page"`
	MaxPage    int `json:"max_page"`
	TotalItems int `json:"total_items"`
}

// SearchPage is one page of search results, each left raw for the
// normalizer.
type SearchPage struct {
	Results    []json.RawMessage `json:"results"`
	Pagination Pagination        `json:"pagination"`
}

// New creates a new OpenStates client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	logger := logging.NewLogger("openstates")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimiter = ratelimit.NewTracker(nil, logger)
	}

	return &Client{
		httpClient:  httpClient,
		rateLimiter: rateLimiter,
		baseURL:     baseURL,
		config:      cfg,
		logger:      logger,
	}, nil
}

// GetBill fetches the bill detail for id with every include block. The id
// may be an ocd-bill id or a jurisdiction/session/identifier path.
func (c *Client) GetBill(ctx context.Context, id string) ([]byte, error) {
	query := url.Values{}
	for _, inc := range billIncludes {
		query.Add("include", inc)
	}

	u := c.baseURL + "/bills/" + escapeID(id) + "?" + query.Encode()
	body, err := c.do(ctx, endpointBill, u, true)
	if err != nil {
		return nil, err
	}
	if isEmptyJSON(body) {
		return nil, ErrEmptyBody
	}
	return body, nil
}

// SearchBills runs a bill search. Jurisdiction "all" is not sent; page and
// per-page default to 1 and 10.
func (c *Client) SearchBills(ctx context.Context, params SearchParams) (*SearchPage, error) {
	query := url.Values{}
	if q := strings.TrimSpace(params.Query); q != "" {
		query.Set("q", q)
	}
	if j := strings.TrimSpace(params.Jurisdiction); j != "" && j != "all" {
		query.Set("jurisdiction", j)
	}
	if params.Session != "" {
		query.Set("session", params.Session)
	}
	if params.Subject != "" {
		query.Set("subject", params.Subject)
	}
	page, perPage := params.Page, params.PerPage
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	body, err := c.do(ctx, endpointSearch, c.baseURL+"/bills?"+query.Encode(), true)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	var result SearchPage
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if result.Results == nil {
		result.Results = []json.RawMessage{}
	}
	return &result, nil
}

// FetchDocument downloads a bill text document. The API key is not sent to
// document hosts.
func (c *Client) FetchDocument(ctx context.Context, docURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(docURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid document url %q", docURL)
	}

	body, err := c.do(ctx, endpointDocument, u.String(), false)
	if err != nil {
		return "", err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return "", ErrEmptyBody
	}
	return string(body), nil
}

// do performs a GET with rate limiting, retries and error classification.
func (c *Client) do(ctx context.Context, endpoint, rawURL string, authenticated bool) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	logger := c.logger.With().Str("endpoint", endpoint).Logger()

	if authenticated {
		allowed, remaining, err := c.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Rate limit check failed, allowing request")
		}
		if !allowed {
			requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
			return nil, &APIError{
				StatusCode: http.StatusTooManyRequests,
				Class:      ErrorClassRateLimit,
				Message:    "rate limit window active",
				RetryAfter: remaining,
			}
		}
	}

	var body []byte
	err := retryWithBackoff(ctx, c.config.Retry, logger, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if c.config.UserAgent != "" {
			req.Header.Set("User-Agent", c.config.UserAgent)
		}
		if authenticated {
			req.Header.Set("X-API-KEY", c.config.APIKey)
			req.Header.Set("Accept", "application/json")
		}

		logger.Debug().Str("url", req.URL.Redacted()).Msg("Executing upstream request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("upstream request: %w", ctx.Err())
			}
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			logger.Warn().Err(err).Msg("HTTP request failed")
			return &APIError{Class: ErrorClassNetwork, Message: "request failed", Err: err}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return &APIError{StatusCode: resp.StatusCode, Class: ErrorClassNetwork, Message: "read body", Err: err}
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			errorClass := classifyStatus(resp.StatusCode)
			errorsTotal.WithLabelValues(string(errorClass)).Inc()

			apiErr := &APIError{
				StatusCode: resp.StatusCode,
				Class:      errorClass,
				Message:    errorMessage(data, resp.Status),
			}
			if authenticated {
				wait, err := c.rateLimiter.UpdateFromResponse(ctx, resp.StatusCode, resp.Header)
				if err != nil {
					logger.Warn().Err(err).Msg("Failed to update rate limit state")
				}
				apiErr.RetryAfter = wait
			}

			logger.Warn().
				Int("status_code", resp.StatusCode).
				Str("error_class", string(errorClass)).
				Msg("Upstream request error")
			return apiErr
		}

		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// escapeID path-escapes each segment of a slash-separated id.
func escapeID(id string) string {
	segments := strings.Split(strings.Trim(strings.TrimSpace(id), "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// errorMessage extracts "error" or "detail" from a JSON error body.
func errorMessage(body []byte, status string) string {
	var payload struct {
		Error  any `json:"error"`
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Error.(string); ok && s != "" {
			return s
		}
		if s, ok := payload.Detail.(string); ok && s != "" {
			return s
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		if len(text) > 200 {
			text = text[:200]
		}
		return text
	}
	if status == "" {
		return "unknown error"
	}
	return status
}

func isEmptyJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}"))
}
