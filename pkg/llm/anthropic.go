package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Sternrassler/legisloom/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Defaults for the Messages API.
const (
	DefaultBaseURL          = "https://api.anthropic.com"
	DefaultModel            = "claude-3-haiku-20240307"
	DefaultAPIVersion       = "2023-06-01"
	DefaultSummaryMaxTokens = 300
	DefaultChatMaxTokens    = 1000
	DefaultContentMaxTokens = 1000
	DefaultKeywordMaxTokens = 200
)

var (
	llmRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "legis_llm_requests_total",
		Help: "Total language model calls by operation and outcome",
	}, []string{"operation", "outcome"})

	llmRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "legis_llm_request_duration_seconds",
		Help:    "Language model call duration in seconds by operation",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30},
	}, []string{"operation"})
)

// Config holds the client configuration.
type Config struct {
	APIKey           string
	BaseURL          string
	Model            string
	SummaryMaxTokens int
	ChatMaxTokens    int
	ContentMaxTokens int
	KeywordMaxTokens int
	Temperature      float64
	Timeout          time.Duration

	// HTTPClient replaces the default client (for testing).
	HTTPClient *http.Client
}

// DefaultConfig returns a default configuration.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:           apiKey,
		BaseURL:          DefaultBaseURL,
		Model:            DefaultModel,
		SummaryMaxTokens: DefaultSummaryMaxTokens,
		ChatMaxTokens:    DefaultChatMaxTokens,
		ContentMaxTokens: DefaultContentMaxTokens,
		KeywordMaxTokens: DefaultKeywordMaxTokens,
		Temperature:      0,
		Timeout:          30 * time.Second,
	}
}

// Client calls the Anthropic Messages API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	config     Config
	logger     zerolog.Logger
}

var (
	_ Summarizer        = (*Client)(nil)
	_ Chatter           = (*Client)(nil)
	_ ContentSummarizer = (*Client)(nil)
	_ KeywordExtractor  = (*Client)(nil)
)

// New creates a client. Zero fields take DefaultConfig values.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	defaults := DefaultConfig(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.SummaryMaxTokens <= 0 {
		cfg.SummaryMaxTokens = defaults.SummaryMaxTokens
	}
	if cfg.ChatMaxTokens <= 0 {
		cfg.ChatMaxTokens = defaults.ChatMaxTokens
	}
	if cfg.ContentMaxTokens <= 0 {
		cfg.ContentMaxTokens = defaults.ContentMaxTokens
	}
	if cfg.KeywordMaxTokens <= 0 {
		cfg.KeywordMaxTokens = defaults.KeywordMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/v1/messages",
		config:     cfg,
		logger:     logging.NewLogger("llm"),
	}, nil
}

// Summarize implements Summarizer.
func (c *Client) Summarize(ctx context.Context, req SummaryRequest) (string, error) {
	return c.complete(ctx, "summary", messagesRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.SummaryMaxTokens,
		Temperature: c.config.Temperature,
		System:      summarySystemPrompt,
		Messages:    []message{{Role: "user", Content: summaryPrompt(req)}},
	})
}

// Ask implements Chatter.
func (c *Client) Ask(ctx context.Context, req ChatRequest) (string, error) {
	return c.complete(ctx, "chat", messagesRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.ChatMaxTokens,
		Temperature: c.config.Temperature,
		System:      chatSystem(req.Context),
		Messages:    []message{{Role: "user", Content: req.Question}},
	})
}

// SummarizeContent implements ContentSummarizer. The reply is markdown.
func (c *Client) SummarizeContent(ctx context.Context, content string) (string, error) {
	return c.complete(ctx, "content_summary", messagesRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.ContentMaxTokens,
		Temperature: c.config.Temperature,
		System:      contentSystemPrompt,
		Messages:    []message{{Role: "user", Content: content}},
	})
}

// Keywords implements KeywordExtractor.
func (c *Client) Keywords(ctx context.Context, req KeywordRequest) ([]string, error) {
	reply, err := c.complete(ctx, "keywords", messagesRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.KeywordMaxTokens,
		Temperature: c.config.Temperature,
		System:      keywordSystemPrompt,
		Messages:    []message{{Role: "user", Content: keywordPrompt(req)}},
	})
	if err != nil {
		return nil, err
	}
	keywords := ParseKeywords(reply)
	if len(keywords) == 0 {
		return nil, ErrEmptyCompletion
	}
	return keywords, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) complete(ctx context.Context, operation string, payload messagesRequest) (string, error) {
	start := time.Now()
	defer func() {
		llmRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	text, err := c.send(ctx, payload)
	if err != nil {
		llmRequestsTotal.WithLabelValues(operation, "error").Inc()
		c.logger.Warn().Err(err).Str("operation", operation).Msg("Language model call failed")
		return "", err
	}
	llmRequestsTotal.WithLabelValues(operation, "success").Inc()
	c.logger.Debug().Str("operation", operation).Int("chars", len(text)).Msg("Language model call succeeded")
	return text, nil
}

func (c *Client) send(ctx context.Context, payload messagesRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("anthropic-version", DefaultAPIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", &Error{StatusCode: resp.StatusCode, Message: "read body", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp.StatusCode, data)
	}

	var out messagesResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", &Error{StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" || block.Type == "" {
			text.WriteString(block.Text)
		}
	}
	result := strings.TrimSpace(text.String())
	if result == "" {
		return "", ErrEmptyCompletion
	}
	return result, nil
}

func statusError(status int, body []byte) error {
	var apiErr errorResponse
	msg := http.StatusText(status)
	errType := ""
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
		errType = apiErr.Error.Type
	}

	e := &Error{StatusCode: status, Type: errType, Message: msg}
	switch status {
	case http.StatusTooManyRequests:
		e.Err = ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		e.Err = ErrUnauthorized
	}
	return e
}

// IsRateLimited reports whether err is an LLM rate limit.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
