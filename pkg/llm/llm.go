// Package llm provides the language model collaborators backed by the
// Anthropic Messages API: bill summaries, free-text summaries, keyword
// extraction and questions about a bill.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Summarizer writes a short plain-language summary of a bill.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
}

// Chatter answers a question about a bill given its context blob.
type Chatter interface {
	Ask(ctx context.Context, req ChatRequest) (string, error)
}

// ContentSummarizer summarizes arbitrary bill text supplied by a caller.
type ContentSummarizer interface {
	SummarizeContent(ctx context.Context, content string) (string, error)
}

// KeywordExtractor lists the keywords that categorize a bill.
type KeywordExtractor interface {
	Keywords(ctx context.Context, req KeywordRequest) ([]string, error)
}

// KeywordRequest is the bill material keywords are drawn from.
type KeywordRequest struct {
	Title string
	Text  string
}

// SummaryRequest is the bill material handed to the model. Text and
// Abstract are optional.
type SummaryRequest struct {
	Identifier string
	Title      string
	Text       string
	Abstract   string
}

// ChatRequest is a question with the bill context it refers to.
type ChatRequest struct {
	Context  string
	Question string
}

var (
	// ErrMissingAPIKey is returned by New without an API key.
	ErrMissingAPIKey = errors.New("llm api key is required")

	// ErrRateLimited is returned for 429 responses.
	ErrRateLimited = errors.New("llm rate limit reached")

	// ErrUnauthorized is returned for 401 and 403 responses.
	ErrUnauthorized = errors.New("llm rejected credentials")

	// ErrEmptyCompletion is returned when the model produced no text.
	ErrEmptyCompletion = errors.New("llm returned no text")
)

// Error is a failed Messages API call.
type Error struct {
	StatusCode int
	Type       string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm error (status %d): %s: %v", e.StatusCode, e.Message, e.Err)
	}
	if e.Type != "" {
		return fmt.Sprintf("llm %s (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm error (status %d): %s", e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}
