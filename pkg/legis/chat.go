package legis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/legisloom/pkg/bill"
	"github.com/Sternrassler/legisloom/pkg/llm"
)

// Chat input limits, in runes.
const (
	MaxChatContext  = 4000
	MaxChatQuestion = 500
)

// ChatFallbackMessage is returned when the model gives no answer.
const ChatFallbackMessage = "I couldn't generate a response."

// ErrEmptyQuestion is returned by Chat for a blank question.
var ErrEmptyQuestion = errors.New("question cannot be empty")

// ChatResult is an answer about a bill. Fallback is set when Message is
// ChatFallbackMessage rather than a model answer.
type ChatResult struct {
	Message  string `json:"message"`
	Fallback bool   `json:"fallback"`
}

// Chat answers question about the bill billID. A model rate limit is
// returned as an error wrapping llm.ErrRateLimited; every other model
// failure gives the fallback message.
func (s *Service) Chat(ctx context.Context, billID, question string) (*ChatResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	if s.chatter == nil {
		return &ChatResult{Message: ChatFallbackMessage, Fallback: true}, nil
	}

	req := llm.ChatRequest{
		Context:  bill.Truncate(s.chatContext(ctx, billID), MaxChatContext),
		Question: bill.Truncate(question, MaxChatQuestion),
	}

	answer, err := s.chatter.Ask(ctx, req)
	if err != nil {
		if llm.IsRateLimited(err) {
			return nil, fmt.Errorf("chat about %q: %w", billID, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn().Err(err).Str("bill_id", billID).Msg("Chat model failed, returning fallback message")
		return &ChatResult{Message: ChatFallbackMessage, Fallback: true}, nil
	}
	return &ChatResult{Message: answer}, nil
}

// chatContext renders the resolved bill, or a minimal context naming the
// id when the bill cannot be resolved.
func (s *Service) chatContext(ctx context.Context, billID string) string {
	if strings.TrimSpace(billID) != "" {
		if res, err := s.metadata.Resolve(ctx, billID); err == nil {
			return bill.Context(res.Value)
		}
	}
	return "No bill content available.\nBill ID: " + strings.TrimSpace(billID)
}
