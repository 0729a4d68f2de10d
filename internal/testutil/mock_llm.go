package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// LLMRequest is the decoded body of a Messages API call.
type LLMRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	System      string  `json:"system"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// MockLLM is a mock Anthropic Messages API server.
type MockLLM struct {
	server *httptest.Server
	mu     sync.RWMutex

	status  int
	reply   string
	raw     string
	replies map[string]string

	RequestCount      int
	LastRequest       LLMRequest
	LastRequestHeader http.Header
}

// NewMockLLM creates a mock that answers every request with reply.
func NewMockLLM(reply string) *MockLLM {
	mock := &MockLLM{status: http.StatusOK, reply: reply}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastRequest = LLMRequest{}
		json.Unmarshal(body, &mock.LastRequest)
		status, reply, raw := mock.status, mock.reply, mock.raw
		for marker, r := range mock.replies {
			if strings.Contains(mock.LastRequest.System, marker) {
				reply = r
			}
		}
		mock.mu.Unlock()

		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if raw != "" {
			w.Write([]byte(raw))
			return
		}
		if status != http.StatusOK {
			fmt.Fprintf(w, `{"type": "error", "error": {"type": "api_error", "message": "status %d"}}`, status)
			return
		}
		fmt.Fprintf(w, `{"id": "msg_test", "type": "message", "role": "assistant", "model": "test", "stop_reason": "end_turn", "content": [{"type": "text", "text": %q}]}`, reply)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockLLM) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockLLM) Close() {
	m.server.Close()
}

// SetReply changes the completion text.
func (m *MockLLM) SetReply(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply = reply
	m.raw = ""
}

// SetReplyFor answers requests whose system prompt contains marker with
// reply instead of the default reply.
func (m *MockLLM) SetReplyFor(marker, reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replies == nil {
		m.replies = make(map[string]string)
	}
	m.replies[marker] = reply
}

// SetStatus makes every request fail with status.
func (m *MockLLM) SetStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

// SetRawBody serves body verbatim.
func (m *MockLLM) SetRawBody(body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = body
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockLLM) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetLastRequest returns the most recent decoded request.
func (m *MockLLM) GetLastRequest() LLMRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequest
}
