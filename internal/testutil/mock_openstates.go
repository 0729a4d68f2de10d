// Package testutil provides mock upstream servers for legisloom tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockOpenStates is a configurable mock OpenStates v3 server.
type MockOpenStates struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	queues   map[string][]MockResponse

	// Tracking
	RequestCount      int
	PathCounts        map[string]int
	LastRequestHeader http.Header
	LastQuery         map[string][]string
}

// NewMockOpenStates creates a new mock OpenStates server.
func NewMockOpenStates() *MockOpenStates {
	mock := &MockOpenStates{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		queues:     make(map[string][]MockResponse),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastQuery = r.URL.Query()

		if queue := mock.queues[r.URL.Path]; len(queue) > 0 {
			next := queue[0]
			if len(queue) > 1 {
				mock.queues[r.URL.Path] = queue[1:]
			}
			mock.mu.Unlock()
			writeResponse(w, next)
			return
		}

		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockOpenStates) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockOpenStates) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockOpenStates) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PathCounts = make(map[string]int)
	m.LastRequestHeader = nil
	m.LastQuery = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockOpenStates) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockOpenStates) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// SetSequence serves responses for path in order. The last one repeats.
func (m *MockOpenStates) SetSequence(path string, resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[path] = append([]MockResponse(nil), resps...)
}

// SetBill serves body for the bill detail endpoint of id.
func (m *MockOpenStates) SetBill(id string, resp MockResponse) {
	m.SetResponse("/bills/"+id, resp)
}

// SetSearch serves body for the bill search endpoint.
func (m *MockOpenStates) SetSearch(resp MockResponse) {
	m.SetResponse("/bills", resp)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockOpenStates) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns the number of requests made to path.
func (m *MockOpenStates) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[path]
}

// GetLastHeader returns a header of the most recent request.
func (m *MockOpenStates) GetLastHeader(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader.Get(key)
}

// GetLastQuery returns the values of a query parameter on the most recent
// request.
func (m *MockOpenStates) GetLastQuery(key string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery[key]
}

// defaultHandler answers 404 like OpenStates does for unknown bills.
func (m *MockOpenStates) defaultHandler(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, NewNotFoundResponse())
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewJSONResponse creates a 200 OK response with a JSON body.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewTextResponse creates a 200 OK plain-text response.
func NewTextResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
	}
}

// NewNotFoundResponse creates a 404 response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"detail": "Not found"}`,
	}
}

// NewUnauthorizedResponse creates a 401 response.
func NewUnauthorizedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"detail": "Invalid API key"}`,
	}
}

// NewRateLimitResponse creates a 429 response with a Retry-After header.
func NewRateLimitResponse(retryAfter int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"detail": "Rate limit exceeded"}`,
		Headers:    map[string]string{"Retry-After": strconv.Itoa(retryAfter)},
	}
}

// NewServerErrorResponse creates a 500 response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
	}
}

// BillJSON renders a minimal OpenStates bill detail. When textURL is set it
// appears as the first version link.
func BillJSON(id, identifier, title, textURL string) string {
	versions := "[]"
	if textURL != "" {
		versions = fmt.Sprintf(`[{"note": "Introduced", "date": "2023-01-10", "links": [{"url": %q, "media_type": "text/html"}]}]`, textURL)
	}
	return fmt.Sprintf(`{
		"id": %q,
		"identifier": %q,
		"title": %q,
		"session": "2023",
		"jurisdiction": {"id": "ocd-jurisdiction/country:us/state:tx/government", "name": "Texas", "classification": "state"},
		"from_organization": {"name": "Senate"},
		"abstracts": [{"abstract": "An act relating to %s.", "note": ""}],
		"sponsorships": [{"name": "Sen. Diaz", "primary": true, "classification": "primary"}],
		"actions": [{"date": "2023-01-10", "description": "Filed", "organization": {"name": "Senate"}, "classification": ["introduction"]}],
		"votes": [],
		"versions": %s,
		"documents": [],
		"sources": []
	}`, id, identifier, title, title, versions)
}

// SearchJSON renders a search results page around the given result objects.
func SearchJSON(results ...string) string {
	body := "["
	for i, r := range results {
		if i > 0 {
			body += ","
		}
		body += r
	}
	body += "]"
	return fmt.Sprintf(`{"results": %s, "pagination": {"per_page": 10, "page": 1, "max_page": 1, "total_items": %d}}`, body, len(results))
}
