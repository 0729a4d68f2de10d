package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Sternrassler/legisloom/internal/testutil"
	"github.com/Sternrassler/legisloom/pkg/cache"
	"github.com/Sternrassler/legisloom/pkg/legis"
	"github.com/Sternrassler/legisloom/pkg/llm"
	"github.com/Sternrassler/legisloom/pkg/openstates"
	"github.com/Sternrassler/legisloom/pkg/ratelimit"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	upstream *testutil.MockOpenStates
	model    *testutil.MockLLM
	server   *Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	nop := zerolog.Nop()

	upstream := testutil.NewMockOpenStates()
	t.Cleanup(upstream.Close)
	model := testutil.NewMockLLM("A model answer.")
	t.Cleanup(model.Close)

	osCfg := openstates.DefaultConfig("test-key")
	osCfg.BaseURL = upstream.URL()
	osCfg.RateLimiter = ratelimit.NewTracker(ratelimit.NewMemoryStateStore(), nop)
	osCfg.Retry = &openstates.RetryConfig{MaxAttempts: 1}
	client, err := openstates.New(osCfg)
	require.NoError(t, err)

	llmCfg := llm.DefaultConfig("test-key")
	llmCfg.BaseURL = model.URL()
	modelClient, err := llm.New(llmCfg)
	require.NoError(t, err)

	backend, err := cache.NewMemoryBackend(100)
	require.NoError(t, err)

	svc := legis.New(legis.Deps{
		Bills:             cache.NewStore(backend, cache.NamespaceBills, 0, cache.WithLogger(nop)),
		Texts:             cache.NewStore(backend, cache.NamespaceTexts, 0, cache.WithLogger(nop)),
		Summaries:         cache.NewStore(backend, cache.NamespaceSummaries, 0, cache.WithLogger(nop)),
		Keywords:          cache.NewStore(backend, cache.NamespaceKeywords, 0, cache.WithLogger(nop)),
		Votes:             cache.NewVoteStore(backend, nop),
		Upstream:          client,
		Summarizer:        modelClient,
		Chatter:           modelClient,
		ContentSummarizer: modelClient,
		KeywordExtractor:  modelClient,
		Logger:            &nop,
	})

	return &testEnv{upstream: upstream, model: model, server: New(svc, nop)}
}

func (e *testEnv) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec, _ := env.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "GET", "/api/bills/us-117-hr-1968", "")

	rec, _ := env.do(t, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "legis_resolve_total")
}

func TestSplitBillPath(t *testing.T) {
	tests := []struct {
		rest   string
		id     string
		suffix string
	}{
		{"ocd-bill/abc", "ocd-bill/abc", ""},
		{"ocd-bill/abc/text", "ocd-bill/abc", "text"},
		{"ocd-bill/abc/summary/", "ocd-bill/abc", "summary"},
		{"tx/2023/SB 7/votes", "tx/2023/SB 7", "votes"},
		{"ocd-bill/abc/analysis", "ocd-bill/abc", "analysis"},
		{"us-117-hr-1968", "us-117-hr-1968", ""},
		{"text", "text", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		id, suffix := splitBillPath(tt.rest)
		assert.Equal(t, tt.id, id, tt.rest)
		assert.Equal(t, tt.suffix, suffix, tt.rest)
	}
}

func TestGetBill(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.SetBill("ocd-bill/abc", testutil.NewJSONResponse(testutil.BillJSON("ocd-bill/abc", "SB 1", "Water", "")))

	rec, body := env.do(t, "GET", "/api/bills/ocd-bill%2Fabc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "openstates", body["source"])
	billObj := body["bill"].(map[string]any)
	assert.Equal(t, "Water", billObj["title"])
	assert.Equal(t, "SB 1", billObj["identifier"])
}

func TestGetBill_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		env := newTestEnv(t)
		env.upstream.SetSearch(testutil.NewJSONResponse(testutil.SearchJSON()))

		rec, body := env.do(t, "GET", "/api/bills/ocd-bill/missing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "bill not found", body["error"])
	})

	t.Run("rate limited", func(t *testing.T) {
		env := newTestEnv(t)
		env.upstream.SetBill("ocd-bill/x", testutil.NewRateLimitResponse(45))

		rec, body := env.do(t, "GET", "/api/bills/ocd-bill/x", "")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.EqualValues(t, 45, body["retryAfter"])
		assert.Equal(t, "45", rec.Header().Get("Retry-After"))
	})

	t.Run("unauthorized", func(t *testing.T) {
		env := newTestEnv(t)
		env.upstream.SetBill("ocd-bill/x", testutil.NewUnauthorizedResponse())
		env.upstream.SetSearch(testutil.NewUnauthorizedResponse())

		rec, body := env.do(t, "GET", "/api/bills/ocd-bill/x", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, body["error"], "API key")
	})

	t.Run("method not allowed", func(t *testing.T) {
		env := newTestEnv(t)
		rec, _ := env.do(t, "DELETE", "/api/bills/us-117-hr-1968", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestGetText(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.SetBill("ocd-bill/abc", testutil.NewJSONResponse(testutil.BillJSON("ocd-bill/abc", "SB 1", "Water", "")))

	for _, method := range []string{"GET", "POST"} {
		rec, body := env.do(t, method, "/api/bills/ocd-bill/abc/text", "")
		require.Equal(t, http.StatusOK, rec.Code, method)
		assert.Contains(t, body["text"], "## Abstract")
	}
}

func TestGetSummary(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.SetBill("ocd-bill/abc", testutil.NewJSONResponse(testutil.BillJSON("ocd-bill/abc", "SB 1", "Water", "")))

	rec, body := env.do(t, "GET", "/api/bills/ocd-bill/abc/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A model answer.", body["summary"])
	assert.Equal(t, "summarizer", body["source"])
}

func TestGetAnalysis(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.SetBill("ocd-bill/abc", testutil.NewJSONResponse(testutil.BillJSON("ocd-bill/abc", "SB 1", "Water", "")))
	env.model.SetReplyFor("extracts relevant keywords", "water, drought")

	rec, body := env.do(t, "GET", "/api/bills/ocd-bill/abc/analysis", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A model answer.", body["summary"])
	assert.Equal(t, []any{"water", "drought"}, body["keywords"])
	assert.Equal(t, "keywords", body["keyword_source"])

	rec, _ = env.do(t, "POST", "/api/bills/ocd-bill/abc/analysis", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSummarize(t *testing.T) {
	t.Run("summary", func(t *testing.T) {
		env := newTestEnv(t)
		rec, body := env.do(t, "POST", "/api/summarize", `{"content":"SECTION 1. Water rights."}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "A model answer.", body["summary"])
		assert.Equal(t, "SECTION 1. Water rights.", env.model.GetLastRequest().Messages[0].Content)
	})

	t.Run("missing content", func(t *testing.T) {
		env := newTestEnv(t)
		for _, body := range []string{`{}`, `{"content":"  "}`, `nope`} {
			rec, _ := env.do(t, "POST", "/api/summarize", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
		assert.Equal(t, 0, env.model.GetRequestCount())
	})

	t.Run("model rate limited", func(t *testing.T) {
		env := newTestEnv(t)
		env.model.SetStatus(http.StatusTooManyRequests)
		rec, _ := env.do(t, "POST", "/api/summarize", `{"content":"text"}`)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("model failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.model.SetStatus(http.StatusInternalServerError)
		rec, body := env.do(t, "POST", "/api/summarize", `{"content":"text"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, false, body["success"])
	})

	t.Run("wrong method", func(t *testing.T) {
		env := newTestEnv(t)
		rec, _ := env.do(t, "GET", "/api/summarize", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestVotes(t *testing.T) {
	env := newTestEnv(t)
	const path = "/api/bills/ocd-bill/abc/votes"

	rec, _ := env.do(t, "GET", path, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "voteId is required")

	rec, _ = env.do(t, "GET", path+"?voteId=v1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body := env.do(t, "POST", path+"?voteId=v1", `{"voteCounts":[{"option":"yes","value":7},{"option":"no","value":3}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	rec, body = env.do(t, "GET", path+"?voteId=v1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	counts := body["voteCounts"].([]any)
	require.Len(t, counts, 2)
	assert.Equal(t, "no", counts[0].(map[string]any)["option"])

	rec, _ = env.do(t, "POST", path+"?voteId=v1", `{"voteCounts":[{"option":"yes","value":-2}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = env.do(t, "POST", path+"?voteId=v1", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = env.do(t, "POST", path, `{"voteCounts":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveVotes_MissingCounts(t *testing.T) {
	env := newTestEnv(t)
	const path = "/api/bills/ocd-bill/abc/votes?voteId=v1"

	rec, _ := env.do(t, "POST", path, `{"voteCounts":[{"option":"yes","value":3}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, body := range []string{`{}`, `{"voteCounts":null}`, `{"voteCounts":"yes"}`, `{"voteCounts":{"option":"yes"}}`} {
		rec, _ = env.do(t, "POST", path, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec, resp := env.do(t, "GET", path, "")
	require.Equal(t, http.StatusOK, rec.Code, "stored counts must survive rejected saves")
	assert.Len(t, resp["voteCounts"], 1)

	rec, _ = env.do(t, "POST", path, `{"voteCounts":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = env.do(t, "GET", path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	t.Run("results", func(t *testing.T) {
		env := newTestEnv(t)
		env.upstream.SetSearch(testutil.NewJSONResponse(testutil.SearchJSON(
			testutil.BillJSON("ocd-bill/1", "HB 1", "Water", ""),
		)))

		rec, body := env.do(t, "GET", "/api/bills/search?query=water&jurisdiction=tx", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, body["results"], 1)
		assert.Equal(t, []string{"water"}, env.upstream.GetLastQuery("q"))
	})

	t.Run("unauthorized falls back", func(t *testing.T) {
		env := newTestEnv(t)
		env.upstream.SetSearch(testutil.NewUnauthorizedResponse())

		rec, body := env.do(t, "GET", "/api/bills/search?query=veteran", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "catalog", body["source"])
		assert.Len(t, body["results"], 1)
	})

	t.Run("rate limited", func(t *testing.T) {
		env := newTestEnv(t)
		env.upstream.SetSearch(testutil.NewRateLimitResponse(10))

		rec, body := env.do(t, "GET", "/api/bills/search?query=water", "")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.EqualValues(t, 10, body["retryAfter"])
	})

	t.Run("server error", func(t *testing.T) {
		env := newTestEnv(t)
		env.upstream.SetSearch(testutil.NewServerErrorResponse())

		rec, _ := env.do(t, "GET", "/api/bills/search?query=water", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestChat(t *testing.T) {
	t.Run("answer", func(t *testing.T) {
		env := newTestEnv(t)
		rec, body := env.do(t, "POST", "/api/chat", `{"bill_id":"us-117-hr-1968","question":"Who does it protect?"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "A model answer.", body["message"])
		assert.Equal(t, false, body["fallback"])
	})

	t.Run("empty question", func(t *testing.T) {
		env := newTestEnv(t)
		rec, _ := env.do(t, "POST", "/api/chat", `{"bill_id":"us-117-hr-1968","question":" "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("model rate limited", func(t *testing.T) {
		env := newTestEnv(t)
		env.model.SetStatus(http.StatusTooManyRequests)
		rec, _ := env.do(t, "POST", "/api/chat", `{"bill_id":"us-117-hr-1968","question":"q"}`)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("model failure falls back", func(t *testing.T) {
		env := newTestEnv(t)
		env.model.SetStatus(http.StatusInternalServerError)
		rec, body := env.do(t, "POST", "/api/chat", `{"bill_id":"us-117-hr-1968","question":"q"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, legis.ChatFallbackMessage, body["message"])
		assert.Equal(t, true, body["fallback"])
	})

	t.Run("wrong method", func(t *testing.T) {
		env := newTestEnv(t)
		rec, _ := env.do(t, "GET", "/api/chat", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
