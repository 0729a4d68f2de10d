package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/legisloom/pkg/cache"
	"github.com/Sternrassler/legisloom/pkg/legis"
	"github.com/Sternrassler/legisloom/pkg/llm"
	"github.com/Sternrassler/legisloom/pkg/openstates"
	"github.com/Sternrassler/legisloom/pkg/resolve"
	"github.com/rs/zerolog/hlog"
)

const maxBodyBytes = 1 << 20

// Sub-resources of /api/bills/{id}.
const (
	suffixText     = "text"
	suffixSummary  = "summary"
	suffixVotes    = "votes"
	suffixAnalysis = "analysis"
)

type errorBody struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// handleBillResource dispatches /api/bills/{id...}[/text|/summary|/analysis|/votes].
func (s *Server) handleBillResource(w http.ResponseWriter, r *http.Request) {
	id, suffix := splitBillPath(r.PathValue("rest"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bill id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()
	r = r.WithContext(ctx)

	switch {
	case suffix == suffixText && (r.Method == http.MethodGet || r.Method == http.MethodPost):
		s.handleText(w, r, id)
	case suffix == suffixSummary && r.Method == http.MethodGet:
		s.handleSummary(w, r, id)
	case suffix == suffixAnalysis && r.Method == http.MethodGet:
		s.handleAnalysis(w, r, id)
	case suffix == suffixVotes && r.Method == http.MethodGet:
		s.handleGetVotes(w, r, id)
	case suffix == suffixVotes && r.Method == http.MethodPost:
		s.handleSaveVotes(w, r, id)
	case suffix == "" && r.Method == http.MethodGet:
		s.handleBill(w, r, id)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleBill(w http.ResponseWriter, r *http.Request, id string) {
	res, err := s.svc.Bill(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request, id string) {
	res, err := s.svc.Text(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, id string) {
	res, err := s.svc.Summary(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request, id string) {
	res, err := s.svc.Analysis(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetVotes(w http.ResponseWriter, r *http.Request, id string) {
	voteID := strings.TrimSpace(r.URL.Query().Get("voteId"))
	if voteID == "" {
		writeError(w, http.StatusBadRequest, "voteId is required")
		return
	}

	counts, ok := s.svc.Votes(r.Context(), id, voteID)
	if !ok {
		writeError(w, http.StatusNotFound, "no vote counts recorded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"voteCounts": counts})
}

func (s *Server) handleSaveVotes(w http.ResponseWriter, r *http.Request, id string) {
	voteID := strings.TrimSpace(r.URL.Query().Get("voteId"))
	if voteID == "" {
		writeError(w, http.StatusBadRequest, "voteId is required")
		return
	}

	var body struct {
		VoteCounts *[]cache.VoteCount `json:"voteCounts"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// An explicit [] clears the set; a missing or null field is rejected.
	if body.VoteCounts == nil {
		writeError(w, http.StatusBadRequest, "voteCounts is required and must be an array")
		return
	}

	err := s.svc.SaveVotes(r.Context(), id, voteID, *body.VoteCounts)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	case errors.Is(err, cache.ErrInvalidVoteCounts):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, legis.ErrVotesUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		hlog.FromRequest(r).Error().Err(err).Str("bill_id", id).Str("vote_id", voteID).Msg("Saving vote counts failed")
		writeError(w, http.StatusInternalServerError, "failed to save vote counts")
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()

	q := r.URL.Query()
	res, err := s.svc.Search(ctx, q.Get("query"), q.Get("jurisdiction"))
	if err != nil {
		if errors.Is(err, openstates.ErrRateLimited) {
			writeRateLimited(w, openstates.RetryAfterOf(err))
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusGatewayTimeout, "the bill search timed out, try a more specific query")
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("Bill search failed")
		writeError(w, http.StatusBadGateway, "failed to search bills")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()

	var body struct {
		BillID   string `json:"bill_id"`
		Question string `json:"question"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.svc.Chat(ctx, body.BillID, body.Question)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"message":  res.Message,
			"fallback": res.Fallback,
		})
	case errors.Is(err, legis.ErrEmptyQuestion):
		writeError(w, http.StatusBadRequest, err.Error())
	case llm.IsRateLimited(err):
		writeRateLimited(w, 0)
	default:
		hlog.FromRequest(r).Error().Err(err).Str("bill_id", body.BillID).Msg("Chat failed")
		writeError(w, http.StatusInternalServerError, "failed to answer the question")
	}
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()

	var body struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := s.svc.SummarizeContent(ctx, body.Content)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "summary": summary})
	case errors.Is(err, legis.ErrEmptyContent):
		writeError(w, http.StatusBadRequest, "content is required")
	case errors.Is(err, legis.ErrSummarizerUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case llm.IsRateLimited(err):
		writeRateLimited(w, 0)
	default:
		hlog.FromRequest(r).Error().Err(err).Int("chars", len(body.Content)).Msg("Content summary failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "failed to summarize the bill, please try again",
		})
	}
}

// writeLookupError maps a chain failure to a status. The upstream rate
// limit and credential failures are reported ahead of a plain not found.
func (s *Server) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, resolve.ErrEmptyID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, openstates.ErrRateLimited):
		writeRateLimited(w, openstates.RetryAfterOf(err))
	case errors.Is(err, openstates.ErrUnauthorized):
		hlog.FromRequest(r).Error().Err(err).Msg("Upstream rejected the configured API key")
		writeError(w, http.StatusInternalServerError, "the bills API key is missing or invalid, check the server configuration")
	case errors.Is(err, resolve.ErrNotFound):
		writeError(w, http.StatusNotFound, "bill not found")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "the request timed out")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("Bill lookup failed")
		writeError(w, http.StatusInternalServerError, "failed to look up bill")
	}
}

// splitBillPath splits rest, already URL-decoded by the mux, into the id
// and a sub-resource suffix matched on the last path segment.
func splitBillPath(rest string) (id, suffix string) {
	rest = strings.Trim(rest, "/")
	if i := strings.LastIndex(rest, "/"); i >= 0 {
		switch last := rest[i+1:]; last {
		case suffixText, suffixSummary, suffixAnalysis, suffixVotes:
			rest, suffix = rest[:i], last
		}
	}
	return strings.TrimSpace(rest), suffix
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(v)
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	body := errorBody{Error: "rate limit reached, try again later"}
	if secs > 0 {
		body.RetryAfter = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	writeJSON(w, http.StatusTooManyRequests, body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
