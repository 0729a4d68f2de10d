// Package server exposes the bill lookup service over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/Sternrassler/legisloom/pkg/cache"
	"github.com/Sternrassler/legisloom/pkg/legis"
	"github.com/Sternrassler/legisloom/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Service is what the HTTP surface needs from the bill service.
// *legis.Service implements it.
type Service interface {
	Bill(ctx context.Context, id string) (*legis.BillResult, error)
	Text(ctx context.Context, id string) (*legis.TextResult, error)
	Summary(ctx context.Context, id string) (*legis.SummaryResult, error)
	Analysis(ctx context.Context, id string) (*legis.AnalysisResult, error)
	SummarizeContent(ctx context.Context, content string) (string, error)
	Search(ctx context.Context, query, jurisdiction string) (*legis.SearchResult, error)
	Chat(ctx context.Context, billID, question string) (*legis.ChatResult, error)
	Votes(ctx context.Context, billID, voteID string) ([]cache.VoteCount, bool)
	SaveVotes(ctx context.Context, billID, voteID string, counts []cache.VoteCount) error
}

var _ Service = (*legis.Service)(nil)

// RequestTimeout bounds each API request.
const RequestTimeout = 60 * time.Second

// Server is the HTTP API.
type Server struct {
	svc     Service
	logger  zerolog.Logger
	handler http.Handler
}

// New builds the API around svc.
func New(svc Service, logger zerolog.Logger) *Server {
	s := &Server{svc: svc, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/bills/search", s.handleSearch)
	mux.HandleFunc("/api/bills/{rest...}", s.handleBillResource)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/summarize", s.handleSummarize)

	s.handler = hlog.NewHandler(logger)(
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status_code", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("Request served")
		})(mux),
	)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info().Msg("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
