package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/insurance-news-map/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewsProvider returns the current enriched article payload.
type NewsProvider interface {
	Run(ctx context.Context) ([]domain.EnrichedArticle, error)
}

// Response headers for the news endpoint.
const (
	corsOrigin   = "*"
	cacheControl = "public, max-age=600"
	failureBody  = "Failed to fetch news feeds"
)

// Server exposes the news endpoint plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	news       NewsProvider
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /api/get-news, /healthz, /readyz, and
// /metrics routes.
func NewServer(addr string, news NewsProvider, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		news:   news,
		logger: logger,
	}

	mux.HandleFunc("GET /api/get-news", s.handleNews)
	mux.HandleFunc("OPTIONS /api/get-news", handlePreflight)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	// A cold build geocodes at the provider's rate limit and can outlast the
	// server-wide write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Access-Control-Allow-Origin", corsOrigin)

	articles, err := s.news.Run(r.Context())
	if err != nil {
		s.logger.Error("get news failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": failureBody})
		return
	}
	if articles == nil {
		articles = []domain.EnrichedArticle{}
	}

	w.Header().Set("Cache-Control", cacheControl)
	writeJSON(w, http.StatusOK, articles)
}

func handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", corsOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Max-Age", "600")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
