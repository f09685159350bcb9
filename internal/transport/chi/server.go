// Package chi exposes the HTTP API surface of the service.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sitesearch/internal/domain"
	"github.com/kailas-cloud/sitesearch/internal/domain/point"
	"github.com/kailas-cloud/sitesearch/internal/domain/snippet"
	"github.com/kailas-cloud/sitesearch/internal/logger"
)

// Searcher runs a query with an optional section facet.
type Searcher interface {
	Search(ctx context.Context, query, section string) ([]point.ScoredPoint, error)
}

// HealthChecker probes one collaborator.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server implements the HTTP handlers.
type Server struct {
	search Searcher
	checks map[string]HealthChecker
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, checks map[string]HealthChecker, logger *zap.Logger) *Server {
	return &Server{search: search, checks: checks, logger: logger}
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/api/search", s.handleSearch)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
}

// responseItem is one public-facing search hit. The payload carries the
// full original fields; highlight is the truncated, marked-up text.
type responseItem struct {
	Payload   point.Payload `json:"payload"`
	Highlight string        `json:"highlight"`
}

type searchResponse struct {
	Result []responseItem `json:"result"`
	Time   float64        `json:"time"`
}

// handleSearch serves GET /api/search?q=...&section=...
// An empty q is legal and yields the broadest-tier-only cascade.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q := r.URL.Query()
	if !q.Has("q") {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	query := q.Get("q")
	section := q.Get("section")

	log := logger.FromContext(r.Context())
	log.Info("search query", zap.String("q", query), zap.String("section", section))

	points, err := s.search.Search(r.Context(), query, section)
	if err != nil {
		s.handleSearchError(r.Context(), w, err)
		return
	}

	items := make([]responseItem, 0, len(points))
	for _, p := range points {
		highlight := ""
		if text, ok := p.Payload.Text(); ok {
			highlight = snippet.Render(text, query)
		}
		items = append(items, responseItem{Payload: p.Payload, Highlight: highlight})
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Result: items,
		Time:   time.Since(start).Seconds(),
	})
}

func (s *Server) handleSearchError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContext(ctx)

	switch {
	case errors.Is(err, domain.ErrVectorStoreUnavailable),
		errors.Is(err, domain.ErrEmbeddingProviderError):
		log.Error("search collaborator failure", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Error("search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// handleHealth serves GET /healthz: store ping plus collaborator probes.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	type checkResult struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}

	status := http.StatusOK
	overall := "ok"
	results := make(map[string]checkResult, len(s.checks))
	for name, check := range s.checks {
		if err := check.HealthCheck(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			overall = "degraded"
			results[name] = checkResult{Status: "down", Error: err.Error()}
			continue
		}
		results[name] = checkResult{Status: "up"}
	}

	writeJSON(w, status, map[string]interface{}{
		"status": overall,
		"checks": results,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
