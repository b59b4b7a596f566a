// Package httpapi exposes the analytics API plus the operational
// health, readiness, and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dengueatlas/analytics-service/internal/domain"
	"github.com/dengueatlas/analytics-service/internal/report"
)

// BundleSource provides assembled report bundles per year scope and
// readiness state. Implemented by the report cache.
type BundleSource interface {
	Bundle(year int) (report.Bundle, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the analytics API over HTTP.
type Server struct {
	httpServer  *http.Server
	source      BundleSource
	rows        []domain.FeatureRow
	defaultYear int
	logger      *slog.Logger
}

// NewServer creates the HTTP server. rows is the engineered feature
// table backing the statistics and discovery endpoints; defaultYear
// scopes endpoints called without an explicit year filter.
func NewServer(addr string, source BundleSource, rows []domain.FeatureRow, defaultYear int, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		source:      source,
		rows:        rows,
		defaultYear: defaultYear,
		logger:      logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("GET /api/monthly-results", s.handleMonthlyResults)
	mux.HandleFunc("GET /api/monthly-results/{month}", s.handleMonthlyResultByMonth)
	mux.HandleFunc("GET /api/regional-data", s.handleRegionalData)
	mux.HandleFunc("GET /api/factor-summary", s.handleFactorSummary)
	mux.HandleFunc("GET /api/model-info", s.handleModelInfo)
	mux.HandleFunc("GET /api/statistics", s.handleStatistics)
	mux.HandleFunc("GET /api/available-years", s.handleAvailableYears)
	mux.HandleFunc("GET /api/available-regions", s.handleAvailableRegions)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.source.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	year, ok := s.yearParam(w, r, s.defaultYear)
	if !ok {
		return
	}
	bundle, ok := s.bundle(w, year)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleMonthlyResults(w http.ResponseWriter, r *http.Request) {
	year, ok := s.yearParam(w, r, 0)
	if !ok {
		return
	}
	bundle, ok := s.bundle(w, year)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, bundle.MonthlyResults)
}

func (s *Server) handleMonthlyResultByMonth(w http.ResponseWriter, r *http.Request) {
	year, ok := s.yearParam(w, r, 0)
	if !ok {
		return
	}
	bundle, ok := s.bundle(w, year)
	if !ok {
		return
	}

	want := strings.ToLower(r.PathValue("month"))
	for _, summary := range bundle.MonthlyResults {
		if strings.ToLower(summary.Month) == want {
			writeJSON(w, http.StatusOK, summary)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "no data for month " + r.PathValue("month"),
	})
}

func (s *Server) handleRegionalData(w http.ResponseWriter, r *http.Request) {
	year, ok := s.yearParam(w, r, 0)
	if !ok {
		return
	}
	bundle, ok := s.bundle(w, year)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, bundle.RegionalData)
}

func (s *Server) handleFactorSummary(w http.ResponseWriter, _ *http.Request) {
	bundle, ok := s.bundle(w, 0)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, bundle.FactorSummary)
}

func (s *Server) handleModelInfo(w http.ResponseWriter, _ *http.Request) {
	bundle, ok := s.bundle(w, 0)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, bundle.ModelInfo)
}

func (s *Server) handleStatistics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, report.Summarize(s.rows))
}

func (s *Server) handleAvailableYears(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]int{"years": report.AvailableYears(s.rows)})
}

func (s *Server) handleAvailableRegions(w http.ResponseWriter, r *http.Request) {
	year, ok := s.yearParam(w, r, 0)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]report.RegionInfo{
		"regions": report.AvailableRegions(s.rows, year),
	})
}

// yearParam parses the optional ?year= query parameter, falling back to
// the given default. Writes a 400 response and returns false on a
// malformed value.
func (s *Server) yearParam(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return fallback, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year: " + raw})
		return 0, false
	}
	return year, true
}

// bundle fetches the scoped bundle, mapping estimator failures to
// response codes. Returns false after writing an error response.
func (s *Server) bundle(w http.ResponseWriter, year int) (report.Bundle, bool) {
	bundle, err := s.source.Bundle(year)
	if err != nil {
		var insufficientErr *domain.InsufficientDataError
		status := http.StatusInternalServerError
		if errors.As(err, &insufficientErr) {
			status = http.StatusUnprocessableEntity
		}
		s.logger.Error("report build failed", "year", year, "error", err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return report.Bundle{}, false
	}
	return bundle, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
