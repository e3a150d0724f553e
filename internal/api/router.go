package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	// healthCheckTimeout bounds each component check.
	healthCheckTimeout = 2 * time.Second

	// maxQueryParamLen limits query parameter length.
	maxQueryParamLen = 16
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/state", s.handleState)
		r.Get("/history", s.handleHistory)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "read-only API")
	})

	return r
}

// handleHealth runs every component check. Any failure yields 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	components := make(map[string]string, len(names))
	status, code := "ok", http.StatusOK
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := s.checks[name].HealthCheck(ctx)
		cancel()

		if err != nil {
			components[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
	})
}

// handleState returns the cached state, or 404 before the first report.
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	state, ok := s.state.Read()
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeStateUnknown, "no state report received yet")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device": s.device,
		"topic":  s.topic,
		"state":  state,
	})
}

// handleHistory returns recent audit entries, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "history is disabled")
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	entries, err := s.history.GetHistory(r.Context(), limit)
	if err != nil {
		s.logger.Error("reading history", "error", err, "request_id", requestIDFrom(r.Context()))
		writeInternalError(w, "failed to read history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device":  s.device,
		"entries": entries,
		"count":   len(entries),
	})
}

// parseLimit parses the optional limit query parameter. Zero lets the
// store pick its default.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	if len(raw) > maxQueryParamLen {
		return 0, fmt.Errorf("limit exceeds maximum length")
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	return limit, nil
}
