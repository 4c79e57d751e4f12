// Package api serves triage and assessment results over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/careai/careai/core"
	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/internal/loader"
)

// shutdownTimeout bounds how long in-flight requests may run after the context ends.
const shutdownTimeout = 10 * time.Second

// Server holds the router and the shared configuration of the HTTP API.
type Server struct {
	cfg    *contract.Config
	mgr    contract.CacheManager
	router *chi.Mux
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the router without starting to listen.
func NewServer(cfg *contract.Config, mgr contract.CacheManager) *Server {
	s := &Server{
		cfg:    cfg,
		mgr:    mgr,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/patients", s.handlePatients)
	s.router.Get("/patients/{id}/assessment", s.handleAssessment)
	s.router.Get("/triage", s.handleTriage)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on cfg.Listen until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		contract.Logger().Info("http api listening", zap.String("addr", s.cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePatients(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := core.LoadRecords(cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loader.Overview(records))
}

func (s *Server) handleAssessment(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := core.LoadRecords(cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	detail, _, err := core.AssessOne(r.Context(), cfg, records, chi.URLParam(r, "id"), s.mgr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleTriage(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := core.LoadRecords(cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	output, err := core.AnalyzeAllPatients(core.WithSuppressHeader(r.Context()), cfg, records, s.mgr)
	if err != nil {
		writeError(w, err)
		return
	}
	if cfg.ResultLimit > 0 && len(output.HighRisk) > cfg.ResultLimit {
		output.HighRisk = output.HighRisk[:cfg.ResultLimit]
	}
	writeJSON(w, http.StatusOK, output)
}

// badRequestError marks a malformed query parameter.
type badRequestError struct {
	param string
	err   error
}

func (e *badRequestError) Error() string {
	return "invalid " + e.param + ": " + e.err.Error()
}

// requestConfig applies the optional limit and min_records query parameters to a copy of the base config.
func (s *Server) requestConfig(r *http.Request) (*contract.Config, error) {
	cfg := s.cfg.Clone()
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, &badRequestError{param: "limit", err: errors.New("must be a non-negative integer")}
		}
		cfg.ResultLimit = n
	}
	if v := q.Get("min_records"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, &badRequestError{param: "min_records", err: errors.New("must be a positive integer")}
		}
		cfg.MinRecords = n
	}
	return cfg, nil
}

// writeError maps engine errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var badReq *badRequestError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &badReq):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrPatientNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrNoDataPath):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		contract.Logger().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contract.Logger().Warn("failed to encode response", zap.Error(err))
	}
}

// requestLogger logs one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		contract.Logger().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
