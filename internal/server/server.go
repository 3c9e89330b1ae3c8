// Package server is the HTTP JSON view adapter over finder sessions.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "venue-finder/internal/common/errors"
	"venue-finder/internal/common/logger"
	"venue-finder/internal/finder/store"
)

const maxBodyBytes = 1 << 20

// Tracer opens request spans.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
}

type globalTracer struct{}

func (globalTracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer("venue-finder/server").Start(ctx, name, trace.WithAttributes(attrs...))
}

// RatingScale is the criteria slider range.
type RatingScale struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	registry *Registry
	store    *store.Store
	scale    RatingScale
	tracer   Tracer
	log      logger.Logger
	checks   map[string]ReadinessCheck
	ready    atomic.Bool
	mux      *http.ServeMux
}

type Option func(*Server)

func WithTracer(t Tracer) Option {
	return func(s *Server) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithReadinessCheck adds a dependency probe to /ready.
func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(s *Server) {
		if s.checks == nil {
			s.checks = make(map[string]ReadinessCheck)
		}
		s.checks[name] = check
	}
}

func WithLogger(log logger.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// New builds the server and marks it ready.
func New(reg *Registry, st *store.Store, scale RatingScale, opts ...Option) *Server {
	s := &Server{
		registry: reg,
		store:    st,
		scale:    scale,
		tracer:   globalTracer{},
		log:      logger.NewNoOpLogger(),
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithFields(map[string]interface{}{"component": "http-server"})
	s.routes()
	s.ready.Store(true)
	return s
}

// SetReady flips the /ready answer, e.g. while draining on shutdown.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *Server) Handler() http.Handler {
	return s.instrument(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("PUT /sessions/{id}/criteria", s.handleCriteria)
	s.mux.HandleFunc("POST /sessions/{id}/events", s.handleEvent)
	s.mux.HandleFunc("GET /sessions/{id}/details", s.handleDetails)
	s.mux.HandleFunc("GET /options", s.handleOptions)

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ready", s.handleReady)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// ==========================
// Middleware
// ==========================

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := s.tracer.StartSpan(r.Context(), "http.request",
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
		)
		defer span.End()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", sw.status))
		s.log.Debug("request handled", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   sw.status,
			"duration": time.Since(start).String(),
		})
	})
}

// ==========================
// Responses
// ==========================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error *apperrors.StandardError `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	stdErr := apperrors.Normalize(err)
	status := statusFor(stdErr.Code)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", map[string]interface{}{
			"code":  string(stdErr.Code),
			"error": stdErr.Error(),
		})
	}
	writeJSON(w, status, errorResponse{Error: stdErr})
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeInvalidFilterFormat, apperrors.ErrCodeInvalidEvent:
		return http.StatusBadRequest
	case apperrors.ErrCodeSessionLimitReached,
		apperrors.ErrCodeDataSourceUnavailable,
		apperrors.ErrCodeDataSourceTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
