// Package http serves the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"spendy/internal/ledger"
	"spendy/internal/log"
	"spendy/internal/metrics"
)

// ReadinessFunc reports whether the persistence backend is usable.
type ReadinessFunc func(ctx context.Context) error

type Server struct {
	http.Server
	store       *ledger.Store
	ready       ReadinessFunc
	loadErr     error
	metrics     *metrics.Metrics
	log         *log.Logger
	rateLimit   int
	rateLimiter *rateLimiter
	started     time.Time

	shutdownOnce sync.Once
}

type Option func(*Server)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func WithReadiness(f ReadinessFunc) Option {
	return func(s *Server) { s.ready = f }
}

// WithLoadError records what the startup load could not read. It is
// reported by the readiness check.
func WithLoadError(err error) Option {
	return func(s *Server) { s.loadErr = err }
}

// WithRateLimit sets how many mutating requests a client may send per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimit = perMinute }
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, store *ledger.Store, opts ...Option) *Server {
	s := &Server{
		store:   store,
		log:     log.New(log.DefaultConfig()),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent(log.ComponentHTTP)
	s.rateLimiter = newRateLimiter(s.rateLimit)

	mux := http.NewServeMux()
	s.route(mux, "GET /healthz", s.handleHealth)
	s.route(mux, "GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	s.route(mux, "GET /api/months/{month}", s.handleMonth)
	s.route(mux, "POST /api/transactions", s.handleCreateTransaction)
	s.route(mux, "GET /api/transactions/{id}", s.handleGetTransaction)
	s.route(mux, "DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	s.route(mux, "GET /api/categories", s.handleListCategories)
	s.route(mux, "POST /api/categories", s.handleCreateCategory)
	s.route(mux, "GET /api/categories/{type}/{name}/deletion", s.handleBeginCategoryDeletion)
	s.route(mux, "DELETE /api/categories/{type}/{name}", s.handleResolveCategoryDeletion)
	s.route(mux, "GET /api/theme", s.handleGetTheme)
	s.route(mux, "PUT /api/theme", s.handleSetTheme)
	s.route(mux, "GET /api/selection", s.handleGetSelection)
	s.route(mux, "PUT /api/selection", s.handleSetSelection)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.withRequestContext(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// route registers h and records its latency under the mux pattern.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		h(rw, r)
		s.metrics.Request(pattern, r.Method, rw.statusCode, time.Since(start))
	}))
}

// withRequestContext adds security headers, rate limiting and request logging.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		logger := s.log.With(log.FieldRequestID, requestID)
		ctx := log.WithLogger(r.Context(), logger)
		r = r.WithContext(ctx)
		structured := log.NewStructuredLogger(logger)

		w.Header().Set("X-Request-ID", requestID)
		setSecurityHeaders(w.Header())

		if detectSuspiciousRequest(r) {
			s.metrics.SecurityEvent(metrics.EventSuspicious)
			logger.WithComponent(log.ComponentSecurity).WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP) {
			s.metrics.SecurityEvent(metrics.EventRateLimited)
			logger.WithComponent(log.ComponentRateLimit).WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			rw.Header().Set("Retry-After", "60")
			writeJSON(rw, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, please try again later"})
		} else {
			next.ServeHTTP(rw, r)
		}

		structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
