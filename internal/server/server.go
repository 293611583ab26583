package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Aevum11/ET-Physics-Toolbox/internal/config"
	"github.com/Aevum11/ET-Physics-Toolbox/internal/report"
)

// Server owns the HTTP listener, the report store, and the metrics
// collectors for one diagnostic node process.
type Server struct {
	cfg     *config.Config
	store   *report.Store
	metrics *metrics
	limiter *rateLimiter

	httpServer *http.Server
}

// New constructs a Server from cfg. The report store is rooted at
// cfg.UploadDir; tests swap in a store with a fixed clock via NewWithStore.
func New(cfg *config.Config) *Server {
	return NewWithStore(cfg, report.NewStore(cfg.UploadDir))
}

// NewWithStore is New with an injected report store.
func NewWithStore(cfg *config.Config, store *report.Store) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		metrics: newMetrics(),
	}
	if cfg.RateLimit > 0 {
		s.limiter = newRateLimiter(cfg.RateLimit, cfg.RateWindow)
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// routes builds the middleware chain and the route table.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metrics.middleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/metrics", s.metrics.handler().ServeHTTP)

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/status", s.handleStatus)

		// The body cap and the admission check sit in front of the
		// handler; the handler itself never re-checks either.
		mws := []func(http.Handler) http.Handler{
			maxBytesMiddleware(s.cfg.MaxUploadBytes),
		}
		if s.limiter != nil {
			mws = append(mws, s.limiter.middleware)
		}
		mws = append(mws, requireToken(s.cfg.APIKey))

		api.With(mws...).Post("/upload", s.handleUpload)
	})

	return r
}

// Handler exposes the fully wired handler for httptest-based tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves plain HTTP until the listener closes.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

// StartTLS serves HTTPS with the given PEM files.
func (s *Server) StartTLS(certFile, keyFile string) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.ServeTLS(ln, certFile, keyFile)
}

// Shutdown drains in-flight requests until ctx expires and stops the
// limiter's background cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.close()
	}
	return s.httpServer.Shutdown(ctx)
}
