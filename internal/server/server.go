// Package server hosts the HTTP probes the platform polls while dbinit runs
// its startup hook.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/koustreak/dbinit/internal/config"
	"github.com/koustreak/dbinit/internal/logger"
)

// NewRouter registers the probe and report routes.
//
//	GET /healthz           always 200
//	GET /readyz            503 until the startup hook finished, then 200
//	GET /bootstrap/report  the last report, 404 before the hook finished
func NewRouter(report ReportSource, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	h := &handler{report: report}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Get("/bootstrap/report", h.bootstrapReport)

	return r
}

// Server wraps http.Server with the configured timeouts.
type Server struct {
	srv      *http.Server
	shutdown time.Duration
	log      *logger.Logger
}

// New returns a Server for handler.
func New(cfg config.ServerConfig, handler http.Handler, log *logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		shutdown: cfg.ShutdownTimeout,
		log:      log,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		s.log.With().Str("addr", s.srv.Addr).Logger().Info("http server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.log.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()

	if err := s.srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	s.log.Info("http server stopped")
	return nil
}
