// Package api exposes the quote service and the wide-integer curve adapter over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fd1az/rangebet/internal/logger"
	"github.com/fd1az/rangebet/internal/ratelimit"
)

const limiterIdle = 10 * time.Minute

// Config holds the API server settings.
type Config struct {
	Port              int
	RequestsPerSecond float64
	Burst             int
}

// Server serves the quote API.
type Server struct {
	port    int
	handler http.Handler
	limiter *ratelimit.Keyed
	logger  logger.LoggerInterface
	server  *http.Server
}

// NewServer builds the router with rate limiting, access logs and tracing.
func NewServer(cfg Config, h *Handlers, log logger.LoggerInterface) *Server {
	limiter := ratelimit.NewKeyed(cfg.RequestsPerSecond, cfg.Burst, limiterIdle)

	r := mux.NewRouter()
	r.Use(accessLog(log), rateLimit(limiter))
	h.Register(r)

	return &Server{
		port:    cfg.Port,
		handler: otelhttp.NewHandler(r, "rangebet.api"),
		limiter: limiter,
		logger:  log,
	}
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(ctx, "api server stopped", "error", err, "port", s.port)
		}
	}()

	s.logger.Info(ctx, "api server listening", "port", s.port)
	return nil
}

// Stop drains in-flight requests and releases the limiter.
func (s *Server) Stop(ctx context.Context) error {
	defer s.limiter.Close()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
