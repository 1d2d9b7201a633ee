package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/turtacn/additive-lens/internal/config"
	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/additive-lens/pkg/errors"
)

// Server wraps http.Server with config-driven timeouts and logged shutdown.
type Server struct {
	srv             *http.Server
	handler         http.Handler
	logger          logging.Logger
	shutdownTimeout time.Duration
}

// NewServer creates a server for handler from the HTTP settings.
func NewServer(cfg config.HTTPConfig, handler http.Handler, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	shutdown := cfg.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = config.DefaultShutdownTimeout
	}
	return &Server{
		handler:         handler,
		logger:          logger.Named("http_server"),
		shutdownTimeout: shutdown,
		srv: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start listens on the configured address and blocks until Stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "failed to listen on %s", s.srv.Addr)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln and blocks until Stop. A clean shutdown
// returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("HTTP server listening", logging.String("addr", ln.Addr().String()))
	if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, errors.CodeInternal, "http server failed")
	}
	return nil
}

// Stop drains in-flight requests within the shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "http server shutdown failed")
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}
