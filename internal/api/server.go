package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wonny/optiondesk/pkg/config"
	"github.com/wonny/optiondesk/pkg/logger"
)

// Server serves the ticker analytics API
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	http   *http.Server
	env    string
	logger *logger.Logger
}

// New creates a server listening on cfg.Port.
// A cache miss fetches the chain from CBOE inside the request, so the
// write deadline is the CBOE timeout plus headroom for the pipeline.
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	return &Server{
		http: &http.Server{
			Addr:              net.JoinHostPort("", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      cfg.CBOE.Timeout + 30*time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		env:    cfg.Env,
		logger: log,
	}
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start listens and serves until Shutdown; a clean shutdown returns nil
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"addr": ln.Addr().String(),
		"env":  s.env,
	}).Info("API server listening")

	if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx ends
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
