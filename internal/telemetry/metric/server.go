package metric

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/yndnr/remotectl/internal/telemetry/logger"
)

// Server exposes a registry over HTTP at /metrics.
type Server struct {
	srv    *http.Server
	addr   string
	logger logger.Logger
}

// NewServer creates a metrics server bound to addr.
func NewServer(addr string, r *Registry, l logger.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	if l == nil {
		l = logger.Default()
	}

	return &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		addr:   addr,
		logger: l.With("component", "metrics"),
	}
}

// Start binds the listener and serves in the background.
// It returns the bound address, which differs from the configured one
// when port 0 was requested.
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", err
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server stopped", "error", err)
		}
	}()

	s.logger.Info("metrics server listening", "address", ln.Addr().String())
	return ln.Addr().String(), nil
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
