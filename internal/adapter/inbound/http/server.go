package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:9464"

const shutdownTimeout = 10 * time.Second

// DiagnosticsServer exposes /metrics and /health.
type DiagnosticsServer struct {
	addr   string
	logger *slog.Logger
	server *http.Server
}

// Option configures a DiagnosticsServer.
type Option func(*DiagnosticsServer)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *DiagnosticsServer) {
		s.addr = addr
	}
}

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *DiagnosticsServer) {
		s.logger = logger
	}
}

// NewDiagnosticsServer builds a server over reg. The Go and process
// collectors are registered on reg.
func NewDiagnosticsServer(reg *prometheus.Registry, health *HealthChecker, opts ...Option) *DiagnosticsServer {
	s := &DiagnosticsServer{
		addr:   DefaultAddr,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.Handle("GET /health", health.Handler())

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the server's routes, for embedding or tests.
func (s *DiagnosticsServer) Handler() http.Handler {
	return s.server.Handler
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *DiagnosticsServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *DiagnosticsServer) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting diagnostics server", "addr", ln.Addr().String())
		err := s.server.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	}
}

func (s *DiagnosticsServer) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("error during diagnostics server shutdown", "error", err)
		return err
	}
	s.logger.Info("diagnostics server shutdown complete")
	return nil
}
