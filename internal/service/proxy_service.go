package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Sentinel-Gate/toolgate/internal/domain/proxy"
	"github.com/Sentinel-Gate/toolgate/internal/port/outbound"
	"github.com/Sentinel-Gate/toolgate/pkg/mcp"
)

// DefaultShutdownTimeout is how long a relayed termination signal is given
// before the backend is killed.
const DefaultShutdownTimeout = 5 * time.Second

// ExitObserver is told the backend's exit status.
type ExitObserver interface {
	BackendExited(code int)
}

// ProxyService orchestrates message proxying between the client and the
// backend MCP server.
type ProxyService struct {
	client          outbound.MCPClient
	interceptor     proxy.MessageInterceptor
	logger          *slog.Logger
	shutdownTimeout time.Duration
	exitObserver    ExitObserver
	shutdownCh      chan os.Signal
}

// ProxyServiceOption configures ProxyService.
type ProxyServiceOption func(*ProxyService)

// WithShutdownTimeout overrides DefaultShutdownTimeout.
func WithShutdownTimeout(d time.Duration) ProxyServiceOption {
	return func(p *ProxyService) {
		p.shutdownTimeout = d
	}
}

// WithExitObserver registers an observer for the backend exit status.
func WithExitObserver(o ExitObserver) ProxyServiceOption {
	return func(p *ProxyService) {
		p.exitObserver = o
	}
}

// NewProxyService creates a new proxy service with the given dependencies.
func NewProxyService(client outbound.MCPClient, interceptor proxy.MessageInterceptor, logger *slog.Logger, opts ...ProxyServiceOption) *ProxyService {
	p := &ProxyService{
		client:          client,
		interceptor:     interceptor,
		logger:          logger,
		shutdownTimeout: DefaultShutdownTimeout,
		shutdownCh:      make(chan os.Signal, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Shutdown asks a running proxy to stop gracefully: sig is relayed to the
// backend, which is killed if it has not exited after the shutdown timeout.
// Run then returns nil whatever the backend's exit status.
func (p *ProxyService) Shutdown(sig os.Signal) {
	select {
	case p.shutdownCh <- sig:
	default:
	}
}

// Run starts the backend and proxies between it and the client until the
// backend exits.
// clientIn is where we read messages from (typically os.Stdin).
// clientOut is where we write messages to (typically os.Stdout).
//
// It returns nil when the backend exits with status 0 or after a graceful
// Shutdown, a *outbound.ExitError carrying the backend's status otherwise,
// and a *outbound.SpawnError when the backend cannot be started. Cancelling
// ctx kills the backend and returns ctx.Err().
//
// Once the backend has exited no further client input is processed. The
// goroutine reading clientIn may still be blocked in a read when Run
// returns; it exits at the next line or at EOF.
func (p *ProxyService) Run(ctx context.Context, clientIn io.Reader, clientOut io.Writer) error {
	// The backend outlives ctx cancellation long enough to be killed
	// explicitly below, rather than by exec's context hook.
	serverIn, serverOut, err := p.client.Start(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	defer func() { _ = p.client.Close() }()

	out := mcp.NewLineWriter(clientOut)
	backendDone := make(chan struct{})
	clientErr := make(chan error, 1)
	var deliverErr error // set before backendDone closes

	// Goroutine 1: client -> server (requests, through the interceptor)
	go func() {
		defer func() { _ = serverIn.Close() }() // Signal EOF to server when client disconnects
		err := p.copyClientToServer(ctx, mcp.NewLineReader(clientIn), mcp.NewLineWriter(serverIn), out, backendDone)
		if err != nil {
			clientErr <- fmt.Errorf("client->server: %w", err)
		}
		p.logger.Debug("client->server copy completed")
	}()

	// Goroutine 2: server -> client (responses, verbatim)
	go func() {
		defer close(backendDone)
		if err := p.copyServerToClient(mcp.NewLineReader(serverOut), out); err != nil {
			deliverErr = fmt.Errorf("server->client: %w", err)
			// Nothing reads the backend any more; it must not outlive us.
			_ = p.client.Close()
		}
		p.logger.Debug("server->client copy completed")
	}()

	var (
		graceful  bool
		killTimer *time.Timer
		killAt    <-chan time.Time
	)
	defer func() {
		if killTimer != nil {
			killTimer.Stop()
		}
	}()

	for {
		select {
		case <-backendDone:
			if deliverErr != nil {
				_ = p.reap(true)
				return deliverErr
			}
			return p.reap(graceful)

		case sig := <-p.shutdownCh:
			if graceful {
				continue
			}
			graceful = true
			p.logger.Info("relaying signal to backend", "signal", sig.String(), "timeout", p.shutdownTimeout)
			if err := p.client.Signal(sig); err != nil {
				p.logger.Warn("failed to relay signal", "signal", sig.String(), "error", err)
			}
			killTimer = time.NewTimer(p.shutdownTimeout)
			killAt = killTimer.C

		case <-killAt:
			killAt = nil
			p.logger.Warn("backend did not exit in time, killing it", "timeout", p.shutdownTimeout)
			_ = p.client.Close()

		case err := <-clientErr:
			// The client side is gone; nothing more can be delivered.
			p.logger.Warn("client stream failed, stopping backend", "error", err)
			_ = p.client.Close()
			<-backendDone
			_ = p.reap(true)
			return err

		case <-ctx.Done():
			_ = p.client.Close()
			<-backendDone
			_ = p.reap(true)
			return ctx.Err()
		}
	}
}

// reap collects the backend's exit status. A graceful stop reports nil.
func (p *ProxyService) reap(graceful bool) error {
	err := p.client.Wait()
	code := outbound.ExitCode(err)
	if p.exitObserver != nil {
		p.exitObserver.BackendExited(code)
	}
	p.logger.Info("backend exited", "exit_code", code, "graceful", graceful)
	if graceful {
		return nil
	}
	return err
}

// copyClientToServer reads client lines, runs them through the interceptor
// and forwards them to the backend. Denials are answered on clientOut.
// It stops without error at client EOF and as soon as backendDone closes.
func (p *ProxyService) copyClientToServer(ctx context.Context, src *mcp.LineReader, dst, clientOut *mcp.LineWriter, backendDone <-chan struct{}) error {
	for {
		raw, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		select {
		case <-backendDone:
			return nil
		default:
		}

		startTime := time.Now()
		msg := mcp.WrapMessage(raw)
		if msg.Decoded == nil {
			p.logger.Debug("failed to decode message, passing through raw",
				"direction", "client->server",
			)
		}

		processed, err := p.interceptor.Intercept(ctx, msg)
		if err != nil {
			if err := p.reject(msg, err, clientOut); err != nil {
				return err
			}
			continue
		}

		if err := dst.WriteLine(processed.Raw); err != nil {
			// The backend stopped reading; its exit ends the session.
			p.logger.Debug("write to backend failed", "error", err)
			return nil
		}

		p.logger.Debug("forwarded message",
			"direction", "client->server",
			"method", processed.Method(),
			"latency_us", time.Since(startTime).Microseconds(),
		)
	}
}

// reject answers a blocked request. Notifications get no response.
func (p *ProxyService) reject(msg *mcp.Message, err error, clientOut *mcp.LineWriter) error {
	if msg.IsNotification() {
		p.logger.Debug("blocked notification, no response sent", "error", err)
		return nil
	}

	var resp []byte
	var denyErr *proxy.GovernanceDenyError
	if errors.As(err, &denyErr) {
		resp = denyErr.Response(msg.RawID())
	} else {
		p.logger.Error("interceptor rejected message", "error", err)
		resp = proxy.CreateJSONRPCError(msg.RawID(), proxy.ErrCodeInternal, "internal error")
	}
	return clientOut.WriteLine(resp)
}

// copyServerToClient forwards backend lines to the client verbatim.
func (p *ProxyService) copyServerToClient(src *mcp.LineReader, dst *mcp.LineWriter) error {
	for {
		raw, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			// A read error on the backend pipe is the backend going away.
			p.logger.Debug("read from backend failed", "error", err)
			return nil
		}
		if err := dst.WriteLine(raw); err != nil {
			return err
		}
	}
}
