// Package stdio provides the stdio transport adapter for the proxy.
package stdio

import (
	"context"
	"io"
	"os"

	"github.com/Sentinel-Gate/toolgate/internal/port/inbound"
	"github.com/Sentinel-Gate/toolgate/internal/service"
)

// StdioTransport is the inbound adapter that connects the proxy to the
// process's own stdin and stdout.
// It implements the inbound.ProxyService interface.
type StdioTransport struct {
	proxyService *service.ProxyService
	in           io.Reader
	out          io.Writer
}

// NewStdioTransport creates a stdio transport adapter wrapping the given proxy service.
func NewStdioTransport(proxyService *service.ProxyService) *StdioTransport {
	return &StdioTransport{
		proxyService: proxyService,
		in:           os.Stdin,
		out:          os.Stdout,
	}
}

// Start begins proxying between stdin/stdout and the backend.
// It blocks until the backend exits or ctx is cancelled, and returns the
// proxy service's result (see service.ProxyService.Run).
func (t *StdioTransport) Start(ctx context.Context) error {
	return t.proxyService.Run(ctx, t.in, t.out)
}

// Shutdown relays sig to the backend and stops gracefully.
func (t *StdioTransport) Shutdown(sig os.Signal) {
	t.proxyService.Shutdown(sig)
}

// Close gracefully shuts down the transport.
// For stdio, there are no resources to clean up.
func (t *StdioTransport) Close() error {
	return nil
}

// Compile-time check that StdioTransport implements ProxyService interface.
var _ inbound.ProxyService = (*StdioTransport)(nil)
