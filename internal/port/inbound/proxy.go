// Package inbound defines the inbound port interfaces for the proxy core.
package inbound

import (
	"context"
	"os"
)

// ProxyService is the inbound port for the proxy core.
// Inbound adapters (stdio) implement this interface.
type ProxyService interface {
	// Start begins proxying between client and backend.
	// Blocks until the backend exits or ctx is cancelled.
	Start(ctx context.Context) error

	// Shutdown relays a termination signal to the backend and stops
	// gracefully.
	Shutdown(sig os.Signal)

	// Close releases resources.
	Close() error
}
