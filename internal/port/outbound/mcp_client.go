// Package outbound defines the outbound port interfaces for connecting
// to the backend MCP server.
package outbound

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// MCPClient is the outbound port for the backend MCP server process.
type MCPClient interface {
	// Start launches the backend.
	// Returns the server's stdin (for sending) and stdout (for receiving).
	// A launch failure is a *SpawnError.
	Start(ctx context.Context) (stdin io.WriteCloser, stdout io.ReadCloser, err error)

	// Wait blocks until the backend terminates.
	// Returns nil on exit status 0 and *ExitError otherwise.
	Wait() error

	// Signal relays a signal to the backend.
	Signal(sig os.Signal) error

	// Close terminates the backend if still running and releases resources.
	Close() error
}

// SpawnError reports a backend that could not be launched.
type SpawnError struct {
	Command []string
	Err     error
}

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("start backend %q: %v", strings.Join(e.Command, " "), e.Err)
}

// Unwrap returns the underlying cause.
func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ExitError reports a backend that terminated with a non-zero status.
// Code is the exit status; a backend killed by a signal has code
// 128+signal on Unix.
type ExitError struct {
	Code int
	Err  error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("backend exited with status %d", e.Code)
}

// Unwrap returns the underlying cause.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps a Wait result to a process exit status: 0 for nil, the
// backend's status for *ExitError, and 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
