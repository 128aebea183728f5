// Package mcp provides the backend MCP server process adapter.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/Sentinel-Gate/toolgate/internal/port/outbound"
)

// ErrEmptyCommand is returned when no backend command is configured.
var ErrEmptyCommand = errors.New("empty backend command")

// SplitCommand tokenizes a command string on whitespace. Quoting is not
// interpreted; pass an explicit argv for arguments containing spaces.
func SplitCommand(command string) []string {
	return strings.Fields(command)
}

// StdioClient runs the backend MCP server as a child process and talks to
// it over its stdin and stdout.
// It implements the outbound.MCPClient interface.
type StdioClient struct {
	argv   []string
	stderr io.Writer

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

// StdioOption configures a StdioClient.
type StdioOption func(*StdioClient)

// WithStderr sets where the child's stderr goes. The default is os.Stderr.
func WithStderr(w io.Writer) StdioOption {
	return func(c *StdioClient) {
		c.stderr = w
	}
}

// NewStdioClient creates a client for the given argv. argv[0] is resolved
// through PATH.
func NewStdioClient(argv []string, opts ...StdioOption) *StdioClient {
	c := &StdioClient{
		argv:   append([]string(nil), argv...),
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the backend as a subprocess.
// Returns the server's stdin (for sending) and stdout (for receiving).
// The server's stderr is passed through unmodified.
func (c *StdioClient) Start(ctx context.Context) (io.WriteCloser, io.ReadCloser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd != nil {
		return nil, nil, errors.New("client already started")
	}
	if len(c.argv) == 0 {
		return nil, nil, &outbound.SpawnError{Err: ErrEmptyCommand}
	}

	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Stderr = c.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, &outbound.SpawnError{Command: c.argv, Err: fmt.Errorf("stdin pipe: %w", err)}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return nil, nil, &outbound.SpawnError{Command: c.argv, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = stdout.Close()
		return nil, nil, &outbound.SpawnError{Command: c.argv, Err: err}
	}

	c.cmd = cmd
	c.stdin = stdin
	c.stdout = stdout
	return stdin, stdout, nil
}

// Wait blocks until the backend terminates. It must be called after all
// reads from stdout have completed, since it closes the pipe.
// Returns nil for exit status 0 and *outbound.ExitError otherwise.
func (c *StdioClient) Wait() error {
	c.mu.Lock()
	cmd := c.cmd
	c.mu.Unlock()

	if cmd == nil {
		return errors.New("client not started")
	}

	err := cmd.Wait()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &outbound.ExitError{Code: exitCode(exitErr.ProcessState), Err: err}
	}
	return err
}

// Signal relays sig to the backend process.
func (c *StdioClient) Signal(sig os.Signal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd == nil || c.cmd.Process == nil {
		return errors.New("client not started")
	}
	if err := c.cmd.Process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("signal backend: %w", err)
	}
	return nil
}

// Close terminates the backend and cleans up resources.
// It kills the process if still running and closes all pipes.
func (c *StdioClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	// Close stdin first to signal EOF to server
	if c.stdin != nil {
		if err := c.stdin.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, fmt.Errorf("close stdin: %w", err))
		}
		c.stdin = nil
	}

	// Kill process if still running
	if c.cmd != nil && c.cmd.Process != nil {
		if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			errs = append(errs, fmt.Errorf("kill process: %w", err))
		}
	}

	if c.stdout != nil {
		if err := c.stdout.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, fmt.Errorf("close stdout: %w", err))
		}
		c.stdout = nil
	}

	return errors.Join(errs...)
}

// Compile-time check that StdioClient implements MCPClient interface.
var _ outbound.MCPClient = (*StdioClient)(nil)
