//go:build !windows

package mcp

import (
	"os"
	"syscall"
)

// exitCode returns the exit status, or 128+signal for a process killed by
// a signal, as shells report it.
func exitCode(ps *os.ProcessState) int {
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return ps.ExitCode()
}
