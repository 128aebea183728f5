//go:build windows

package mcp

import "os"

func exitCode(ps *os.ProcessState) int {
	return ps.ExitCode()
}
