//go:build !windows

package cmd

import (
	"os"

	"golang.org/x/sys/unix"
)

// terminationSignals returns the signals relayed to the backend.
func terminationSignals() []os.Signal {
	return []os.Signal{unix.SIGINT, unix.SIGTERM, unix.SIGQUIT}
}

// reloadSignals returns the signals that trigger a policy reload.
func reloadSignals() []os.Signal {
	return []os.Signal{unix.SIGHUP}
}
