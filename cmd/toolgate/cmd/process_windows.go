//go:build windows

package cmd

import (
	"os"
)

// terminationSignals returns the signals relayed to the backend.
// On Windows, only os.Interrupt (Ctrl+C / CTRL_C_EVENT) is reliably delivered.
func terminationSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

// reloadSignals returns nil: Windows has no SIGHUP. Use policy_watch.
func reloadSignals() []os.Signal {
	return nil
}
