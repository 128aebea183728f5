//go:build !windows

package cmd

import (
	"context"
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestNotifySignals_RegisteredOnReturn(t *testing.T) {
	sigs := notifySignals()
	defer sigs.stop()

	// Delivered before any relay goroutine runs: without the subscription
	// this would terminate the test binary.
	if err := unix.Kill(os.Getpid(), unix.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}
	if err := unix.Kill(os.Getpid(), unix.SIGHUP); err != nil {
		t.Fatalf("kill: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdowns := make(chan os.Signal, 1)
	reloads := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		relaySignals(ctx, sigs,
			func(sig os.Signal) { shutdowns <- sig },
			func(context.Context) error { reloads <- struct{}{}; return nil },
			discardLogger(),
		)
	}()

	select {
	case sig := <-shutdowns:
		if sig != unix.SIGTERM {
			t.Errorf("relayed %v, want SIGTERM", sig)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("termination signal was not relayed")
	}
	select {
	case <-reloads:
	case <-time.After(5 * time.Second):
		t.Fatal("reload signal did not trigger a reload")
	}

	cancel()
	<-done
}
