// Package service contains application services.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Sentinel-Gate/toolgate/internal/domain/policy"
)

// TableLoader produces a fresh policy table, typically from a file.
type TableLoader func() (*policy.Table, error)

// ReloadObserver is notified of every reload attempt.
type ReloadObserver interface {
	PolicyReloaded(version string, err error)
}

// PolicyService holds the active policy table. Readers never block: the
// table is published with an atomic pointer swap, so a call is decided
// against either the old or the new table, never a mix.
type PolicyService struct {
	load     TableLoader
	active   atomic.Pointer[policy.Table]
	mu       sync.Mutex // serializes Reload
	observer ReloadObserver
	logger   *slog.Logger
}

// PolicyServiceOption configures PolicyService.
type PolicyServiceOption func(*PolicyService)

// WithReloadObserver registers an observer for reload attempts.
func WithReloadObserver(o ReloadObserver) PolicyServiceOption {
	return func(s *PolicyService) {
		s.observer = o
	}
}

// NewPolicyService performs the initial load. A failure here is fatal to
// the caller: there is no previous table to fall back on.
func NewPolicyService(load TableLoader, logger *slog.Logger, opts ...PolicyServiceOption) (*PolicyService, error) {
	s := &PolicyService{
		load:   load,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	table, err := load()
	if err != nil {
		return nil, err
	}
	s.active.Store(table)

	logger.Info("policy loaded",
		"rules", table.Len(),
		"policy_version", table.Version(),
	)
	return s, nil
}

// Active returns the table in force. It implements proxy.TableProvider.
func (s *PolicyService) Active() *policy.Table {
	return s.active.Load()
}

// Reload loads the policy again and swaps it in. On failure the previous
// table stays active and the error is returned.
func (s *PolicyService) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.active.Load()
	table, err := s.load()
	if err != nil {
		s.logger.Error("policy reload failed, keeping previous table",
			"policy_version", previous.Version(),
			"error", err,
		)
		s.notify(previous.Version(), err)
		return fmt.Errorf("reload policy: %w", err)
	}

	s.active.Store(table)
	s.notify(table.Version(), nil)

	s.logger.Info("policy reloaded",
		"rules", table.Len(),
		"policy_version", table.Version(),
		"previous_version", previous.Version(),
		"changed", table.Version() != previous.Version(),
	)
	return nil
}

func (s *PolicyService) notify(version string, err error) {
	if s.observer != nil {
		s.observer.PolicyReloaded(version, err)
	}
}
