package policy

import (
	"errors"
	"fmt"
)

// ErrInvalidPolicy is the sentinel wrapped by every ConfigError.
var ErrInvalidPolicy = errors.New("invalid policy")

// ConfigError reports a policy source that is missing, unreadable, or not
// well-formed. It is fatal at startup: a proxy that cannot load its policy
// must not run permissive.
type ConfigError struct {
	// Source is the path (or other label) of the policy source.
	Source string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("invalid policy: %v", e.Err)
	}
	return fmt.Sprintf("invalid policy %s: %v", e.Source, e.Err)
}

// Unwrap returns the cause; errors.Is(err, ErrInvalidPolicy) also holds.
func (e *ConfigError) Unwrap() []error {
	return []error{ErrInvalidPolicy, e.Err}
}
