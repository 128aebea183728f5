// Package policy contains the allow/deny rule model keyed by
// (service, operation) and the read-only table used to look decisions up.
package policy

import (
	"fmt"
	"strings"

	"github.com/Sentinel-Gate/toolgate/internal/domain/operation"
)

// Permission is the outcome a rule assigns to matching calls.
type Permission string

const (
	// PermissionAllow lets the tool call reach the backend.
	PermissionAllow Permission = "allow"
	// PermissionDeny blocks the tool call.
	PermissionDeny Permission = "deny"
)

// IsValid returns true if the permission is allow or deny.
func (p Permission) IsValid() bool {
	return p == PermissionAllow || p == PermissionDeny
}

// WildcardService matches every service.
const WildcardService = "*"

// WildcardOperation matches every operation category.
const WildcardOperation = "*"

// Rule is one normalized policy entry.
type Rule struct {
	// Service is an exact service name, a glob pattern ("git*"), or "*".
	Service string
	// Operations are the categories the rule applies to.
	// Ignored when AllOperations is set.
	Operations []operation.Category
	// AllOperations is set when the rule was declared with "*".
	AllOperations bool
	// Permission is allow or deny.
	Permission Permission
	// Reason is optional free text reported on denial.
	Reason string
}

// String renders the rule for logs and denial messages.
func (r Rule) String() string {
	ops := WildcardOperation
	if !r.AllOperations {
		names := make([]string, len(r.Operations))
		for i, op := range r.Operations {
			names[i] = string(op)
		}
		ops = strings.Join(names, ",")
	}
	return fmt.Sprintf("%s:%s=%s", r.Service, ops, r.Permission)
}

// appliesTo reports whether the rule covers the operation.
func (r Rule) appliesTo(op operation.Category) bool {
	if r.AllOperations {
		return true
	}
	for _, o := range r.Operations {
		if o == op {
			return true
		}
	}
	return false
}

// Decision is the outcome of a table lookup.
type Decision struct {
	// Permission is the effective permission.
	Permission Permission
	// Reason is the matched rule's reason, if any.
	Reason string
	// Rule describes the matched rule; empty when the default applied.
	Rule string
	// Matched is false when no rule matched and the default allow applied.
	Matched bool
}

// Allowed returns true if the call may be forwarded.
func (d Decision) Allowed() bool {
	return d.Permission == PermissionAllow
}

// DefaultDecision is returned when no rule matches. The posture is
// permissive: governance only blocks what a rule explicitly denies.
var DefaultDecision = Decision{Permission: PermissionAllow}
