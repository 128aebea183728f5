// Package audit contains domain types for audit logging of governed calls.
package audit

import (
	"time"
)

// Decision is the outcome recorded for a governed call.
type Decision string

// Decision constants for audit events.
const (
	// DecisionAllowed indicates the tool call was forwarded to the backend.
	DecisionAllowed Decision = "ALLOWED"
	// DecisionDenied indicates the tool call was blocked by policy.
	DecisionDenied Decision = "DENIED"
)

// Event is the record of one governed call. Events are written once and
// never modified. Non-governed traffic produces no event.
type Event struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`
	// SessionID identifies the proxy process that made the decision.
	SessionID string `json:"session_id"`
	// Timestamp is when the call was received.
	Timestamp time.Time `json:"timestamp"`
	// ToolName is the tool identifier taken from the call.
	ToolName string `json:"tool"`
	// Service is the resolved service name.
	Service string `json:"service"`
	// Operation is the resolved operation category.
	Operation string `json:"operation"`
	// Decision is ALLOWED or DENIED.
	Decision Decision `json:"decision"`
	// Reason is the matched rule's reason, if any.
	Reason string `json:"reason,omitempty"`
	// RequestID is the JSON-RPC id of the call, empty for notifications.
	RequestID string `json:"request_id,omitempty"`
	// PolicyVersion fingerprints the table that produced the decision.
	PolicyVersion string `json:"policy_version"`
}
