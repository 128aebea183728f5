package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
)

// JSON-RPC error codes used by the proxy.
const (
	// ErrCodeGovernanceDenied is the server-defined code of a policy denial.
	ErrCodeGovernanceDenied = -32001
	// ErrCodeInternal is the standard JSON-RPC internal error.
	ErrCodeInternal = -32603
)

// governanceSource tags error data so a client can tell a governance
// rejection from an error raised by the backend.
const governanceSource = "governance"

// ErrGovernanceDenied is wrapped by every GovernanceDenyError.
var ErrGovernanceDenied = errors.New("blocked by governance policy")

// GovernanceDenyError is returned by the enforcement interceptor when the
// policy denies a call. The proxy answers the client with Response instead
// of forwarding the call.
type GovernanceDenyError struct {
	Call GovernedCall
}

// Error implements the error interface.
func (e *GovernanceDenyError) Error() string {
	msg := fmt.Sprintf("toolgate: %s: service %q operation %q is denied for tool %q",
		ErrGovernanceDenied, e.Call.Service, e.Call.Operation, e.Call.ToolName)
	if e.Call.Decision.Reason != "" {
		msg += ": " + e.Call.Decision.Reason
	}
	return msg
}

// Unwrap returns ErrGovernanceDenied so errors.Is(err, ErrGovernanceDenied) works.
func (e *GovernanceDenyError) Unwrap() error {
	return ErrGovernanceDenied
}

// DenialData is the error.data member of a governance rejection.
type DenialData struct {
	Source    string `json:"source"`
	Service   string `json:"service"`
	Operation string `json:"operation"`
	Tool      string `json:"tool"`
	Reason    string `json:"reason,omitempty"`
}

// Response builds the JSON-RPC error response for the denied call,
// correlated by the request's raw id.
func (e *GovernanceDenyError) Response(id json.RawMessage) []byte {
	return CreateJSONRPCErrorWithData(id, ErrCodeGovernanceDenied, e.Error(), DenialData{
		Source:    governanceSource,
		Service:   e.Call.Service,
		Operation: string(e.Call.Operation),
		Tool:      e.Call.ToolName,
		Reason:    e.Call.Decision.Reason,
	})
}

// IsGovernanceDenial reports whether err is a governance denial.
func IsGovernanceDenial(err error) bool {
	return errors.Is(err, ErrGovernanceDenied)
}

// CreateJSONRPCError creates a JSON-RPC 2.0 error response.
// id is typically json.RawMessage to preserve the original type.
func CreateJSONRPCError(id interface{}, code int, message string) []byte {
	return CreateJSONRPCErrorWithData(id, code, message, nil)
}

// CreateJSONRPCErrorWithData creates a JSON-RPC 2.0 error response with an
// error.data member. A nil data is omitted.
func CreateJSONRPCErrorWithData(id interface{}, code int, message string, data interface{}) []byte {
	if raw, ok := id.(json.RawMessage); ok && len(raw) == 0 {
		id = nil
	}
	errObj := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if data != nil {
		errObj["data"] = data
	}
	resp := map[string]interface{}{
		"jsonrpc": "2.0",
		"error":   errObj,
		"id":      id,
	}
	b, _ := json.Marshal(resp)
	return b
}

