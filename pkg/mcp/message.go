// Package mcp provides MCP message types, JSON-RPC codec utilities and
// newline-delimited framing for the toolgate proxy.
package mcp

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// MethodToolsCall is the JSON-RPC method of an MCP tool invocation.
const MethodToolsCall = "tools/call"

// Message wraps one line of the stream. It keeps the raw bytes, which are
// what gets forwarded, alongside the decoded message used for inspection.
type Message struct {
	// Raw contains the original bytes of the message, without the line
	// terminator.
	Raw []byte

	// Decoded contains the parsed JSON-RPC message, either a
	// *jsonrpc.Request or a *jsonrpc.Response. Nil when the line is not
	// valid JSON-RPC; such lines are still forwarded verbatim.
	Decoded jsonrpc.Message

	// Timestamp records when the message was received by the proxy.
	Timestamp time.Time
}

// IsRequest returns true if the message is a JSON-RPC request.
func (m *Message) IsRequest() bool {
	return m.Request() != nil
}

// IsNotification reports whether the message is a request without an id.
func (m *Message) IsNotification() bool {
	req := m.Request()
	return req != nil && !req.ID.IsValid()
}

// Method returns the method name if this is a request, empty string otherwise.
func (m *Message) Method() string {
	req := m.Request()
	if req == nil {
		return ""
	}
	return req.Method
}

// IsToolCall returns true if this is a tools/call request.
func (m *Message) IsToolCall() bool {
	return m.Method() == MethodToolsCall
}

// Request returns the underlying Request if this is a request message.
// Returns nil if this is not a request.
func (m *Message) Request() *jsonrpc.Request {
	if m.Decoded == nil {
		return nil
	}
	req, _ := m.Decoded.(*jsonrpc.Request)
	return req
}

// ToolName returns params.name of a tools/call request. Only the exact,
// case-sensitive "name" key counts, matching how the request is decoded
// everywhere else. It returns "" when the message is not a tool call, or
// when params or name are missing or name is not a string.
func (m *Message) ToolName() string {
	names := m.toolNames()
	if len(names) == 0 || !names[0].exact {
		return ""
	}
	return names[0].value
}

// ToolNames returns every tool name a backend could read from params: the
// exact "name" key first, then any key that differs from it only by case.
// Backends that decode params case-insensitively would act on those, so the
// proxy has to govern all of them.
func (m *Message) ToolNames() []string {
	names := m.toolNames()
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, n.value)
	}
	return out
}

type toolNameKey struct {
	value string
	exact bool
}

func (m *Message) toolNames() []toolNameKey {
	if !m.IsToolCall() {
		return nil
	}
	req := m.Request()
	if len(req.Params) == 0 {
		return nil
	}
	var params map[string]json.RawMessage
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil
	}

	var names []toolNameKey
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !strings.EqualFold(k, "name") {
			continue
		}
		var name string
		if err := json.Unmarshal(params[k], &name); err != nil || name == "" {
			continue
		}
		if k == "name" {
			names = append([]toolNameKey{{value: name, exact: true}}, names...)
			continue
		}
		names = append(names, toolNameKey{value: name})
	}
	return names
}

// RawID extracts the request ID from the raw message bytes as json.RawMessage.
// The SDK's jsonrpc.ID type doesn't marshal correctly through interface{},
// so the ID is taken directly from the raw JSON, preserving its original
// form (number, string, or null).
// Returns nil if no ID is present.
func (m *Message) RawID() json.RawMessage {
	if m.Raw == nil {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(m.Raw, &raw); err != nil {
		return nil
	}
	return raw["id"]
}
