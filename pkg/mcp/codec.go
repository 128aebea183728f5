package mcp

import (
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// WrapMessage decodes one client line and wraps it in a Message stamped
// with the current time.
//
// A line that does not decode is not an error: the returned Message has a
// nil Decoded and is forwarded unmodified. That includes JSON-RPC batch
// arrays, which the SDK decoder rejects; MCP clients do not send them and
// they reach the backend ungoverned.
func WrapMessage(raw []byte) *Message {
	msg := &Message{
		Raw:       raw,
		Timestamp: time.Now(),
	}
	if decoded, err := jsonrpc.DecodeMessage(raw); err == nil {
		msg.Decoded = decoded
	}
	return msg
}
