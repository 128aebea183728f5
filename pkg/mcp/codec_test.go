package mcp

import (
	"reflect"
	"testing"
)

func TestWrapMessage(t *testing.T) {
	tests := []struct {
		name         string
		raw          []byte
		wantMethod   string
		wantRequest  bool
		wantToolCall bool
		wantDecoded  bool
	}{
		{
			name:         "tools/call request",
			raw:          []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"read_file"}}`),
			wantMethod:   "tools/call",
			wantRequest:  true,
			wantToolCall: true,
			wantDecoded:  true,
		},
		{
			name:         "tools/list request",
			raw:          []byte(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`),
			wantMethod:   "tools/list",
			wantRequest:  true,
			wantToolCall: false,
			wantDecoded:  true,
		},
		{
			name:         "response",
			raw:          []byte(`{"jsonrpc":"2.0","id":1,"result":{"content":"data"}}`),
			wantMethod:   "",
			wantRequest:  false,
			wantToolCall: false,
			wantDecoded:  true,
		},
		{
			name: "invalid json is kept raw",
			raw:  []byte(`{invalid`),
		},
		{
			name: "empty object",
			raw:  []byte(`{}`),
		},
		{
			name: "missing jsonrpc version",
			raw:  []byte(`{"id":1,"method":"test"}`),
		},
		{
			name: "wrong jsonrpc version",
			raw:  []byte(`{"jsonrpc":"1.0","id":1,"method":"test"}`),
		},
		{
			// Batches are not decoded, so they are never governed.
			name: "batch array",
			raw:  []byte(`[{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"delete_repo"}}]`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := WrapMessage(tt.raw)
			if (msg.Decoded != nil) != tt.wantDecoded {
				t.Fatalf("Decoded = %v, want decoded %v", msg.Decoded, tt.wantDecoded)
			}

			// Verify raw bytes preserved
			if string(msg.Raw) != string(tt.raw) {
				t.Errorf("raw bytes not preserved: got %q, want %q", msg.Raw, tt.raw)
			}

			// Verify timestamp is set
			if msg.Timestamp.IsZero() {
				t.Error("timestamp should be set")
			}

			if msg.Method() != tt.wantMethod {
				t.Errorf("Method(): got %q, want %q", msg.Method(), tt.wantMethod)
			}
			if msg.IsRequest() != tt.wantRequest {
				t.Errorf("IsRequest(): got %v, want %v", msg.IsRequest(), tt.wantRequest)
			}
			if msg.IsToolCall() != tt.wantToolCall {
				t.Errorf("IsToolCall(): got %v, want %v", msg.IsToolCall(), tt.wantToolCall)
			}
		})
	}
}

func TestMessageWithNilDecoded(t *testing.T) {
	msg := &Message{Raw: []byte(`invalid`)}

	if msg.IsRequest() {
		t.Error("IsRequest() should return false for nil Decoded")
	}
	if msg.Method() != "" {
		t.Error("Method() should return empty string for nil Decoded")
	}
	if msg.IsToolCall() {
		t.Error("IsToolCall() should return false for nil Decoded")
	}
	if msg.Request() != nil {
		t.Error("Request() should return nil for nil Decoded")
	}
	if msg.ToolName() != "" || len(msg.ToolNames()) != 0 {
		t.Error("tool names should be empty for nil Decoded")
	}
}

func TestMessageToolName(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      string
		wantNames []string
	}{
		{"tool call", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_directory","arguments":{"path":"/tmp"}}}`, "list_directory", []string{"list_directory"}},
		{"no params", `{"jsonrpc":"2.0","id":1,"method":"tools/call"}`, "", []string{}},
		{"params without name", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"arguments":{}}}`, "", []string{}},
		{"non-string name", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":42}}`, "", []string{}},
		{"params is an array", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":["read_file"]}`, "", []string{}},
		{"not a tool call", `{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"name":"read_file"}}`, "", []string{}},
		{"response", `{"jsonrpc":"2.0","id":1,"result":{"name":"read_file"}}`, "", []string{}},
		{"undecodable", `{"method":"tools/call"`, "", []string{}},
		{
			"case-folded duplicate key",
			`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"delete_repo","Name":"read_file"}}`,
			"delete_repo",
			[]string{"delete_repo", "read_file"},
		},
		{
			"case-folded duplicate listed first",
			`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"NAME":"read_file","name":"delete_repo"}}`,
			"delete_repo",
			[]string{"delete_repo", "read_file"},
		},
		{
			"only a case variant",
			`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"Name":"delete_repo"}}`,
			"",
			[]string{"delete_repo"},
		},
		{
			"exact key not a string",
			`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":{"x":1},"nAme":"drop_table"}}`,
			"",
			[]string{"drop_table"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := WrapMessage([]byte(tt.raw))
			if got := msg.ToolName(); got != tt.want {
				t.Errorf("ToolName() = %q, want %q", got, tt.want)
			}
			if got := msg.ToolNames(); !reflect.DeepEqual(got, tt.wantNames) {
				t.Errorf("ToolNames() = %q, want %q", got, tt.wantNames)
			}
		})
	}
}

func TestMessageRawIDAndNotification(t *testing.T) {
	tests := []struct {
		name             string
		raw              string
		wantID           string
		wantNotification bool
	}{
		{"numeric id", `{"jsonrpc":"2.0","id":7,"method":"tools/call"}`, "7", false},
		{"string id", `{"jsonrpc":"2.0","id":"req-7","method":"tools/call"}`, `"req-7"`, false},
		{"notification", `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"x"}}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := WrapMessage([]byte(tt.raw))
			if got := string(msg.RawID()); got != tt.wantID {
				t.Errorf("RawID() = %s, want %s", got, tt.wantID)
			}
			if got := msg.IsNotification(); got != tt.wantNotification {
				t.Errorf("IsNotification() = %v, want %v", got, tt.wantNotification)
			}
		})
	}
}
