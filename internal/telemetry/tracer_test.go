package telemetry

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider("", "github")
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	_, span := p.Tracer().Start(context.Background(), "tools/call")
	if span.SpanContext().IsValid() {
		t.Error("disabled provider produced a recording span")
	}
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewProvider_RejectsStdout(t *testing.T) {
	for _, out := range []string{"stdout", "-"} {
		if _, err := NewProvider(out, ""); err == nil {
			t.Errorf("NewProvider(%q) should fail", out)
		}
	}
}

func TestNewProvider_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spans.jsonl")

	p, err := NewProvider("file://"+path, "github")
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	_, span := p.Tracer().Start(context.Background(), "tools/call")
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read spans: %v", err)
	}
	if !strings.Contains(string(data), `"Name":"tools/call"`) {
		t.Errorf("span file missing tools/call span: %s", data)
	}
	if !strings.Contains(string(data), "github") {
		t.Errorf("span file missing backend service resource: %s", data)
	}
}

func TestNewProvider_Writer(t *testing.T) {
	var buf bytes.Buffer
	p, err := newProvider(&buf, func() error { return nil }, "")
	if err != nil {
		t.Fatalf("newProvider() error = %v", err)
	}
	_, span := p.Tracer().Start(context.Background(), "tools/call")
	span.End()
	_ = p.Shutdown(context.Background())

	if buf.Len() == 0 {
		t.Error("no span exported")
	}
}

func TestNewProvider_BadPath(t *testing.T) {
	if _, err := NewProvider(filepath.Join(t.TempDir(), "missing", "spans.jsonl"), ""); err == nil {
		t.Error("NewProvider() with missing directory should fail")
	}
}
