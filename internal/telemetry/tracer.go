// Package telemetry sets up OpenTelemetry tracing for toolgate.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName names the tracer spans are created under.
const TracerName = "github.com/Sentinel-Gate/toolgate"

// Provider pairs a tracer with the shutdown of its exporter.
type Provider struct {
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

// Tracer returns the tracer to hand to interceptors.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Shutdown flushes pending spans and releases the output.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}

// NewProvider builds a tracer exporting spans as JSON lines to output.
// output is "" (tracing off), "stderr", or a file path. Stdout is never
// accepted: it carries the MCP stream.
func NewProvider(output, service string) (*Provider, error) {
	if output == "" {
		return &Provider{
			tracer:   noop.NewTracerProvider().Tracer(TracerName),
			shutdown: func(context.Context) error { return nil },
		}, nil
	}

	w, closeOutput, err := openOutput(output)
	if err != nil {
		return nil, err
	}
	return newProvider(w, closeOutput, service)
}

func newProvider(w io.Writer, closeOutput func() error, service string) (*Provider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		_ = closeOutput()
		return nil, fmt.Errorf("failed to initialize trace exporter: %w", err)
	}

	attrs := []attribute.KeyValue{attribute.String("service.name", "toolgate")}
	if service != "" {
		attrs = append(attrs, attribute.String("toolgate.backend_service", service))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewSchemaless(attrs...)),
		sdktrace.WithSyncer(exp),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &Provider{
		tracer: tp.Tracer(TracerName),
		shutdown: func(ctx context.Context) error {
			err := tp.Shutdown(ctx)
			if cerr := closeOutput(); err == nil {
				err = cerr
			}
			return err
		},
	}, nil
}

func openOutput(output string) (io.Writer, func() error, error) {
	switch {
	case output == "stderr":
		return os.Stderr, func() error { return nil }, nil
	case output == "stdout" || output == "-":
		return nil, nil, fmt.Errorf("trace output %q would corrupt the MCP stream", output)
	}

	path := strings.TrimPrefix(output, "file://")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open trace output: %w", err)
	}
	return f, f.Close, nil
}
