package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(recorder),
	)
	otel.SetTracerProvider(provider)
	return recorder
}

func spanAttributes(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), TracerConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewTracerProvider() error = %v", err)
	}
	if tp.Tracer("test") == nil {
		t.Fatal("Tracer() returned nil")
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestNewTracerProvider_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  TracerConfig
	}{
		{name: "missing service name", cfg: TracerConfig{Enabled: true, Endpoint: "localhost:4317"}},
		{name: "missing endpoint", cfg: TracerConfig{Enabled: true, ServiceName: "docmap"}},
		{name: "sample rate out of range", cfg: TracerConfig{Enabled: true, ServiceName: "docmap", Endpoint: "localhost:4317", SampleRate: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTracerProvider(context.Background(), tt.cfg); err == nil {
				t.Fatal("expected configuration error")
			}
		})
	}
}

func TestStartOperationSpan(t *testing.T) {
	recorder := setupTestTracer(t)

	_, span := StartOperationSpan(context.Background(), "insert", "people",
		WithStoreSystem("mongodb"), WithDocumentCount(3))
	RecordSuccess(span)
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	got := spans[0]
	if got.Name() != "insert people" {
		t.Errorf("span name = %q", got.Name())
	}
	attrs := spanAttributes(got)
	if attrs["db.operation"].AsString() != "insert" {
		t.Errorf("db.operation = %v", attrs["db.operation"])
	}
	if attrs["db.collection"].AsString() != "people" {
		t.Errorf("db.collection = %v", attrs["db.collection"])
	}
	if attrs["db.system"].AsString() != "mongodb" {
		t.Errorf("db.system = %v", attrs["db.system"])
	}
	if attrs["db.document_count"].AsInt64() != 3 {
		t.Errorf("db.document_count = %v", attrs["db.document_count"])
	}
	if got.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", got.Status().Code)
	}
}

func TestRecordError(t *testing.T) {
	recorder := setupTestTracer(t)

	_, span := StartOperationSpan(context.Background(), "update", "people")
	RecordError(span, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	status := spans[0].Status()
	if status.Code != codes.Error || status.Description != "boom" {
		t.Fatalf("status = %+v, want error with message", status)
	}
	if len(spans[0].Events()) == 0 {
		t.Fatal("expected an error event on the span")
	}
}
