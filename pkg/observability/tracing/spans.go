package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartOperationSpan creates a span for one document operation against a
// collection. The span is named "<operation> <collection>" and carries
// db.operation and db.collection attributes; options add more.
func StartOperationSpan(ctx context.Context, operation, collection string, opts ...OperationSpanOption) (context.Context, trace.Span) {
	tracer := otel.Tracer("docmap")

	spanOpts := &operationSpanOptions{
		attributes: []attribute.KeyValue{
			attribute.String("db.operation", operation),
			attribute.String("db.collection", collection),
		},
	}
	for _, opt := range opts {
		opt(spanOpts)
	}

	spanName := fmt.Sprintf("%s %s", operation, collection)
	ctx, span := tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(spanOpts.attributes...)
	return ctx, span
}

// OperationSpanOption configures an operation span.
type OperationSpanOption func(*operationSpanOptions)

type operationSpanOptions struct {
	attributes []attribute.KeyValue
}

// WithStoreSystem sets the backing store (e.g. "mongodb", "dynamodb").
func WithStoreSystem(system string) OperationSpanOption {
	return func(opts *operationSpanOptions) {
		opts.attributes = append(opts.attributes, attribute.String("db.system", system))
	}
}

// WithDocumentCount sets the number of documents the operation touched.
func WithDocumentCount(count int) OperationSpanOption {
	return func(opts *operationSpanOptions) {
		opts.attributes = append(opts.attributes, attribute.Int("db.document_count", count))
	}
}

// RecordError records an error in the span and sets the span status to
// error.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// RecordSuccess sets the span status to OK.
func RecordSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}
