package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer under which all business spans are created
const TracerName = "clinic-backend"

// Attribute keys shared by the candidate engine and registry spans
const (
	SpanAttrPatientID   = "patient_id"
	SpanAttrPatientCode = "patient_code"
	SpanAttrYear        = "year"
	SpanAttrGrade       = "grade"
	SpanAttrCandidates  = "candidate_count"
	SpanAttrBatchSize   = "batch_size"
)

type spanConfig struct {
	kind  trace.SpanKind
	attrs []attribute.KeyValue
}

// SpanOption configures span start options
type SpanOption func(*spanConfig)

// WithAttribute adds an attribute to the span at start time
func WithAttribute(key string, value any) SpanOption {
	return func(cfg *spanConfig) {
		cfg.attrs = append(cfg.attrs, anyAttribute(key, value))
	}
}

// WithSpanKind sets the span kind. Internal is the default; use Client for
// spans wrapping outbound calls.
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(cfg *spanConfig) {
		cfg.kind = kind
	}
}

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartSpan starts a span with the given name. The caller must call
// span.End() when the operation completes.
func StartSpan(ctx context.Context, spanName string, opts ...SpanOption) (context.Context, trace.Span) {
	cfg := spanConfig{kind: trace.SpanKindInternal}
	for _, opt := range opts {
		opt(&cfg)
	}
	return tracer().Start(ctx, spanName,
		trace.WithSpanKind(cfg.kind),
		trace.WithAttributes(cfg.attrs...),
	)
}

// StartServiceSpan starts a span named {service}.{method}, the convention
// used by the application services:
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "vip", "generate_candidates")
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, method string, opts ...SpanOption) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("%s.%s", service, method), opts...)
}

// SetAttribute adds a single attribute to the span. Nil spans are ignored so
// callers do not have to guard every call site.
func SetAttribute(span trace.Span, key string, value any) {
	if span != nil {
		span.SetAttributes(anyAttribute(key, value))
	}
}

// SetAttributes adds attributes to an existing span from alternating
// key/value arguments. Non-string keys and a trailing unpaired key are
// skipped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span != nil {
		span.SetAttributes(attributesFromPairs(keyValues)...)
	}
}

// RecordError records err on the span and marks the span status as error
func RecordError(span trace.Span, err error, opts ...trace.EventOption) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err, opts...)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks the span as successful. Optional, since spans without an error
// status already count as successful.
func SetOK(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// AddEvent adds a timestamped event to the span, with attributes built from
// alternating key/value arguments. Batch commit uses this to mark each
// failed item without failing the whole span.
func AddEvent(span trace.Span, name string, keyValues ...any) {
	if span != nil {
		span.AddEvent(name, trace.WithAttributes(attributesFromPairs(keyValues)...))
	}
}

func attributesFromPairs(keyValues []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		if key, ok := keyValues[i].(string); ok {
			attrs = append(attrs, anyAttribute(key, keyValues[i+1]))
		}
	}
	return attrs
}

// anyAttribute picks the typed attribute constructor for common Go types.
// fmt.Stringer covers uuid.UUID, so IDs come out as their canonical form.
func anyAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case []int:
		return attribute.IntSlice(key, v)
	case []int64:
		return attribute.Int64Slice(key, v)
	case []float64:
		return attribute.Float64Slice(key, v)
	case []bool:
		return attribute.BoolSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
