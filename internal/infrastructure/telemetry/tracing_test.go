package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs a recording provider as the global one for the
// duration of the test.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrsOf(kvs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func TestStartSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "import.batch",
		telemetry.WithAttribute(telemetry.SpanAttrBatchID, "batch-1"),
		telemetry.WithAttribute(telemetry.SpanAttrRecordCount, 12),
	)
	span.End()

	_, span = telemetry.StartSpan(context.Background(), "kafka.publish",
		telemetry.WithSpanKind(trace.SpanKindProducer),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "import.batch", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
	assert.Equal(t, telemetry.TracerName, spans[0].InstrumentationScope().Name)
	attrs := attrsOf(spans[0].Attributes())
	assert.Equal(t, "batch-1", attrs["batch_id"])
	assert.Equal(t, int64(12), attrs["record_count"])

	assert.Equal(t, trace.SpanKindProducer, spans[1].SpanKind())
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "template", "create")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "template.create", spans[0].Name())
}

func TestSetAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "import.batch")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrFileName, "orders.csv",
		telemetry.SpanAttrSuccessCount, 42,
		"truncated", true,
		42, "non-string key is skipped",
		"dangling",
	)
	id := uuid.New()
	telemetry.SetAttribute(span, telemetry.SpanAttrTemplateID, id)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := attrsOf(spans[0].Attributes())

	assert.Len(t, attrs, 4)
	assert.Equal(t, "orders.csv", attrs["file_name"])
	assert.Equal(t, int64(42), attrs["success_count"])
	assert.Equal(t, true, attrs["truncated"])
	assert.Equal(t, id.String(), attrs["template_id"], "Stringer values use String()")
}

func TestAttributeTypes(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "types")
	telemetry.SetAttributes(span,
		"int64", int64(7),
		"float", 1.5,
		"strings", []string{"a", "b"},
		"ints", []int{1, 2},
		"other", struct{ N int }{3},
	)
	span.End()

	attrs := attrsOf(sr.Ended()[0].Attributes())
	assert.Equal(t, int64(7), attrs["int64"])
	assert.Equal(t, 1.5, attrs["float"])
	assert.Equal(t, []string{"a", "b"}, attrs["strings"])
	assert.Equal(t, []int64{1, 2}, attrs["ints"])
	assert.Equal(t, "{3}", attrs["other"])
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "import.batch")
	telemetry.RecordError(span, errors.New("file contains no records"))
	telemetry.RecordError(span, nil)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "file contains no records", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestSetOKAndAddEvent(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "import.batch")
	telemetry.AddEvent(span, "record_failed", "row", 3, telemetry.SpanAttrOrderNumber, "ORD-1")
	telemetry.SetOK(span)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	require.Len(t, spans[0].Events(), 1)
	event := spans[0].Events()[0]
	assert.Equal(t, "record_failed", event.Name)
	assert.Equal(t, map[string]any{"row": int64(3), "order_number": "ORD-1"}, attrsOf(event.Attributes))
}

func TestNilSpanHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.SetAttribute(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.SetOK(nil)
		telemetry.AddEvent(nil, "e")
	})
}

func TestContextHelpers(t *testing.T) {
	setupTestTracer(t)

	assert.Empty(t, telemetry.GetTraceID(context.Background()))
	assert.Empty(t, telemetry.GetSpanID(context.Background()))

	ctx, parent := telemetry.StartSpan(context.Background(), "import.batch")
	defer parent.End()

	assert.Equal(t, parent, telemetry.SpanFromContext(ctx))
	assert.Equal(t, parent.SpanContext().TraceID().String(), telemetry.GetTraceID(ctx))
	assert.Equal(t, parent.SpanContext().SpanID().String(), telemetry.GetSpanID(ctx))

	childCtx, child := telemetry.StartSpan(ctx, "order.create")
	defer child.End()
	assert.Equal(t, telemetry.GetTraceID(ctx), telemetry.GetTraceID(childCtx), "children share the trace")
	assert.NotEqual(t, telemetry.GetSpanID(ctx), telemetry.GetSpanID(childCtx))

	moved := telemetry.ContextWithSpan(context.Background(), child)
	assert.Equal(t, telemetry.GetSpanID(childCtx), telemetry.GetSpanID(moved))
}
