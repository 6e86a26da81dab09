package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func attrValue(attrs []attribute.KeyValue, key attribute.Key) (string, bool) {
	for _, kv := range attrs {
		if kv.Key == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestStartServiceSpan(t *testing.T) {
	recorder := useSpanRecorder(t)

	ctx, span := StartServiceSpan(context.Background(), "ReconciliationService", "AddPayment",
		AttrTenantID.String("tenant-1"))
	assert.NotEmpty(t, GetTraceID(ctx))
	EndSpan(span, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "ReconciliationService.AddPayment", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	tenant, ok := attrValue(spans[0].Attributes(), AttrTenantID)
	assert.True(t, ok)
	assert.Equal(t, "tenant-1", tenant)
}

func TestEndSpan_Errors(t *testing.T) {
	recorder := useSpanRecorder(t)

	_, span := StartServiceSpan(context.Background(), "svc", "domain")
	EndSpan(span, shared.NewDomainError("HAS_PAYMENTS", "Invoice has payments"))

	_, span = StartServiceSpan(context.Background(), "svc", "plain")
	EndSpan(span, errors.New("boom"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, codes.Error, spans[0].Status().Code)
	code, ok := attrValue(spans[0].Attributes(), AttrErrorCode)
	assert.True(t, ok)
	assert.Equal(t, "HAS_PAYMENTS", code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	_, ok = attrValue(spans[1].Attributes(), AttrErrorCode)
	assert.False(t, ok)
}
