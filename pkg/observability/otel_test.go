package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitOTel_Disabled(t *testing.T) {
	logger := NewLogger(InfoLevel, &bytes.Buffer{})

	providers, err := InitOTel(context.Background(), OTelConfig{Enabled: false}, logger)
	require.NoError(t, err)
	assert.Nil(t, providers)

	assert.NoError(t, ShutdownOTel(context.Background(), providers, logger))
}

func TestShutdownOTel_LocalProvider(t *testing.T) {
	logger := NewLogger(InfoLevel, &bytes.Buffer{})
	tp := sdktrace.NewTracerProvider()

	err := ShutdownOTel(context.Background(), &OTelProviders{TracerProvider: tp}, logger)
	assert.NoError(t, err)
}

func TestDialOptions(t *testing.T) {
	assert.Empty(t, dialOptions(OTelConfig{}))
	assert.Len(t, dialOptions(OTelConfig{Insecure: true}), 1)
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestWithTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	// no span: logger unchanged
	assert.Same(t, logger, WithTraceContext(context.Background(), logger))

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	WithTraceContext(ctx, logger).Info("traced")
	entry := decodeEntry(t, &buf)
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
}
