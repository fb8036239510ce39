package observability

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"sales-dashboard/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	assert.Equal(t, "req-42", GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestInitTracing_Disabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	shutdown, err := InitTracing(context.Background(), config.TracingConfig{Enabled: false}, logger)

	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_ExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var out bytes.Buffer

	shutdown, err := initTracing(context.Background(), config.TracingConfig{Enabled: true, ServiceName: "sales-test"}, logger, &out)
	require.NoError(t, err)

	ctx, span := otel.Tracer("test").Start(context.Background(), "dataset.load")
	assert.NotEmpty(t, TraceID(ctx))
	RecordError(span, errors.New("missing column"))
	RecordError(span, nil)
	span.End()

	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, out.String(), "dataset.load")
	assert.Contains(t, out.String(), "missing column")
	assert.Contains(t, out.String(), "sales-test")
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestNewLogger_Format(t *testing.T) {
	var out bytes.Buffer
	logger := newLogger(&out, config.LoggerConfig{Level: "info", Format: "json"})

	RequestLogger(WithRequestID(context.Background(), "req-7"), logger).Info("dataset loaded", "records", 3)
	logger.Debug("hidden")

	assert.Contains(t, out.String(), `"msg":"dataset loaded"`)
	assert.Contains(t, out.String(), `"request_id":"req-7"`)
	assert.Contains(t, out.String(), `"service":"sales-dashboard"`)
	assert.NotContains(t, out.String(), "hidden")
}
