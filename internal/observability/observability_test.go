package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-console/internal/config"
)

func TestStartSpan_ChildInheritsTrace(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "GET /")
	_, child := StartSpan(ctx, "GET /fraud/health")

	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.NotEqual(t, parent.SpanID, child.SpanID)
}

func TestStartSpan_CarriesRequestAndSession(t *testing.T) {
	ctx := WithSessionID(WithRequestID(context.Background(), "req-7"), "sess-7")
	_, span := StartSpan(ctx, "POST /fraud/inference/fast")

	assert.Equal(t, "req-7", span.Tags["request_id"])
	assert.Equal(t, "sess-7", span.Tags["session_id"])
	assert.Len(t, span.TraceID, 32)
	assert.Len(t, span.SpanID, 16)
}

func TestSpan_FinishAndError(t *testing.T) {
	_, span := StartSpan(context.Background(), "POST /fraud/etl/run")
	span.SetTag("http.status_code", "502")
	span.SetError(errors.New("bad gateway"))
	span.Finish()

	require.NotNil(t, span.Duration)
	assert.Equal(t, SpanStatusError, span.Status)
	assert.Equal(t, "bad gateway", span.Error)
	assert.Equal(t, "502", span.Tags["http.status_code"])
}

func TestNewLoggerTo_RespectsLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "warn", Format: "json"})

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
}

func TestSpan_LogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, span := StartSpan(context.Background(), "GET /fraud/inference/stats")
	span.Finish()
	logger.Info("done", "span", span)

	assert.Contains(t, buf.String(), "span.operation=")
	assert.Contains(t, buf.String(), "span.status=OK")
}

func TestRequestAndSessionIDs(t *testing.T) {
	ctx := WithSessionID(WithRequestID(context.Background(), "req"), "sess")

	assert.Equal(t, "req", GetRequestID(ctx))
	assert.Equal(t, "sess", GetSessionID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}
