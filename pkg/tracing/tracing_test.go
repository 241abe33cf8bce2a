package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSpanWrapper_RecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	ctx, parent := provider.Tracer("test").Start(context.Background(), "parent")

	var traceID string
	err := SpanWrapper(ctx, "child", nil, func(ctx context.Context) error {
		traceID = GetTraceID(ctx)
		return errors.New("boom")
	})
	parent.End()

	require.Error(t, err)
	assert.Equal(t, parent.SpanContext().TraceID().String(), traceID)
	assert.NotEmpty(t, GetSpanID(ctx))
	assert.Empty(t, GetTraceID(context.Background()))

	// The global provider is a no-op here, so only the parent is recorded.
	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
}
