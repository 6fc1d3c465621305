package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestPrepare_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	msg, err := prepare(ctx, "notification.intent", OutgoingMessage{
		Body:    []byte(`{}`),
		Headers: []Header{{Key: "cID", Value: []byte("c-1")}, {Key: "", Value: []byte("dropped")}},
	})
	require.NoError(t, err)

	headers := headerMap(msg.Headers)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "c-1", headers["cID"])
	assert.Contains(t, headers["traceparent"], sc.TraceID().String())
}

func TestPrepare_Rejects(t *testing.T) {
	_, err := prepare(context.Background(), "", OutgoingMessage{})
	assert.ErrorIs(t, err, ErrDestinationRequired)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = prepare(ctx, "notification.intent", OutgoingMessage{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHeaderMap_Empty(t *testing.T) {
	assert.Nil(t, headerMap(nil))
}
