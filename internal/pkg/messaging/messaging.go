// Package messaging publishes to a message broker. The service only emits
// messages (notification intents for an external sender), so only the
// publishing side is modelled: NATS, Kafka, NSQ and Google Pub/Sub drivers
// plus a log-only driver for local runs.
package messaging

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var (
	ErrDestinationRequired = errors.New("messaging: destination is required")
	ErrClosed              = errors.New("messaging: client closed")
)

type Messaging interface {
	io.Closer
	Publisher
}

type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

type OutgoingMessage struct {
	Body []byte
	// Key routes related messages together: the Kafka partition key, and a
	// "key" attribute on Pub/Sub.
	Key     []byte
	Headers []Header
}

type Header struct {
	Key   string
	Value []byte
}

type PublishResult struct {
	MessageID string
	Topic     string
	Timestamp time.Time
}

// prepare validates the call and appends the W3C trace context of ctx to the
// message headers so consumers can continue the trace.
func prepare(ctx context.Context, destination string, msg OutgoingMessage) (OutgoingMessage, error) {
	if err := ctx.Err(); err != nil {
		return msg, err
	}
	if destination == "" {
		return msg, ErrDestinationRequired
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := make([]Header, 0, len(msg.Headers)+len(carrier))
	for _, h := range msg.Headers {
		if h.Key != "" {
			headers = append(headers, h)
		}
	}
	for _, k := range carrier.Keys() {
		headers = append(headers, Header{Key: k, Value: []byte(carrier.Get(k))})
	}
	msg.Headers = headers
	return msg, nil
}

// headerMap flattens headers for brokers that only model string attributes.
// A repeated key keeps its last value.
func headerMap(headers []Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h.Key] = string(h.Value)
	}
	return m
}
