package event

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/messaging"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// HeaderCorrelationID carries the request correlation id to the notifier.
const HeaderCorrelationID = "cID"

// Publisher emits notification intents. Modules share it; scope names the
// tracer so spans show which module published.
type Publisher struct {
	client messaging.Publisher
	tracer trace.Tracer
}

func NewPublisher(client messaging.Publisher, ins instrument.Instrumentation, scope string) *Publisher {
	return &Publisher{client: client, tracer: ins.Tracer(scope)}
}

// PublishNotificationIntent keys the message by recipient so one recipient's
// intents stay ordered on partitioned brokers.
func (p *Publisher) PublishNotificationIntent(ctx context.Context, msg NotificationIntentMessage) error {
	ctx, span := p.tracer.Start(ctx, "PublishNotificationIntent")
	defer span.End()

	body, err := json.Marshal(msg)
	if err == nil {
		_, err = p.client.Publish(ctx, NotificationIntentDestination, messaging.OutgoingMessage{
			Body:    body,
			Key:     []byte(msg.Recipient),
			Headers: []messaging.Header{{Key: HeaderCorrelationID, Value: []byte(instrument.GetCorrelationID(ctx))}},
		})
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
