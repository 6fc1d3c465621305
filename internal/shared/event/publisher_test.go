package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	destination string
	msg         messaging.OutgoingMessage
	err         error
}

func (c *capture) Publish(_ context.Context, destination string, msg messaging.OutgoingMessage) (messaging.PublishResult, error) {
	c.destination, c.msg = destination, msg
	return messaging.PublishResult{Topic: destination}, c.err
}

func TestPublisher_PublishNotificationIntent(t *testing.T) {
	c := &capture{}
	p := NewPublisher(c, instrument.NewNoop(), "test.outbound.mq")

	ctx := instrument.SetCorrelationID(context.Background(), "corr-1")
	err := p.PublishNotificationIntent(ctx, NotificationIntentMessage{
		EventType: "COUPON_REDEEMED",
		Recipient: "alice",
		Subject:   "Coupon redeemed",
	})
	require.NoError(t, err)

	assert.Equal(t, NotificationIntentDestination, c.destination)
	assert.Equal(t, []byte("alice"), c.msg.Key)
	require.Len(t, c.msg.Headers, 1)
	assert.Equal(t, "corr-1", string(c.msg.Headers[0].Value))

	var got NotificationIntentMessage
	require.NoError(t, json.Unmarshal(c.msg.Body, &got))
	assert.Equal(t, "COUPON_REDEEMED", got.EventType)
}

func TestPublisher_Error(t *testing.T) {
	boom := errors.New("broker down")
	p := NewPublisher(&capture{err: boom}, instrument.NewNoop(), "test.outbound.mq")

	err := p.PublishNotificationIntent(context.Background(), NotificationIntentMessage{Recipient: RecipientAdministrators})
	assert.ErrorIs(t, err, boom)
}
