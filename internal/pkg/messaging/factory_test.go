package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDriver(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown driver", func(t *testing.T) {
		_, err := NewFromDriver(ctx, "rabbit", FactoryOptions{})
		assert.ErrorIs(t, err, ErrUnknownDriver)
	})

	t.Run("missing config is rejected before dialing", func(t *testing.T) {
		_, err := NewFromDriver(ctx, DriverKafka, FactoryOptions{})
		assert.ErrorIs(t, err, ErrKafkaBrokersRequired)
		_, err = NewFromDriver(ctx, DriverNATS, FactoryOptions{})
		assert.ErrorIs(t, err, ErrNATSURLRequired)
		_, err = NewFromDriver(ctx, DriverNSQ, FactoryOptions{})
		assert.ErrorIs(t, err, ErrNSQProducerAddrRequired)
		_, err = NewFromDriver(ctx, DriverGooglePubSub, FactoryOptions{})
		assert.ErrorIs(t, err, ErrPubSubProjectIDRequired)
	})

	t.Run("log driver publishes", func(t *testing.T) {
		m, err := NewFromDriver(ctx, DriverLog, FactoryOptions{})
		require.NoError(t, err)
		defer m.Close()

		res, err := m.Publish(ctx, "notification.intent", OutgoingMessage{Body: []byte(`{}`)})
		require.NoError(t, err)
		assert.Equal(t, "notification.intent", res.Topic)

		_, err = m.Publish(ctx, "", OutgoingMessage{})
		assert.ErrorIs(t, err, ErrDestinationRequired)
	})
}
