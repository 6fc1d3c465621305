package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")

type KafkaConfig struct {
	Brokers []string
	// Transport carries TLS and SASL settings; nil uses kafka.DefaultTransport.
	Transport *kafka.Transport
}

// Kafka writes through one kafka.Writer; the topic travels on each message.
type Kafka struct {
	writer *kafka.Writer
}

// NewKafka does not dial; connections open on the first publish.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	if cfg.Transport != nil {
		w.Transport = cfg.Transport
	}
	return &Kafka{writer: w}, nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

// Publish blocks until the brokers acknowledge the write.
func (k *Kafka) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	msg, err := prepare(ctx, destination, msg)
	if err != nil {
		return PublishResult{}, err
	}

	km := kafka.Message{Topic: destination, Key: msg.Key, Value: msg.Body, Time: time.Now()}
	for _, h := range msg.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: h.Key, Value: h.Value})
	}

	if err := k.writer.WriteMessages(ctx, km); err != nil {
		if errors.Is(err, io.ErrClosedPipe) {
			return PublishResult{}, ErrClosed
		}
		return PublishResult{}, fmt.Errorf("messaging: kafka publish: %w", err)
	}
	return PublishResult{Topic: destination, Timestamp: km.Time}, nil
}
