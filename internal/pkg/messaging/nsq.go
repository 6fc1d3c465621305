package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

var ErrNSQProducerAddrRequired = errors.New("messaging: nsq producer address is required")

type NSQConfig struct {
	ProducerAddr   string
	ProducerConfig *nsq.Config
}

type NSQ struct {
	producer *nsq.Producer
}

// nsqEnvelope carries headers, which NSQ does not model natively. Body must
// therefore be JSON.
type nsqEnvelope struct {
	Headers map[string]string `json:"headers,omitempty"`
	Body    json.RawMessage   `json:"body"`
}

func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.ProducerAddr == "" {
		return nil, ErrNSQProducerAddrRequired
	}

	pcfg := cfg.ProducerConfig
	if pcfg == nil {
		pcfg = nsq.NewConfig()
	}
	p, err := nsq.NewProducer(cfg.ProducerAddr, pcfg)
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq new producer: %w", err)
	}
	p.SetLoggerLevel(nsq.LogLevelError)

	return &NSQ{producer: p}, nil
}

func (n *NSQ) Close() error {
	n.producer.Stop()
	return nil
}

func (n *NSQ) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	msg, err := prepare(ctx, destination, msg)
	if err != nil {
		return PublishResult{}, err
	}

	payload, err := json.Marshal(nsqEnvelope{Headers: headerMap(msg.Headers), Body: msg.Body})
	if err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nsq envelope: %w", err)
	}

	if err := n.producer.Publish(destination, payload); err != nil {
		if errors.Is(err, nsq.ErrStopped) {
			return PublishResult{}, ErrClosed
		}
		return PublishResult{}, fmt.Errorf("messaging: nsq publish: %w", err)
	}
	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}
