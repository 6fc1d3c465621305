package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

var ErrNATSURLRequired = errors.New("messaging: nats url is required")

type NATSConfig struct {
	// URLs seed the cluster; the client discovers the remaining servers.
	URLs    []string
	Name    string
	Options []nats.Option
}

type NATS struct {
	conn *nats.Conn
}

// NewNATS reconnects forever unless cfg.Options override MaxReconnects.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if len(cfg.URLs) == 0 {
		return nil, ErrNATSURLRequired
	}

	opts := append([]nats.Option{nats.Name(cfg.Name), nats.MaxReconnects(-1)}, cfg.Options...)
	conn, err := nats.Connect(strings.Join(cfg.URLs, ","), opts...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}
	return &NATS{conn: conn}, nil
}

// Close drains pending publishes before closing.
func (n *NATS) Close() error {
	err := n.conn.Drain()
	n.conn.Close()
	return err
}

// Publish returns once the server has received the message, not when a
// subscriber has processed it.
func (n *NATS) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	msg, err := prepare(ctx, destination, msg)
	if err != nil {
		return PublishResult{}, err
	}

	nm := &nats.Msg{Subject: destination, Data: msg.Body, Header: nats.Header{}}
	for _, h := range msg.Headers {
		nm.Header.Add(h.Key, string(h.Value))
	}

	if err := n.conn.PublishMsg(nm); err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) {
			return PublishResult{}, ErrClosed
		}
		return PublishResult{}, fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats flush: %w", err)
	}
	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}
