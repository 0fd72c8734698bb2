package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

const (
	StreamName     = "SOCIAL"
	SubjectPattern = "social.>"
)

// streamPublisher is the part of jetstream.JetStream used here.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// JetStreamPublisher persists events on the SOCIAL stream.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     streamPublisher
	logger *zap.Logger
}

// ConnectJetStream dials url and makes sure the stream exists.
func ConnectJetStream(ctx context.Context, url string, logger *zap.Logger) (*JetStreamPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("tomotachi-backend"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectPattern},
		Storage:  jetstream.FileStorage,
		Replicas: 1,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create stream: %w", err)
	}

	logger.Info("NATS JetStream ready", zap.String("url", url), zap.String("stream", StreamName))
	return &JetStreamPublisher{nc: nc, js: js, logger: logger}, nil
}

func (p *JetStreamPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ack, err := p.js.Publish(ctx, ev.Subject(), data)
	if err != nil {
		return fmt.Errorf("nats publish %s: %w", ev.Subject(), err)
	}
	p.logger.Debug("event published",
		zap.String("subject", ev.Subject()),
		zap.Uint64("seq", ack.Sequence),
	)
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *JetStreamPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
