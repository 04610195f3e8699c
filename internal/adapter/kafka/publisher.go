package kafka

import (
	"context"
	"fmt"
	"time"

	domain "loanapp-backend/internal/domain/outbox"

	kafkago "github.com/segmentio/kafka-go"
)

const (
	HeaderEventType = "event-type"
	HeaderMessageID = "message-id"
)

// MessageWriter is the part of *kafkago.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher forwards outbox messages to a topic, keyed by aggregate id.
type Publisher struct {
	w MessageWriter
}

func NewWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		MaxAttempts:            3,
		WriteBackoffMin:        100 * time.Millisecond,
		WriteBackoffMax:        time.Second,
	}
}

func NewPublisher(w MessageWriter) *Publisher { return &Publisher{w: w} }

func (p *Publisher) Deliver(ctx context.Context, m domain.Message) error {
	msg := kafkago.Message{
		Key:   []byte(m.AggregateID),
		Value: []byte(m.Payload),
		Headers: []kafkago.Header{
			{Key: HeaderEventType, Value: []byte(m.EventType)},
			{Key: HeaderMessageID, Value: []byte(m.MessageID)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", m.MessageID, err)
	}
	return nil
}

func (p *Publisher) Close() error { return p.w.Close() }
