package kafka

import (
	"context"
	"errors"
	"time"

	"loanapp-backend/internal/adapter/outbox"
	"loanapp-backend/internal/infrastructure/metrics"

	"github.com/cenkalti/backoff/v5"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

func NewReader(brokers []string, topic, groupID string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		StartOffset:    kafkago.FirstOffset,
		SessionTimeout: 10 * time.Second,
		MaxBytes:       10e6,
	})
}

// Consumer feeds topic messages to the approve-loan listener. Offsets are
// committed only after a message was handled or given up on.
type Consumer struct {
	r        MessageReader
	listener outbox.ApproveLoanListener
	maxTries uint
	pause    time.Duration
	metrics  *metrics.Metrics
	log      *zap.Logger

	newBackOff func() backoff.BackOff
}

func NewConsumer(r MessageReader, l outbox.ApproveLoanListener, maxTries uint, m *metrics.Metrics, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	if maxTries == 0 {
		maxTries = 1
	}
	return &Consumer{
		r:        r,
		listener: l,
		maxTries: maxTries,
		pause:    5 * time.Second,
		metrics:  m,
		log:      log,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
}

// Handle runs the listener for one message with retry. A nil return means the
// offset may be committed, including for messages that can never succeed.
func (c *Consumer) Handle(ctx context.Context, msg kafkago.Message) error {
	eventType := header(msg, HeaderEventType)
	log := c.log.With(
		zap.String("message_id", header(msg, HeaderMessageID)),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)

	var last error
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		last = outbox.Dispatch(ctx, c.listener, eventType, msg.Value)
		return struct{}{}, last
	},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.maxTries),
	)
	if err == nil {
		c.metrics.ObserveDelivery("delivered")
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var perm *backoff.PermanentError
	if errors.As(last, &perm) {
		c.metrics.ObserveDelivery("failed")
		log.Error("dropping undeliverable message", zap.Error(err))
		return nil
	}
	c.metrics.ObserveDelivery("retry")
	return err
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("kafka consumer started")
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		// Offsets commit in order, so a failing message blocks its partition until it succeeds.
		for {
			err := c.Handle(ctx, msg)
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error("message handling failed", zap.Int64("offset", msg.Offset), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.pause):
			}
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *Consumer) Close() error { return c.r.Close() }

func header(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
