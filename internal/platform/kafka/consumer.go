package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler processes one message. A returned error is retried; once retries are
// exhausted Consume stops without committing the message.
type Handler func(ctx context.Context, msg kafkago.Message) error

// messageReader is the subset of *kafkago.Reader the consumer drives.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// RetryPolicy bounds how long a failing message is retried before Consume gives up.
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries a message five times over roughly ten seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxTries:        5,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

func (p RetryPolicy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	return b
}

// Consumer reads a single topic as part of a consumer group.
type Consumer struct {
	reader messageReader
	retry  RetryPolicy
	logger *zap.Logger
}

// NewConsumer creates a group consumer for topic.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	return newConsumer(reader, DefaultRetryPolicy(), logger)
}

func newConsumer(reader messageReader, retry RetryPolicy, logger *zap.Logger) *Consumer {
	return &Consumer{reader: reader, retry: retry, logger: logger}
}

// Consume fetches messages until ctx is cancelled. Offsets are committed only
// after handler succeeds. A message that still fails after the retry policy is
// left uncommitted and Consume returns, so the group resumes from it on restart.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		if err := c.handle(ctx, handler, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("giving up on %s[%d]@%d: %w", msg.Topic, msg.Partition, msg.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit offset: %w", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, handler Handler, msg kafkago.Message) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, handler(ctx, msg)
	},
		backoff.WithBackOff(c.retry.backOff()),
		backoff.WithMaxTries(c.retry.MaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("message handler failed, retrying",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Duration("backoff", next),
				zap.Error(err),
			)
		}),
	)
	return err
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
