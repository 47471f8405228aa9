package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type Handler func(ctx context.Context, event BookingConfirmed) error

// messageSource is the fetch/commit surface of kafka.Reader.
type messageSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type deadLetterWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Consumer struct {
	source messageSource
	dlq    deadLetterWriter
	log    *slog.Logger

	maxRetries int
	backoff    time.Duration

	reader *kafka.Reader
	writer *kafka.Writer
}

// NewConsumer reads the topic within groupID. When dlqTopic is non-empty,
// messages that keep failing (or never decode) are parked there instead of
// blocking the partition.
func NewConsumer(brokers []string, topic, groupID, dlqTopic string, log *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
		MaxWait:  time.Second,
	})
	c := &Consumer{
		source:     reader,
		log:        log,
		maxRetries: 5,
		backoff:    5 * time.Second,
		reader:     reader,
	}
	if dlqTopic != "" {
		writer := &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        dlqTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		}
		c.dlq = writer
		c.writer = writer
	}
	return c
}

// Run fetches messages and commits only after the handler succeeds, so a
// crashed or failed send is redelivered. A failing message is retried in
// place: the next message is never fetched (and can never be committed
// over it) until this one is delivered or dead-lettered.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.source.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		event, err := UnmarshalBookingConfirmed(msg.Value)
		if err != nil {
			c.log.Warn("events: undecodable message",
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
			if c.dlq != nil {
				if err := c.deadLetter(ctx, msg, err); err != nil {
					return err
				}
			}
			if err := c.source.CommitMessages(ctx, msg); err != nil {
				return err
			}
			continue
		}

		if err := c.deliver(ctx, msg, event, handle); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := c.source.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

// deliver retries the same message until the handler succeeds. With a
// dead-letter topic the message is parked there after maxRetries attempts;
// without one the retries never stop, since committing past an undelivered
// message would discard it.
func (c *Consumer) deliver(ctx context.Context, msg kafka.Message, event BookingConfirmed, handle Handler) error {
	for attempt := 1; ; attempt++ {
		err := handle(ctx, event)
		if err == nil {
			return nil
		}
		c.log.Warn("events: handler failed",
			slog.String("booking_id", event.BookingID),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		if c.dlq != nil && attempt >= c.maxRetries {
			return c.deadLetter(ctx, msg, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff):
		}
	}
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) error {
	dead := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers, kafka.Header{
			Key:   "dead-letter-error",
			Value: []byte(cause.Error()),
		}),
	}
	if err := c.dlq.WriteMessages(ctx, dead); err != nil {
		return err
	}
	c.log.Warn("events: message dead-lettered",
		slog.Int64("offset", msg.Offset),
		slog.String("error", cause.Error()),
	)
	return nil
}

func (c *Consumer) Close() error {
	var firstErr error
	if c.reader != nil {
		firstErr = c.reader.Close()
	}
	if c.writer != nil {
		if err := c.writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
