package events

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Publisher{writer: writer}
}

// PublishBookingConfirmed keys the message by booking id so replays of
// the same booking land on the same partition.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, event BookingConfirmed) error {
	raw, err := event.Marshal()
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.BookingID),
		Value: raw,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
