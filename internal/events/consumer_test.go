package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type fakeSource struct {
	msgs    []kafka.Message
	next    int
	commits []int64
}

func (f *fakeSource) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if f.next >= len(f.msgs) {
		return kafka.Message{}, context.Canceled
	}
	msg := f.msgs[f.next]
	f.next++
	return msg, nil
}

func (f *fakeSource) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, msg := range msgs {
		f.commits = append(f.commits, msg.Offset)
	}
	return nil
}

type fakeDLQ struct {
	msgs []kafka.Message
}

func (f *fakeDLQ) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func confirmedMessage(t *testing.T, bookingID string, offset int64) kafka.Message {
	t.Helper()
	raw, err := BookingConfirmed{
		BookingID:   bookingID,
		PatientName: "Jane Doe",
		Email:       "jane@x.com",
		Treatment:   "Teeth Cleaning",
		AppointDate: "2026-05-01",
		Slot:        "10:00 AM - 10:30 AM",
	}.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return kafka.Message{Key: []byte(bookingID), Value: raw, Offset: offset}
}

func testConsumer(source *fakeSource, dlq *fakeDLQ) *Consumer {
	c := &Consumer{
		source:     source,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxRetries: 3,
		backoff:    time.Millisecond,
	}
	if dlq != nil {
		c.dlq = dlq
	}
	return c
}

// A failing message must be retried in place. Fetching the next message
// and committing it would silently commit past the failed one, losing it
// for good.
func TestRunRetriesFailedMessageBeforeAdvancing(t *testing.T) {
	source := &fakeSource{msgs: []kafka.Message{
		confirmedMessage(t, "booking-a", 0),
		confirmedMessage(t, "booking-b", 1),
	}}
	c := testConsumer(source, nil)

	var handled []string
	failures := 2
	err := c.Run(context.Background(), func(ctx context.Context, event BookingConfirmed) error {
		handled = append(handled, event.BookingID)
		if event.BookingID == "booking-a" && failures > 0 {
			failures--
			return errors.New("smtp unavailable")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	want := []string{"booking-a", "booking-a", "booking-a", "booking-b"}
	if len(handled) != len(want) {
		t.Fatalf("handler calls: got %v, want %v", handled, want)
	}
	for i, id := range want {
		if handled[i] != id {
			t.Fatalf("handler call %d: got %s, want %s", i, handled[i], id)
		}
	}
	if len(source.commits) != 2 || source.commits[0] != 0 || source.commits[1] != 1 {
		t.Fatalf("commits: got %v, want [0 1]", source.commits)
	}
}

func TestRunDeadLettersAfterMaxRetries(t *testing.T) {
	source := &fakeSource{msgs: []kafka.Message{
		confirmedMessage(t, "booking-bad", 0),
		confirmedMessage(t, "booking-ok", 1),
	}}
	dlq := &fakeDLQ{}
	c := testConsumer(source, dlq)

	attempts := 0
	err := c.Run(context.Background(), func(ctx context.Context, event BookingConfirmed) error {
		if event.BookingID == "booking-bad" {
			attempts++
			return errors.New("mailbox rejected")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if attempts != 3 {
		t.Fatalf("expected 3 attempts before dead-letter, got %d", attempts)
	}
	if len(dlq.msgs) != 1 {
		t.Fatalf("expected 1 dead-lettered message, got %d", len(dlq.msgs))
	}
	if string(dlq.msgs[0].Key) != "booking-bad" {
		t.Fatalf("dead-lettered key: %s", dlq.msgs[0].Key)
	}
	found := false
	for _, h := range dlq.msgs[0].Headers {
		if h.Key == "dead-letter-error" && string(h.Value) == "mailbox rejected" {
			found = true
		}
	}
	if !found {
		t.Fatalf("dead-letter-error header missing: %+v", dlq.msgs[0].Headers)
	}
	if len(source.commits) != 2 {
		t.Fatalf("both offsets should commit, got %v", source.commits)
	}
}

func TestRunDeadLettersUndecodableMessage(t *testing.T) {
	source := &fakeSource{msgs: []kafka.Message{
		{Key: []byte("junk"), Value: []byte("{not json"), Offset: 0},
		confirmedMessage(t, "booking-ok", 1),
	}}
	dlq := &fakeDLQ{}
	c := testConsumer(source, dlq)

	var handled []string
	err := c.Run(context.Background(), func(ctx context.Context, event BookingConfirmed) error {
		handled = append(handled, event.BookingID)
		return nil
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(handled) != 1 || handled[0] != "booking-ok" {
		t.Fatalf("handler should only see decodable messages, got %v", handled)
	}
	if len(dlq.msgs) != 1 || string(dlq.msgs[0].Value) != "{not json" {
		t.Fatalf("undecodable payload should move to the dead-letter topic, got %+v", dlq.msgs)
	}
	if len(source.commits) != 2 {
		t.Fatalf("commits: got %v, want both offsets", source.commits)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	source := &fakeSource{msgs: []kafka.Message{
		confirmedMessage(t, "booking-a", 0),
	}}
	c := testConsumer(source, nil)

	ctx, cancel := context.WithCancel(context.Background())
	err := c.Run(ctx, func(ctx context.Context, event BookingConfirmed) error {
		cancel()
		return errors.New("still failing")
	})
	if err != nil {
		t.Fatalf("Run should return nil on cancel, got %v", err)
	}
	if len(source.commits) != 0 {
		t.Fatalf("cancelled message must stay uncommitted, got %v", source.commits)
	}
}
