package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/harunrashid4419/doctors-portal-server/internal/config"
	"github.com/harunrashid4419/doctors-portal-server/internal/events"
	"github.com/harunrashid4419/doctors-portal-server/internal/notifications"
)

// The notify worker drains the booking-confirmations topic and sends the
// confirmation mail. Offsets commit only after a successful send, so a
// failed delivery is retried in place; a message that keeps failing is
// parked on the dead-letter topic rather than lost.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if len(cfg.KafkaBrokers) == 0 {
		logger.Error("notify worker requires KAFKA_BROKERS")
		os.Exit(1)
	}

	mailer := notifications.NewMailgunClient(cfg.MailgunAPIKey, cfg.MailgunDomain, cfg.MailgunSender)
	if mailer == nil {
		logger.Error("notify worker requires mailgun credentials")
		os.Exit(1)
	}

	consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, cfg.KafkaDLQTopic, logger)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		cancel()
	}()

	logger.Info("notify worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaGroupID),
		slog.String("dlq", cfg.KafkaDLQTopic),
	)

	err = consumer.Run(ctx, func(ctx context.Context, event events.BookingConfirmed) error {
		messageID, err := mailer.SendBookingConfirmation(ctx, notifications.BookingConfirmation{
			PatientName: event.PatientName,
			Email:       event.Email,
			Treatment:   event.Treatment,
			AppointDate: event.AppointDate,
			Slot:        event.Slot,
		})
		if err != nil {
			return err
		}
		logger.Info("confirmation sent",
			slog.String("booking_id", event.BookingID),
			slog.String("email", event.Email),
			slog.String("message_id", messageID),
		)
		return nil
	})
	if err != nil {
		logger.Error("notify worker stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
