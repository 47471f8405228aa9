package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/harunrashid4419/doctors-portal-server/internal/auth"
	"github.com/harunrashid4419/doctors-portal-server/internal/cache"
	"github.com/harunrashid4419/doctors-portal-server/internal/config"
	"github.com/harunrashid4419/doctors-portal-server/internal/db"
	"github.com/harunrashid4419/doctors-portal-server/internal/events"
	"github.com/harunrashid4419/doctors-portal-server/internal/middleware"
	"github.com/harunrashid4419/doctors-portal-server/internal/notifications"
	"github.com/harunrashid4419/doctors-portal-server/internal/validation"
)

// BookingMailer sends the confirmation message for a committed booking.
// Used directly only when no event queue is configured.
type BookingMailer interface {
	SendBookingConfirmation(ctx context.Context, booking notifications.BookingConfirmation) (string, error)
}

// IntentCreator is the external payment collaborator; it hands back an
// opaque client secret.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string) (string, error)
}

type Server struct {
	Cfg     *config.Config
	Cols    *db.Collections
	Val     *validation.Validator
	Log     *slog.Logger
	Cache   cache.Cache
	JWT     *auth.Manager
	Mailer  BookingMailer
	Intents IntentCreator
	Events  *events.Publisher
}

func (s *Server) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return s.Log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return s.Log.With(slog.String("request_id", id))
	}
	return s.Log
}
