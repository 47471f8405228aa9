package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/harunrashid4419/doctors-portal-server/internal/availability"
	"github.com/harunrashid4419/doctors-portal-server/internal/events"
	"github.com/harunrashid4419/doctors-portal-server/internal/middleware"
	"github.com/harunrashid4419/doctors-portal-server/internal/models"
	"github.com/harunrashid4419/doctors-portal-server/internal/notifications"
	"github.com/harunrashid4419/doctors-portal-server/internal/transport"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type CreateBookingRequest struct {
	PatientName string `json:"patientName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"omitempty"`
	Treatment   string `json:"treatment" validate:"required"`
	AppointDate string `json:"appointDate" validate:"required,date"`
	Slot        string `json:"slot" validate:"required"`
}

type BookingResult struct {
	Acknowledged bool   `json:"acknowledged"`
	Message      string `json:"message,omitempty"`
	InsertedID   string `json:"insertedId,omitempty"`
}

// CreateBooking commits one reservation. A repeat request for the same
// (email, treatment, date) is a soft rejection, not an error; a concurrent
// writer losing the race on the slot's unique index gets a conflict.
func (s *Server) CreateBooking(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("bookings create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := s.Val.Struct(req); err != nil {
		log.Warn("bookings create: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	past, err := availability.IsDatePast(req.AppointDate, time.Now())
	if err != nil {
		log.Warn("bookings create: invalid date", slog.String("date", req.AppointDate))
		transport.WriteError(w, http.StatusBadRequest, "invalid date", nil)
		return
	}
	if past {
		log.Warn("bookings create: date in the past", slog.String("date", req.AppointDate))
		transport.WriteError(w, http.StatusBadRequest, "date in the past", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	treatment, err := s.findTreatment(ctx, req.Treatment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn("bookings create: treatment not found", slog.String("treatment", req.Treatment))
			transport.WriteError(w, http.StatusBadRequest, "treatment not found", nil)
			return
		}
		log.Error("bookings create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	if !availability.Contains(treatment.Slots, req.Slot) {
		log.Warn("bookings create: slot not in template",
			slog.String("treatment", req.Treatment),
			slog.String("slot", req.Slot),
		)
		transport.WriteError(w, http.StatusBadRequest, "slot not available", nil)
		return
	}

	// The duplicate key deliberately excludes the slot: one booking per
	// treatment per day per patient.
	duplicates, err := s.Cols.Bookings.CountDocuments(ctx, bson.M{
		"email":       req.Email,
		"treatment":   req.Treatment,
		"appointDate": req.AppointDate,
	})
	if err != nil {
		log.Error("bookings create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if duplicates > 0 {
		log.Info("bookings create: already booked",
			slog.String("email", req.Email),
			slog.String("treatment", req.Treatment),
			slog.String("date", req.AppointDate),
		)
		transport.WriteJSON(w, http.StatusOK, BookingResult{
			Acknowledged: false,
			Message:      fmt.Sprintf("You already have a booking on %s", req.AppointDate),
		})
		return
	}

	booking := models.Booking{
		ID:            primitive.NewObjectID().Hex(),
		PatientName:   req.PatientName,
		Email:         req.Email,
		Phone:         req.Phone,
		Treatment:     req.Treatment,
		AppointDate:   req.AppointDate,
		Slot:          req.Slot,
		Price:         treatment.Price,
		PaymentStatus: models.PaymentStatusUnpaid,
		CreatedAt:     time.Now(),
	}

	if _, err := s.Cols.Bookings.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Warn("bookings create: slot taken",
				slog.String("treatment", req.Treatment),
				slog.String("date", req.AppointDate),
				slog.String("slot", req.Slot),
			)
			transport.WriteError(w, http.StatusConflict, "slot already taken", nil)
			return
		}
		log.Error("bookings create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	go s.notifyBookingConfirmed(log, booking)

	log.Info("bookings create: booked",
		slog.String("booking_id", booking.ID),
		slog.String("treatment", booking.Treatment),
		slog.String("date", booking.AppointDate),
		slog.String("slot", booking.Slot),
	)
	transport.WriteJSON(w, http.StatusCreated, BookingResult{
		Acknowledged: true,
		InsertedID:   booking.ID,
	})
}

// notifyBookingConfirmed is fire-and-forget from the caller's point of
// view: a failed publish or send is logged and never affects the booking.
// With kafka configured the worker delivers the mail at least once;
// otherwise the mail goes out directly.
func (s *Server) notifyBookingConfirmed(log *slog.Logger, booking models.Booking) {
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	if s.Events != nil {
		event := events.BookingConfirmed{
			BookingID:   booking.ID,
			PatientName: booking.PatientName,
			Email:       booking.Email,
			Treatment:   booking.Treatment,
			AppointDate: booking.AppointDate,
			Slot:        booking.Slot,
		}
		if err := s.Events.PublishBookingConfirmed(ctx, event); err != nil {
			log.Warn("bookings notify: publish failed",
				slog.String("booking_id", booking.ID),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	if s.Mailer == nil {
		return
	}
	messageID, err := s.Mailer.SendBookingConfirmation(ctx, notifications.BookingConfirmation{
		PatientName: booking.PatientName,
		Email:       booking.Email,
		Treatment:   booking.Treatment,
		AppointDate: booking.AppointDate,
		Slot:        booking.Slot,
	})
	if err != nil {
		log.Warn("bookings email: send failed",
			slog.String("booking_id", booking.ID),
			slog.String("email", booking.Email),
			slog.String("error", err.Error()),
		)
		return
	}
	log.Info("bookings email: sent",
		slog.String("booking_id", booking.ID),
		slog.String("email", booking.Email),
		slog.String("message_id", messageID),
	)
}

// ListBookings answers GET /bookings?email= for the authenticated caller
// only; asking for someone else's bookings is forbidden.
func (s *Server) ListBookings(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	email := r.URL.Query().Get("email")
	if email == "" {
		log.Warn("bookings list: missing email")
		transport.WriteError(w, http.StatusBadRequest, "missing email", nil)
		return
	}

	if email != middleware.EmailFromContext(r.Context()) {
		log.Warn("bookings list: identity mismatch", slog.String("email", email))
		transport.WriteError(w, http.StatusForbidden, "forbidden access", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := s.Cols.Bookings.Find(ctx, bson.M{"email": email})
	if err != nil {
		log.Error("bookings list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	bookings := make([]models.Booking, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		log.Error("bookings list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("bookings list: ok", slog.String("email", email), slog.Int("count", len(bookings)))
	transport.WriteJSON(w, http.StatusOK, bookings)
}

// GetBooking is a public lookup by opaque id; the payment page uses it
// before the caller has a session.
func (s *Server) GetBooking(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := chi.URLParam(r, "id")
	if id == "" {
		log.Warn("bookings get: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := s.Cols.Bookings.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn("bookings get: not found", slog.String("booking_id", id))
			transport.WriteError(w, http.StatusNotFound, "booking not found", nil)
			return
		}
		log.Error("bookings get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("bookings get: ok", slog.String("booking_id", id))
	transport.WriteJSON(w, http.StatusOK, booking)
}
