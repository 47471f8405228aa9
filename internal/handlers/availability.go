package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/harunrashid4419/doctors-portal-server/internal/availability"
	"github.com/harunrashid4419/doctors-portal-server/internal/models"
	"github.com/harunrashid4419/doctors-portal-server/internal/transport"
	"go.mongodb.org/mongo-driver/bson"
)

const treatmentsCacheKey = "treatments:all"

type availabilityQuery struct {
	Date string `validate:"required,date"`
}

// GetAvailability answers GET /appointment?date=. The catalog may come
// from the cache; the reservation set is always read live so availability
// reflects every committed booking.
func (s *Server) GetAvailability(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	q := availabilityQuery{Date: r.URL.Query().Get("date")}
	if err := s.Val.Struct(q); err != nil {
		log.Warn("availability: invalid query")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "invalid query", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	treatments, err := s.loadTreatments(ctx)
	if err != nil {
		log.Error("availability: catalog error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	reserved, err := s.reservedSlots(ctx, q.Date)
	if err != nil {
		log.Error("availability: bookings error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	options := make([]models.Treatment, 0, len(treatments))
	for _, treatment := range treatments {
		treatment.Slots = availability.Subtract(treatment.Slots, reserved[treatment.Name])
		options = append(options, treatment)
	}

	log.Info("availability: ok", slog.String("date", q.Date), slog.Int("treatments", len(options)))
	transport.WriteJSON(w, http.StatusOK, options)
}

// GetSpecialties answers GET /bookingSpecialty with treatment names only.
func (s *Server) GetSpecialties(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	treatments, err := s.loadTreatments(ctx)
	if err != nil {
		log.Error("specialties: catalog error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	type specialty struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	names := make([]specialty, 0, len(treatments))
	for _, t := range treatments {
		names = append(names, specialty{ID: t.ID, Name: t.Name})
	}

	transport.WriteJSON(w, http.StatusOK, names)
}

// loadTreatments reads the full catalog, through the cache when one is
// configured. Bookings are never cached.
func (s *Server) loadTreatments(ctx context.Context) ([]models.Treatment, error) {
	if s.Cache != nil {
		if cached, ok, err := s.Cache.Get(ctx, treatmentsCacheKey); err == nil && ok {
			var treatments []models.Treatment
			if err := json.Unmarshal(cached, &treatments); err == nil {
				return treatments, nil
			}
		}
	}

	cursor, err := s.Cols.Treatments.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var treatments []models.Treatment
	if err := cursor.All(ctx, &treatments); err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if payload, err := encodeJSON(treatments); err == nil {
			_ = s.Cache.Set(ctx, treatmentsCacheKey, payload, time.Duration(s.Cfg.CacheTTLSeconds)*time.Second)
		}
	}

	return treatments, nil
}

// reservedSlots maps treatment name to the slot labels already booked on
// the given date.
func (s *Server) reservedSlots(ctx context.Context, date string) (map[string][]string, error) {
	cursor, err := s.Cols.Bookings.Find(ctx, bson.M{"appointDate": date})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reserved := make(map[string][]string)
	for cursor.Next(ctx) {
		var booking models.Booking
		if err := cursor.Decode(&booking); err != nil {
			continue
		}
		reserved[booking.Treatment] = append(reserved[booking.Treatment], booking.Slot)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return reserved, nil
}

func (s *Server) findTreatment(ctx context.Context, name string) (*models.Treatment, error) {
	var treatment models.Treatment
	if err := s.Cols.Treatments.FindOne(ctx, bson.M{"name": name}).Decode(&treatment); err != nil {
		return nil, err
	}
	return &treatment, nil
}
