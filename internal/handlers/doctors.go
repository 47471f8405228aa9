package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/harunrashid4419/doctors-portal-server/internal/models"
	"github.com/harunrashid4419/doctors-portal-server/internal/transport"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateDoctorRequest struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Specialty string `json:"specialty" validate:"required"`
	Image     string `json:"image" validate:"omitempty,url"`
}

func (s *Server) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req CreateDoctorRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("doctors create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := s.Val.Struct(req); err != nil {
		log.Warn("doctors create: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	doctor := models.Doctor{
		ID:        primitive.NewObjectID().Hex(),
		Name:      req.Name,
		Email:     req.Email,
		Specialty: req.Specialty,
		Image:     req.Image,
		CreatedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.Cols.Doctors.InsertOne(ctx, doctor); err != nil {
		log.Error("doctors create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("doctors create: ok", slog.String("doctor_id", doctor.ID), slog.String("specialty", doctor.Specialty))
	transport.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"acknowledged": true,
		"insertedId":   doctor.ID,
	})
}

func (s *Server) ListDoctors(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := s.Cols.Doctors.Find(ctx, bson.M{})
	if err != nil {
		log.Error("doctors list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	doctors := make([]models.Doctor, 0)
	if err := cursor.All(ctx, &doctors); err != nil {
		log.Error("doctors list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, doctors)
}

func (s *Server) DeleteDoctor(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := chi.URLParam(r, "id")
	if id == "" {
		log.Warn("doctors delete: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := s.Cols.Doctors.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		log.Error("doctors delete: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if res.DeletedCount == 0 {
		log.Warn("doctors delete: not found", slog.String("doctor_id", id))
		transport.WriteError(w, http.StatusNotFound, "doctor not found", nil)
		return
	}

	log.Info("doctors delete: ok", slog.String("doctor_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"acknowledged": true,
		"deletedCount": res.DeletedCount,
	})
}
