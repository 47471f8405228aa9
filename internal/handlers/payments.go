package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/harunrashid4419/doctors-portal-server/internal/models"
	"github.com/harunrashid4419/doctors-portal-server/internal/transport"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	errBookingNotFound   = errors.New("booking not found")
	errAlreadyReconciled = errors.New("booking already reconciled")
)

type PaymentIntentRequest struct {
	Price int `json:"price" validate:"required,gt=0"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

func (s *Server) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req PaymentIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("payment intent: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := s.Val.Struct(req); err != nil {
		log.Warn("payment intent: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	if s.Intents == nil {
		log.Warn("payment intent: not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "payments not configured", nil)
		return
	}

	amount := int64(req.Price) * 100
	clientSecret, err := s.Intents.CreateIntent(r.Context(), amount, "usd")
	if err != nil {
		log.Error("payment intent: provider error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadGateway, "payment provider error", nil)
		return
	}

	log.Info("payment intent: ok", slog.Int("price", req.Price))
	transport.WriteJSON(w, http.StatusOK, PaymentIntentResponse{ClientSecret: clientSecret})
}

type RecordPaymentRequest struct {
	BookingID     string `json:"bookingId" validate:"required,objectid"`
	Email         string `json:"email" validate:"omitempty,email"`
	Price         int    `json:"price" validate:"gte=0"`
	Currency      string `json:"currency" validate:"omitempty,len=3"`
	TransactionID string `json:"transactionId" validate:"required"`
}

type RecordPaymentResponse struct {
	Acknowledged bool   `json:"acknowledged"`
	PaymentID    string `json:"paymentId"`
}

// RecordPayment reconciles an external payment confirmation with booking
// state in one transaction: the booking flips unpaid -> paid and the
// payment record is inserted, or neither happens. A replayed transaction
// reference surfaces as a conflict, never as silent success.
func (s *Server) RecordPayment(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req RecordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("payments record: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := s.Val.Struct(req); err != nil {
		log.Warn("payments record: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	payment := models.Payment{
		ID:            primitive.NewObjectID().Hex(),
		BookingID:     req.BookingID,
		Email:         req.Email,
		Price:         req.Price,
		Currency:      currency,
		TransactionID: req.TransactionID,
		CreatedAt:     time.Now(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	session, err := s.Cols.Client.StartSession()
	if err != nil {
		log.Error("payments record: session error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := s.Cols.Bookings.UpdateOne(sc,
			bson.M{"_id": req.BookingID, "paymentStatus": models.PaymentStatusUnpaid},
			bson.M{"$set": bson.M{
				"paymentStatus": models.PaymentStatusPaid,
				"transactionId": req.TransactionID,
			}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			count, err := s.Cols.Bookings.CountDocuments(sc, bson.M{"_id": req.BookingID})
			if err != nil {
				return nil, err
			}
			if count == 0 {
				return nil, errBookingNotFound
			}
			return nil, errAlreadyReconciled
		}

		if _, err := s.Cols.Payments.InsertOne(sc, payment); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, errAlreadyReconciled
			}
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errBookingNotFound):
			log.Warn("payments record: booking not found", slog.String("booking_id", req.BookingID))
			transport.WriteError(w, http.StatusNotFound, "booking not found", nil)
		case errors.Is(err, errAlreadyReconciled):
			log.Warn("payments record: already reconciled",
				slog.String("booking_id", req.BookingID),
				slog.String("transaction_id", req.TransactionID),
			)
			transport.WriteError(w, http.StatusConflict, "booking already reconciled", nil)
		default:
			log.Error("payments record: transaction error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	log.Info("payments record: ok",
		slog.String("payment_id", payment.ID),
		slog.String("booking_id", req.BookingID),
		slog.String("transaction_id", req.TransactionID),
	)
	transport.WriteJSON(w, http.StatusCreated, RecordPaymentResponse{
		Acknowledged: true,
		PaymentID:    payment.ID,
	})
}
