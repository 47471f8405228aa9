package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harunrashid4419/doctors-portal-server/internal/validation"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

type stubIntents struct {
	secret string
	err    error
	amount int64
}

func (s *stubIntents) CreateIntent(ctx context.Context, amountCents int64, currency string) (string, error) {
	s.amount = amountCents
	return s.secret, s.err
}

func testServer() *Server {
	return &Server{
		Val: validation.New(),
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	s := testServer()
	stub := &stubIntents{secret: "pi_1_secret_abc"}
	s.Intents = stub

	req := httptest.NewRequest(http.MethodPost, "/create-payment-intent", strings.NewReader(`{"price":99}`))
	rec := httptest.NewRecorder()
	s.CreatePaymentIntent(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.amount != 9900 {
		t.Fatalf("expected amount in cents, got %d", stub.amount)
	}

	var resp PaymentIntentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ClientSecret != "pi_1_secret_abc" {
		t.Fatalf("unexpected client secret: %s", resp.ClientSecret)
	}
}

func TestCreatePaymentIntentNotConfigured(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodPost, "/create-payment-intent", strings.NewReader(`{"price":99}`))
	rec := httptest.NewRecorder()
	s.CreatePaymentIntent(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestCreatePaymentIntentProviderError(t *testing.T) {
	s := testServer()
	s.Intents = &stubIntents{err: errors.New("stripe down")}

	req := httptest.NewRequest(http.MethodPost, "/create-payment-intent", strings.NewReader(`{"price":99}`))
	rec := httptest.NewRecorder()
	s.CreatePaymentIntent(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestCreatePaymentIntentRejectsZeroPrice(t *testing.T) {
	s := testServer()
	s.Intents = &stubIntents{secret: "pi_1_secret_abc"}

	req := httptest.NewRequest(http.MethodPost, "/create-payment-intent", strings.NewReader(`{"price":0}`))
	rec := httptest.NewRecorder()
	s.CreatePaymentIntent(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{"bookingId":"short","transactionId":"txn_1"}`))
	rec := httptest.NewRecorder()
	s.RecordPayment(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed booking id, got %d", rec.Code)
	}
}

func postPayment(s *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.RecordPayment(rec, req)
	return rec
}

func TestRecordPayment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	const body = `{"bookingId":"64d2f0c2a1b2c3d4e5f60718","email":"jane@x.com","price":80,"transactionId":"txn_1"}`

	mt.Run("flips unpaid to paid and records the payment", func(mt *mtest.T) {
		s := mockServer(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)

		rec := postPayment(s, body)
		if rec.Code != http.StatusCreated {
			mt.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp RecordPaymentResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			mt.Fatalf("decode response: %v", err)
		}
		if !resp.Acknowledged || resp.PaymentID == "" {
			mt.Fatalf("unexpected response: %+v", resp)
		}
	})

	mt.Run("unknown booking is not found", func(mt *mtest.T) {
		s := mockServer(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			countResponse("doctorsPortal.bookings", 0),
			mtest.CreateSuccessResponse(),
		)

		rec := postPayment(s, body)
		if rec.Code != http.StatusNotFound {
			mt.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	mt.Run("paid booking conflicts instead of silently succeeding", func(mt *mtest.T) {
		s := mockServer(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			countResponse("doctorsPortal.bookings", 1),
			mtest.CreateSuccessResponse(),
		)

		rec := postPayment(s, body)
		if rec.Code != http.StatusConflict {
			mt.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	mt.Run("replayed transaction reference conflicts", func(mt *mtest.T) {
		s := mockServer(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: "E11000 duplicate key error on transactionId",
			}),
			mtest.CreateSuccessResponse(),
		)

		rec := postPayment(s, body)
		if rec.Code != http.StatusConflict {
			mt.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
