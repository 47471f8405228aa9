package notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testBooking() BookingConfirmation {
	return BookingConfirmation{
		PatientName: "Jane Doe",
		Email:       "jane@x.com",
		Treatment:   "Teeth Cleaning",
		AppointDate: "2026-05-01",
		Slot:        "10:00 AM - 10:30 AM",
	}
}

func TestSendBookingConfirmation(t *testing.T) {
	var gotPath string
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = map[string]string{
			"from":    r.PostFormValue("from"),
			"to":      r.PostFormValue("to"),
			"subject": r.PostFormValue("subject"),
			"html":    r.PostFormValue("html"),
		}
		if user, _, ok := r.BasicAuth(); !ok || user != "api" {
			t.Fatalf("expected basic auth user api")
		}
		w.Write([]byte(`{"id":"<msg-1@mg>","message":"Queued. Thank you."}`))
	}))
	defer srv.Close()

	client := NewMailgunClient("key-test", "mg.example.com", "clinic@mg.example.com")
	client.baseURL = srv.URL

	resp, err := client.SendBookingConfirmation(context.Background(), testBooking())
	if err != nil {
		t.Fatalf("SendBookingConfirmation error: %v", err)
	}
	if resp == "" {
		t.Fatalf("expected non-empty response body")
	}

	if gotPath != "/mg.example.com/messages" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotForm["to"] != "jane@x.com" {
		t.Fatalf("unexpected recipient: %s", gotForm["to"])
	}
	if !strings.Contains(gotForm["subject"], "Teeth Cleaning") {
		t.Fatalf("unexpected subject: %s", gotForm["subject"])
	}
	for _, want := range []string{"Jane Doe", "2026-05-01", "10:00 AM - 10:30 AM"} {
		if !strings.Contains(gotForm["html"], want) {
			t.Fatalf("html body missing %q", want)
		}
	}
}

func TestSendBookingConfirmationServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewMailgunClient("key-test", "mg.example.com", "clinic@mg.example.com")
	client.baseURL = srv.URL

	if _, err := client.SendBookingConfirmation(context.Background(), testBooking()); err == nil {
		t.Fatalf("expected error on 401")
	}
}

func TestNewMailgunClientUnconfigured(t *testing.T) {
	if NewMailgunClient("", "mg.example.com", "") != nil {
		t.Fatalf("expected nil client without api key")
	}
	if NewMailgunClient("key", "", "") != nil {
		t.Fatalf("expected nil client without domain")
	}
}

func TestSendBookingConfirmationMissingRecipient(t *testing.T) {
	client := NewMailgunClient("key-test", "mg.example.com", "")
	booking := testBooking()
	booking.Email = ""
	if _, err := client.SendBookingConfirmation(context.Background(), booking); err == nil {
		t.Fatalf("expected error for missing recipient")
	}
}
