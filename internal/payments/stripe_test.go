package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateIntent(t *testing.T) {
	var gotAmount, gotCurrency, gotIdemKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if user, _, ok := r.BasicAuth(); !ok || user != "sk_test_123" {
			t.Fatalf("expected secret key as basic auth user")
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotAmount = r.PostFormValue("amount")
		gotCurrency = r.PostFormValue("currency")
		gotIdemKey = r.Header.Get("Idempotency-Key")
		w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret_abc"}`))
	}))
	defer srv.Close()

	client := NewStripeClient("sk_test_123")
	client.baseURL = srv.URL

	secret, err := client.CreateIntent(context.Background(), 9900, "usd")
	if err != nil {
		t.Fatalf("CreateIntent error: %v", err)
	}
	if secret != "pi_1_secret_abc" {
		t.Fatalf("unexpected client secret: %s", secret)
	}
	if gotAmount != "9900" || gotCurrency != "usd" {
		t.Fatalf("unexpected form values: amount=%s currency=%s", gotAmount, gotCurrency)
	}
	if gotIdemKey == "" {
		t.Fatalf("expected an idempotency key header")
	}
}

func TestCreateIntentUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewStripeClient("sk_test_bad")
	client.baseURL = srv.URL

	if _, err := client.CreateIntent(context.Background(), 100, "usd"); err == nil {
		t.Fatalf("expected error on 401")
	}
}

func TestCreateIntentMissingSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"pi_1"}`))
	}))
	defer srv.Close()

	client := NewStripeClient("sk_test_123")
	client.baseURL = srv.URL

	if _, err := client.CreateIntent(context.Background(), 100, "usd"); err == nil {
		t.Fatalf("expected error for missing client_secret")
	}
}

func TestNewStripeClientUnconfigured(t *testing.T) {
	if NewStripeClient("") != nil {
		t.Fatalf("expected nil client without secret key")
	}
}
