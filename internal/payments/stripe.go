package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultStripeBase = "https://api.stripe.com"

// StripeClient creates payment intents against the Stripe REST API.
// The portal only needs the client secret back; everything else about
// the payment lifecycle happens on the frontend.
type StripeClient struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

func NewStripeClient(secretKey string) *StripeClient {
	if strings.TrimSpace(secretKey) == "" {
		return nil
	}
	return &StripeClient{
		secretKey:  secretKey,
		baseURL:    defaultStripeBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateIntent creates a card payment intent for the amount in cents and
// returns its client secret. A fresh idempotency key guards against
// double charges on transport-level retries.
func (c *StripeClient) CreateIntent(ctx context.Context, amountCents int64, currency string) (string, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", currency)
	form.Set("payment_method_types[]", "card")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/payment_intents",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("stripe create request: %w", err)
	}
	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("stripe returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		ClientSecret string `json:"client_secret"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("stripe parse response: %w", err)
	}
	if result.ClientSecret == "" {
		return "", fmt.Errorf("stripe response missing client_secret")
	}
	return result.ClientSecret, nil
}
