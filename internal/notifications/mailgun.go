package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultMailgunBase = "https://api.mailgun.net/v3"

type MailgunClient struct {
	apiKey     string
	domain     string
	sender     string
	baseURL    string
	httpClient *http.Client
}

func NewMailgunClient(apiKey, domain, sender string) *MailgunClient {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(domain) == "" {
		return nil
	}
	if strings.TrimSpace(sender) == "" {
		sender = "no-reply@" + domain
	}
	return &MailgunClient{
		apiKey:     apiKey,
		domain:     domain,
		sender:     sender,
		baseURL:    defaultMailgunBase,
		httpClient: &http.Client{Timeout: 8 * time.Second},
	}
}

func (c *MailgunClient) sendHTML(ctx context.Context, toEmail, subject, htmlBody string) (string, error) {
	if c == nil {
		return "", errors.New("mailgun client is nil")
	}
	if strings.TrimSpace(toEmail) == "" {
		return "", errors.New("missing recipient email")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("missing subject")
	}
	if strings.TrimSpace(htmlBody) == "" {
		return "", errors.New("missing html body")
	}

	form := url.Values{}
	form.Set("from", c.sender)
	form.Set("to", toEmail)
	form.Set("subject", subject)
	form.Set("html", htmlBody)

	endpoint := c.baseURL + "/" + c.domain + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("mailgun create request: %w", err)
	}
	req.SetBasicAuth("api", c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mailgun request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("mailgun send failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return strings.TrimSpace(string(body)), nil
}
