package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// webhookTimeout bounds one webhook POST.
const webhookTimeout = 10 * time.Second

// Webhook posts notifications as JSON to one HTTP endpoint.
type Webhook struct {
	// url is the target endpoint.
	url string
	// client is the HTTP client used for delivery.
	client *http.Client
}

// webhookPayload is the JSON body posted to webhook targets.
type webhookPayload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewWebhook creates a poster for the given endpoint.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: webhookTimeout},
	}
}

// Send posts the notification. Any non-2xx status is an error.
func (w *Webhook) Send(ctx context.Context, subject, body string) error {
	payload, err := json.Marshal(webhookPayload{
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}

	return nil
}
