// Package alert sends crawl failure messages to a chat webhook and by email.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Webhook posts a JSON message carrying the text under both "content" and
// "text", which covers Discord and Slack incoming webhooks.
type Webhook struct {
	url        string
	httpClient *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{url: url, httpClient: &http.Client{Timeout: 10 * time.Second}}
}

// Notify is a no-op when no URL is configured.
func (w *Webhook) Notify(ctx context.Context, msg string) error {
	if w == nil || w.url == "" {
		return nil
	}

	body, err := json.Marshal(map[string]string{"content": msg, "text": msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}
