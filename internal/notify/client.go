package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shiftremit/backend/internal/logging"
)

// Email is the payload posted to the mail relay.
type Email struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// RelayClient delivers emails through the HTTP mail relay. Calls carry a
// bounded timeout; delivery failure is returned to the caller, who decides
// whether it is fatal.
type RelayClient struct {
	url        string
	httpClient *http.Client
}

func NewRelayClient(url string, timeout time.Duration) *RelayClient {
	return &RelayClient{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *RelayClient) Send(ctx context.Context, email Email) error {
	log := logging.FromContext(ctx)

	body, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("Send: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("Send: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Send: %w", err)
	}
	defer resp.Body.Close()

	log.Info("mail relay response",
		"to", email.To,
		"subject", email.Subject,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Send: status %d: %s", resp.StatusCode, string(excerpt))
	}
	return nil
}
