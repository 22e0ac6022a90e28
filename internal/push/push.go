// Package push wraps the external push-delivery collaborator. The
// collaborator is optional: when no endpoint is configured the dispatcher
// carries a nil Sender and skips push entirely.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Sender delivers one push notification to a device endpoint. Errors are
// non-fatal to callers: the dispatcher logs and drops them.
type Sender interface {
	Send(ctx context.Context, deviceToken, title, body string, data map[string]string) error
}

// HTTPSender posts notifications to a push gateway as JSON.
type HTTPSender struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPSender creates a sender against the given gateway endpoint.
func NewHTTPSender(endpoint, apiKey string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type pushRequest struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Send posts one notification. The request is bounded by the client
// timeout in addition to ctx.
func (s *HTTPSender) Send(ctx context.Context, deviceToken, title, body string, data map[string]string) error {
	payload, err := json.Marshal(pushRequest{
		Token: deviceToken,
		Title: title,
		Body:  body,
		Data:  data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// MaskToken shortens a device token for logs.
func MaskToken(token string) string {
	if len(token) < 10 {
		return "***"
	}
	return token[:10] + "..."
}
