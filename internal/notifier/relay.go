package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Relay delivers a push message to a device token.
type Relay interface {
	Push(ctx context.Context, token, title, body string) error
}

// HTTPRelay posts push messages to an external delivery endpoint. The circuit
// breaker sheds load when the endpoint is down; notifications are already
// persisted by then, so a dropped push is only a missed vibration.
type HTTPRelay struct {
	endpoint string
	client   *http.Client
	cb       *gobreaker.CircuitBreaker[struct{}]
}

func NewHTTPRelay(endpoint string) *HTTPRelay {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "push-relay",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &HTTPRelay{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
		cb:       cb,
	}
}

type pushRequest struct {
	To    string `json:"to"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (r *HTTPRelay) Push(ctx context.Context, token, title, body string) error {
	payload, err := json.Marshal(pushRequest{To: token, Title: title, Body: body})
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}

	_, err = r.cb.Execute(func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return struct{}{}, fmt.Errorf("push relay returned status %d", resp.StatusCode)
		}
		return struct{}{}, nil
	})
	return err
}
