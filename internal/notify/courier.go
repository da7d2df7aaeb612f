package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// CourierSender delivers alerts as email through the Courier send API.
type CourierSender struct {
	URL    string
	APIKey string
	Client *http.Client
	Logger *slog.Logger
}

func NewCourierSender(url, apiKey string, timeout time.Duration) *CourierSender {
	return &CourierSender{
		URL:    url,
		APIKey: apiKey,
		Client: &http.Client{Timeout: timeout},
		Logger: slog.Default(),
	}
}

type courierRequest struct {
	Message courierMessage `json:"message"`
}

type courierMessage struct {
	To      []courierRecipient `json:"to"`
	Content courierContent     `json:"content"`
	Routing courierRouting     `json:"routing"`
}

type courierRecipient struct {
	Email string `json:"email"`
}

type courierContent struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type courierRouting struct {
	Method   string   `json:"method"`
	Channels []string `json:"channels"`
}

type courierResponse struct {
	RequestID string `json:"requestId"`
}

// Send posts one request addressed to every recipient. Non-2xx responses are
// reported as ErrRejected. A 2xx response without a readable body still counts
// as delivered, with an empty Receipt.
func (s *CourierSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if len(msg.Recipients) == 0 {
		return Receipt{}, fmt.Errorf("%w: no recipients", ErrRejected)
	}

	to := make([]courierRecipient, len(msg.Recipients))
	for i, r := range msg.Recipients {
		to[i] = courierRecipient{Email: r}
	}
	payload, err := json.Marshal(courierRequest{Message: courierMessage{
		To:      to,
		Content: courierContent{Title: msg.Title, Body: msg.Body},
		Routing: courierRouting{Method: "single", Channels: []string{"email"}},
	}})
	if err != nil {
		return Receipt{}, fmt.Errorf("encoding courier request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return Receipt{}, fmt.Errorf("building courier request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("sending to courier: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Receipt{}, fmt.Errorf("reading courier response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Receipt{}, fmt.Errorf("%w: courier HTTP %d: %s", ErrRejected, resp.StatusCode, bytes.TrimSpace(body))
	}

	// Accepted either way; only the request id is lost.
	var out courierResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if s.Logger != nil {
			s.Logger.Debug("courier response not decodable", "status", resp.StatusCode, "body", string(bytes.TrimSpace(body)), "error", err)
		}
		return Receipt{}, nil
	}
	return Receipt{ID: out.RequestID}, nil
}
