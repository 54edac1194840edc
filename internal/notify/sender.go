// Package notify delivers outbound messages to the chat platform
// adapter. The core never talks to a chat API directly; it hands
// strings to a Sender.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Sender pushes one message to a chat. Implementations make a single
// attempt; retrying is the caller's (human's) job.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// outboundMessage is the wire format the adapter expects.
type outboundMessage struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// Webhook posts messages to the configured adapter endpoint.
type Webhook struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhook creates a webhook sender.
func NewWebhook(url string, logger *zap.Logger) *Webhook {
	return &Webhook{
		url:        url,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

func (w *Webhook) Send(ctx context.Context, chatID int64, text string) error {
	payload, err := json.Marshal(outboundMessage{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("adapter responded %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Discard drops messages; used when no outbound endpoint is configured.
type Discard struct {
	Logger *zap.Logger
}

func (d *Discard) Send(_ context.Context, chatID int64, text string) error {
	if d.Logger != nil {
		d.Logger.Debug("outbound message discarded",
			zap.Int64("chat_id", chatID),
			zap.Int("len", len(text)))
	}
	return nil
}
