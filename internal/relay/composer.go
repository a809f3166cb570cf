// Package relay is the composer's outbound path: a fire-and-forget POST of
// {phone, text} to the send endpoint. There is no retry, no idempotency key,
// and no delivery confirmation; the sent message only shows up in the thread
// once it round-trips through the feed.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"chatdesk-server/pkg/logger"

	"go.uber.org/zap"
)

// ErrNoSelection is returned when there is no conversation to send to.
var ErrNoSelection = errors.New("no conversation selected")

// SendRequest is the JSON body posted to the send endpoint
type SendRequest struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

// Client posts outgoing messages to the send endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a send client for the given endpoint URL
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Send posts the message. Empty or whitespace-only text is a no-op and
// performs no network call. Only the response status is consulted; the body
// is ignored.
func (c *Client) Send(ctx context.Context, phone, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if phone == "" {
		return ErrNoSelection
	}

	body, err := json.Marshal(SendRequest{Phone: phone, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send request returned status %d", resp.StatusCode)
	}
	return nil
}

// Composer holds the draft text for the message box. Submit clears the draft
// only on a successful send; on failure the text stays put, which is the only
// feedback the user gets.
type Composer struct {
	client *Client

	mu    sync.Mutex
	draft string
}

// NewComposer creates a composer over the given send client
func NewComposer(client *Client) *Composer {
	return &Composer{client: client}
}

// SetDraft replaces the draft text
func (c *Composer) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// Draft returns the current draft text
func (c *Composer) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Submit sends the current draft to the given conversation
func (c *Composer) Submit(ctx context.Context, phone string) error {
	c.mu.Lock()
	draft := c.draft
	c.mu.Unlock()

	if strings.TrimSpace(draft) == "" {
		return nil
	}

	if err := c.client.Send(ctx, phone, draft); err != nil {
		logger.Error("Failed to send message",
			zap.String("phone", phone),
			zap.Error(err),
		)
		return err
	}

	c.mu.Lock()
	// Only clear what was actually sent; a draft edited mid-flight stays.
	if c.draft == draft {
		c.draft = ""
	}
	c.mu.Unlock()
	return nil
}
