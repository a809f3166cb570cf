package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chatdesk-server/internal/config"
	"chatdesk-server/internal/models"
	"chatdesk-server/pkg/logger"
	"chatdesk-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler receives messages from the upstream messaging channel. The
// GET route answers the channel's subscription handshake; the POST route
// verifies the payload signature and records incoming text messages.
type WebhookHandler struct {
	cfg      *config.Config
	messages MessageServiceInterface
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(cfg *config.Config, messages MessageServiceInterface) *WebhookHandler {
	return &WebhookHandler{
		cfg:      cfg,
		messages: messages,
	}
}

// inboundMessage is one message inside a webhook notification
type inboundMessage struct {
	From      string `json:"from"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Text      struct {
		Body string `json:"body"`
	} `json:"text"`
}

// webhookNotification mirrors the channel's notification payload shape. Only
// the fields the handler reads are declared.
type webhookNotification struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Contacts []struct {
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
					WaID string `json:"wa_id"`
				} `json:"contacts"`
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Verify handles GET /webhook, the channel's subscription handshake
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.cfg.Webhook.VerifyToken {
		logger.Info("Webhook subscription verified")
		c.String(http.StatusOK, challenge)
		return
	}

	logger.Warn("Webhook verification rejected", zap.String("mode", mode))
	c.String(http.StatusForbidden, "Forbidden")
}

// Receive handles POST /webhook. Unparseable and non-text payloads are
// acknowledged and ignored; rejecting them would only make the channel
// retry.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		logger.Error("Failed to read webhook body", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to read body")
		return
	}

	signature := c.GetHeader("X-Hub-Signature-256")
	if !utils.VerifySignature(h.cfg.Webhook.AppSecret, body, signature) {
		logger.Warn("Webhook signature mismatch")
		c.String(http.StatusForbidden, "Bad signature")
		return
	}

	var notification webhookNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		logger.Warn("Ignoring malformed webhook payload", zap.Error(err))
		c.String(http.StatusOK, "OK")
		return
	}

	msg, displayName, ok := firstTextMessage(&notification)
	if !ok {
		c.String(http.StatusOK, "OK")
		return
	}

	text := strings.TrimSpace(msg.Text.Body)
	if text == "" {
		c.String(http.StatusOK, "OK")
		return
	}

	at := time.Now()
	if ts, err := strconv.ParseInt(msg.Timestamp, 10, 64); err == nil {
		at = time.Unix(ts, 0)
	}

	if _, err := h.messages.Record(msg.From, displayName, text, models.DirectionIncoming, at); err != nil {
		logger.Error("Failed to record incoming message",
			zap.String("phone", msg.From),
			zap.Error(err),
		)
		c.String(http.StatusInternalServerError, "Failed to record message")
		return
	}

	logger.Info("Recorded incoming message", zap.String("phone", msg.From))
	c.String(http.StatusOK, "OK")
}

func firstTextMessage(n *webhookNotification) (*inboundMessage, string, bool) {
	for i := range n.Entry {
		for j := range n.Entry[i].Changes {
			value := &n.Entry[i].Changes[j].Value
			if len(value.Messages) == 0 {
				continue
			}
			msg := &value.Messages[0]
			if msg.Type != "text" {
				return nil, "", false
			}
			displayName := ""
			if len(value.Contacts) > 0 {
				displayName = value.Contacts[0].Profile.Name
			}
			return msg, displayName, true
		}
	}
	return nil, "", false
}
