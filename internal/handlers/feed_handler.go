package handlers

import (
	"encoding/json"
	"net/http"

	"chatdesk-server/internal/feed"
	"chatdesk-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard frontend is served from a different origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// FeedHandler exposes the realtime feed over WebSocket. A client subscribes
// to exactly one topic per connection: "conversations" for list updates, or
// "messages.<phone>" for inserts scoped to one thread.
type FeedHandler struct {
	bus feed.Bus
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(bus feed.Bus) *FeedHandler {
	return &FeedHandler{bus: bus}
}

// Serve handles GET /ws/feed?topic=
func (h *FeedHandler) Serve(c *gin.Context) {
	topic := c.Query("topic")
	if topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Topic is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	sub := h.bus.Subscribe(topic)

	// Read pump: the feed is one-way, but reading is what detects the close.
	go func() {
		defer func() {
			sub.Close()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Write pump
	go func() {
		defer conn.Close()
		for ev := range sub.Events() {
			payload, err := json.Marshal(ev)
			if err != nil {
				logger.Error("Failed to encode feed event", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}()
}
