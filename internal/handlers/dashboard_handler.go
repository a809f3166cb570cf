package handlers

import (
	"net/http"
	"strconv"

	"chatdesk-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DashboardHandler serves the dashboard's two bulk queries: the conversation
// list and the message history for one conversation.
type DashboardHandler struct {
	conversations ConversationServiceInterface
	messages      MessageServiceInterface
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(conversations ConversationServiceInterface, messages MessageServiceInterface) *DashboardHandler {
	return &DashboardHandler{
		conversations: conversations,
		messages:      messages,
	}
}

// ListConversations handles GET /api/conversations
// Returns every conversation ordered by last activity, most recent first
func (h *DashboardHandler) ListConversations(c *gin.Context) {
	conversations, err := h.conversations.List()
	if err != nil {
		logger.Error("Failed to list conversations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// ListMessages handles GET /api/messages?phone=&limit=
// Returns the newest messages for the conversation in chronological order,
// capped at 100
func (h *DashboardHandler) ListMessages(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number is required"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	messages, err := h.messages.History(phone, limit)
	if err != nil {
		logger.Error("Failed to list messages",
			zap.String("phone", phone),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
