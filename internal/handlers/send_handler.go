package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"chatdesk-server/internal/glue"
	"chatdesk-server/internal/models"
	"chatdesk-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SendRequest is the body the composer posts to /send
type SendRequest struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

// SendHandler pipes a send request into the external send process and, when
// the process reports success, records the outgoing message so it reaches the
// thread through the feed. There is no optimistic echo.
type SendHandler struct {
	runner   *glue.Runner
	messages MessageServiceInterface
}

// NewSendHandler creates a new send handler
func NewSendHandler(runner *glue.Runner, messages MessageServiceInterface) *SendHandler {
	return &SendHandler{
		runner:   runner,
		messages: messages,
	}
}

// Send handles POST /send
func (h *SendHandler) Send(c *gin.Context) {
	logger.Info("Send endpoint called")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logger.Error("Failed to read send request body", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read request body"})
		return
	}

	var req SendRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number is required"})
		return
	}
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message text is required"})
		return
	}

	result, err := h.runner.Run(c.Request, body)
	if err != nil {
		logger.Error("Send process failed to run",
			zap.String("phone", req.Phone),
			zap.Error(err),
		)
		c.Status(http.StatusInternalServerError)
		return
	}

	if result.ExitCode != 0 {
		logger.Error("Send process exited non-zero",
			zap.String("phone", req.Phone),
			zap.Int("exit_code", result.ExitCode),
		)
		c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", result.Output)
		return
	}

	if _, err := h.messages.Record(req.Phone, "", req.Text, models.DirectionOutgoing, time.Now()); err != nil {
		// The message left through the external channel; the thread just
		// won't show it until a later reload.
		logger.Error("Failed to record outgoing message",
			zap.String("phone", req.Phone),
			zap.Error(err),
		)
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", result.Output)
}
