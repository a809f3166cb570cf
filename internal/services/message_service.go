package services

import (
	"fmt"
	"strings"
	"time"

	"chatdesk-server/internal/feed"
	"chatdesk-server/internal/models"
	"chatdesk-server/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageStore is the persistence contract the message service needs.
// Satisfied by db.MessageRepository.
type MessageStore interface {
	Insert(msg *models.Message) error
	ListByPhone(phone string, limit int) ([]*models.Message, error)
}

// MessageService handles message operations
type MessageService struct {
	store         MessageStore
	conversations *ConversationService
	bus           feed.Bus
	historyLimit  int
}

// NewMessageService creates a new message service
func NewMessageService(store MessageStore, conversations *ConversationService, bus feed.Bus, historyLimit int) *MessageService {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &MessageService{
		store:         store,
		conversations: conversations,
		bus:           bus,
		historyLimit:  historyLimit,
	}
}

// Record persists a new message, bumps the owning conversation, and publishes
// the insert on the conversation's message topic. displayName may be empty;
// it is only stored when the channel provided one (incoming webhooks do).
func (s *MessageService) Record(phone, displayName, body string, direction models.Direction, at time.Time) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if phone == "" {
		return nil, fmt.Errorf("phone number is required")
	}
	if body == "" {
		return nil, fmt.Errorf("message body is required")
	}
	if !direction.Valid() {
		return nil, fmt.Errorf("invalid message direction: %q", direction)
	}
	if at.IsZero() {
		at = time.Now()
	}

	msg := &models.Message{
		ID:        uuid.NewString(),
		Phone:     phone,
		Body:      body,
		Direction: direction,
		CreatedAt: at,
	}

	if err := s.store.Insert(msg); err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	if err := s.conversations.RecordActivity(phone, displayName, at); err != nil {
		logger.Error("Failed to record conversation activity",
			zap.String("phone", phone),
			zap.Error(err),
		)
	}

	ev, err := feed.NewEvent(feed.EventInsert, feed.MessagesTopic(phone), msg)
	if err != nil {
		logger.Error("Failed to encode message event",
			zap.String("phone", phone),
			zap.Error(err),
		)
		return msg, nil
	}
	s.bus.Publish(ev)

	return msg, nil
}

// History returns the newest messages for a conversation in chronological
// order, capped at the configured history limit.
func (s *MessageService) History(phone string, limit int) ([]*models.Message, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone number is required")
	}
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	return s.store.ListByPhone(phone, limit)
}
