package services

import (
	"fmt"
	"time"

	"chatdesk-server/internal/feed"
	"chatdesk-server/internal/models"
	"chatdesk-server/pkg/logger"

	"go.uber.org/zap"
)

// ConversationStore is the persistence contract the conversation service
// needs. Satisfied by db.ConversationRepository.
type ConversationStore interface {
	Upsert(conv *models.Conversation) error
	List() ([]*models.Conversation, error)
	Get(phone string) (*models.Conversation, error)
}

// ConversationService handles conversation operations
type ConversationService struct {
	store ConversationStore
	bus   feed.Bus
}

// NewConversationService creates a new conversation service
func NewConversationService(store ConversationStore, bus feed.Bus) *ConversationService {
	return &ConversationService{store: store, bus: bus}
}

// List returns all conversations, most recently active first
func (s *ConversationService) List() ([]*models.Conversation, error) {
	return s.store.List()
}

// RecordActivity bumps the conversation's last-seen timestamp, storing the
// display name if one was provided, and publishes the updated row on the
// conversation feed.
func (s *ConversationService) RecordActivity(phone, displayName string, at time.Time) error {
	if phone == "" {
		return fmt.Errorf("phone number is required")
	}
	if at.IsZero() {
		at = time.Now()
	}

	conv := &models.Conversation{
		Phone:       phone,
		DisplayName: displayName,
		LastSeen:    at,
	}
	if err := s.store.Upsert(conv); err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}

	// Publish the stored row, not the input: the upsert may have kept an
	// earlier display name.
	stored, err := s.store.Get(phone)
	if err != nil {
		logger.Warn("Failed to reload conversation after upsert",
			zap.String("phone", phone),
			zap.Error(err),
		)
		stored = conv
	}

	ev, err := feed.NewEvent(feed.EventUpdate, feed.TopicConversations, stored)
	if err != nil {
		logger.Error("Failed to encode conversation event",
			zap.String("phone", phone),
			zap.Error(err),
		)
		return nil
	}
	s.bus.Publish(ev)

	return nil
}
