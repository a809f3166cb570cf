package handlers

import (
	"time"

	"chatdesk-server/internal/models"
)

// ConversationServiceInterface defines the contract for conversation service
// operations. This interface is used for dependency injection and testing.
type ConversationServiceInterface interface {
	List() ([]*models.Conversation, error)
	RecordActivity(phone, displayName string, at time.Time) error
}

// MessageServiceInterface defines the contract for message service operations.
// This interface is used for dependency injection and testing.
type MessageServiceInterface interface {
	Record(phone, displayName, body string, direction models.Direction, at time.Time) (*models.Message, error)
	History(phone string, limit int) ([]*models.Message, error)
}
