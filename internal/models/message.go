package models

import (
	"errors"
	"time"
)

// Direction tells whether a message came from the customer or was sent by an
// agent.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionIncoming || d == DirectionOutgoing
}

// Message is a single message within a conversation. Messages are immutable
// once created; the dashboard never edits or deletes them.
type Message struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Body      string    `json:"body"`
	Direction Direction `json:"direction"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks that all required message fields are set
func (m *Message) Validate() error {
	if m.ID == "" {
		return errors.New("message ID is required")
	}
	if m.Phone == "" {
		return errors.New("phone number is required")
	}
	if m.Body == "" {
		return errors.New("message body is required")
	}
	if !m.Direction.Valid() {
		return errors.New("invalid message direction")
	}
	if m.CreatedAt.IsZero() {
		return errors.New("creation timestamp is required")
	}
	return nil
}
