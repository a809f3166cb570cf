package db

import (
	"database/sql"
	"errors"
	"time"

	"chatdesk-server/internal/models"
)

// DefaultMessageLimit caps how much history a single fetch returns. Older
// messages are unreachable without a re-fetch; pagination is a known gap.
const DefaultMessageLimit = 100

// MessageRepository handles message persistence
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Insert stores a new message
func (r *MessageRepository) Insert(msg *models.Message) error {
	if msg == nil {
		return errors.New("message cannot be nil")
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	_, err := r.db.Exec(
		"INSERT INTO messages (id, phone, body, direction, created_at) VALUES (?, ?, ?, ?, ?)",
		msg.ID,
		msg.Phone,
		msg.Body,
		string(msg.Direction),
		msg.CreatedAt.UnixNano(),
	)
	return err
}

// ListByPhone returns the newest messages for a conversation in ascending
// creation order, so the caller can render oldest-to-newest and append new
// arrivals at the end.
func (r *MessageRepository) ListByPhone(phone string, limit int) ([]*models.Message, error) {
	if phone == "" {
		return nil, errors.New("phone number is required")
	}
	if limit <= 0 || limit > DefaultMessageLimit {
		limit = DefaultMessageLimit
	}

	// Newest rows first so the LIMIT keeps the most recent window, then
	// reversed below into chronological order.
	rows, err := r.db.Query(
		"SELECT id, phone, body, direction, created_at FROM messages WHERE phone = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		phone,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		var direction string
		var createdAt int64
		if err := rows.Scan(&msg.ID, &msg.Phone, &msg.Body, &direction, &createdAt); err != nil {
			return nil, err
		}
		msg.Direction = models.Direction(direction)
		msg.CreatedAt = time.Unix(0, createdAt)
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
