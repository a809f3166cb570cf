package db

import (
	"database/sql"
	"errors"
	"time"

	"chatdesk-server/internal/models"
)

// ConversationRepository handles conversation persistence
type ConversationRepository struct {
	db *sql.DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Upsert inserts the conversation or refreshes its last-seen timestamp. An
// empty display name never clobbers a previously stored one.
func (r *ConversationRepository) Upsert(conv *models.Conversation) error {
	if conv == nil {
		return errors.New("conversation cannot be nil")
	}
	if conv.Phone == "" {
		return errors.New("phone number is required")
	}
	if conv.LastSeen.IsZero() {
		conv.LastSeen = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO conversations (phone, display_name, last_seen)
		VALUES (?, ?, ?)
		ON CONFLICT(phone) DO UPDATE SET
			display_name = CASE WHEN excluded.display_name != '' THEN excluded.display_name ELSE display_name END,
			last_seen = excluded.last_seen
	`, conv.Phone, conv.DisplayName, conv.LastSeen.UnixNano())
	return err
}

// List returns all conversations ordered by last activity, most recent first.
// The list is unbounded.
func (r *ConversationRepository) List() ([]*models.Conversation, error) {
	rows, err := r.db.Query(
		"SELECT phone, display_name, last_seen FROM conversations ORDER BY last_seen DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		conv := &models.Conversation{}
		var lastSeen int64
		if err := rows.Scan(&conv.Phone, &conv.DisplayName, &lastSeen); err != nil {
			return nil, err
		}
		conv.LastSeen = time.Unix(0, lastSeen)
		conversations = append(conversations, conv)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return conversations, nil
}

// Get returns the conversation for the given phone number
func (r *ConversationRepository) Get(phone string) (*models.Conversation, error) {
	if phone == "" {
		return nil, errors.New("phone number is required")
	}

	conv := &models.Conversation{}
	var lastSeen int64
	err := r.db.QueryRow(
		"SELECT phone, display_name, last_seen FROM conversations WHERE phone = ?",
		phone,
	).Scan(&conv.Phone, &conv.DisplayName, &lastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	conv.LastSeen = time.Unix(0, lastSeen)
	return conv, nil
}
