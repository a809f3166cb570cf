package models

import "time"

// Conversation is one customer thread, keyed by phone number. Conversations
// are never deleted; they are materialized on first contact and updated in
// place as messages arrive.
type Conversation struct {
	Phone       string    `json:"phone"`
	DisplayName string    `json:"display_name,omitempty"`
	LastSeen    time.Time `json:"last_seen"`
}

// Label returns the display name, falling back to the phone number when the
// contact never shared a profile name.
func (c *Conversation) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Phone
}
