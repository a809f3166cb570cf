// Package dashboard implements the client-side view-model for the messaging
// dashboard: the conversation list, the message thread for the currently
// selected conversation, and the transitions that keep both consistent with
// the server's bulk queries and incremental feed. All transitions are pure
// functions from (state, event) to the next state; the Session serializes
// their application.
package dashboard

import "chatdesk-server/internal/models"

// State is a snapshot of what the dashboard shows. The message list only ever
// holds messages whose phone equals Selected; an empty Selected means no
// conversation is open and Messages is empty.
type State struct {
	Conversations []models.Conversation
	Selected      string
	Messages      []models.Message
}

// ApplyConversationUpdate replaces the matching conversation entry in place,
// preserving list order. The list is not re-sorted on update, so its order can
// grow stale relative to the last-seen ordering of the initial load; that
// mirrors the original behavior and is left as-is. Events for unknown phones
// are ignored.
func ApplyConversationUpdate(st State, conv models.Conversation) State {
	for i := range st.Conversations {
		if st.Conversations[i].Phone == conv.Phone {
			next := make([]models.Conversation, len(st.Conversations))
			copy(next, st.Conversations)
			next[i] = conv
			st.Conversations = next
			return st
		}
	}
	return st
}

// ApplyConversations replaces the whole conversation list (initial bulk load)
func ApplyConversations(st State, conversations []models.Conversation) State {
	st.Conversations = conversations
	return st
}

// ApplySelection switches the selected conversation. The message list is
// invalidated immediately; the caller re-fetches and re-subscribes.
func ApplySelection(st State, phone string) State {
	st.Selected = phone
	st.Messages = nil
	return st
}

// ApplyMessages installs the bulk-fetched thread history. A result for a
// phone that is no longer selected is discarded.
func ApplyMessages(st State, phone string, messages []models.Message) State {
	if phone != st.Selected || phone == "" {
		return st
	}
	st.Messages = messages
	return st
}

// ApplyMessageInsert appends a feed-delivered message at the newest edge of
// the thread. Inserts for any phone other than the current selection are
// discarded, so the visible list never mixes conversations.
func ApplyMessageInsert(st State, msg models.Message) State {
	if st.Selected == "" || msg.Phone != st.Selected {
		return st
	}
	next := make([]models.Message, len(st.Messages), len(st.Messages)+1)
	copy(next, st.Messages)
	st.Messages = append(next, msg)
	return st
}
