// Package feed is the realtime side of the dashboard: an in-process
// publish/subscribe hub with topic-scoped subscriptions. Conversation updates
// go out on a single shared topic; message inserts are filtered at publish
// time by publishing to a per-phone topic, so subscribers never see rows for
// a conversation they did not ask for.
package feed

import (
	"encoding/json"
	"sync"
)

// EventType distinguishes row inserts from row updates.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
)

// TopicConversations carries update events for the conversation list.
const TopicConversations = "conversations"

// MessagesTopic returns the per-conversation topic for message inserts.
func MessagesTopic(phone string) string {
	return "messages." + phone
}

// Event is a single feed notification. Row holds the full affected row,
// JSON-encoded. Origin identifies the publishing process and is only used by
// the Redis backplane to drop self-echoes.
type Event struct {
	Type   EventType       `json:"type"`
	Topic  string          `json:"topic"`
	Row    json.RawMessage `json:"row"`
	Origin string          `json:"origin,omitempty"`
}

// NewEvent builds an event with the row JSON-encoded
func NewEvent(typ EventType, topic string, row any) (Event, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: typ, Topic: topic, Row: data}, nil
}

// Bus is what publishers and subscribers see. The in-process Hub implements
// it directly; RedisBus wraps a Hub to fan events across instances.
type Bus interface {
	Publish(ev Event)
	Subscribe(topic string) *Subscription
}

// Subscription is a live feed of events for one topic. It must be closed when
// superseded or when the owning view goes away, otherwise stale callbacks
// accumulate across repeated re-subscribes.
type Subscription struct {
	topic string
	ch    chan Event
	hub   *Hub
	once  sync.Once
}

// Events returns the channel events are delivered on. The channel is closed
// when the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Topic returns the topic this subscription is scoped to
func (s *Subscription) Topic() string {
	return s.topic
}

// Close tears the subscription down. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
	})
}

// Hub routes events from publishers to topic subscribers
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe registers a new subscription for the given topic
func (h *Hub) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan Event, 256),
		hub:   h,
	}

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*Subscription]struct{})
	}
	h.subs[topic][sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Publish delivers the event to every subscriber of its topic. A subscriber
// whose buffer is full misses the event rather than blocking the publisher.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[ev.Topic] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

func (h *Hub) unsubscribe(s *Subscription) {
	h.mu.Lock()
	if subs, ok := h.subs[s.topic]; ok {
		if _, ok := subs[s]; ok {
			delete(subs, s)
			close(s.ch)
		}
		if len(subs) == 0 {
			delete(h.subs, s.topic)
		}
	}
	h.mu.Unlock()
}
