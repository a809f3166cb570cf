package dashboard

import (
	"context"
	"encoding/json"
	"sync"

	"chatdesk-server/internal/feed"
	"chatdesk-server/internal/models"
	"chatdesk-server/pkg/logger"

	"go.uber.org/zap"
)

// Fetcher provides the bulk queries the session needs. Satisfied by the
// service layer directly or by an HTTP API client.
type Fetcher interface {
	Conversations(ctx context.Context) ([]*models.Conversation, error)
	Messages(ctx context.Context, phone string, limit int) ([]*models.Message, error)
}

// Session owns one dashboard's state and its feed subscriptions. All state
// mutation funnels through apply() under the mutex, so transitions are
// serialized the way a UI event loop would serialize them. Subscriptions are
// closed whenever they are superseded; a selection change never leaves the
// previous thread's subscription running.
type Session struct {
	fetcher      Fetcher
	bus          feed.Bus
	historyLimit int

	mu      sync.Mutex
	state   State
	convSub *feed.Subscription
	msgSub  *feed.Subscription
	wg      sync.WaitGroup
}

// NewSession creates a session over the given fetcher and feed bus
func NewSession(fetcher Fetcher, bus feed.Bus, historyLimit int) *Session {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &Session{
		fetcher:      fetcher,
		bus:          bus,
		historyLimit: historyLimit,
	}
}

// Start loads the conversation list and subscribes to conversation updates.
// A failed bulk fetch is logged and leaves the list empty; there is no retry.
func (s *Session) Start(ctx context.Context) {
	conversations, err := s.fetcher.Conversations(ctx)
	if err != nil {
		logger.Error("Failed to fetch conversations", zap.Error(err))
	} else {
		s.apply(func(st State) State {
			return ApplyConversations(st, deref(conversations))
		})
	}

	sub := s.bus.Subscribe(feed.TopicConversations)
	s.mu.Lock()
	s.convSub = sub
	s.mu.Unlock()

	s.wg.Add(1)
	go s.pumpConversations(sub)
}

// Select switches the open conversation. Passing an empty phone deselects:
// the thread empties and no fetch or subscription happens.
func (s *Session) Select(ctx context.Context, phone string) {
	s.mu.Lock()
	if s.msgSub != nil {
		s.msgSub.Close()
		s.msgSub = nil
	}
	s.state = ApplySelection(s.state, phone)
	s.mu.Unlock()

	if phone == "" {
		return
	}

	messages, err := s.fetcher.Messages(ctx, phone, s.historyLimit)
	if err != nil {
		// Thread stays empty; the only user-visible signal is the absence
		// of messages.
		logger.Error("Failed to fetch messages",
			zap.String("phone", phone),
			zap.Error(err),
		)
	} else {
		s.apply(func(st State) State {
			return ApplyMessages(st, phone, deref(messages))
		})
	}

	sub := s.bus.Subscribe(feed.MessagesTopic(phone))
	s.mu.Lock()
	// A concurrent re-select may have won the race; keep its subscription.
	if s.state.Selected != phone {
		s.mu.Unlock()
		sub.Close()
		return
	}
	s.msgSub = sub
	s.mu.Unlock()

	s.wg.Add(1)
	go s.pumpMessages(sub)
}

// State returns a snapshot of the current dashboard state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears down all subscriptions and waits for the pumps to drain
func (s *Session) Close() {
	s.mu.Lock()
	if s.convSub != nil {
		s.convSub.Close()
		s.convSub = nil
	}
	if s.msgSub != nil {
		s.msgSub.Close()
		s.msgSub = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Session) pumpConversations(sub *feed.Subscription) {
	defer s.wg.Done()
	for ev := range sub.Events() {
		if ev.Type != feed.EventUpdate {
			continue
		}
		var conv models.Conversation
		if err := json.Unmarshal(ev.Row, &conv); err != nil {
			logger.Warn("Dropping malformed conversation event", zap.Error(err))
			continue
		}
		s.apply(func(st State) State {
			return ApplyConversationUpdate(st, conv)
		})
	}
}

func (s *Session) pumpMessages(sub *feed.Subscription) {
	defer s.wg.Done()
	for ev := range sub.Events() {
		if ev.Type != feed.EventInsert {
			continue
		}
		var msg models.Message
		if err := json.Unmarshal(ev.Row, &msg); err != nil {
			logger.Warn("Dropping malformed message event", zap.Error(err))
			continue
		}
		s.apply(func(st State) State {
			return ApplyMessageInsert(st, msg)
		})
	}
}

func (s *Session) apply(transition func(State) State) {
	s.mu.Lock()
	s.state = transition(s.state)
	s.mu.Unlock()
}

func deref[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}
