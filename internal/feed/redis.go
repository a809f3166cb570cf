package feed

import (
	"context"
	"encoding/json"

	"chatdesk-server/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus fans feed events across server instances through a Redis pub/sub
// channel. Local subscribers still attach to the wrapped Hub; Publish mirrors
// every event to Redis, and a background loop re-ingests events published by
// other instances. Events carry the publishing instance's id so that the echo
// of our own publish is dropped.
type RedisBus struct {
	hub      *Hub
	rdb      *redis.Client
	channel  string
	instance string
	pubsub   *redis.PubSub
}

// NewRedisBus creates a Redis-backed bus around the given hub
func NewRedisBus(hub *Hub, addr, channel string) *RedisBus {
	return &RedisBus{
		hub:      hub,
		rdb:      redis.NewClient(&redis.Options{Addr: addr}),
		channel:  channel,
		instance: uuid.NewString(),
	}
}

// Start begins consuming remote events. It returns immediately; the consume
// loop runs until Close shuts the subscription down.
func (b *RedisBus) Start() {
	b.pubsub = b.rdb.Subscribe(context.Background(), b.channel)
	go func() {
		for msg := range b.pubsub.Channel() {
			b.ingest([]byte(msg.Payload))
		}
	}()
}

// ingest decodes a remote payload and republishes it locally, dropping
// malformed payloads and our own echoes.
func (b *RedisBus) ingest(payload []byte) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		logger.Warn("Dropping malformed feed payload", zap.Error(err))
		return
	}
	if ev.Origin == b.instance {
		return
	}
	b.hub.Publish(ev)
}

// Publish delivers the event locally and mirrors it to Redis
func (b *RedisBus) Publish(ev Event) {
	b.hub.Publish(ev)

	ev.Origin = b.instance
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error("Failed to encode feed event", zap.Error(err))
		return
	}
	if err := b.rdb.Publish(context.Background(), b.channel, payload).Err(); err != nil {
		logger.Error("Failed to publish feed event to redis",
			zap.String("topic", ev.Topic),
			zap.Error(err),
		)
	}
}

// Subscribe attaches a local subscription for the given topic
func (b *RedisBus) Subscribe(topic string) *Subscription {
	return b.hub.Subscribe(topic)
}

// Close stops the consume loop and releases the Redis client
func (b *RedisBus) Close() error {
	if b.pubsub != nil {
		if err := b.pubsub.Close(); err != nil {
			logger.Warn("Failed to close feed subscription", zap.Error(err))
		}
	}
	return b.rdb.Close()
}
