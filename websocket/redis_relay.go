package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// DefaultRelayChannel is the Redis pub/sub channel shared by all instances.
const DefaultRelayChannel = "homeservices:ws"

type relayEnvelope struct {
	Origin  string          `json:"origin"`
	Channel string          `json:"channel"`
	Frame   json.RawMessage `json:"frame"`
}

// relayOutbox bounds the envelopes waiting for Redis. A full outbox drops
// the cross-instance copy; local delivery has already happened.
const relayOutbox = 256

// RelayClient is the part of *redis.Client the relay uses.
type RelayClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// RedisRelay fans events out to sockets on every instance. Frames are
// delivered to the local hub directly and queued for Redis, so a slow Redis
// never holds up the caller. An instance ignores its own envelopes.
type RedisRelay struct {
	hub      *Hub
	client   RelayClient
	channel  string
	instance string
	outbox   chan []byte
}

func NewRedisRelay(hub *Hub, client RelayClient, channel string) *RedisRelay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	return &RedisRelay{
		hub:      hub,
		client:   client,
		channel:  channel,
		instance: uuid.NewString(),
		outbox:   make(chan []byte, relayOutbox),
	}
}

func (r *RedisRelay) Publish(channel, event string, payload interface{}) {
	frame, err := json.Marshal(Notification{Event: event, Data: payload})
	if err != nil {
		log.Printf("[relay] encode %s for %s: %v", event, channel, err)
		return
	}
	r.hub.deliver(channel, frame)

	msg, err := json.Marshal(relayEnvelope{Origin: r.instance, Channel: channel, Frame: frame})
	if err != nil {
		log.Printf("[relay] encode envelope: %v", err)
		return
	}
	select {
	case r.outbox <- msg:
	default:
		log.Printf("[relay] outbox full, %s on %s stays on this instance", event, channel)
	}
}

// Run forwards queued envelopes to Redis and envelopes from other instances
// to local clients until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) {
	go r.forward(ctx)

	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			r.receive(msg.Payload)
		}
	}
}

// forward drains the outbox in order, one Redis publish at a time.
func (r *RedisRelay) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.outbox:
			pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := r.client.Publish(pubCtx, r.channel, msg).Err(); err != nil {
				log.Printf("[relay] publish to redis failed: %v", err)
			}
			cancel()
		}
	}
}

func (r *RedisRelay) receive(payload string) {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		log.Printf("[relay] bad envelope: %v", err)
		return
	}
	if env.Origin == r.instance || env.Channel == "" {
		return
	}
	r.hub.deliver(env.Channel, env.Frame)
}
