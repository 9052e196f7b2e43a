package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const channelPrefix = "formforge:form-events:"

// RedisBus implements Bus with Redis pub/sub.
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus creates a Redis-backed bus.
func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func channelFor(formID uuid.UUID) string {
	return channelPrefix + formID.String()
}

// Publish sends msg to the form's channel.
func (b *RedisBus) Publish(ctx context.Context, formID uuid.UUID, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.client.Publish(ctx, channelFor(formID), body).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe calls handler for each message on the form's channel until
// cancel is called.
func (b *RedisBus) Subscribe(formID uuid.UUID, handler func(Message)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())

	pubsub := b.client.Subscribe(ctx, channelFor(formID))
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var msg Message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					log.Warn().Err(err).Str("channel", m.Channel).Msg("Dropping malformed live event")
					continue
				}
				handler(msg)
			}
		}
	}()

	return cancel, nil
}
