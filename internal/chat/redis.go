package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/justsurfingit/job-portal/internal/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// envelope is the payload published on the Redis channel.
type envelope struct {
	UserIDs []uint             `json:"user_ids"`
	Event   services.ChatEvent `json:"event"`
}

// RedisBroker fans chat events out across API instances.
type RedisBroker struct {
	Client  *redis.Client
	Channel string
	hub     *Hub
	log     *zap.Logger
}

func NewRedisBroker(client *redis.Client, channel string, hub *Hub, log *zap.Logger) *RedisBroker {
	return &RedisBroker{Client: client, Channel: channel, hub: hub, log: log}
}

func (b *RedisBroker) Publish(ctx context.Context, userIDs []uint, event services.ChatEvent) error {
	payload, err := json.Marshal(envelope{UserIDs: userIDs, Event: event})
	if err != nil {
		return err
	}
	return b.Client.Publish(ctx, b.Channel, payload).Err()
}

// Run subscribes and delivers incoming events to the local hub until ctx ends.
func (b *RedisBroker) Run(ctx context.Context) error {
	sub := b.Client.Subscribe(ctx, b.Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.Channel, err)
	}
	b.log.Info("chat broker subscribed", zap.String("channel", b.Channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.deliver(msg.Payload)
		}
	}
}

func (b *RedisBroker) deliver(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.log.Warn("bad chat envelope", zap.Error(err))
		return
	}
	b.hub.Deliver(env.UserIDs, env.Event)
}
