package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"github.com/rs/zerolog"

	"github.com/stanstork/console-api/internal/notification"
)

// RedisBridge relays notification changes between console instances. Each
// instance publishes its own changes and delivers the others' to its hub.
type RedisBridge struct {
	client  *redis.Client
	channel string
	origin  string
	hub     *Hub
	logger  zerolog.Logger
}

type bridgeMessage struct {
	Origin string                   `json:"origin"`
	Event  notification.ChangeEvent `json:"event"`
}

func NewRedisBridge(ctx context.Context, redisURL, channel string, hub *Hub, logger zerolog.Logger) (*RedisBridge, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	// maint notifications are unsupported before Redis 8 and only log noise
	opts.MaintNotificationsConfig = &maintnotifications.Config{
		Mode: maintnotifications.ModeDisabled,
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBridge{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		hub:     hub,
		logger:  logger.With().Str("component", "redis_bridge").Logger(),
	}, nil
}

func (b *RedisBridge) Notify(ctx context.Context, evt notification.ChangeEvent) error {
	payload, err := json.Marshal(bridgeMessage{Origin: b.origin, Event: evt})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}
	return nil
}

// Run delivers events published by other instances until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.deliver([]byte(msg.Payload))
		}
	}
}

func (b *RedisBridge) deliver(payload []byte) {
	var m bridgeMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		b.logger.Warn().Err(err).Msg("discarding malformed bridge message")
		return
	}
	if m.Origin == b.origin {
		return
	}
	if err := b.hub.SendJSON(m.Event.UserID, eventEnvelope{Type: "notification.updated", Event: m.Event}); err != nil {
		b.logger.Warn().Err(err).Msg("failed to relay bridge message")
	}
}

func (b *RedisBridge) Close() error {
	return b.client.Close()
}

func (b *RedisBridge) String() string {
	return fmt.Sprintf("RedisBridge(channel=%s)", b.channel)
}
