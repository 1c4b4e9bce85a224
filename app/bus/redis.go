package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const DefaultRedisChannel = "entitlements:changes"

// RedisBridge forwards local entitlement.changed events to a Redis channel and turns
// events from other processes into local storage.changed events.
type RedisBridge struct {
	client  *redis.Client
	channel string
	origin  string
	bus     *Bus
	logger  logrus.FieldLogger
}

func NewRedisBridge(client *redis.Client, channel string, b *Bus, logger logrus.FieldLogger) *RedisBridge {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisBridge{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		bus:     b,
		logger:  logger,
	}
}

// Run blocks until ctx is done.
func (r *RedisBridge) Run(ctx context.Context) error {
	unsubscribe := r.bus.Subscribe(TopicEntitlementChanged, r.forward)
	defer unsubscribe()

	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.channel, err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.receive(ctx, msg.Payload)
		}
	}
}

func (r *RedisBridge) forward(ctx context.Context, ev Event) {
	if ev.Origin != "" {
		return
	}
	ev.Origin = r.origin
	payload, err := json.Marshal(ev)
	if err != nil {
		r.logger.WithError(err).Warn("Failed to encode bus event")
		return
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.logger.WithError(err).WithField("payer_id", ev.PayerID).Warn("Failed to forward bus event")
	}
}

func (r *RedisBridge) receive(ctx context.Context, payload string) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		r.logger.WithError(err).Warn("Discarding malformed bus event")
		return
	}
	if ev.Origin == r.origin {
		return
	}
	r.bus.Publish(ctx, Event{
		Topic:   TopicStorageChanged,
		PayerID: ev.PayerID,
		Key:     ev.Key,
		Reason:  ev.Reason,
		Origin:  ev.Origin,
		At:      ev.At,
	})
}
