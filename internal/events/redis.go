package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/campus-match/internal/logger"
)

// DefaultChannel is the Pub/Sub channel events travel on.
const DefaultChannel = "campus-match:events"

// RedisBus publishes and subscribes to events over Redis Pub/Sub.
// Delivery is at-most-once: subscribers that are not connected miss events.
type RedisBus struct {
	client  *redis.Client
	channel string
}

func NewRedisBus(client *redis.Client, channel string) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{client: client, channel: channel}
}

func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Subscription streams decoded events until Close or context cancellation.
type Subscription struct {
	ps     *redis.PubSub
	events chan Event
}

// Events is closed when the subscription ends.
func (s *Subscription) Events() <-chan Event { return s.events }

func (s *Subscription) Close() error { return s.ps.Close() }

// Subscribe listens for events. With userID > 0 only events involving that
// profile are delivered. It returns once Redis confirmed the subscription.
func (b *RedisBus) Subscribe(ctx context.Context, userID uint64) (*Subscription, error) {
	ps := b.client.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	sub := &Subscription{ps: ps, events: make(chan Event, 16)}
	go func() {
		defer close(sub.events)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = ps.Close()
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					logger.Warn("dropping malformed event", "err", err)
					continue
				}
				if userID != 0 && !e.Involves(userID) {
					continue
				}
				select {
				case sub.events <- e:
				case <-ctx.Done():
					_ = ps.Close()
					return
				}
			}
		}
	}()
	return sub, nil
}
