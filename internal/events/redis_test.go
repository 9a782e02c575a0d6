package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-match/internal/events"
)

func newBus(t *testing.T) *events.RedisBus {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return events.NewRedisBus(client, "")
}

func receive(t *testing.T, sub *events.Subscription) events.Event {
	t.Helper()
	select {
	case e, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
	return events.Event{}
}

func TestPublishSubscribe_FiltersByUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := newBus(t)

	sub, err := bus.Subscribe(ctx, 7)
	require.NoError(t, err)
	defer sub.Close()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, bus.Publish(ctx, events.Event{Type: events.UserBanned, UserIDs: []uint64{3}, At: now}))
	require.NoError(t, bus.Publish(ctx, events.Event{Type: events.IncomingInterest, UserIDs: []uint64{7}, Count: 2, At: now}))

	e := receive(t, sub)
	assert.Equal(t, events.IncomingInterest, e.Type)
	assert.Equal(t, int64(2), e.Count)
	assert.True(t, e.At.Equal(now))
}

func TestSubscribeAll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := newBus(t)

	sub, err := bus.Subscribe(ctx, 0)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, bus.Publish(ctx, events.Event{Type: events.MatchCreated, UserIDs: []uint64{1, 2}}))
	e := receive(t, sub)
	assert.True(t, e.Involves(1))
	assert.True(t, e.Involves(2))
	assert.False(t, e.Involves(3))
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := newBus(t)

	sub, err := bus.Subscribe(ctx, 0)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close")
	}
}
