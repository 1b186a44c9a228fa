package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recorder) HandleEvent(ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		out = append(out, ev.Name)
	}
	return out
}

type panicker struct{}

func (p *panicker) HandleEvent(Event) error { panic("boom") }

func TestBus_PublishNoObservers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	assert.NoError(t, bus.Publish(Event{Type: ObjectAdded, Name: "ws"}))
}

func TestBus_SubscribeIsIdempotent(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	rec := &recorder{}
	bus.Subscribe(ObjectAdded, rec)
	bus.Subscribe(ObjectAdded, rec)
	require.Equal(t, 1, bus.ObserverCount(ObjectAdded))

	require.NoError(t, bus.Publish(Event{Type: ObjectAdded, Name: "a"}))
	assert.Equal(t, []string{"a"}, rec.names())
	assert.True(t, bus.IsSubscribed(ObjectAdded, rec))
}

func TestBus_UnsubscribeUnknownIsNoop(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	rec := &recorder{}
	bus.Unsubscribe(ObjectRemoved, rec)

	bus.Subscribe(ObjectRemoved, rec)
	bus.Unsubscribe(ObjectRemoved, rec)
	bus.Unsubscribe(ObjectRemoved, rec)
	assert.Equal(t, 0, bus.ObserverCount(ObjectRemoved))

	require.NoError(t, bus.Publish(Event{Type: ObjectRemoved, Name: "x"}))
	assert.Empty(t, rec.names())
}

func TestBus_DeliversOnlyMatchingType(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	added := &recorder{}
	removed := &recorder{}
	bus.Subscribe(ObjectAdded, added)
	bus.Subscribe(ObjectRemoved, removed)

	require.NoError(t, bus.Publish(Event{Type: ObjectAdded, Name: "a"}))
	require.NoError(t, bus.Publish(Event{Type: ObjectRemoved, Name: "b"}))

	assert.Equal(t, []string{"a"}, added.names())
	assert.Equal(t, []string{"b"}, removed.names())
}

func TestBus_FailuresAreIsolated(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	failing := &recorder{err: errors.New("observer failed")}
	after := &recorder{}
	bus.Subscribe(GroupUpdated, failing)
	bus.Subscribe(GroupUpdated, &panicker{})
	bus.Subscribe(GroupUpdated, after)

	err := bus.Publish(Event{Type: GroupUpdated, Name: "grp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "observer failed")
	assert.Contains(t, err.Error(), "panic")

	assert.Equal(t, []string{"grp"}, failing.names())
	assert.Equal(t, []string{"grp"}, after.names(), "delivery continues past failing observers")
}

func TestBus_SubscribeFunc(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var got []string
	sub := bus.SubscribeFunc(ObjectAdded, func(ev Event) error {
		got = append(got, ev.Name)
		return nil
	})
	require.Equal(t, 1, bus.ObserverCount(ObjectAdded))

	require.NoError(t, bus.Publish(Event{Type: ObjectAdded, Name: "first"}))
	sub.Cancel()
	sub.Cancel()
	require.NoError(t, bus.Publish(Event{Type: ObjectAdded, Name: "second"}))

	assert.Equal(t, []string{"first"}, got)
	assert.Equal(t, 0, bus.ObserverCount(ObjectAdded))
}

func TestBus_PublishSetsTimestamp(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	rec := &recorder{}
	bus.Subscribe(StoreCleared, rec)
	require.NoError(t, bus.Publish(Event{Type: StoreCleared}))

	require.Len(t, rec.events, 1)
	assert.False(t, rec.events[0].Timestamp.IsZero())
}

func TestBus_Watch(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := bus.Watch(ctx, ObjectAdded)
	require.NoError(t, bus.Publish(Event{Type: ObjectRemoved, Name: "ignored"}))
	require.NoError(t, bus.Publish(Event{Type: ObjectAdded, Name: "seen"}))

	select {
	case ev := <-ch:
		assert.Equal(t, "seen", ev.Name)
		assert.Equal(t, ObjectAdded, ev.Type)
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "timeout waiting for event")
	}
}

func TestBus_WatchContextCancellation(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := bus.Watch(ctx)
	require.Equal(t, 1, bus.WatcherCount())

	cancel()
	require.Eventually(t, func() bool { return bus.WatcherCount() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")
}

func TestBus_WatchNonBlocking(t *testing.T) {
	bus := NewBus(WithWatchBuffer(1))
	defer bus.Close()

	ch := bus.Watch(context.Background())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 3; i++ {
			_ = bus.Publish(Event{Type: ObjectAdded, Name: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "Publish blocked")
	}
	assert.Len(t, ch, 1)
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()

	ch1 := bus.Watch(context.Background())
	ch2 := bus.Watch(context.Background())
	bus.Close()
	bus.Close()

	_, ok1 := <-ch1
	_, ok2 := <-ch2
	assert.False(t, ok1)
	assert.False(t, ok2)

	// Publishing and watching after close are harmless
	assert.NoError(t, bus.Publish(Event{Type: ObjectAdded}))
	_, ok := <-bus.Watch(context.Background())
	assert.False(t, ok)
}
