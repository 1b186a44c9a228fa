package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultWatchBuffer = 64

// Bus is a synchronous, typed publish/subscribe hub.
//
// Publish delivers to the observers subscribed at the time of the call, in
// subscription order, on the publishing goroutine. A failing or panicking
// observer does not prevent delivery to the others.
type Bus struct {
	mu          sync.RWMutex
	observers   map[EventType][]Observer
	funcs       map[EventType][]funcEntry
	watchers    map[chan Event]map[EventType]struct{}
	done        chan struct{}
	watchBuffer int
	logger      *slog.Logger
}

type funcEntry struct {
	id uuid.UUID
	fn ObserverFunc
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
	}
}

// WithWatchBuffer sets the channel buffer size used by Watch.
func WithWatchBuffer(size int) Option {
	return func(b *Bus) {
		if size < 1 {
			size = 1
		}
		b.watchBuffer = size
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		observers:   make(map[EventType][]Observer),
		funcs:       make(map[EventType][]funcEntry),
		watchers:    make(map[chan Event]map[EventType]struct{}),
		done:        make(chan struct{}),
		watchBuffer: defaultWatchBuffer,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers obs for events of type t. Subscribing the same
// observer twice is a no-op.
func (b *Bus) Subscribe(t EventType, obs Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.observers[t] {
		if o == obs {
			return
		}
	}
	b.observers[t] = append(b.observers[t], obs)
}

// Unsubscribe removes obs for events of type t. Unknown observers are ignored.
func (b *Bus) Unsubscribe(t EventType, obs Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.observers[t]
	for i, o := range list {
		if o == obs {
			b.observers[t] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// IsSubscribed reports whether obs currently receives events of type t.
func (b *Bus) IsSubscribed(t EventType, obs Observer) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, o := range b.observers[t] {
		if o == obs {
			return true
		}
	}
	return false
}

// Subscription is a handle to a function subscription.
type Subscription struct {
	bus  *Bus
	t    EventType
	id   uuid.UUID
	once sync.Once
}

// Cancel removes the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		list := s.bus.funcs[s.t]
		for i, e := range list {
			if e.id == s.id {
				s.bus.funcs[s.t] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	})
}

// SubscribeFunc registers fn for events of type t.
func (b *Bus) SubscribeFunc(t EventType, fn ObserverFunc) *Subscription {
	id := uuid.New()
	b.mu.Lock()
	b.funcs[t] = append(b.funcs[t], funcEntry{id: id, fn: fn})
	b.mu.Unlock()
	return &Subscription{bus: b, t: t, id: id}
}

// Publish delivers ev synchronously. The returned error joins every
// observer failure; it is nil when all observers succeeded or none exist.
func (b *Bus) Publish(ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.RLock()
	select {
	case <-b.done:
		b.mu.RUnlock()
		return nil
	default:
	}
	observers := append([]Observer(nil), b.observers[ev.Type]...)
	funcs := append([]funcEntry(nil), b.funcs[ev.Type]...)
	for ch, types := range b.watchers {
		if _, ok := types[ev.Type]; !ok && len(types) > 0 {
			continue
		}
		select {
		case ch <- ev:
		default:
			// Channel full - drop to prevent blocking
		}
	}
	b.mu.RUnlock()

	var errs []error
	for _, obs := range observers {
		if err := deliver(obs.HandleEvent, ev); err != nil {
			errs = append(errs, err)
		}
	}
	for _, e := range funcs {
		if err := deliver(e.fn, ev); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		b.logger.Warn("observer failed", "event", ev.Type, "name", ev.Name, "err", err)
	}
	return err
}

func deliver(fn func(Event) error, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
		}
	}()
	return fn(ev)
}

// Watch returns a buffered channel receiving events of the given types (all
// types when none are given). Delivery never blocks the publisher: events are
// dropped while the channel is full. The channel is closed when ctx is
// cancelled or the bus is closed.
func (b *Bus) Watch(ctx context.Context, types ...EventType) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Event)
		close(ch)
		return ch
	default:
	}

	filter := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		filter[t] = struct{}{}
	}
	ch := make(chan Event, b.watchBuffer)
	b.watchers[ch] = filter

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()

		select {
		case <-b.done:
			return // Already closed
		default:
		}

		delete(b.watchers, ch)
		close(ch)
	}()

	return ch
}

// ObserverCount returns the number of observers and function subscriptions
// for event type t.
func (b *Bus) ObserverCount(t EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.observers[t]) + len(b.funcs[t])
}

// WatcherCount returns the number of open Watch channels.
func (b *Bus) WatcherCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.watchers)
}

// Close closes all watch channels. Publishing after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return // Already closed
	default:
	}

	close(b.done)
	for ch := range b.watchers {
		close(ch)
	}
	b.watchers = nil
}
