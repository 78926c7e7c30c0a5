// Package events provides a typed publish/subscribe bus and a serial
// dispatch loop.
//
// Topics are declared once with a payload type, so publishers and
// subscribers cannot disagree about what travels on a topic:
//
//	var TopicClick = events.NewTopic[ClickEvent]("click")
//
//	unsub, err := events.Subscribe(bus, TopicClick, func(e ClickEvent) {
//	    fmt.Println(e.Source)
//	})
//	events.Publish(bus, TopicClick, ClickEvent{Source: "eye"})
//
// Delivery is synchronous on the publisher's goroutine. Code that mutates
// shared state should run on a Loop so that handlers never interleave.
package events

import (
	"sync"
)

// Topic names a channel of events carrying payloads of type T.
type Topic[T any] struct {
	name string
}

// NewTopic declares a topic.
func NewTopic[T any](name string) Topic[T] {
	return Topic[T]{name: name}
}

// Name returns the topic name.
func (t Topic[T]) Name() string {
	return t.name
}

type subscription struct {
	id uint64
	fn func(any)
}

// Tap observes every published event regardless of topic.
type Tap func(topic string, payload any)

// Bus routes published events to subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]subscription
	taps   []subscription
	nextID uint64
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]subscription),
	}
}

// Subscribe registers fn for topic t. The returned function removes the
// subscription and is safe to call more than once.
func Subscribe[T any](b *Bus, t Topic[T], fn func(T)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	b.nextID++
	id := b.nextID
	b.subs[t.name] = append(b.subs[t.name], subscription{
		id: id,
		fn: func(v any) { fn(v.(T)) },
	})

	return func() { b.unsubscribe(t.name, id) }, nil
}

// Publish delivers v to every subscriber of t and every tap, in
// subscription order. It returns the number of topic subscribers reached.
func Publish[T any](b *Bus, t Topic[T], v T) int {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return 0
	}
	// Copy so handlers may subscribe or unsubscribe while we deliver
	subs := append([]subscription(nil), b.subs[t.name]...)
	taps := append([]subscription(nil), b.taps...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(v)
	}
	for _, tap := range taps {
		tap.fn(published{topic: t.name, payload: v})
	}
	return len(subs)
}

type published struct {
	topic   string
	payload any
}

// AddTap registers a tap that sees every event published after it is added.
func (b *Bus) AddTap(tap Tap) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	b.nextID++
	id := b.nextID
	b.taps = append(b.taps, subscription{
		id: id,
		fn: func(v any) {
			p := v.(published)
			tap(p.topic, p.payload)
		},
	})

	return func() { b.removeTap(id) }, nil
}

// SubscriberCount returns how many subscribers a topic has.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Close drops all subscriptions. Later Subscribe calls fail with
// ErrBusClosed and Publish becomes a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string][]subscription)
	b.taps = nil
}

func (b *Bus) unsubscribe(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (b *Bus) removeTap(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.taps {
		if s.id == id {
			b.taps = append(b.taps[:i:i], b.taps[i+1:]...)
			return
		}
	}
}
