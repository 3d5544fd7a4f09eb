// Package eventbus implements the in-memory publish/subscribe bus that
// carries tenant lifecycle events and activity logs from sessions to their
// streaming observers. Topics are dot-separated; subscriptions may use "*"
// as a segment wildcard, so one observer can watch "tenant.acme.*".
package eventbus

import (
	"strings"
	"sync"
	"time"
)

// Event is one published message.
type Event struct {
	Topic string
	Data  any
}

// subscription is one observer channel. A subscription is closed exactly
// once, either by its own unsubscribe function or by a topic-level close.
type subscription struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// send delivers the event, waiting at most timeout for buffer space. A slow
// observer loses the event rather than stalling the publisher.
func (s *subscription) send(ev Event, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- ev:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// EventBus routes published events to every subscription whose pattern
// matches the event's topic. Publishing to a topic with no subscribers is a
// no-op; sessions publish regardless of whether anyone is watching.
type EventBus struct {
	mu     sync.RWMutex
	topics map[string]map[int64]*subscription // pattern -> id -> subscription
	nextID int64
}

// New creates an empty bus.
func New() *EventBus {
	return &EventBus{
		topics: make(map[string]map[int64]*subscription),
	}
}

// Subscribe registers an observer for the topic pattern. Events arrive on the
// returned channel, which is closed when the subscription ends. The returned
// function unsubscribes; calling it more than once is harmless.
func (bus *EventBus) Subscribe(topic string, bufferSize int) (<-chan Event, func()) {
	sub := &subscription{ch: make(chan Event, bufferSize)}

	bus.mu.Lock()
	bus.nextID++
	id := bus.nextID
	if bus.topics[topic] == nil {
		bus.topics[topic] = make(map[int64]*subscription)
	}
	bus.topics[topic][id] = sub
	bus.mu.Unlock()

	unsubscribe := func() {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		if subs, ok := bus.topics[topic]; ok {
			if s, ok := subs[id]; ok {
				s.close()
				delete(subs, id)
				if len(subs) == 0 {
					delete(bus.topics, topic)
				}
			}
		}
	}
	return sub.ch, unsubscribe
}

// Publish delivers the event to every matching subscription. Each delivery
// waits at most timeout; the publisher never blocks longer than
// timeout per slow observer.
func (bus *EventBus) Publish(topic string, data any, timeout time.Duration) {
	ev := Event{Topic: topic, Data: data}

	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for pattern, subs := range bus.topics {
		if !matchTopic(pattern, topic) {
			continue
		}
		for _, sub := range subs {
			sub.send(ev, timeout)
		}
	}
}

// CloseTopic disconnects every subscription registered under exactly this
// topic pattern.
func (bus *EventBus) CloseTopic(topic string) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if subs, ok := bus.topics[topic]; ok {
		for _, sub := range subs {
			sub.close()
		}
		delete(bus.topics, topic)
	}
}

// CloseAllForPattern disconnects every subscription whose registered pattern
// matches the given pattern. A terminating session uses this with
// "tenant.<id>.*" to drop all of its observers at once.
func (bus *EventBus) CloseAllForPattern(pattern string) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for topic, subs := range bus.topics {
		if !matchTopic(pattern, topic) {
			continue
		}
		for _, sub := range subs {
			sub.close()
		}
		delete(bus.topics, topic)
	}
}

// Shutdown disconnects everything.
func (bus *EventBus) Shutdown() {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for _, subs := range bus.topics {
		for _, sub := range subs {
			sub.close()
		}
	}
	bus.topics = make(map[string]map[int64]*subscription)
}

// matchTopic reports whether a dot-separated topic matches a pattern. "*"
// matches one whole segment; a bare "*" matches any topic. Matching is
// symmetric enough for both directions the bus needs: subscription patterns
// against published topics, and close patterns against subscription patterns.
func matchTopic(pattern, topic string) bool {
	if pattern == "" || topic == "" {
		return false
	}
	if pattern == "*" || pattern == topic {
		return true
	}
	pp := strings.Split(pattern, ".")
	tp := strings.Split(topic, ".")
	if len(pp) != len(tp) {
		return false
	}
	for i := range pp {
		if pp[i] != "*" && pp[i] != tp[i] {
			return false
		}
	}
	return true
}
