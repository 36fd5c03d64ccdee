// Package events fans session changes out to stream subscribers.
package events

import (
	"strings"
	"sync"
)

const defaultBuffer = 8

// Broker delivers values published on a topic to every current subscriber
// of that topic. Slow subscribers lose their oldest pending value rather
// than blocking the publisher.
type Broker[T any] struct {
	buffer int

	mu     sync.Mutex
	subs   map[string]map[int]chan T
	nextID int
}

// NewBroker returns a broker whose subscriber channels hold buffer values.
func NewBroker[T any](buffer int) *Broker[T] {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Broker[T]{buffer: buffer, subs: make(map[string]map[int]chan T)}
}

// Subscribe returns a channel of values published on topic and a cancel
// function that closes it.
func (b *Broker[T]) Subscribe(topic string) (<-chan T, func()) {
	topic = strings.TrimSpace(topic)
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]chan T)
	}
	b.subs[topic][id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if m := b.subs[topic]; m != nil {
				delete(m, id)
				if len(m) == 0 {
					delete(b.subs, topic)
				}
			}
			close(ch)
		})
	}
}

// Publish sends v to every subscriber of topic without blocking.
func (b *Broker[T]) Publish(topic string, v T) {
	topic = strings.TrimSpace(topic)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[topic] {
		push(ch, v)
	}
}

// Subscribers reports how many subscribers topic has.
func (b *Broker[T]) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[strings.TrimSpace(topic)])
}

func push[T any](out chan T, v T) {
	select {
	case out <- v:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	select {
	case out <- v:
	default:
	}
}
