package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

// TopicAll subscribes a handler to every topic.
const TopicAll = "*"

// Handler receives events from the Bus.
type Handler func(ctx context.Context, ev domain.Event)

// Bus is an in-process publish/subscribe event bus. Handlers run on their own
// goroutines so a slow or failing subscriber never blocks the publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]Handler
	nextID uint64
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewBus creates an empty Bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subs:   make(map[string]map[uint64]Handler),
		logger: logger.With(slog.String("component", "event_bus")),
	}
}

// Subscribe registers h for topic and returns a function that removes it.
// The returned function is safe to call more than once.
func (b *Bus) Subscribe(topic string, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]Handler)
	}
	b.subs[topic][id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[topic], id)
			if len(b.subs[topic]) == 0 {
				delete(b.subs, topic)
			}
		})
	}
}

// Publish delivers ev to the subscribers of its topic and to TopicAll
// subscribers. Delivery outlives ctx cancellation but keeps its values.
func (b *Bus) Publish(ctx context.Context, ev domain.Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[ev.Topic])+len(b.subs[TopicAll]))
	for _, h := range b.subs[ev.Topic] {
		handlers = append(handlers, h)
	}
	if ev.Topic != TopicAll {
		for _, h := range b.subs[TopicAll] {
			handlers = append(handlers, h)
		}
	}
	b.mu.RUnlock()

	dctx := context.WithoutCancel(ctx)
	for _, h := range handlers {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event handler panicked",
						slog.String("topic", ev.Topic),
						slog.Any("panic", r),
					)
				}
			}()
			h(dctx, ev)
		}(h)
	}
}

// Wait blocks until every in-flight delivery has returned.
func (b *Bus) Wait() {
	b.wg.Wait()
}

// Subscribers returns the number of handlers registered for topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
