package events

import (
	"listkeeper/internal/providers"
	"listkeeper/internal/structures"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const defaultBufferSize = 64

type PublisherInterface interface {
	Publish(event Event)
}

type BusInterface interface {
	PublisherInterface
	Subscribe() (*Subscription, error)
	Unsubscribe(id string)
	SubscriberCount() int
	Close()
}

// Subscription is one observer. Events is closed on Unsubscribe or Close.
type Subscription struct {
	ID     string
	Events <-chan Event
}

type Bus struct {
	mu         sync.RWMutex
	subs       map[string]chan Event
	bufferSize int
	closed     bool
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
}

func NewBus(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) BusInterface {
	size := conf.Events.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Bus{
		subs:       make(map[string]chan Event),
		bufferSize: size,
		logger:     logger,
		metrics:    metrics,
	}
}

func (b *Bus) Subscribe() (*Subscription, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	ch := make(chan Event, b.bufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return &Subscription{ID: id, Events: ch}, nil
	}
	b.subs[id] = ch
	count := len(b.subs)
	b.mu.Unlock()

	b.metrics.SetSubscribers(count)
	b.logger.Debugf(providers.TypeApp, "Subscriber %s connected (%d total)", id, count)
	return &Subscription{ID: id, Events: ch}, nil
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
		close(ch)
	}
	count := len(b.subs)
	b.mu.Unlock()

	if ok {
		b.metrics.SetSubscribers(count)
		b.logger.Debugf(providers.TypeApp, "Subscriber %s disconnected (%d total)", id, count)
	}
}

// Publish never blocks: a subscriber whose buffer is full misses the event.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warnf(providers.TypeApp, "Dropped %s event for slow subscriber %s", event.Type, id)
		}
	}
}

func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	b.metrics.SetSubscribers(0)
}

// AsPublisher narrows the bus to its publishing side for producers.
func AsPublisher(bus BusInterface) PublisherInterface {
	return bus
}
