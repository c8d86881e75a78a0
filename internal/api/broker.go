package api

import (
	"sync"
)

// Event is one ingested webhook event as fanned out to live feeds.
type Event struct {
	Type string
	Data map[string]any
}

// TopicAll subscribes a feed to every event type.
const TopicAll = "*"

// EventBroker fans ingested events out to SSE/WebSocket feeds. Topics are
// event types; TopicAll receives everything.
type EventBroker interface {
	Subscribe(topic string) chan Event
	Unsubscribe(topic string, ch chan Event)
	Publish(evt Event)
}

// Broker is the in-process EventBroker used when no REDIS_URL is set.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{} // topic -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *Broker) Subscribe(topic string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = map[chan Event]struct{}{}
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	if m := b.subs[topic]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, topic)
		}
	}
	b.mu.Unlock()
	close(ch)
}

// Publish delivers evt to subscribers of its type and of TopicAll. Sends are
// non-blocking; a slow consumer drops events rather than stalling ingestion.
func (b *Broker) Publish(evt Event) {
	b.mu.Lock()
	for _, topic := range []string{evt.Type, TopicAll} {
		for ch := range b.subs[topic] {
			select {
			case ch <- evt:
			default:
			}
		}
	}
	b.mu.Unlock()
}
