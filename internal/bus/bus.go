package bus

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Topic identifies a domain notification.
type Topic string

const (
	EventCreated    Topic = "event.created"
	DecisionChanged Topic = "event.decision_changed"
	EventExpired    Topic = "event.expired"
)

// Note is the envelope published on the bus.
type Note struct {
	Topic     Topic
	Timestamp time.Time
	Data      any
}

// DecisionChange is the payload for DecisionChanged notes. Decision is empty
// when the participant row was removed.
type DecisionChange struct {
	EventID  int
	GuildID  string
	UserID   string
	Decision string
}

// EventRef is the payload for EventCreated and EventExpired notes.
type EventRef struct {
	EventID int
	GuildID string
	Name    string
}

type handler func(ctx context.Context, n Note)

// Bus is a concurrency-safe synchronous dispatcher. Handlers run in
// registration order during Publish; handler panics are recovered and logged
// so a subscriber can never break the publishing pipeline.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Topic][]handler
}

func New() *Bus {
	return &Bus{subscribers: make(map[Topic][]handler)}
}

func (b *Bus) Subscribe(topic Topic, h func(ctx context.Context, n Note)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], h)
}

func (b *Bus) Publish(ctx context.Context, topic Topic, data any) {
	b.mu.RLock()
	handlers := append([]handler(nil), b.subscribers[topic]...)
	b.mu.RUnlock()

	n := Note{Topic: topic, Timestamp: time.Now(), Data: data}
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("bus handler for %s panicked: %v", topic, r)
				}
			}()
			h(ctx, n)
		}()
	}
}
