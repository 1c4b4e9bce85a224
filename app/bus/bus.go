// Package bus carries "entitlement data changed, re-read it" signals between the
// components of one process and, through bridges, between processes.
package bus

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Topic string

const (
	// TopicEntitlementChanged is published after a purchase, a revoke or a
	// reconciliation downgrade.
	TopicEntitlementChanged Topic = "entitlement.changed"
	// TopicStorageChanged is published when the storage layer reports a write
	// made elsewhere (another process, another view).
	TopicStorageChanged Topic = "storage.changed"
)

type Event struct {
	Topic   Topic     `json:"topic"`
	PayerID string    `json:"payer_id,omitempty"`
	Key     string    `json:"key,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	Origin  string    `json:"origin,omitempty"`
	At      time.Time `json:"at"`
}

type Handler func(ctx context.Context, ev Event)

// Bus is a synchronous, best-effort publish/subscribe hub. Handlers run on the
// publisher's goroutine without the bus lock held, so a handler may publish.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic]map[uint64]Handler
	nextID uint64
	logger logrus.FieldLogger
}

func New(logger logrus.FieldLogger) *Bus {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Bus{
		subs:   make(map[Topic]map[uint64]Handler),
		logger: logger,
	}
}

// Subscribe registers h for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic Topic, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]Handler)
	}
	b.subs[topic][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[topic], id)
		})
	}
}

func (b *Bus) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[ev.Topic]))
	for _, h := range b.subs[ev.Topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(ctx, h, ev)
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.WithFields(logrus.Fields{
				"topic":    ev.Topic,
				"payer_id": ev.PayerID,
				"panic":    rec,
			}).Error("bus_handler_panic_recovered")
		}
	}()
	h(ctx, ev)
}
