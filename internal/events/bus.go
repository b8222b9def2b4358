// internal/events/bus.go
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/webloop/webloop/api/schemas"
)

// Event is the envelope delivered to listeners.
type Event struct {
	ID        string
	Timestamp time.Time
	Name      schemas.EventName
	Payload   any
}

// Handler consumes one event. Handlers run synchronously on the emitting
// goroutine; long work belongs on the listener's side of a channel.
type Handler func(Event)

// Bus is a local publish/subscribe registry: a listener list keyed by event
// name. Each recorder and engine instance owns its own bus, so multiple
// instances coexist without cross-talk. There is deliberately no global
// singleton.
type Bus struct {
	logger *zap.Logger

	mu        sync.RWMutex
	listeners map[schemas.EventName][]*listener
	closed    bool
}

type listener struct {
	handler Handler
}

// NewBus creates an empty bus. A nil logger falls back to a nop logger.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		logger:    logger.Named("events"),
		listeners: make(map[schemas.EventName][]*listener),
	}
}

// Subscribe registers a handler for one event name and returns an
// unsubscribe function. Subscribing on a closed bus is a no-op.
func (b *Bus) Subscribe(name schemas.EventName, h Handler) func() {
	if h == nil {
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}

	l := &listener{handler: h}
	b.listeners[name] = append(b.listeners[name], l)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.listeners[name]
		for i, cur := range subs {
			if cur == l {
				b.listeners[name] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(b.listeners[name]) == 0 {
			delete(b.listeners, name)
		}
	}
}

// Emit delivers an event to every listener registered for its name. The
// listener slice is copied under the lock so handlers may subscribe or
// unsubscribe reentrantly.
func (b *Bus) Emit(name schemas.EventName, payload any) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := b.listeners[name]
	subsCopy := make([]*listener, len(subs))
	copy(subsCopy, subs)
	b.mu.RUnlock()

	if len(subsCopy) == 0 {
		return
	}

	evt := Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Name:      name,
		Payload:   payload,
	}
	b.logger.Debug("Emitting event", zap.String("name", string(name)), zap.String("id", evt.ID))

	for _, l := range subsCopy {
		l.handler(evt)
	}
}

// Close drops all listeners and rejects further emits.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.listeners = make(map[schemas.EventName][]*listener)
}
