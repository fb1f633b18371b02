package core

import (
	"sync"
	"time"

	"rasbridge/internal/ras"
)

// EventType identifies the kind of event fired on the bus.
type EventType int

const (
	EventConnectionUp EventType = iota
	EventConnectionDown
	EventStatistics
	EventConfigReloaded
)

func (t EventType) String() string {
	switch t {
	case EventConnectionUp:
		return "connection_up"
	case EventConnectionDown:
		return "connection_down"
	case EventStatistics:
		return "statistics"
	case EventConfigReloaded:
		return "config_reloaded"
	default:
		return "unknown"
	}
}

// Event carries data about something that happened in the system.
type Event struct {
	Type    EventType
	Payload any
}

// ConnectionPayload is the payload for EventConnectionUp and
// EventConnectionDown.
type ConnectionPayload struct {
	Connection ras.Connection
	At         time.Time
}

// StatisticsPayload is the payload for EventStatistics.
type StatisticsPayload struct {
	EntryName string
	Stats     ras.Statistics
}

// Handler is a callback for bus subscribers.
type Handler func(Event)

// EventBus provides pub/sub between system components.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewEventBus creates a ready-to-use event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe registers a handler for a given event type.
func (eb *EventBus) Subscribe(t EventType, h Handler) {
	eb.mu.Lock()
	eb.handlers[t] = append(eb.handlers[t], h)
	eb.mu.Unlock()
}

// Publish fires an event to all subscribed handlers synchronously.
func (eb *EventBus) Publish(e Event) {
	eb.mu.RLock()
	handlers := eb.handlers[e.Type]
	eb.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// PublishAsync fires an event to all subscribed handlers in goroutines.
func (eb *EventBus) PublishAsync(e Event) {
	eb.mu.RLock()
	handlers := eb.handlers[e.Type]
	eb.mu.RUnlock()

	for _, h := range handlers {
		go h(e)
	}
}
