package service

import (
	"context"
	"log/slog"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: notifications for whatever front end is attached
// ─────────────────────────────────────────────────────────────

// EventEmitter pushes named events with a JSON-encodable payload. Services
// and editor sessions receive it instead of a concrete transport so they
// can be tested with MockEmitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Event names emitted by the page service and the page watcher.
const (
	EventPageCreated  = "page:created"
	EventPageUpdated  = "page:updated"
	EventPageDeleted  = "page:deleted"
	EventPageReloaded = "page:reloaded"
	EventPruned       = "revisions:pruned"
)

// LogEmitter writes events to a logger. It is the emitter of the
// standalone server, where no UI listens.
type LogEmitter struct {
	Logger *slog.Logger
}

func (e LogEmitter) Emit(_ context.Context, event string, data any) {
	e.Logger.Debug("[Event] "+event, "data", data)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Names returns the recorded event names in order.
func (m *MockEmitter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.Events))
	for i, e := range m.Events {
		names[i] = e.Event
	}
	return names
}
