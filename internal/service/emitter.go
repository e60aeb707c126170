package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples services from the UI transport
// ─────────────────────────────────────────────────────────────

// EventEmitter pushes events to the UI. The desktop app delegates to
// wailsRuntime.EventsEmit; the headless server fans out to subscribers.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Event names.
const (
	EventCanvasChanged    = "canvas:changed"
	EventSelectionChanged = "selection:changed"
	EventGuidesChanged    = "guides:changed"
	EventViewportChanged  = "viewport:changed"
	EventGenStarted       = "gen:started"
	EventGenCompleted     = "gen:completed"
	EventGenFailed        = "gen:failed"
	EventTransformDone    = "transform:completed"
	EventTransformFailed  = "transform:failed"
	EventChatMessage      = "chat:message"
	EventIntakeAdded      = "intake:added"
)

// MockEmitter records every emission for test assertions.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission.
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
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Event
	}
	return out
}

// Last returns the most recent emission of event.
func (m *MockEmitter) Last(event string) (EmittedEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Events) - 1; i >= 0; i-- {
		if m.Events[i].Event == event {
			return m.Events[i], true
		}
	}
	return EmittedEvent{}, false
}

// noopEmitter discards events; used when no UI is attached.
type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, string, any) {}

// Discard is an EventEmitter that drops every event.
var Discard EventEmitter = noopEmitter{}
