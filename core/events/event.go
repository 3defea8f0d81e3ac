package events

import "log/slog"

// Event is a structured record of a state change applied by an engine.
// Attributes are flat string pairs so downstream consumers (RPC, indexers,
// audit exports) can relay them without knowing the concrete event shape.
type Event struct {
	Type       string
	Attributes map[string]string
}

// Emitter broadcasts events to downstream subscribers.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events.
// Engines default to it so event emission stays optional.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// LogEmitter forwards events to a structured logger. The daemon installs it
// when no dedicated event sink is configured.
type LogEmitter struct {
	Logger *slog.Logger
}

// Emit implements the Emitter interface.
func (e LogEmitter) Emit(evt Event) {
	if e.Logger == nil {
		return
	}
	attrs := make([]any, 0, len(evt.Attributes)*2)
	for key, value := range evt.Attributes {
		attrs = append(attrs, slog.String(key, value))
	}
	e.Logger.Info(evt.Type, attrs...)
}
