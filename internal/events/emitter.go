package events

import "context"

// Emitter emits security events. Callers use it best-effort: log and ignore errors.
type Emitter interface {
	// Emit sends a single event. Implementations may block briefly; call from
	// a goroutine if needed. Returns an error only on write failure.
	Emit(ctx context.Context, event *SecurityEvent) error
	// Close releases resources (e.g. the Kafka writer). Safe to call if already closed.
	Close() error
}
