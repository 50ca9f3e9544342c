package events

import (
	"context"
	"sync"
	"testing"
	"time"
)

// mockEmitter implements Emitter for tests.
type mockEmitter struct {
	mu      sync.Mutex
	events  []*SecurityEvent
	emitErr error
	delay   time.Duration
}

func (m *mockEmitter) Emit(ctx context.Context, event *SecurityEvent) error {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay):
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.emitErr
}

func (m *mockEmitter) Close() error { return nil }

func (m *mockEmitter) getEvents() []*SecurityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events
}

func TestEmitAsync_NilEmitter(t *testing.T) {
	// Should not panic
	EmitAsync(nil, context.Background(), &SecurityEvent{Type: TypeLoginFailure})
}

func TestEmitAsync_NilEvent(t *testing.T) {
	emitter := &mockEmitter{}

	EmitAsync(emitter, context.Background(), nil)
	time.Sleep(10 * time.Millisecond)

	if got := emitter.getEvents(); len(got) != 0 {
		t.Errorf("expected 0 events, got %d", len(got))
	}
}

func TestEmitAsync_SuccessfulEmit(t *testing.T) {
	emitter := &mockEmitter{}
	event := &SecurityEvent{
		Type:      TypeReplayDetected,
		SubjectID: "user-1",
		IP:        "10.0.0.1",
	}

	EmitAsync(emitter, context.Background(), event)
	time.Sleep(100 * time.Millisecond)

	got := emitter.getEvents()
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Type != TypeReplayDetected {
		t.Errorf("event type = %q, want %q", got[0].Type, TypeReplayDetected)
	}
	if got[0].SubjectID != "user-1" {
		t.Errorf("event subject_id = %q, want user-1", got[0].SubjectID)
	}
}

func TestEmitAsync_UsesBackgroundContext(t *testing.T) {
	emitter := &mockEmitter{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // request context already gone

	EmitAsync(emitter, ctx, &SecurityEvent{Type: TypeMassInvalidation})
	time.Sleep(100 * time.Millisecond)

	if got := emitter.getEvents(); len(got) != 1 {
		t.Errorf("expected 1 event (context.Background used), got %d", len(got))
	}
}
