package testing

import (
	"context"
	"sync"

	"github.com/amirphl/tailwind-mail/app/services"
)

// MockDispatchNotifier records broadcast events instead of publishing them
type MockDispatchNotifier struct {
	mu     sync.Mutex
	Events []services.BroadcastEvent
	Err    error
}

// NewMockDispatchNotifier creates a new mock notifier
func NewMockDispatchNotifier() *MockDispatchNotifier {
	return &MockDispatchNotifier{Events: make([]services.BroadcastEvent, 0)}
}

// NotifyBroadcast records the event, or fails with Err when set
func (m *MockDispatchNotifier) NotifyBroadcast(ctx context.Context, event services.BroadcastEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	return nil
}

// GetEvents returns a copy of the recorded events
func (m *MockDispatchNotifier) GetEvents() []services.BroadcastEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]services.BroadcastEvent(nil), m.Events...)
}

func (m *MockDispatchNotifier) Close() error { return nil }
