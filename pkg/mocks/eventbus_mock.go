package mocks

import (
	"context"
	"sync"

	"github.com/covena/covena/pkg/eventbus"
	"github.com/covena/covena/pkg/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockEventBus is a mock implementation of eventbus.EventBus.
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, key string, event eventbus.Event) error {
	args := m.Called(ctx, key, event)

	return args.Error(0)
}

func (m *MockEventBus) Handle(eventType events.EventType, handler eventbus.EventHandler) error {
	args := m.Called(eventType, handler)

	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()

	return args.Error(0)
}

func (m *MockEventBus) GenerateID() string {
	return uuid.New().String()
}

// CapturingPublisher records published events in memory so tests can assert
// on dispatch counts without a running bus.
type CapturingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *CapturingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

// Events returns a snapshot of everything published so far.
func (p *CapturingPublisher) Events() []eventbus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]eventbus.Event(nil), p.events...)
}

// EventsOfType returns published events matching the given type.
func (p *CapturingPublisher) EventsOfType(eventType events.EventType) []eventbus.Event {
	var matched []eventbus.Event

	for _, event := range p.Events() {
		if event.GetType() == eventType {
			matched = append(matched, event)
		}
	}

	return matched
}
