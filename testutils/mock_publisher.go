package testutils

import (
	"context"
	"sync"

	"github.com/evdnx/gospot/events"
)

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []events.Event
	Err    error
}

func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

func (p *MockPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *MockPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (p *MockPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}
