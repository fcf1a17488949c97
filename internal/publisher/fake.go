package publisher

import (
	"sync"

	"opensoak/internal/models"
)

// Fake records everything published, for tests.
type Fake struct {
	mu       sync.Mutex
	statuses []StatusMessage
	events   []models.UsageEvent

	// PublishError, if set, is returned by both publish methods.
	PublishError error
	Closed       bool
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) PublishStatus(msg StatusMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.statuses = append(f.statuses, msg)
	return nil
}

func (f *Fake) PublishEvent(ev models.UsageEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Statuses returns a copy of the published status messages.
func (f *Fake) Statuses() []StatusMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]StatusMessage(nil), f.statuses...)
}

// Events returns a copy of the published usage events.
func (f *Fake) Events() []models.UsageEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.UsageEvent(nil), f.events...)
}
