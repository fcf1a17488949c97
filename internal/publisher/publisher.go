// Package publisher pushes controller status and usage events to an MQTT broker.
package publisher

import (
	"encoding/json"
	"time"

	"opensoak/internal/models"
)

// Topic suffixes below the configured prefix.
const (
	TopicStatus = "status"
	TopicEvents = "events"
)

// Publisher publishes controller state. Implementations must not block the
// caller on network I/O.
type Publisher interface {
	// PublishStatus sends a retained status snapshot.
	PublishStatus(msg StatusMessage) error
	// PublishEvent sends one usage event.
	PublishEvent(ev models.UsageEvent) error
	Close() error
}

// StatusMessage is the retained status payload.
type StatusMessage struct {
	Timestamp    time.Time       `json:"timestamp"`
	Status       string          `json:"status"`
	Message      string          `json:"message,omitempty"`
	Locked       bool            `json:"locked"`
	FlowFailures int             `json:"flow_failures"`
	TemperatureF float64         `json:"temperature_f"`
	HiLimitF     float64         `json:"hi_limit_f"`
	Relays       map[string]bool `json:"relays,omitempty"`
}

// FormatStatus renders msg as JSON with a UTC timestamp.
func FormatStatus(msg StatusMessage) ([]byte, error) {
	msg.Timestamp = msg.Timestamp.UTC()
	return json.Marshal(msg)
}

// FormatEvent renders ev as JSON with a UTC timestamp.
func FormatEvent(ev models.UsageEvent) ([]byte, error) {
	ev.OccurredAt = ev.OccurredAt.UTC()
	return json.Marshal(ev)
}

// offlinePayload is the last-will message left on the status topic.
var offlinePayload = []byte(`{"status":"OFFLINE"}`)

// Nop drops everything. Used when no broker is configured.
type Nop struct{}

func (Nop) PublishStatus(StatusMessage) error    { return nil }
func (Nop) PublishEvent(models.UsageEvent) error { return nil }
func (Nop) Close() error                         { return nil }
