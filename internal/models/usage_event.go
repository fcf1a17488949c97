package models

import "time"

// Usage event types.
const (
	EventSoakStart    = "SOAK_START"
	EventSoakExpired  = "SOAK_EXPIRED"
	EventSoakCancel   = "SOAK_CANCEL"
	EventSessionStart = "SESSION_START"
	EventSessionEnd   = "SESSION_END"
	EventControl      = "CONTROL"
	EventSettings     = "SETTINGS"
	EventFault        = "FAULT"
	EventReset        = "RESET"
	EventShutdown     = "SHUTDOWN"
	EventError        = "ERROR"
)

// UsageEvent is a single append-only log entry.
type UsageEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
