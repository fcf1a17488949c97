package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"opensoak/internal/models"
	"opensoak/internal/repository"
)

// usageEventTypes are the filter values List accepts.
var usageEventTypes = map[string]bool{
	models.EventSoakStart:    true,
	models.EventSoakExpired:  true,
	models.EventSoakCancel:   true,
	models.EventSessionStart: true,
	models.EventSessionEnd:   true,
	models.EventControl:      true,
	models.EventSettings:     true,
	models.EventFault:        true,
	models.EventReset:        true,
	models.EventShutdown:     true,
	models.EventError:        true,
}

// EventLogService reads the usage log.
type EventLogService struct {
	usage repository.UsageRepo
}

func NewEventLogService(usage repository.UsageRepo) *EventLogService {
	return &EventLogService{usage: usage}
}

// List returns events in [f.From, f.To], newest first. An empty type matches
// every event; an unknown one is a validation error.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.UsageEvent, error) {
	from, to, err := normalizeAndValidateRange(f.From, f.To)
	if err != nil {
		return nil, err
	}
	typ := normalizeEventType(f.Type)
	if typ != "" && !usageEventTypes[typ] {
		return nil, fmt.Errorf("%w: unknown event type %q", ErrValidation, typ)
	}
	events, err := s.usage.List(ctx, from, to, typ)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.UsageEvent{}
	}
	return events, nil
}

// toUTC returns t in UTC, preserving zero time values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeEventType(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// normalizeAndValidateRange puts both bounds in UTC and rejects from > to.
// Zero bounds are open.
func normalizeAndValidateRange(from, to time.Time) (time.Time, time.Time, error) {
	from, to = toUTC(from), toUTC(to)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from %s is after to %s", ErrValidation,
			from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return from, to, nil
}
