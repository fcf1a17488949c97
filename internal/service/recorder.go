package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"opensoak/internal/logger"
	"opensoak/internal/models"
	"opensoak/internal/publisher"
	"opensoak/internal/repository"
)

// recorder appends usage events for operator and schedule actions and
// forwards them to the publisher. The action has already happened by the
// time it is recorded, so failures are logged rather than returned.
type recorder struct {
	usage repository.UsageRepo
	pub   publisher.Publisher
	log   *logger.Logger
	now   func() time.Time
}

func newRecorder(usage repository.UsageRepo, pub publisher.Publisher, log *logger.Logger) *recorder {
	return &recorder{usage: usage, pub: pub, log: log, now: time.Now}
}

func (r *recorder) record(ctx context.Context, typ, desc string, meta map[string]any) {
	ev := models.UsageEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  r.now().UTC(),
		Type:        typ,
		Description: desc,
	}
	if len(meta) > 0 {
		ev.Metadata = meta
	}
	if err := r.usage.Append(ctx, ev); err != nil {
		r.log.Warnw("usage_event_append_failed", "type", typ, "error", err)
	}
	if err := r.pub.PublishEvent(ev); err != nil {
		r.log.Warnw("usage_event_publish_failed", "type", typ, "error", err)
	}
}
