package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"opensoak/internal/logger"
	"opensoak/internal/models"
	"opensoak/internal/repository"
)

// SchedulerService turns schedules into desired-state changes once per
// minute. It never touches hardware.
type SchedulerService struct {
	schedules repository.ScheduleRepo
	desired   repository.DesiredStateRepo
	settings  repository.SettingsRepo
	rec       *recorder
	log       *logger.Logger
	now       func() time.Time

	lastMinute string
}

func NewSchedulerService(schedules repository.ScheduleRepo, desired repository.DesiredStateRepo, settings repository.SettingsRepo, rec *recorder, log *logger.Logger) *SchedulerService {
	return &SchedulerService{
		schedules: schedules,
		desired:   desired,
		settings:  settings,
		rec:       rec,
		log:       log,
		now:       time.Now,
	}
}

// Run evaluates at the given interval until ctx is canceled.
func (s *SchedulerService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	s.evaluateLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.evaluateLogged(ctx)
		}
	}
}

func (s *SchedulerService) evaluateLogged(ctx context.Context) {
	if err := s.Evaluate(ctx); err != nil {
		s.log.Errorw("schedule_evaluation_failed", "error", err)
	}
}

// Evaluate applies the schedules for the current local minute. Each minute
// is evaluated at most once. Ends run before starts so back-to-back
// schedules hand over cleanly.
func (s *SchedulerService) Evaluate(ctx context.Context) error {
	now := s.now()
	minute := now.Format("2006-01-02 " + clockLayout)
	if minute == s.lastMinute {
		return nil
	}
	s.lastMinute = minute

	list, err := s.schedules.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active schedules: %w", err)
	}
	clock, day := now.Format(clockLayout), weekday(now)

	var errs []error
	ended := false
	for _, sc := range list {
		if sc.EndTime == clock && scheduledOn(sc, day) {
			errs = append(errs, s.endSession(ctx, sc.Name))
			ended = true
		}
	}

	if !ended {
		d, err := s.desired.Load(ctx)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("load desired state: %w", err))
		case d.ScheduledSession.Active && !d.ScheduledSession.ExpiresAt.IsZero() && !now.Before(d.ScheduledSession.ExpiresAt):
			errs = append(errs, s.endSession(ctx, "expired session"))
		}
	}

	for _, sc := range list {
		if sc.StartTime == clock && scheduledOn(sc, day) {
			errs = append(errs, s.startSession(ctx, now, sc))
		}
	}
	return errors.Join(errs...)
}

func (s *SchedulerService) startSession(ctx context.Context, now time.Time, sc models.Schedule) error {
	expires, err := sessionEnd(now, sc.EndTime)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", sc.Name, err)
	}

	if err := s.settings.SetSetPoint(ctx, sc.TargetTemp); err != nil {
		return fmt.Errorf("schedule %q: %w", sc.Name, err)
	}
	heat := true
	if err := s.desired.UpdateToggles(ctx, models.TogglePatch{Heater: &heat}); err != nil {
		return fmt.Errorf("schedule %q: %w", sc.Name, err)
	}
	if err := s.desired.SetScheduledSession(ctx, true, expires); err != nil {
		return fmt.Errorf("schedule %q: %w", sc.Name, err)
	}

	s.log.Infow("schedule_started", "schedule", sc.Name, "target_f", sc.TargetTemp, "until", expires)
	s.rec.record(ctx, models.EventSessionStart, fmt.Sprintf("schedule %q started", sc.Name), map[string]any{
		"schedule":   sc.Name,
		"target_f":   sc.TargetTemp,
		"expires_at": expires.UTC(),
	})
	return nil
}

// endSession turns heat off and reverts the set point. A running manual
// soak owns both, so only the session flag is cleared then.
func (s *SchedulerService) endSession(ctx context.Context, name string) error {
	d, err := s.desired.Load(ctx)
	if err != nil {
		return fmt.Errorf("end %q: load desired state: %w", name, err)
	}

	if !d.ManualSoak.Active {
		heat := false
		if err := s.desired.UpdateToggles(ctx, models.TogglePatch{Heater: &heat}); err != nil {
			return fmt.Errorf("end %q: %w", name, err)
		}
		cfg, err := s.settings.Load(ctx)
		if err != nil {
			return fmt.Errorf("end %q: load settings: %w", name, err)
		}
		if err := s.settings.SetSetPoint(ctx, cfg.DefaultRestTemp); err != nil {
			return fmt.Errorf("end %q: %w", name, err)
		}
	}
	if err := s.desired.SetScheduledSession(ctx, false, time.Time{}); err != nil {
		return fmt.Errorf("end %q: %w", name, err)
	}

	s.log.Infow("schedule_ended", "schedule", name, "soak_active", d.ManualSoak.Active)
	s.rec.record(ctx, models.EventSessionEnd, fmt.Sprintf("schedule %q ended", name), map[string]any{
		"schedule": name,
	})
	return nil
}

// sessionEnd is the next occurrence of clock after now, in now's location.
func sessionEnd(now time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("end_time %q: %w", clock, err)
	}
	end := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	if !end.After(now) {
		end = end.AddDate(0, 0, 1)
	}
	return end, nil
}
