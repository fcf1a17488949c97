package service

import (
	"context"
	"fmt"
	"time"

	"opensoak/internal/models"
	"opensoak/internal/repository"
)

type ControlService struct {
	desired  repository.DesiredStateRepo
	settings repository.SettingsRepo
	rec      *recorder
	now      func() time.Time
}

func NewControlService(desired repository.DesiredStateRepo, settings repository.SettingsRepo, rec *recorder) *ControlService {
	return &ControlService{desired: desired, settings: settings, rec: rec, now: time.Now}
}

// UpdateToggles applies the named toggles and returns the new desired state.
func (s *ControlService) UpdateToggles(ctx context.Context, p models.TogglePatch) (models.DesiredState, error) {
	meta := togglesMeta(p)
	if len(meta) == 0 {
		return models.DesiredState{}, fmt.Errorf("%w: no toggles given", ErrValidation)
	}
	if err := s.desired.UpdateToggles(ctx, p); err != nil {
		return models.DesiredState{}, err
	}
	s.rec.record(ctx, models.EventControl, "toggles updated", meta)
	return s.desired.Load(ctx)
}

// StartSoak raises the set point to p.TargetF, asks for heat and arms the
// soak expiry. The engine reverts the set point when the soak expires.
func (s *ControlService) StartSoak(ctx context.Context, p SoakParams) (models.DesiredState, error) {
	if err := validateSoak(p); err != nil {
		return models.DesiredState{}, err
	}
	expires := s.now().Add(p.Duration)

	if err := s.settings.SetSetPoint(ctx, p.TargetF); err != nil {
		return models.DesiredState{}, err
	}
	if err := s.desired.StartManualSoak(ctx, expires); err != nil {
		return models.DesiredState{}, err
	}
	heat := true
	if err := s.desired.UpdateToggles(ctx, models.TogglePatch{Heater: &heat}); err != nil {
		return models.DesiredState{}, err
	}

	s.rec.record(ctx, models.EventSoakStart, fmt.Sprintf("manual soak to %.1f F for %s", p.TargetF, p.Duration), map[string]any{
		"target_f":   p.TargetF,
		"expires_at": expires.UTC(),
	})
	return s.desired.Load(ctx)
}

// CancelSoak ends an active soak early and reverts the set point. Without
// an active soak it returns the state unchanged.
func (s *ControlService) CancelSoak(ctx context.Context) (models.DesiredState, error) {
	st, err := s.desired.Load(ctx)
	if err != nil {
		return models.DesiredState{}, err
	}
	if !st.ManualSoak.Active {
		return st, nil
	}

	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return models.DesiredState{}, err
	}
	if err := s.settings.SetSetPoint(ctx, cfg.DefaultRestTemp); err != nil {
		return models.DesiredState{}, err
	}
	if err := s.desired.ClearManualSoak(ctx); err != nil {
		return models.DesiredState{}, err
	}

	s.rec.record(ctx, models.EventSoakCancel, "manual soak cancelled", map[string]any{
		"set_point": cfg.DefaultRestTemp,
	})
	return s.desired.Load(ctx)
}

func validateSoak(p SoakParams) error {
	if p.TargetF <= 0 || p.TargetF > MaxSetPointF {
		return fmt.Errorf("%w: soak target %.1f must be in (0, %.0f]", ErrValidation, p.TargetF, MaxSetPointF)
	}
	if p.Duration < MinSoakDuration || p.Duration > MaxSoakDuration {
		return fmt.Errorf("%w: soak duration %s must be between %s and %s", ErrValidation, p.Duration, MinSoakDuration, MaxSoakDuration)
	}
	return nil
}

func togglesMeta(p models.TogglePatch) map[string]any {
	meta := map[string]any{}
	for name, v := range map[string]*bool{
		models.ComponentCircPump: p.CircPump,
		models.ComponentHeater:   p.Heater,
		models.ComponentJetPump:  p.JetPump,
		models.ComponentLight:    p.Light,
		models.ComponentOzone:    p.Ozone,
	} {
		if v != nil {
			meta[name] = *v
		}
	}
	return meta
}
