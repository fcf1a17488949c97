package service

import (
	"context"
	"fmt"
	"math"

	"opensoak/internal/engine"
	"opensoak/internal/models"
	"opensoak/internal/repository"
)

type SettingsService struct {
	repo repository.SettingsRepo
	rec  *recorder
}

func NewSettingsService(repo repository.SettingsRepo, rec *recorder) *SettingsService {
	return &SettingsService{repo: repo, rec: rec}
}

func (s *SettingsService) Get(ctx context.Context) (models.Settings, error) {
	return s.repo.Load(ctx)
}

// Update validates the patch against the stored settings, applies it and
// returns the result.
func (s *SettingsService) Update(ctx context.Context, p models.SettingsPatch) (models.Settings, error) {
	cur, err := s.repo.Load(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	next := applyPatch(cur, p)
	if err := validateSettings(next); err != nil {
		return models.Settings{}, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return models.Settings{}, err
	}
	s.rec.record(ctx, models.EventSettings, "settings updated", settingsMeta(p))
	return s.repo.Load(ctx)
}

func validateSettings(s models.Settings) error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"set_point", s.SetPoint},
		{"default_rest_temp", s.DefaultRestTemp},
		{"hysteresis_upper", s.HysteresisUpper},
		{"hysteresis_lower", s.HysteresisLower},
		{"max_temp_limit", s.MaxTempLimit},
		{"circ_pump_watts", s.CircPumpWatts},
		{"heater_watts", s.HeaterWatts},
		{"jet_pump_watts", s.JetPumpWatts},
		{"light_watts", s.LightWatts},
		{"ozone_watts", s.OzoneWatts},
		{"cost_per_kwh", s.CostPerKWh},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrValidation, f.name)
		}
	}
	if s.SetPoint > MaxSetPointF {
		return fmt.Errorf("%w: set_point %.1f exceeds %.0f", ErrValidation, s.SetPoint, MaxSetPointF)
	}
	if s.DefaultRestTemp > MaxSetPointF {
		return fmt.Errorf("%w: default_rest_temp %.1f exceeds %.0f", ErrValidation, s.DefaultRestTemp, MaxSetPointF)
	}
	if s.HysteresisUpper <= 0 || s.HysteresisLower <= 0 {
		return fmt.Errorf("%w: hysteresis bands must be positive", ErrValidation)
	}
	if s.MaxTempLimit >= engine.HiLimitF {
		return fmt.Errorf("%w: max_temp_limit %.1f must stay below the %.0f F hi-limit", ErrValidation, s.MaxTempLimit, engine.HiLimitF)
	}
	return nil
}

func applyPatch(s models.Settings, p models.SettingsPatch) models.Settings {
	for _, f := range patchFields(&s, p) {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return s
}

func settingsMeta(p models.SettingsPatch) map[string]any {
	meta := map[string]any{}
	for _, f := range patchFields(&models.Settings{}, p) {
		if f.src != nil {
			meta[f.name] = *f.src
		}
	}
	return meta
}

type patchField struct {
	name string
	dst  *float64
	src  *float64
}

func patchFields(s *models.Settings, p models.SettingsPatch) []patchField {
	return []patchField{
		{"set_point", &s.SetPoint, p.SetPoint},
		{"default_rest_temp", &s.DefaultRestTemp, p.DefaultRestTemp},
		{"hysteresis_upper", &s.HysteresisUpper, p.HysteresisUpper},
		{"hysteresis_lower", &s.HysteresisLower, p.HysteresisLower},
		{"max_temp_limit", &s.MaxTempLimit, p.MaxTempLimit},
		{"circ_pump_watts", &s.CircPumpWatts, p.CircPumpWatts},
		{"heater_watts", &s.HeaterWatts, p.HeaterWatts},
		{"jet_pump_watts", &s.JetPumpWatts, p.JetPumpWatts},
		{"light_watts", &s.LightWatts, p.LightWatts},
		{"ozone_watts", &s.OzoneWatts, p.OzoneWatts},
		{"cost_per_kwh", &s.CostPerKWh, p.CostPerKWh},
	}
}
