package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"opensoak/internal/models"
	"opensoak/internal/repository"
)

// EnergyReport combines flushed energy totals with the engine's runtime
// that has not been flushed yet.
type EnergyReport struct {
	From      time.Time             `json:"from"`
	To        time.Time             `json:"to"`
	Persisted []models.EnergyTotal  `json:"persisted"`
	Pending   []models.EnergySample `json:"pending"`
	TotalKWh  float64               `json:"total_kwh"`
	TotalCost float64               `json:"total_cost"`
}

type TelemetryService struct {
	engine   SafetyEngine
	thermal  repository.ThermalRepo
	energy   repository.EnergyRepo
	settings repository.SettingsRepo
	now      func() time.Time
}

func NewTelemetryService(eng SafetyEngine, thermal repository.ThermalRepo, energy repository.EnergyRepo, settings repository.SettingsRepo) *TelemetryService {
	return &TelemetryService{engine: eng, thermal: thermal, energy: energy, settings: settings, now: time.Now}
}

func (s *TelemetryService) ThermalEvents(ctx context.Context, typ string, limit int) ([]models.ThermalEvent, error) {
	typ = strings.ToLower(strings.TrimSpace(typ))
	switch typ {
	case "", models.ThermalHeat, models.ThermalCool:
	default:
		return nil, fmt.Errorf("%w: thermal type %q must be %s or %s", ErrValidation, typ, models.ThermalHeat, models.ThermalCool)
	}
	return s.thermal.List(ctx, typ, clampLimit(limit))
}

// Energy sums persisted samples in [from, to]. Unflushed runtime is added
// when the range reaches the present.
func (s *TelemetryService) Energy(ctx context.Context, from, to time.Time) (EnergyReport, error) {
	from, to, err := normalizeAndValidateRange(from, to)
	if err != nil {
		return EnergyReport{}, err
	}

	totals, err := s.energy.Totals(ctx, from, to)
	if err != nil {
		return EnergyReport{}, err
	}
	rep := EnergyReport{From: from, To: to, Persisted: totals, Pending: []models.EnergySample{}}
	if rep.Persisted == nil {
		rep.Persisted = []models.EnergyTotal{}
	}
	for _, t := range totals {
		rep.TotalKWh += t.KWh
		rep.TotalCost += t.Cost
	}

	if to.IsZero() || !to.Before(s.now()) {
		cfg, err := s.settings.Load(ctx)
		if err != nil {
			return EnergyReport{}, err
		}
		for _, p := range s.engine.ProjectEnergy(cfg) {
			rep.Pending = append(rep.Pending, p)
			rep.TotalKWh += p.KWh
			rep.TotalCost += p.Cost
		}
	}
	return rep, nil
}
