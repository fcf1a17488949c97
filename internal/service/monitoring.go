package service

import (
	"context"

	"opensoak/internal/engine"
	"opensoak/internal/models"
	"opensoak/internal/repository"
)

// Status is the engine's last observation plus what the operator asked for.
type Status struct {
	engine.Snapshot
	Desired models.DesiredState `json:"desired_state"`
}

type MonitoringService struct {
	engine  SafetyEngine
	desired repository.DesiredStateRepo
	temps   repository.TemperatureRepo
}

func NewMonitoringService(eng SafetyEngine, desired repository.DesiredStateRepo, temps repository.TemperatureRepo) *MonitoringService {
	return &MonitoringService{engine: eng, desired: desired, temps: temps}
}

// GetStatus never touches hardware; the snapshot comes from the engine's
// last tick.
func (s *MonitoringService) GetStatus(ctx context.Context) (Status, error) {
	d, err := s.desired.Load(ctx)
	if err != nil {
		return Status{}, err
	}
	snap := s.engine.Snapshot()
	snap.UpdatedAt = toUTC(snap.UpdatedAt)
	return Status{Snapshot: snap, Desired: d}, nil
}

// History returns the newest logged temperatures, newest first.
func (s *MonitoringService) History(ctx context.Context, limit int) ([]models.TemperatureSample, error) {
	return s.temps.Recent(ctx, clampLimit(limit))
}
