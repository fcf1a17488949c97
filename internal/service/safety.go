package service

import (
	"context"

	"opensoak/internal/engine"
	"opensoak/internal/models"
)

type SafetyService struct {
	engine SafetyEngine
	rec    *recorder
}

func NewSafetyService(eng SafetyEngine, rec *recorder) *SafetyService {
	return &SafetyService{engine: eng, rec: rec}
}

// Reset clears a latched fault. Relays come back only through the engine's
// next tick.
func (s *SafetyService) Reset(ctx context.Context) (engine.FaultState, error) {
	st := s.engine.Reset()
	s.rec.record(ctx, models.EventReset, "safety lock reset", nil)
	return st, nil
}

// MasterShutdown latches the lock and cuts every relay.
func (s *SafetyService) MasterShutdown(ctx context.Context, reason string) (engine.FaultState, error) {
	st := s.engine.MasterShutdown(reason)
	desc := "master shutdown"
	if reason != "" {
		desc += ": " + reason
	}
	s.rec.record(ctx, models.EventShutdown, desc, map[string]any{"reason": reason})
	return st, nil
}
