package engine

import (
	"time"

	"opensoak/internal/models"
)

const (
	// heatingTriggerF is the set point rise that opens a heating episode.
	heatingTriggerF = 2.0
	// coolingStepF is the drop that closes one cooling sample.
	coolingStepF = 1.0
)

// EpisodeKind tags the variant held by Episode.
type EpisodeKind int

const (
	EpisodeNone EpisodeKind = iota
	EpisodeHeating
	EpisodeCooling
)

// Episode is the open thermal episode. TargetF is only meaningful for heating.
type Episode struct {
	Kind       EpisodeKind
	StartTempF float64
	TargetF    float64
	StartedAt  time.Time
}

// ThermalTracker detects heating and cooling episodes from successive ticks.
// Only the engine worker calls it.
type ThermalTracker struct {
	episode      Episode
	primed       bool
	lastSetPoint float64
	lastHeater   bool
}

func NewThermalTracker() *ThermalTracker { return &ThermalTracker{} }

// Episode returns the open episode.
func (t *ThermalTracker) Episode() Episode { return t.episode }

// Observe feeds one tick and returns the episodes it completed. A heating
// episode that reaches its target closes before a heater-off edge on the same
// tick opens cooling. One cut short by that edge is replaced unrecorded.
func (t *ThermalTracker) Observe(now time.Time, currentF, setPoint float64, heaterOn bool) []models.ThermalEvent {
	if !t.primed {
		t.primed = true
		t.lastSetPoint = setPoint
		t.lastHeater = heaterOn
		return nil
	}

	var out []models.ThermalEvent
	if setPoint-t.lastSetPoint > heatingTriggerF {
		t.episode = Episode{Kind: EpisodeHeating, StartTempF: currentF, TargetF: setPoint, StartedAt: now}
	}
	if t.episode.Kind == EpisodeHeating && currentF >= t.episode.TargetF {
		out = append(out, t.close(now, models.ThermalHeat, t.episode.TargetF))
		t.episode = Episode{}
	}

	switch {
	case t.lastHeater && !heaterOn:
		t.episode = Episode{Kind: EpisodeCooling, StartTempF: currentF, StartedAt: now}
	case !t.lastHeater && heaterOn && t.episode.Kind == EpisodeCooling:
		t.episode = Episode{}
	}
	t.lastSetPoint = setPoint
	t.lastHeater = heaterOn

	if t.episode.Kind == EpisodeCooling && currentF <= t.episode.StartTempF-coolingStepF {
		out = append(out, t.close(now, models.ThermalCool, currentF))
		t.episode = Episode{Kind: EpisodeCooling, StartTempF: currentF, StartedAt: now}
	}
	return out
}

func (t *ThermalTracker) close(now time.Time, kind string, endF float64) models.ThermalEvent {
	d := now.Sub(t.episode.StartedAt)
	var eff float64
	if hours := d.Hours(); hours > 0 {
		eff = (endF - t.episode.StartTempF) / hours
	}
	return models.ThermalEvent{
		Type:               kind,
		StartTempF:         t.episode.StartTempF,
		EndTempF:           endF,
		Duration:           d,
		EfficiencyFPerHour: eff,
		RecordedAt:         now.UTC(),
	}
}
