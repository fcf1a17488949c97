package models

import "time"

// TemperatureSample is a periodic reading of both probes.
type TemperatureSample struct {
	ID         int64     `json:"id,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
	ValueF     float64   `json:"value_f"`
	HiLimitF   float64   `json:"hi_limit_f"`
}

// Thermal episode kinds.
const (
	ThermalHeat = "heat"
	ThermalCool = "cool"
)

// ThermalEvent is a completed heating or cooling episode.
// EfficiencyFPerHour is negative for cooling.
type ThermalEvent struct {
	ID                 int64         `json:"id,omitempty"`
	Type               string        `json:"type"`
	StartTempF         float64       `json:"start_temp_f"`
	EndTempF           float64       `json:"end_temp_f"` // target for heat, observed for cool
	Duration           time.Duration `json:"duration_ns"`
	EfficiencyFPerHour float64       `json:"efficiency_f_per_hour"`
	RecordedAt         time.Time     `json:"recorded_at"`
}

// EnergySample is accumulated runtime of one component over a flush period.
type EnergySample struct {
	Component      string    `json:"component"`
	RuntimeSeconds float64   `json:"runtime_seconds"`
	KWh            float64   `json:"kwh"`
	Cost           float64   `json:"cost"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
}

// EnergyTotal aggregates samples of one component.
type EnergyTotal struct {
	Component      string  `json:"component"`
	RuntimeSeconds float64 `json:"runtime_seconds"`
	KWh            float64 `json:"kwh"`
	Cost           float64 `json:"cost"`
}
