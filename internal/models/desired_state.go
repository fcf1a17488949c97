package models

import "time"

// Window is an optional time-bounded session (manual soak or scheduled session).
type Window struct {
	Active    bool      `json:"active"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether an active window has passed its expiry at now.
func (w Window) Expired(now time.Time) bool {
	return w.Active && !w.ExpiresAt.IsZero() && !now.Before(w.ExpiresAt)
}

// DesiredState is what operators and schedules want the spa to do.
// The engine reads it every tick and only ever corrects CircPump to true.
type DesiredState struct {
	CircPump         bool      `json:"circ_pump"`
	Heater           bool      `json:"heater"`
	JetPump          bool      `json:"jet_pump"`
	Light            bool      `json:"light"`
	Ozone            bool      `json:"ozone"`
	ManualSoak       Window    `json:"manual_soak"`
	ScheduledSession Window    `json:"scheduled_session"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TogglePatch is a partial update of the component toggles; nil fields are left alone.
type TogglePatch struct {
	CircPump *bool `json:"circ_pump,omitempty"`
	Heater   *bool `json:"heater,omitempty"`
	JetPump  *bool `json:"jet_pump,omitempty"`
	Light    *bool `json:"light,omitempty"`
	Ozone    *bool `json:"ozone,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TogglePatch) Empty() bool {
	return p.CircPump == nil && p.Heater == nil && p.JetPump == nil && p.Light == nil && p.Ozone == nil
}
