// Package hardware abstracts the spa's relays, temperature probes and flow switch.
// The physical implementation drives Linux GPIO lines and an MCP3008 ADC;
// the simulated one models the water in memory. Both enforce the heater
// interlock themselves, independently of the control logic above them.
package hardware

import "opensoak/internal/models"

// Channel identifies one relay output.
type Channel int

const (
	CircPump Channel = iota
	Heater
	JetPump
	Light
	Ozone
)

const numChannels = 5

// Channels lists every relay in a fixed order.
var Channels = []Channel{CircPump, Heater, JetPump, Light, Ozone}

func (c Channel) String() string {
	switch c {
	case CircPump:
		return models.ComponentCircPump
	case Heater:
		return models.ComponentHeater
	case JetPump:
		return models.ComponentJetPump
	case Light:
		return models.ComponentLight
	case Ozone:
		return models.ComponentOzone
	default:
		return "unknown"
	}
}

// Probe identifies a temperature channel.
type Probe int

const (
	// ProbePrimary is the process probe the heater regulates on.
	ProbePrimary Probe = 0
	// ProbeHiLimit is the independent redundant over-temperature probe.
	ProbeHiLimit Probe = 1
)

// SensorFault is returned by ReadTemperature when a reading could not be taken.
const SensorFault = 0.0

// Controller is the uniform hardware contract. Implementations are not safe
// for concurrent use; only the engine worker may drive them.
type Controller interface {
	// ReadTemperature returns degrees F, or SensorFault on a transient error.
	ReadTemperature(p Probe) float64
	// SetRelay commands a relay and reports whether the command was accepted.
	// Heater on is rejected while circulation is off.
	SetRelay(ch Channel, on bool) bool
	RelayState(ch Channel) bool
	AllStates() map[string]bool
	// FlowDetected reports whether water is actually moving.
	FlowDetected() bool
	// EmergencyShutdown turns every relay off, bypassing the interlock.
	EmergencyShutdown()
	// Close shuts everything down and releases resources.
	Close() error
}

// interlockAllows is the hardware-level heater rule shared by every backend.
func interlockAllows(ch Channel, on, circOn bool) bool {
	return !(ch == Heater && on && !circOn)
}

// relayBank is an in-memory relay set used by the simulated and fake backends.
type relayBank struct {
	on       [numChannels]bool
	rejected int
}

func (b *relayBank) set(ch Channel, on bool) bool {
	if ch < 0 || int(ch) >= len(b.on) {
		return false
	}
	if !interlockAllows(ch, on, b.on[CircPump]) {
		b.on[Heater] = false
		b.rejected++
		return false
	}
	b.on[ch] = on
	// Dropping circulation drops the heater with it.
	if ch == CircPump && !on {
		b.on[Heater] = false
	}
	return true
}

func (b *relayBank) get(ch Channel) bool {
	if ch < 0 || int(ch) >= len(b.on) {
		return false
	}
	return b.on[ch]
}

func (b *relayBank) all() map[string]bool {
	out := make(map[string]bool, len(Channels))
	for _, ch := range Channels {
		out[ch.String()] = b.on[ch]
	}
	return out
}

func (b *relayBank) off() {
	for i := range b.on {
		b.on[i] = false
	}
}
