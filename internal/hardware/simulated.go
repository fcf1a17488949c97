package hardware

import (
	"math/rand"
	"time"
)

// Simulation rates, per primary-probe read (the engine reads once a second).
const (
	simHeatPerReadF = 0.05
	simCoolPerReadF = 0.01
)

// SimConfig parameterizes the simulated water model.
type SimConfig struct {
	StartTempF     float64
	AmbientF       float64
	HiLimitOffsetF float64 // hi-limit probe reads this much above primary
	NoiseF         float64 // max uniform noise added to primary readings
	Seed           int64   // 0 seeds from the clock
}

// Simulated is an in-memory spa: relays, a water temperature that rises while
// the heater runs and drifts to ambient otherwise, and a flow switch that
// follows the circulation pump.
type Simulated struct {
	cfg         SimConfig
	relays      relayBank
	tempF       float64
	rng         *rand.Rand
	flowFault   bool
	sensorFault bool
	closed      bool
}

// NewSimulated returns a simulated controller with every relay off.
func NewSimulated(cfg SimConfig) *Simulated {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulated{
		cfg:   cfg,
		tempF: cfg.StartTempF,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// ReadTemperature advances the water model on each primary read.
// After Close every read fails soft.
func (s *Simulated) ReadTemperature(p Probe) float64 {
	if s.sensorFault || s.closed {
		return SensorFault
	}
	switch p {
	case ProbePrimary:
		s.step()
		return s.tempF + s.rng.Float64()*s.cfg.NoiseF
	case ProbeHiLimit:
		return s.tempF + s.cfg.HiLimitOffsetF
	default:
		return SensorFault
	}
}

func (s *Simulated) step() {
	if s.relays.get(Heater) {
		s.tempF += simHeatPerReadF
		return
	}
	if s.tempF > s.cfg.AmbientF {
		s.tempF = maxFloat(s.tempF-simCoolPerReadF, s.cfg.AmbientF)
	}
}

// SetRelay refuses every command once closed.
func (s *Simulated) SetRelay(ch Channel, on bool) bool {
	if s.closed {
		return false
	}
	return s.relays.set(ch, on)
}

func (s *Simulated) RelayState(ch Channel) bool { return s.relays.get(ch) }

func (s *Simulated) AllStates() map[string]bool { return s.relays.all() }

// FlowDetected mirrors the circulation relay unless a flow fault is injected.
func (s *Simulated) FlowDetected() bool {
	return s.relays.get(CircPump) && !s.flowFault && !s.closed
}

func (s *Simulated) EmergencyShutdown() { s.relays.off() }

func (s *Simulated) Close() error {
	s.EmergencyShutdown()
	s.closed = true
	return nil
}

// SetWaterTemp overrides the modelled water temperature.
func (s *Simulated) SetWaterTemp(f float64) { s.tempF = f }

// InjectFlowFault makes FlowDetected report no flow while set.
func (s *Simulated) InjectFlowFault(on bool) { s.flowFault = on }

// InjectSensorFault makes every temperature read return SensorFault while set.
func (s *Simulated) InjectSensorFault(on bool) { s.sensorFault = on }

func maxFloat(a, b float64) float64 {
	if a >= b {
		return a
	}
	return b
}
