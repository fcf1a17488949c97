package engine

import (
	"context"
	"sync"
	"time"

	"opensoak/internal/hardware"
	"opensoak/internal/logger"
	"opensoak/internal/models"
)

// ---- Test doubles ----

type stubDesired struct {
	mu           sync.Mutex
	state        models.DesiredState
	loadErr      error
	setCircCalls int
	clearCalls   int
}

func (s *stubDesired) Load(ctx context.Context) (models.DesiredState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.loadErr
}

func (s *stubDesired) SetCirculation(ctx context.Context, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCircCalls++
	s.state.CircPump = on
	return nil
}

func (s *stubDesired) ClearManualSoak(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCalls++
	s.state.ManualSoak = models.Window{}
	return nil
}

func (s *stubDesired) set(fn func(*models.DesiredState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

type stubSettings struct {
	mu       sync.Mutex
	settings models.Settings
	loadErr  error
	setErr   error
	setCalls []float64
}

func (s *stubSettings) Load(ctx context.Context) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, s.loadErr
}

func (s *stubSettings) SetSetPoint(ctx context.Context, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalls = append(s.setCalls, v)
	if s.setErr != nil {
		return s.setErr
	}
	s.settings.SetPoint = v
	return nil
}

type stubTemps struct {
	mu      sync.Mutex
	samples []models.TemperatureSample
	err     error
}

func (s *stubTemps) Append(ctx context.Context, smp models.TemperatureSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.samples = append(s.samples, smp)
	return nil
}

type stubUsage struct {
	mu     sync.Mutex
	events []models.UsageEvent
}

func (s *stubUsage) Append(ctx context.Context, ev models.UsageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *stubUsage) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Type)
	}
	return out
}

type stubThermal struct {
	mu     sync.Mutex
	events []models.ThermalEvent
}

func (s *stubThermal) Append(ctx context.Context, ev models.ThermalEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

type stubEnergy struct {
	mu      sync.Mutex
	batches [][]models.EnergySample
	err     error
}

func (s *stubEnergy) Append(ctx context.Context, samples []models.EnergySample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, samples)
	return nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// harness bundles an engine with its doubles.
type harness struct {
	eng      *Engine
	hw       *hardware.Fake
	clk      *fakeClock
	desired  *stubDesired
	settings *stubSettings
	temps    *stubTemps
	usage    *stubUsage
	thermal  *stubThermal
	energy   *stubEnergy
}

func newHarness(tempF float64, opts ...Option) *harness {
	h := &harness{
		hw:       hardware.NewFake(tempF, tempF),
		clk:      &fakeClock{t: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)},
		desired:  &stubDesired{state: models.DesiredState{CircPump: true}},
		settings: &stubSettings{settings: models.DefaultSettings()},
		temps:    &stubTemps{},
		usage:    &stubUsage{},
		thermal:  &stubThermal{},
		energy:   &stubEnergy{},
	}
	stores := Stores{
		Desired:     h.desired,
		Settings:    h.settings,
		Temperature: h.temps,
		Usage:       h.usage,
		Thermal:     h.thermal,
		Energy:      h.energy,
	}
	opts = append([]Option{WithClock(h.clk.Now)}, opts...)
	h.eng = New(DefaultConfig(), h.hw, stores, logger.Nop(), opts...)
	return h
}

// tick advances the clock by d and runs one tick.
func (h *harness) tick(d time.Duration) TickResult {
	h.clk.Advance(d)
	return h.eng.Tick(context.Background())
}

// prime starts circulation and runs through the grace period so flow is confirmed.
func (h *harness) prime() TickResult {
	h.eng.Tick(context.Background())
	return h.tick(h.eng.cfg.FlowGracePeriod)
}
