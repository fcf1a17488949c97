package engine

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"opensoak/internal/hardware"
	"opensoak/internal/logger"
	"opensoak/internal/models"
	"opensoak/internal/publisher"
)

func allOff(t *testing.T, hw hardware.Controller) {
	t.Helper()
	for name, on := range hw.AllStates() {
		if on {
			t.Fatalf("%s is on, want every relay off", name)
		}
	}
}

func TestTick_FirstTickStartsCirculationAndWaits(t *testing.T) {
	h := newHarness(100)
	h.desired.set(func(d *models.DesiredState) { d.CircPump = false; d.Heater = true })

	res := h.eng.Tick(context.Background())

	if res.Outcome != OutcomeContinue {
		t.Fatalf("outcome = %s, want continue", res.Outcome)
	}
	if !h.hw.RelayState(hardware.CircPump) {
		t.Fatalf("circulation should be commanded on")
	}
	if h.hw.RelayState(hardware.Heater) {
		t.Fatalf("heater must wait for flow confirmation")
	}
	if res.Status.Status != StatusWaitingForCirc || res.Status.Phase != PhaseWaitingForFlow {
		t.Fatalf("status = %s/%s, want waiting", res.Status.Status, res.Status.Phase)
	}
	if h.desired.setCircCalls != 1 || !h.desired.state.CircPump {
		t.Fatalf("desired circulation not corrected to true")
	}
}

func TestTick_HiLimitLocksAndShutsDown(t *testing.T) {
	tests := []struct {
		name        string
		primary, hi float64
		wantLock    bool
	}{
		{"primary at ceiling", 110, 100, true},
		{"hi-limit probe at ceiling", 100, 110, true},
		{"both above", 115, 116, true},
		{"just below", 109.9, 109.9, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(100)
			h.desired.set(func(d *models.DesiredState) { d.Heater = true; d.JetPump = true; d.Light = true })
			h.prime()

			h.hw.Temps = [2]float64{tt.primary, tt.hi}
			res := h.tick(time.Second)

			if !tt.wantLock {
				if res.Outcome == OutcomeLocked {
					t.Fatalf("locked below the ceiling")
				}
				return
			}
			if res.Outcome != OutcomeLocked || !res.Status.Locked {
				t.Fatalf("outcome = %s locked=%v, want locked", res.Outcome, res.Status.Locked)
			}
			if res.Status.Status != StatusHiLimitFault {
				t.Fatalf("status = %s, want HI_LIMIT_FAULT", res.Status.Status)
			}
			allOff(t, h.hw)
			if got := h.usage.types(); len(got) != 1 || got[0] != models.EventFault {
				t.Fatalf("usage events = %v, want one FAULT", got)
			}

			// Locked ticks only observe.
			before := len(h.hw.Commands)
			h.hw.SetTemp(90)
			res = h.tick(time.Second)
			if res.Outcome != OutcomeLocked {
				t.Fatalf("outcome after cool-down = %s, want locked", res.Outcome)
			}
			if len(h.hw.Commands) != before {
				t.Fatalf("locked tick issued relay commands")
			}
			if snap := h.eng.Snapshot(); snap.TemperatureF != 90 {
				t.Fatalf("locked tick should still observe temperature, got %v", snap.TemperatureF)
			}
		})
	}
}

func TestTick_HiLimitTakesPrecedenceOverMaxTempLimit(t *testing.T) {
	h := newHarness(100)
	h.settings.settings.MaxTempLimit = 120
	h.prime()

	h.hw.SetTemp(111)
	if res := h.tick(time.Second); res.Status.Status != StatusHiLimitFault {
		t.Fatalf("status = %s, want HI_LIMIT_FAULT", res.Status.Status)
	}
}

func TestTick_MaxTempLimitCutsHeaterWithoutLatching(t *testing.T) {
	h := newHarness(100)
	h.desired.set(func(d *models.DesiredState) { d.Heater = true })
	h.settings.settings.SetPoint = 108
	h.prime()
	if !h.hw.RelayState(hardware.Heater) {
		t.Fatalf("heater should run below set point")
	}

	h.hw.SetTemp(106)
	res := h.tick(time.Second)

	if h.hw.RelayState(hardware.Heater) {
		t.Fatalf("heater should be off at max_temp_limit")
	}
	if res.Status.Locked {
		t.Fatalf("max_temp_limit must not latch")
	}
}

func TestTick_InterlockHoldsForRandomInputs(t *testing.T) {
	h := newHarness(100)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		h.desired.set(func(d *models.DesiredState) {
			d.CircPump = rng.Intn(2) == 0
			d.Heater = rng.Intn(3) > 0
			d.Ozone = rng.Intn(2) == 0
			d.JetPump = rng.Intn(2) == 0
		})
		h.hw.SetTemp(95 + rng.Float64()*12)
		h.hw.SetFlow(rng.Intn(4) > 0)
		if rng.Intn(20) == 0 {
			h.hw.SetRelay(hardware.CircPump, false)
		}
		if h.eng.FaultState().Locked && rng.Intn(3) == 0 {
			h.eng.Reset()
		}

		h.tick(time.Second)

		states := h.hw.AllStates()
		if states[models.ComponentHeater] && !states[models.ComponentCircPump] {
			t.Fatalf("iteration %d: heater on with circulation off", i)
		}
		if states[models.ComponentOzone] && !states[models.ComponentCircPump] {
			t.Fatalf("iteration %d: ozone on with circulation off", i)
		}
	}
}

func TestTick_FiveFlowFailuresLock(t *testing.T) {
	h := newHarness(100)
	h.eng.Tick(context.Background())
	h.hw.SetFlow(false)
	h.clk.Advance(h.eng.cfg.FlowGracePeriod - time.Second)

	var res TickResult
	for i := 1; i <= 4; i++ {
		res = h.tick(time.Second)
		if res.Status.Locked {
			t.Fatalf("locked after %d failures", i)
		}
		if res.Status.FlowErrorCount != i {
			t.Fatalf("flow errors = %d, want %d", res.Status.FlowErrorCount, i)
		}
	}
	res = h.tick(time.Second)
	if !res.Status.Locked || res.Status.Status != StatusNoFlowFault {
		t.Fatalf("status = %+v, want NO_FLOW_FAULT lock", res.Status)
	}
	allOff(t, h.hw)
}

func TestTick_FourFlowFailuresThenRecovery(t *testing.T) {
	h := newHarness(100)
	h.eng.Tick(context.Background())
	h.hw.SetFlow(false)
	h.clk.Advance(h.eng.cfg.FlowGracePeriod - time.Second)
	for i := 0; i < 4; i++ {
		h.tick(time.Second)
	}

	h.hw.SetFlow(true)
	res := h.tick(time.Second)

	if res.Status.Locked {
		t.Fatalf("locked after only 4 failures")
	}
	if res.Status.FlowErrorCount != 0 || res.Status.Phase != PhaseNormal {
		t.Fatalf("state = %+v, want counter reset and Normal", res.Status)
	}
	if res.Status.Status != StatusOK {
		t.Fatalf("status = %s, want OK", res.Status.Status)
	}
}

func TestTick_HeaterHysteresis(t *testing.T) {
	h := newHarness(103.5)
	h.desired.set(func(d *models.DesiredState) { d.Heater = true })
	h.prime()
	if h.hw.RelayState(hardware.Heater) {
		t.Fatalf("heater should hold off inside the deadband")
	}

	steps := []struct {
		temp float64
		want bool
	}{
		{103.0, true},  // at lower threshold
		{103.5, true},  // deadband holds on
		{104.0, true},  // still inside
		{104.5, false}, // at upper threshold
		{103.5, false}, // deadband holds off
		{102.0, true},
	}
	for _, s := range steps {
		h.hw.SetTemp(s.temp)
		h.tick(time.Second)
		if got := h.hw.RelayState(hardware.Heater); got != s.want {
			t.Fatalf("at %.1fF heater = %v, want %v", s.temp, got, s.want)
		}
	}
}

func TestTick_HeaterOffWhenNotDesired(t *testing.T) {
	h := newHarness(95)
	h.desired.set(func(d *models.DesiredState) { d.Heater = true })
	h.prime()
	if !h.hw.RelayState(hardware.Heater) {
		t.Fatalf("heater should be on when cold")
	}

	h.desired.set(func(d *models.DesiredState) { d.Heater = false })
	h.tick(time.Second)
	if h.hw.RelayState(hardware.Heater) {
		t.Fatalf("heater should follow the desired toggle off")
	}
}

func TestTick_OzoneJetsLight(t *testing.T) {
	h := newHarness(100)
	h.desired.set(func(d *models.DesiredState) { d.Ozone = true; d.JetPump = true; d.Light = true })

	h.eng.Tick(context.Background())
	if h.hw.RelayState(hardware.Ozone) {
		t.Fatalf("ozone must wait for confirmed flow")
	}
	if !h.hw.RelayState(hardware.JetPump) || !h.hw.RelayState(hardware.Light) {
		t.Fatalf("jets and light mirror desired state immediately")
	}

	h.tick(h.eng.cfg.FlowGracePeriod)
	if !h.hw.RelayState(hardware.Ozone) {
		t.Fatalf("ozone should run once flow is confirmed")
	}

	h.desired.set(func(d *models.DesiredState) { d.JetPump = false; d.Light = false })
	h.tick(time.Second)
	if h.hw.RelayState(hardware.JetPump) || h.hw.RelayState(hardware.Light) {
		t.Fatalf("jets and light should switch off")
	}
}

func TestTick_ManualSoakExpiry(t *testing.T) {
	h := newHarness(104)
	h.settings.settings.SetPoint = 106
	h.desired.set(func(d *models.DesiredState) {
		d.JetPump = true
		d.ManualSoak = models.Window{Active: true, ExpiresAt: h.clk.Now().Add(-time.Minute)}
	})

	h.eng.Tick(context.Background())

	if h.settings.settings.SetPoint != h.settings.settings.DefaultRestTemp {
		t.Fatalf("set point = %v, want rest temp %v", h.settings.settings.SetPoint, h.settings.settings.DefaultRestTemp)
	}
	if h.desired.state.ManualSoak.Active {
		t.Fatalf("soak not cleared")
	}
	if got := h.usage.types(); len(got) != 1 || got[0] != models.EventSoakExpired {
		t.Fatalf("usage events = %v, want SOAK_EXPIRED", got)
	}
	if !h.hw.RelayState(hardware.JetPump) {
		t.Fatalf("soak expiry must leave jets alone")
	}
	if snap := h.eng.Snapshot(); snap.SetPoint != 99 {
		t.Fatalf("snapshot set point = %v, want 99", snap.SetPoint)
	}
}

func TestTick_ManualSoakExpiryRetriedOnFailure(t *testing.T) {
	h := newHarness(104)
	h.settings.setErr = errors.New("disk full")
	h.desired.set(func(d *models.DesiredState) {
		d.ManualSoak = models.Window{Active: true, ExpiresAt: h.clk.Now().Add(-time.Second)}
	})

	res := h.eng.Tick(context.Background())
	if res.Outcome != OutcomeError || res.Status.Status != StatusError {
		t.Fatalf("result = %+v, want ERROR", res)
	}
	if !h.desired.state.ManualSoak.Active {
		t.Fatalf("soak must stay active until the set point is reverted")
	}

	h.settings.setErr = nil
	h.tick(time.Second)
	if h.desired.state.ManualSoak.Active {
		t.Fatalf("soak should clear on retry")
	}
}

func TestTick_ActiveSoakNotExpired(t *testing.T) {
	h := newHarness(104)
	h.desired.set(func(d *models.DesiredState) {
		d.ManualSoak = models.Window{Active: true, ExpiresAt: h.clk.Now().Add(time.Hour)}
	})
	h.eng.Tick(context.Background())
	if !h.desired.state.ManualSoak.Active || h.desired.clearCalls != 0 {
		t.Fatalf("unexpired soak was cleared")
	}
}

func TestReset_DoesNotReenergize(t *testing.T) {
	h := newHarness(100)
	h.desired.set(func(d *models.DesiredState) { d.Heater = true; d.Light = true })
	h.prime()
	h.hw.SetTemp(112)
	h.tick(time.Second)
	allOff(t, h.hw)

	before := len(h.hw.Commands)
	st := h.eng.Reset()

	if st.Locked || st.FlowErrorCount != 0 || st.Status != StatusOK {
		t.Fatalf("reset state = %+v", st)
	}
	if len(h.hw.Commands) != before {
		t.Fatalf("reset issued relay commands")
	}
	allOff(t, h.hw)

	h.hw.SetTemp(100)
	h.tick(time.Second)
	if !h.hw.RelayState(hardware.CircPump) || !h.hw.RelayState(hardware.Light) {
		t.Fatalf("next tick should re-energize through normal decisions")
	}
	if h.hw.RelayState(hardware.Heater) {
		t.Fatalf("heater must wait for a fresh flow confirmation")
	}
}

func TestMasterShutdown_InlineWhenNotRunning(t *testing.T) {
	pub := publisher.NewFake()
	h := newHarness(100, WithPublisher(pub))
	h.desired.set(func(d *models.DesiredState) { d.JetPump = true })
	h.prime()

	st := h.eng.MasterShutdown("operator")

	if !st.Locked || st.Status != StatusMasterShutdown {
		t.Fatalf("state = %+v, want MASTER_SHUTDOWN lock", st)
	}
	allOff(t, h.hw)
	if res := h.tick(time.Second); res.Outcome != OutcomeLocked {
		t.Fatalf("outcome = %s, want locked", res.Outcome)
	}
	statuses := pub.Statuses()
	if len(statuses) == 0 || statuses[len(statuses)-1].Status != string(StatusMasterShutdown) {
		t.Fatalf("master shutdown status not published: %+v", statuses)
	}
}

func TestTick_LoadFailureForcesHeaterOff(t *testing.T) {
	h := newHarness(95)
	h.desired.set(func(d *models.DesiredState) { d.Heater = true })
	h.prime()
	if !h.hw.RelayState(hardware.Heater) {
		t.Fatalf("heater should be on")
	}

	h.settings.loadErr = errors.New("db locked")
	res := h.tick(time.Second)

	if res.Outcome != OutcomeError || res.Status.Status != StatusError {
		t.Fatalf("result = %+v, want ERROR", res)
	}
	if h.hw.RelayState(hardware.Heater) {
		t.Fatalf("heater must be forced off when settings cannot be read")
	}
	if res.Status.Locked {
		t.Fatalf("errors must not lock")
	}
}

func TestTick_PanicRecovered(t *testing.T) {
	h := newHarness(100)
	h.prime()

	h.hw.ReadPanic = "spi bus wedged"
	res := h.tick(time.Second)
	if res.Outcome != OutcomeError || res.Status.Status != StatusError {
		t.Fatalf("result = %+v, want recovered ERROR", res)
	}

	h.hw.ReadPanic = nil
	if res := h.tick(time.Second); res.Outcome != OutcomeContinue {
		t.Fatalf("loop should continue after a panic, got %s", res.Outcome)
	}
}

func TestTick_PanicDoesNotClearLock(t *testing.T) {
	h := newHarness(100)
	h.eng.MasterShutdown("")
	h.hw.ReadPanic = "boom"

	res := h.tick(time.Second)

	if !res.Status.Locked || res.Status.Status != StatusMasterShutdown {
		t.Fatalf("lock lost after panic: %+v", res.Status)
	}
}

func TestTick_ImplausibleReadingKeepsHeaterOff(t *testing.T) {
	h := newHarness(95)
	h.desired.set(func(d *models.DesiredState) { d.Heater = true })
	h.prime()

	h.hw.Temps = [2]float64{hardware.SensorFault, 95}
	res := h.tick(time.Second)

	if h.hw.RelayState(hardware.Heater) {
		t.Fatalf("heater must not run on a failed probe")
	}
	if res.Status.Status != StatusError {
		t.Fatalf("status = %s, want ERROR", res.Status.Status)
	}
}

func TestTick_TemperatureLoggedEveryInterval(t *testing.T) {
	h := newHarness(100)
	h.eng.Tick(context.Background())
	for i := 0; i < 59; i++ {
		h.tick(time.Second)
	}
	if n := len(h.temps.samples); n != 1 {
		t.Fatalf("samples after 59s = %d, want 1", n)
	}
	h.tick(time.Second)
	if n := len(h.temps.samples); n != 2 {
		t.Fatalf("samples after 60s = %d, want 2", n)
	}
}

func TestTick_EnergyFlushedHourly(t *testing.T) {
	h := newHarness(100)
	h.eng.Tick(context.Background())
	for i := 0; i < 60; i++ {
		h.tick(time.Minute)
	}
	if len(h.energy.batches) != 1 {
		t.Fatalf("energy batches = %d, want 1", len(h.energy.batches))
	}
	var circ models.EnergySample
	for _, s := range h.energy.batches[0] {
		if s.Component == models.ComponentCircPump {
			circ = s
		}
	}
	if circ.RuntimeSeconds != 3600 {
		t.Fatalf("circulation runtime = %v, want 3600", circ.RuntimeSeconds)
	}
	if want := 0.25; circ.KWh != want {
		t.Fatalf("circulation kWh = %v, want %v", circ.KWh, want)
	}
	if got := h.eng.ProjectEnergy(h.settings.settings); len(got) != 0 {
		t.Fatalf("projection after flush = %+v, want empty", got)
	}
}

func TestTick_EnergyKeptWhenFlushFails(t *testing.T) {
	h := newHarness(100)
	h.energy.err = errors.New("write failed")
	h.eng.Tick(context.Background())
	for i := 0; i < 60; i++ {
		h.tick(time.Minute)
	}
	if got := h.eng.energy.Seconds(models.ComponentCircPump); got != 3600 {
		t.Fatalf("runtime after failed flush = %v, want 3600 kept", got)
	}
}

func TestTick_ThermalEventPersisted(t *testing.T) {
	h := newHarness(99)
	h.settings.settings.SetPoint = 99
	h.desired.set(func(d *models.DesiredState) { d.Heater = true })
	h.prime()

	h.settings.settings.SetPoint = 102
	h.tick(time.Second)
	h.hw.SetTemp(102)
	h.tick(30 * time.Minute)

	if len(h.thermal.events) != 1 {
		t.Fatalf("thermal events = %d, want 1", len(h.thermal.events))
	}
	ev := h.thermal.events[0]
	if ev.Type != models.ThermalHeat || ev.StartTempF != 99 || ev.EndTempF != 102 {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.EfficiencyFPerHour != 6 {
		t.Fatalf("efficiency = %v, want 6 F/h", ev.EfficiencyFPerHour)
	}
}

func TestEngine_StartStop(t *testing.T) {
	hw := hardware.NewFake(100, 100)
	stores := Stores{
		Desired:     &stubDesired{state: models.DesiredState{CircPump: true, Light: true}},
		Settings:    &stubSettings{settings: models.DefaultSettings()},
		Temperature: &stubTemps{},
		Usage:       &stubUsage{},
		Thermal:     &stubThermal{},
		Energy:      &stubEnergy{},
	}
	cfg := DefaultConfig()
	cfg.PollInterval = 5 * time.Millisecond
	eng := New(cfg, hw, stores, logger.Nop())

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := eng.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start() = %v, want ErrAlreadyRunning", err)
	}

	waitFor(t, func() bool { return eng.Snapshot().Relays[models.ComponentLight] })
	if !eng.Snapshot().Running {
		t.Fatalf("snapshot should report running")
	}

	eng.MasterShutdown("test")
	waitFor(t, func() bool {
		s := eng.Snapshot()
		return s.Fault.Locked && !s.Relays[models.ComponentLight] && !s.Relays[models.ComponentCircPump]
	})

	if err := eng.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !hw.Closed {
		t.Fatalf("Stop must close the hardware")
	}
	if err := eng.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
	if err := eng.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("Start after Stop = %v, want ErrStopped", err)
	}
}

func TestTick_EnergyNotCreditedAcrossLock(t *testing.T) {
	h := newHarness(100)
	h.prime()
	primed := h.eng.energy.Seconds(models.ComponentCircPump)

	h.eng.MasterShutdown("maintenance")
	for i := 0; i < 7200; i++ {
		h.tick(time.Second)
	}
	h.eng.Reset()
	h.tick(time.Second)

	if got, want := h.eng.energy.Seconds(models.ComponentCircPump), primed+1; got != want {
		t.Fatalf("circulation runtime = %vs, want %vs (nothing while locked)", got, want)
	}
}

func TestTick_EnergyNotCreditedAfterHiLimit(t *testing.T) {
	h := newHarness(100)
	h.desired.set(func(d *models.DesiredState) { d.JetPump = true })
	h.prime()
	primed := h.eng.energy.Seconds(models.ComponentJetPump)

	h.hw.SetTemp(112)
	for i := 0; i < 100; i++ {
		h.tick(time.Minute)
	}
	h.hw.SetTemp(100)
	h.eng.Reset()
	h.tick(time.Second)

	if got, want := h.eng.energy.Seconds(models.ComponentJetPump), primed+1; got != want {
		t.Fatalf("jet runtime = %vs, want %vs", got, want)
	}
}

func TestTick_EnergyDuringLoadFailure(t *testing.T) {
	h := newHarness(95)
	h.desired.set(func(d *models.DesiredState) { d.Heater = true })
	h.prime()
	heaterPrimed := h.eng.energy.Seconds(models.ComponentHeater)
	circPrimed := h.eng.energy.Seconds(models.ComponentCircPump)

	h.settings.loadErr = errors.New("db locked")
	for i := 0; i < 10; i++ {
		h.tick(time.Minute)
	}
	h.settings.loadErr = nil
	h.tick(time.Second)

	if !h.hw.RelayState(hardware.Heater) {
		t.Fatalf("heater should resume after the store recovers")
	}
	if got, want := h.eng.energy.Seconds(models.ComponentHeater), heaterPrimed+1; got != want {
		t.Fatalf("heater runtime = %vs, want %vs (off while failing)", got, want)
	}
	if got, want := h.eng.energy.Seconds(models.ComponentCircPump), circPrimed+601; got != want {
		t.Fatalf("circulation runtime = %vs, want %vs (kept running)", got, want)
	}
}

func TestTick_PanicRestartsEnergyClock(t *testing.T) {
	h := newHarness(100)
	h.prime()
	primed := h.eng.energy.Seconds(models.ComponentCircPump)

	h.hw.ReadPanic = "spi bus wedged"
	h.tick(time.Hour)
	h.hw.ReadPanic = nil
	h.tick(time.Second)

	if got, want := h.eng.energy.Seconds(models.ComponentCircPump), primed+1; got != want {
		t.Fatalf("circulation runtime = %vs, want %vs", got, want)
	}
}

func TestEngine_ContextCancelShutsRelaysOff(t *testing.T) {
	hw := hardware.NewFake(100, 100)
	stores := Stores{
		Desired:     &stubDesired{state: models.DesiredState{CircPump: true, JetPump: true, Light: true}},
		Settings:    &stubSettings{settings: models.DefaultSettings()},
		Temperature: &stubTemps{},
		Usage:       &stubUsage{},
		Thermal:     &stubThermal{},
		Energy:      &stubEnergy{},
	}
	cfg := DefaultConfig()
	cfg.PollInterval = 5 * time.Millisecond
	eng := New(cfg, hw, stores, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, func() bool { return eng.Snapshot().Relays[models.ComponentJetPump] })

	cancel()
	waitFor(t, func() bool { return !eng.Snapshot().Running })
	allOff(t, hw)

	// The worker is gone; a master shutdown must act inline.
	hw.SetRelay(hardware.Light, true)
	st := eng.MasterShutdown("drain")
	if !st.Locked || st.Status != StatusMasterShutdown {
		t.Fatalf("state = %+v, want MASTER_SHUTDOWN lock", st)
	}
	allOff(t, hw)

	if err := eng.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !hw.Closed {
		t.Fatalf("Stop must close the hardware")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
