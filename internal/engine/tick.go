package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"opensoak/internal/hardware"
	"opensoak/internal/models"

	"github.com/google/uuid"
)

// Outcome classifies one tick.
type Outcome string

const (
	OutcomeContinue Outcome = "continue"
	OutcomeLocked   Outcome = "locked"
	OutcomeError    Outcome = "error"
)

// TickResult is what one tick did.
type TickResult struct {
	Outcome Outcome
	Status  FaultState
}

// Tick runs one pass of the control loop. It never panics and never returns
// an error: failures become an ERROR status and the loop carries on.
// Only the worker may call it while the engine is running.
func (e *Engine) Tick(ctx context.Context) (res TickResult) {
	now := e.now()
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorw("tick_panic", "panic", fmt.Sprint(r))
			e.safeHeaterOff()
			e.faults.SetStatus(StatusError, fmt.Sprintf("panic: %v", r))
			e.energy.Restart(now)
			res = TickResult{Outcome: OutcomeError, Status: e.faults.State()}
		}
		e.metrics.ObserveTick(string(res.Outcome), time.Since(started).Seconds())
	}()
	return e.tick(ctx, now)
}

func (e *Engine) tick(ctx context.Context, now time.Time) TickResult {
	if e.faults.Locked() {
		e.observe(now, temps{
			primary:  e.hw.ReadTemperature(hardware.ProbePrimary),
			hiLimit:  e.hw.ReadTemperature(hardware.ProbeHiLimit),
			setPoint: e.snapshotTemps().setPoint,
		})
		e.accountEnergy(now)
		return e.result(OutcomeLocked)
	}

	t := temps{
		primary: e.hw.ReadTemperature(hardware.ProbePrimary),
		hiLimit: e.hw.ReadTemperature(hardware.ProbeHiLimit),
	}

	if t.primary >= HiLimitF || t.hiLimit >= HiLimitF {
		hottest := math.Max(t.primary, t.hiLimit)
		e.latch(ctx, now, StatusHiLimitFault, fmt.Sprintf("probe reading %.1fF at or above %.0fF", hottest, HiLimitF),
			map[string]any{"primary_f": t.primary, "hi_limit_f": t.hiLimit})
		t.setPoint = e.snapshotTemps().setPoint
		e.observe(now, t)
		e.accountEnergy(now)
		return e.result(OutcomeLocked)
	}

	desired, err := e.stores.Desired.Load(ctx)
	if err != nil {
		return e.fail(now, t, "load desired state", err)
	}
	settings, err := e.stores.Settings.Load(ctx)
	if err != nil {
		return e.fail(now, t, "load settings", err)
	}
	t.setPoint = settings.SetPoint

	var issues []string
	soft := func(what string, err error) {
		e.log.Errorw("tick_step_failed", "step", what, "err", err)
		issues = append(issues, fmt.Sprintf("%s: %v", what, err))
	}

	if desired.ManualSoak.Expired(now) {
		if err := e.expireSoak(ctx, now, settings); err != nil {
			soft("expire soak", err)
		} else {
			settings.SetPoint = settings.DefaultRestTemp
			t.setPoint = settings.SetPoint
		}
	}

	status, msg := StatusOK, ""

	// Circulation runs whenever the system is unlocked.
	if !desired.CircPump {
		if err := e.stores.Desired.SetCirculation(ctx, true); err != nil {
			soft("correct circulation", err)
		}
	}
	circOn := e.hw.RelayState(hardware.CircPump)
	switch {
	case !circOn || e.circOnSince.IsZero():
		if !circOn && !e.hw.SetRelay(hardware.CircPump, true) {
			soft("circulation", errors.New("relay command rejected"))
			break
		}
		e.circOnSince = now
		e.faults.BeginFlowWait(now)
		circOn = true
		status, msg = StatusWaitingForCirc, "circulation starting"
	case now.Sub(e.circOnSince) < e.cfg.FlowGracePeriod:
		status, msg = StatusWaitingForCirc, "waiting for flow confirmation"
	default:
		flow := e.hw.FlowDetected()
		if e.faults.FlowCheck(now, flow) {
			fs := e.faults.State()
			e.latch(ctx, now, StatusNoFlowFault, fs.Message,
				map[string]any{"flow_failures": fs.FlowErrorCount})
			e.observe(now, t)
			e.accountEnergy(now)
			return e.result(OutcomeLocked)
		}
		if flow {
			t.flowConfirmed = true
		} else {
			status = StatusWaitingForCirc
			msg = fmt.Sprintf("no flow detected (%d/%d)", e.faults.State().FlowErrorCount, e.cfg.MaxFlowFailures)
		}
	}

	heaterWas := e.hw.RelayState(hardware.Heater)
	heaterOn := false
	switch {
	case !desired.Heater:
	case !circOn || !t.flowConfirmed:
		if status == StatusOK {
			status, msg = StatusWaitingForCirc, "heater waiting for circulation"
		}
	case !plausible(t.primary) || !plausible(t.hiLimit):
		soft("heater", fmt.Errorf("implausible probe reading (primary %.1f, hi-limit %.1f)", t.primary, t.hiLimit))
	case t.primary >= settings.MaxTempLimit:
	default:
		heaterOn = hysteresis(t.primary, settings, heaterWas)
	}
	if heaterOn != heaterWas {
		if !e.hw.SetRelay(hardware.Heater, heaterOn) && heaterOn {
			soft("heater", errors.New("rejected by interlock"))
		}
	}

	ozone := desired.Ozone && circOn && t.flowConfirmed && !e.faults.Locked()
	e.drive(hardware.Ozone, ozone)
	e.drive(hardware.JetPump, desired.JetPump)
	e.drive(hardware.Light, desired.Light)

	if plausible(t.primary) {
		for _, ev := range e.thermal.Observe(now, t.primary, settings.SetPoint, e.hw.RelayState(hardware.Heater)) {
			if err := e.stores.Thermal.Append(ctx, ev); err != nil {
				soft("thermal log", err)
			}
		}
	}

	e.accountEnergy(now)
	if e.lastFlush.IsZero() {
		e.lastFlush = now
	}
	if now.Sub(e.lastFlush) >= e.cfg.EnergyFlushInterval {
		if err := e.flushEnergy(ctx, now, settings); err != nil {
			soft("energy flush", err)
		}
		e.lastFlush = now
	}

	logged := false
	if e.lastTempLog.IsZero() || now.Sub(e.lastTempLog) >= e.cfg.TempLogInterval {
		err := e.stores.Temperature.Append(ctx, models.TemperatureSample{
			RecordedAt: now.UTC(),
			ValueF:     t.primary,
			HiLimitF:   t.hiLimit,
		})
		if err != nil {
			soft("temperature log", err)
		}
		e.lastTempLog = now
		logged = true
	}

	// A master shutdown may have latched while this tick ran.
	if e.faults.Locked() {
		e.hw.EmergencyShutdown()
		e.circOnSince = time.Time{}
		e.observe(now, t)
		e.accountEnergy(now)
		return e.result(OutcomeLocked)
	}

	outcome := OutcomeContinue
	if len(issues) > 0 {
		status, msg = StatusError, strings.Join(issues, "; ")
		outcome = OutcomeError
	}
	e.faults.SetStatus(status, msg)
	e.observe(now, t)
	if logged {
		e.publishStatus(now, true)
	}
	return e.result(outcome)
}

// hysteresis applies the deadband: off at or above upper, on at or below
// lower, otherwise hold.
func hysteresis(current float64, s models.Settings, heaterWas bool) bool {
	upper := s.SetPoint + s.HysteresisUpper
	lower := s.SetPoint - s.HysteresisLower
	switch {
	case current >= upper:
		return false
	case current <= lower:
		return true
	default:
		return heaterWas
	}
}

func plausible(f float64) bool {
	return f > hardware.SensorFault && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// drive writes a relay only when its state differs.
func (e *Engine) drive(ch hardware.Channel, on bool) {
	if e.hw.RelayState(ch) != on {
		e.hw.SetRelay(ch, on)
	}
}

// expireSoak reverts the set point before clearing the soak so a failed
// write is retried on the next tick.
func (e *Engine) expireSoak(ctx context.Context, now time.Time, s models.Settings) error {
	if err := e.stores.Settings.SetSetPoint(ctx, s.DefaultRestTemp); err != nil {
		return fmt.Errorf("revert set point: %w", err)
	}
	if err := e.stores.Desired.ClearManualSoak(ctx); err != nil {
		return fmt.Errorf("clear manual soak: %w", err)
	}
	e.log.Infow("manual_soak_expired", "set_point", s.DefaultRestTemp)
	e.recordEvent(ctx, now, models.EventSoakExpired, "Manual soak expired; set point reverted",
		map[string]any{"from_set_point": s.SetPoint, "to_set_point": s.DefaultRestTemp})
	return nil
}

func (e *Engine) flushEnergy(ctx context.Context, now time.Time, s models.Settings) error {
	samples, err := e.energy.Flush(now, s.Wattage(), s.CostPerKWh, func(samples []models.EnergySample) error {
		return e.stores.Energy.Append(ctx, samples)
	})
	if err != nil {
		return err
	}
	for _, smp := range samples {
		e.metrics.AddEnergy(smp.Component, smp.KWh)
	}
	return nil
}

// latch locks the fault machine, cuts every relay and records the fault.
func (e *Engine) latch(ctx context.Context, now time.Time, code StatusCode, msg string, meta map[string]any) {
	e.faults.Lock(now, code, msg)
	e.hw.EmergencyShutdown()
	e.circOnSince = time.Time{}
	e.log.Errorw("safety_lockout", "status", string(code), "message", msg)
	meta["status"] = string(code)
	e.recordEvent(ctx, now, models.EventFault, msg, meta)
}

// fail handles a tick that cannot decide anything: heater off, ERROR status.
func (e *Engine) fail(now time.Time, t temps, what string, err error) TickResult {
	e.log.Errorw("tick_failed", "step", what, "err", err)
	e.hw.SetRelay(hardware.Heater, false)
	e.faults.SetStatus(StatusError, fmt.Sprintf("%s: %v", what, err))
	t.setPoint = e.snapshotTemps().setPoint
	e.observe(now, t)
	e.accountEnergy(now)
	return e.result(OutcomeError)
}

// accountEnergy credits the time since the previous tick to the relays that
// are on now. Every tick path calls it, so runtime never spans skipped ticks.
func (e *Engine) accountEnergy(now time.Time) {
	e.energy.Accumulate(now, e.hw.AllStates())
}

func (e *Engine) safeHeaterOff() {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorw("heater_off_after_panic_failed", "panic", fmt.Sprint(r))
		}
	}()
	e.hw.SetRelay(hardware.Heater, false)
}

// recordEvent appends a usage event and publishes it. Failures are logged only.
func (e *Engine) recordEvent(ctx context.Context, now time.Time, typ, desc string, meta map[string]any) {
	ev := models.UsageEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  now.UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	}
	if err := e.stores.Usage.Append(ctx, ev); err != nil {
		e.log.Warnw("usage_event_append_failed", "type", typ, "err", err)
	}
	if err := e.pub.PublishEvent(ev); err != nil {
		e.log.Warnw("usage_event_publish_failed", "type", typ, "err", err)
	}
}

func (e *Engine) result(o Outcome) TickResult {
	return TickResult{Outcome: o, Status: e.faults.State()}
}
