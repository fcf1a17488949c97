// Package engine runs the spa safety loop: one worker polls the probes once
// per interval, derives relay outputs from the stored desired state, enforces
// the heater interlock, latches faults and records thermal and energy
// telemetry.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"opensoak/internal/hardware"
	"opensoak/internal/logger"
	"opensoak/internal/metrics"
	"opensoak/internal/models"
	"opensoak/internal/publisher"
)

// HiLimitF is the absolute over-temperature ceiling on either probe.
const HiLimitF = 110.0

var (
	ErrAlreadyRunning = errors.New("engine already running")
	ErrStopped        = errors.New("engine stopped")
)

// DesiredStateStore is the part of desired-state storage the loop needs.
type DesiredStateStore interface {
	Load(ctx context.Context) (models.DesiredState, error)
	SetCirculation(ctx context.Context, on bool) error
	ClearManualSoak(ctx context.Context) error
}

// SettingsStore is the part of settings storage the loop needs.
type SettingsStore interface {
	Load(ctx context.Context) (models.Settings, error)
	SetSetPoint(ctx context.Context, v float64) error
}

type TemperatureLog interface {
	Append(ctx context.Context, s models.TemperatureSample) error
}

type UsageLog interface {
	Append(ctx context.Context, e models.UsageEvent) error
}

type ThermalLog interface {
	Append(ctx context.Context, e models.ThermalEvent) error
}

type EnergyLog interface {
	Append(ctx context.Context, samples []models.EnergySample) error
}

// Stores groups the collaborators the loop reads and appends to.
type Stores struct {
	Desired     DesiredStateStore
	Settings    SettingsStore
	Temperature TemperatureLog
	Usage       UsageLog
	Thermal     ThermalLog
	Energy      EnergyLog
}

// Config holds loop timings.
type Config struct {
	PollInterval        time.Duration
	FlowGracePeriod     time.Duration
	MaxFlowFailures     int
	TempLogInterval     time.Duration
	EnergyFlushInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval:        time.Second,
		FlowGracePeriod:     5 * time.Second,
		MaxFlowFailures:     5,
		TempLogInterval:     time.Minute,
		EnergyFlushInterval: time.Hour,
	}
}

// Snapshot is the last state observed by the worker.
type Snapshot struct {
	TemperatureF  float64         `json:"temperature_f"`
	HiLimitF      float64         `json:"hi_limit_f"`
	SetPoint      float64         `json:"set_point"`
	Relays        map[string]bool `json:"relays"`
	FlowConfirmed bool            `json:"flow_confirmed"`
	Fault         FaultState      `json:"fault"`
	Running       bool            `json:"running"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Option customizes an Engine.
type Option func(*Engine)

func WithMetrics(c metrics.Collector) Option { return func(e *Engine) { e.metrics = c } }

func WithPublisher(p publisher.Publisher) Option { return func(e *Engine) { e.pub = p } }

// WithClock replaces time.Now. Tests drive Tick with a fake clock.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// Engine owns the hardware controller. Only its worker (or Tick, when no
// worker runs) drives the hardware.
type Engine struct {
	cfg     Config
	hw      hardware.Controller
	stores  Stores
	faults  *FaultMachine
	thermal *ThermalTracker
	energy  *EnergyAccumulator
	metrics metrics.Collector
	pub     publisher.Publisher
	log     *logger.Logger
	now     func() time.Time

	// worker-owned
	circOnSince time.Time
	lastTempLog time.Time
	lastFlush   time.Time

	mu         sync.RWMutex
	snap       Snapshot
	lastStatus string

	runMu    sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	closed   bool
	shutdown chan struct{}
}

// New builds an engine around hw. Nothing runs until Start.
func New(cfg Config, hw hardware.Controller, stores Stores, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		hw:       hw,
		stores:   stores,
		faults:   NewFaultMachine(cfg.MaxFlowFailures),
		thermal:  NewThermalTracker(),
		energy:   NewEnergyAccumulator(),
		metrics:  metrics.Nop{},
		pub:      publisher.Nop{},
		log:      log,
		now:      time.Now,
		shutdown: make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(e)
	}
	e.snap.Fault = e.faults.State()
	return e
}

// Start launches the worker. The loop exits when ctx is canceled or Stop is called.
func (e *Engine) Start(ctx context.Context) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.closed {
		return ErrStopped
	}
	if e.done != nil {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	e.setRunning(true)
	e.log.Infow("engine_started", "poll_interval", e.cfg.PollInterval.String())
	done := e.done
	go func() {
		e.run(ctx, done)
		e.setRunning(false)
	}()
	return nil
}

func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(e.cfg.PollInterval)
	defer t.Stop()

	// A tick in flight finishes even if ctx is canceled meanwhile.
	tickCtx := context.WithoutCancel(ctx)
	e.Tick(tickCtx)
	for {
		select {
		case <-ctx.Done():
			// Nothing supervises the probes once the worker is gone.
			e.executeShutdown()
			e.log.Infow("engine_worker_exited", "reason", ctx.Err().Error())
			return
		case <-e.shutdown:
			e.executeShutdown()
		case <-t.C:
			e.Tick(tickCtx)
		}
	}
}

// Stop signals the worker, waits for it and then shuts every relay off and
// releases the hardware. Safe to call more than once.
func (e *Engine) Stop() error {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.closed {
		return nil
	}
	if e.done != nil {
		e.cancel()
		<-e.done
		e.done = nil
	}
	e.closed = true
	e.setRunning(false)
	err := e.hw.Close()
	e.observe(e.now(), e.snapshotTemps())
	e.log.Infow("engine_stopped")
	return err
}

// Reset clears the fault machine. Relays are left alone; they come back
// through the next tick's normal decisions.
func (e *Engine) Reset() FaultState {
	e.faults.Reset()
	st := e.faults.State()
	e.mu.Lock()
	e.snap.Fault = st
	e.mu.Unlock()
	e.metrics.SetLocked(false)
	e.metrics.SetFlowFailures(0)
	e.log.Infow("fault_reset")
	e.publishStatus(e.now(), true)
	return st
}

// MasterShutdown latches MASTER_SHUTDOWN at once and has the worker cut every
// relay before its next tick. When no worker is running, including one that
// exited on context cancellation, the shutdown runs inline.
func (e *Engine) MasterShutdown(reason string) FaultState {
	msg := "master shutdown"
	if reason != "" {
		msg += ": " + reason
	}
	e.faults.Lock(e.now(), StatusMasterShutdown, msg)
	e.log.Warnw("master_shutdown_requested", "reason", reason)

	e.runMu.Lock()
	switch {
	case e.workerAlive():
		select {
		case e.shutdown <- struct{}{}:
		default:
		}
	case !e.closed:
		e.executeShutdown()
	}
	e.runMu.Unlock()

	st := e.faults.State()
	e.mu.Lock()
	e.snap.Fault = st
	e.mu.Unlock()
	e.metrics.SetLocked(true)
	e.publishStatus(e.now(), true)
	return st
}

// workerAlive reports whether a started worker has not exited yet. The worker
// exits on Stop or when its context is canceled. Callers hold runMu.
func (e *Engine) workerAlive() bool {
	if e.done == nil {
		return false
	}
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

func (e *Engine) executeShutdown() {
	e.hw.EmergencyShutdown()
	e.circOnSince = time.Time{}
	e.observe(e.now(), e.snapshotTemps())
}

// Snapshot returns a copy of the last observed state. It never touches hardware.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := e.snap
	s.Relays = make(map[string]bool, len(e.snap.Relays))
	for k, v := range e.snap.Relays {
		s.Relays[k] = v
	}
	return s
}

// FaultState returns the live fault machine state.
func (e *Engine) FaultState() FaultState { return e.faults.State() }

// ProjectEnergy returns the unflushed runtime priced with s.
func (e *Engine) ProjectEnergy(s models.Settings) []models.EnergySample {
	return e.energy.Project(e.now(), s.Wattage(), s.CostPerKWh)
}

func (e *Engine) setRunning(v bool) {
	e.mu.Lock()
	e.snap.Running = v
	e.mu.Unlock()
}

type temps struct {
	primary, hiLimit, setPoint float64
	flowConfirmed              bool
}

func (e *Engine) snapshotTemps() temps {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return temps{primary: e.snap.TemperatureF, hiLimit: e.snap.HiLimitF, setPoint: e.snap.SetPoint}
}

// observe reads relay states and stores a new snapshot.
func (e *Engine) observe(now time.Time, t temps) {
	relays := e.hw.AllStates()
	fault := e.faults.State()

	e.mu.Lock()
	e.snap.TemperatureF = t.primary
	e.snap.HiLimitF = t.hiLimit
	e.snap.SetPoint = t.setPoint
	e.snap.Relays = relays
	e.snap.FlowConfirmed = t.flowConfirmed
	e.snap.Fault = fault
	e.snap.UpdatedAt = now.UTC()
	e.mu.Unlock()

	e.metrics.SetTemperature("primary", t.primary)
	e.metrics.SetTemperature("hi_limit", t.hiLimit)
	for name, on := range relays {
		e.metrics.SetRelay(name, on)
	}
	e.metrics.SetLocked(fault.Locked)
	e.metrics.SetFlowFailures(fault.FlowErrorCount)
	e.publishStatus(now, false)
}

// publishStatus sends the status when its text changed, or always when forced.
func (e *Engine) publishStatus(now time.Time, force bool) {
	s := e.Snapshot()
	text := s.Fault.Text()
	if !force && text == e.statusText() {
		return
	}
	e.setStatusText(text)
	err := e.pub.PublishStatus(publisher.StatusMessage{
		Timestamp:    now,
		Status:       string(s.Fault.Status),
		Message:      s.Fault.Message,
		Locked:       s.Fault.Locked,
		FlowFailures: s.Fault.FlowErrorCount,
		TemperatureF: s.TemperatureF,
		HiLimitF:     s.HiLimitF,
		Relays:       s.Relays,
	})
	if err != nil {
		e.log.Warnw("status_publish_failed", "err", err)
	}
}

func (e *Engine) statusText() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastStatus
}

func (e *Engine) setStatusText(s string) {
	e.mu.Lock()
	e.lastStatus = s
	e.mu.Unlock()
}
