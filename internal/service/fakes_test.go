package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"opensoak/internal/engine"
	"opensoak/internal/logger"
	"opensoak/internal/models"
	"opensoak/internal/publisher"
	"opensoak/internal/repository"
)

// memDesired is an in-memory repository.DesiredStateRepo.
type memDesired struct {
	state     models.DesiredState
	loadErr   error
	updateErr error
	updates   int
}

func (m *memDesired) Load(ctx context.Context) (models.DesiredState, error) {
	return m.state, m.loadErr
}

func (m *memDesired) UpdateToggles(ctx context.Context, p models.TogglePatch) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates++
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&m.state.CircPump, p.CircPump)
	set(&m.state.Heater, p.Heater)
	set(&m.state.JetPump, p.JetPump)
	set(&m.state.Light, p.Light)
	set(&m.state.Ozone, p.Ozone)
	return nil
}

func (m *memDesired) SetCirculation(ctx context.Context, on bool) error {
	m.state.CircPump = on
	return nil
}

func (m *memDesired) StartManualSoak(ctx context.Context, expiresAt time.Time) error {
	m.state.ManualSoak = models.Window{Active: true, ExpiresAt: expiresAt}
	return nil
}

func (m *memDesired) ClearManualSoak(ctx context.Context) error {
	m.state.ManualSoak = models.Window{}
	return nil
}

func (m *memDesired) SetScheduledSession(ctx context.Context, active bool, expiresAt time.Time) error {
	m.state.ScheduledSession = models.Window{Active: active, ExpiresAt: expiresAt}
	return nil
}

// memSettings is an in-memory repository.SettingsRepo.
type memSettings struct {
	s         models.Settings
	loadErr   error
	setErr    error
	setPoints []float64
	updates   int
}

func newMemSettings() *memSettings { return &memSettings{s: models.DefaultSettings()} }

func (m *memSettings) Load(ctx context.Context) (models.Settings, error) {
	return m.s, m.loadErr
}

func (m *memSettings) Update(ctx context.Context, p models.SettingsPatch) error {
	m.updates++
	m.s = applyPatch(m.s, p)
	return nil
}

func (m *memSettings) SetSetPoint(ctx context.Context, v float64) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.setPoints = append(m.setPoints, v)
	m.s.SetPoint = v
	return nil
}

// memUsage is an in-memory repository.UsageRepo.
type memUsage struct {
	mu     sync.Mutex
	events []models.UsageEvent
	err    error
}

func (m *memUsage) Append(ctx context.Context, e models.UsageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *memUsage) List(ctx context.Context, from, to time.Time, typ string) ([]models.UsageEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.UsageEvent(nil), m.events...), nil
}

func (m *memUsage) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

// memSchedules is an in-memory repository.ScheduleRepo.
type memSchedules struct {
	list    []models.Schedule
	listErr error
	nextID  int
}

func (m *memSchedules) List(ctx context.Context) ([]models.Schedule, error) {
	return m.list, m.listErr
}

func (m *memSchedules) ListActive(ctx context.Context) ([]models.Schedule, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Schedule
	for _, s := range m.list {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSchedules) Create(ctx context.Context, s models.Schedule) (int, error) {
	m.nextID++
	s.ID = m.nextID
	m.list = append(m.list, s)
	return s.ID, nil
}

func (m *memSchedules) Delete(ctx context.Context, id int) error {
	for i, s := range m.list {
		if s.ID == id {
			m.list = append(m.list[:i], m.list[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// fakeEngine implements SafetyEngine.
type fakeEngine struct {
	snap      engine.Snapshot
	fault     engine.FaultState
	resets    int
	shutdowns []string
	pending   []models.EnergySample
}

func (f *fakeEngine) Snapshot() engine.Snapshot { return f.snap }

func (f *fakeEngine) Reset() engine.FaultState {
	f.resets++
	f.fault = engine.FaultState{Status: engine.StatusOK, PhaseName: engine.PhaseNormal.String()}
	return f.fault
}

func (f *fakeEngine) MasterShutdown(reason string) engine.FaultState {
	f.shutdowns = append(f.shutdowns, reason)
	f.fault = engine.FaultState{Locked: true, Status: engine.StatusMasterShutdown, PhaseName: engine.PhaseLocked.String()}
	return f.fault
}

func (f *fakeEngine) ProjectEnergy(s models.Settings) []models.EnergySample { return f.pending }

var errDB = errors.New("db down")

func newTestRecorder(usage *memUsage, pub publisher.Publisher) *recorder {
	return newRecorder(usage, pub, logger.Nop())
}
