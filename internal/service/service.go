package service

import (
	"context"
	"time"

	"opensoak/internal/engine"
	"opensoak/internal/logger"
	"opensoak/internal/models"
	"opensoak/internal/publisher"
	"opensoak/internal/repository"
)

// Authorization guards the control API with operator accounts and bearer tokens.
type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Control writes the operator's desired state. It never touches relays; the
// engine applies the change on its next tick.
type Control interface {
	UpdateToggles(ctx context.Context, p models.TogglePatch) (models.DesiredState, error)
	StartSoak(ctx context.Context, p SoakParams) (models.DesiredState, error)
	CancelSoak(ctx context.Context) (models.DesiredState, error)
}

type Settings interface {
	Get(ctx context.Context) (models.Settings, error)
	Update(ctx context.Context, p models.SettingsPatch) (models.Settings, error)
}

// Monitoring exposes read-only state: the engine snapshot and logged temperatures.
type Monitoring interface {
	GetStatus(ctx context.Context) (Status, error)
	History(ctx context.Context, limit int) ([]models.TemperatureSample, error)
}

// EventLog exposes the usage log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.UsageEvent, error)
}

type Telemetry interface {
	ThermalEvents(ctx context.Context, typ string, limit int) ([]models.ThermalEvent, error)
	Energy(ctx context.Context, from, to time.Time) (EnergyReport, error)
}

type Schedules interface {
	List(ctx context.Context) ([]models.Schedule, error)
	Create(ctx context.Context, s models.Schedule) (models.Schedule, error)
	Delete(ctx context.Context, id int) error
}

type Safety interface {
	Reset(ctx context.Context) (engine.FaultState, error)
	MasterShutdown(ctx context.Context, reason string) (engine.FaultState, error)
}

// ScheduleEvaluator applies schedules to the desired state. Stop via context
// cancellation in main() for graceful shutdown.
type ScheduleEvaluator interface {
	Run(ctx context.Context, tick time.Duration)
}

// SafetyEngine is the part of the engine the services call.
type SafetyEngine interface {
	Snapshot() engine.Snapshot
	Reset() engine.FaultState
	MasterShutdown(reason string) engine.FaultState
	ProjectEnergy(s models.Settings) []models.EnergySample
}

// Service aggregates all sub-services. Handlers reach them by field name.
type Service struct {
	Authorization Authorization
	Control       Control
	Settings      Settings
	Monitoring    Monitoring
	EventLog      EventLog
	Telemetry     Telemetry
	Schedules     Schedules
	Safety        Safety
	Scheduler     ScheduleEvaluator
}

// Deps carries what NewService wires the sub-services from.
type Deps struct {
	Repos     *repository.Repository
	Engine    SafetyEngine
	Publisher publisher.Publisher
	Log       *logger.Logger
	Auth      AuthOptions
}

func NewService(d Deps) *Service {
	if d.Publisher == nil {
		d.Publisher = publisher.Nop{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	rec := newRecorder(d.Repos.Usage, d.Publisher, d.Log)
	return &Service{
		Authorization: NewAuthService(d.Repos.Operators, d.Auth),
		Control:       NewControlService(d.Repos.Desired, d.Repos.Settings, rec),
		Settings:      NewSettingsService(d.Repos.Settings, rec),
		Monitoring:    NewMonitoringService(d.Engine, d.Repos.Desired, d.Repos.Temperature),
		EventLog:      NewEventLogService(d.Repos.Usage),
		Telemetry:     NewTelemetryService(d.Engine, d.Repos.Thermal, d.Repos.Energy, d.Repos.Settings),
		Schedules:     NewScheduleService(d.Repos.Schedules),
		Safety:        NewSafetyService(d.Engine, rec),
		Scheduler:     NewSchedulerService(d.Repos.Schedules, d.Repos.Desired, d.Repos.Settings, rec, d.Log.Named("scheduler")),
	}
}
