package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"opensoak/internal/models"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// OperatorRepo stores the accounts allowed to use the control API.
type OperatorRepo interface {
	Create(ctx context.Context, username, passwordHash string, createdAt time.Time) (int, error)
	GetByUsername(ctx context.Context, username string) (models.Operator, error)
	Count(ctx context.Context) (int, error)
}

// DesiredStateRepo stores the single desired-state row. Every write touches
// only the fields it names.
type DesiredStateRepo interface {
	Load(ctx context.Context) (models.DesiredState, error)
	UpdateToggles(ctx context.Context, p models.TogglePatch) error
	SetCirculation(ctx context.Context, on bool) error
	StartManualSoak(ctx context.Context, expiresAt time.Time) error
	ClearManualSoak(ctx context.Context) error
	SetScheduledSession(ctx context.Context, active bool, expiresAt time.Time) error
}

type SettingsRepo interface {
	Load(ctx context.Context) (models.Settings, error)
	Update(ctx context.Context, p models.SettingsPatch) error
	SetSetPoint(ctx context.Context, v float64) error
}

type TemperatureRepo interface {
	Append(ctx context.Context, s models.TemperatureSample) error
	Recent(ctx context.Context, limit int) ([]models.TemperatureSample, error)
}

type UsageRepo interface {
	Append(ctx context.Context, e models.UsageEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.UsageEvent, error)
}

type ThermalRepo interface {
	Append(ctx context.Context, e models.ThermalEvent) error
	List(ctx context.Context, typ string, limit int) ([]models.ThermalEvent, error)
}

type EnergyRepo interface {
	Append(ctx context.Context, samples []models.EnergySample) error
	Totals(ctx context.Context, from, to time.Time) ([]models.EnergyTotal, error)
}

type ScheduleRepo interface {
	List(ctx context.Context) ([]models.Schedule, error)
	ListActive(ctx context.Context) ([]models.Schedule, error)
	Create(ctx context.Context, s models.Schedule) (int, error)
	Delete(ctx context.Context, id int) error
}

type Repository struct {
	Desired     DesiredStateRepo
	Settings    SettingsRepo
	Temperature TemperatureRepo
	Usage       UsageRepo
	Thermal     ThermalRepo
	Energy      EnergyRepo
	Schedules   ScheduleRepo
	Operators   OperatorRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Desired:     NewDesiredStateSQLite(db),
		Settings:    NewSettingsSQLite(db),
		Temperature: NewTemperatureSQLite(db),
		Usage:       NewUsageSQLite(db),
		Thermal:     NewThermalSQLite(db),
		Energy:      NewEnergySQLite(db),
		Schedules:   NewScheduleSQLite(db),
		Operators:   NewOperatorSQLite(db),
	}
}

// utcOrNil converts zero times to SQL NULL.
func utcOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func nullTime(nt sql.NullTime) time.Time {
	if !nt.Valid {
		return time.Time{}
	}
	return nt.Time.UTC()
}
