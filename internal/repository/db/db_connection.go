package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"opensoak/internal/models"
)

// InitDB opens/creates a SQLite DB file, ensures tables exist and seeds the
// single-row tables.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// The engine worker and the API share one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

const schemaDesiredState = `
CREATE TABLE IF NOT EXISTS desired_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    circ_pump BOOLEAN NOT NULL DEFAULT 0,
    heater BOOLEAN NOT NULL DEFAULT 0,
    jet_pump BOOLEAN NOT NULL DEFAULT 0,
    light BOOLEAN NOT NULL DEFAULT 0,
    ozone BOOLEAN NOT NULL DEFAULT 0,
    manual_soak_active BOOLEAN NOT NULL DEFAULT 0,
    manual_soak_expires_at TIMESTAMP,
    session_active BOOLEAN NOT NULL DEFAULT 0,
    session_expires_at TIMESTAMP,
    updated_at TIMESTAMP
);
`

const schemaSettings = `
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    set_point REAL NOT NULL,
    default_rest_temp REAL NOT NULL,
    hysteresis_upper REAL NOT NULL,
    hysteresis_lower REAL NOT NULL,
    max_temp_limit REAL NOT NULL,
    circ_pump_watts REAL NOT NULL,
    heater_watts REAL NOT NULL,
    jet_pump_watts REAL NOT NULL,
    light_watts REAL NOT NULL,
    ozone_watts REAL NOT NULL,
    cost_per_kwh REAL NOT NULL
);
`

const schemaTemperatureLogs = `
CREATE TABLE IF NOT EXISTS temperature_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    recorded_at TIMESTAMP NOT NULL,
    value_f REAL NOT NULL,
    hi_limit_f REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_temperature_logs_recorded_at ON temperature_logs (recorded_at);
`

const schemaUsageEvents = `
CREATE TABLE IF NOT EXISTS usage_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
CREATE INDEX IF NOT EXISTS idx_usage_events_occurred_at ON usage_events (occurred_at);
`

const schemaThermalEvents = `
CREATE TABLE IF NOT EXISTS thermal_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    type TEXT NOT NULL CHECK (type IN ('heat', 'cool')),
    start_temp_f REAL NOT NULL,
    end_temp_f REAL NOT NULL,
    duration_ms INTEGER NOT NULL,
    efficiency_f_per_hour REAL NOT NULL,
    recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_thermal_events_recorded_at ON thermal_events (recorded_at);
`

const schemaEnergySamples = `
CREATE TABLE IF NOT EXISTS energy_samples (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    component TEXT NOT NULL,
    runtime_seconds REAL NOT NULL,
    kwh REAL NOT NULL,
    cost REAL NOT NULL,
    period_start TIMESTAMP NOT NULL,
    period_end TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_energy_samples_period ON energy_samples (period_start, period_end);
`

const schemaSchedules = `
CREATE TABLE IF NOT EXISTS schedules (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    start_time TEXT NOT NULL,
    end_time TEXT NOT NULL,
    days_of_week TEXT NOT NULL,
    target_temp REAL NOT NULL,
    active BOOLEAN NOT NULL DEFAULT 1
);
`

const schemaOperators = `
CREATE TABLE IF NOT EXISTS operators (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
`

const seedDesiredState = `INSERT INTO desired_state (id) VALUES (1) ON CONFLICT(id) DO NOTHING`

const seedSettings = `
INSERT INTO settings (id, set_point, default_rest_temp, hysteresis_upper, hysteresis_lower, max_temp_limit,
    circ_pump_watts, heater_watts, jet_pump_watts, light_watts, ozone_watts, cost_per_kwh)
VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaDesiredState,
		schemaSettings,
		schemaTemperatureLogs,
		schemaUsageEvents,
		schemaThermalEvents,
		schemaEnergySamples,
		schemaSchedules,
		schemaOperators,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if _, err := tx.Exec(seedDesiredState); err != nil {
		return fmt.Errorf("seed desired state: %w", err)
	}
	d := models.DefaultSettings()
	if _, err := tx.Exec(seedSettings,
		d.SetPoint, d.DefaultRestTemp, d.HysteresisUpper, d.HysteresisLower, d.MaxTempLimit,
		d.CircPumpWatts, d.HeaterWatts, d.JetPumpWatts, d.LightWatts, d.OzoneWatts, d.CostPerKWh); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
