package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"opensoak/internal/models"
)

// ---- temperature ----

type TemperatureSQLite struct {
	db *sql.DB
}

func NewTemperatureSQLite(db *sql.DB) *TemperatureSQLite { return &TemperatureSQLite{db: db} }

var _ TemperatureRepo = (*TemperatureSQLite)(nil)

const (
	insertTemperatureSQL = `INSERT INTO temperature_logs (recorded_at, value_f, hi_limit_f) VALUES (?, ?, ?)`
	recentTemperatureSQL = `SELECT id, recorded_at, value_f, hi_limit_f FROM temperature_logs ORDER BY recorded_at DESC LIMIT ?`
)

func (r *TemperatureSQLite) Append(ctx context.Context, s models.TemperatureSample) error {
	at := s.RecordedAt
	if at.IsZero() {
		at = time.Now()
	}
	if _, err := r.db.ExecContext(ctx, insertTemperatureSQL, at.UTC(), s.ValueF, s.HiLimitF); err != nil {
		return fmt.Errorf("insert temperature sample: %w", err)
	}
	return nil
}

// Recent returns the newest limit samples, newest first.
func (r *TemperatureSQLite) Recent(ctx context.Context, limit int) ([]models.TemperatureSample, error) {
	rows, err := r.db.QueryContext(ctx, recentTemperatureSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query temperature samples: %w", err)
	}
	defer rows.Close()

	out := make([]models.TemperatureSample, 0, limit)
	for rows.Next() {
		var s models.TemperatureSample
		if err := rows.Scan(&s.ID, &s.RecordedAt, &s.ValueF, &s.HiLimitF); err != nil {
			return nil, err
		}
		s.RecordedAt = s.RecordedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// ---- thermal ----

type ThermalSQLite struct {
	db *sql.DB
}

func NewThermalSQLite(db *sql.DB) *ThermalSQLite { return &ThermalSQLite{db: db} }

var _ ThermalRepo = (*ThermalSQLite)(nil)

const insertThermalSQL = `
	INSERT INTO thermal_events (type, start_temp_f, end_temp_f, duration_ms, efficiency_f_per_hour, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?)
`

func (r *ThermalSQLite) Append(ctx context.Context, e models.ThermalEvent) error {
	at := e.RecordedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.ExecContext(ctx, insertThermalSQL,
		e.Type, e.StartTempF, e.EndTempF, e.Duration.Milliseconds(), e.EfficiencyFPerHour, at.UTC())
	if err != nil {
		return fmt.Errorf("insert thermal event: %w", err)
	}
	return nil
}

// List returns the newest events, optionally of one type.
func (r *ThermalSQLite) List(ctx context.Context, typ string, limit int) ([]models.ThermalEvent, error) {
	q := `SELECT id, type, start_temp_f, end_temp_f, duration_ms, efficiency_f_per_hour, recorded_at FROM thermal_events`
	var args []any
	if typ = strings.ToLower(strings.TrimSpace(typ)); typ != "" {
		q += " WHERE type = ?"
		args = append(args, typ)
	}
	q += " ORDER BY recorded_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query thermal events: %w", err)
	}
	defer rows.Close()

	var out []models.ThermalEvent
	for rows.Next() {
		var (
			e  models.ThermalEvent
			ms int64
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.StartTempF, &e.EndTempF, &ms, &e.EfficiencyFPerHour, &e.RecordedAt); err != nil {
			return nil, err
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		e.RecordedAt = e.RecordedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// ---- energy ----

type EnergySQLite struct {
	db *sql.DB
}

func NewEnergySQLite(db *sql.DB) *EnergySQLite { return &EnergySQLite{db: db} }

var _ EnergyRepo = (*EnergySQLite)(nil)

const insertEnergySQL = `
	INSERT INTO energy_samples (component, runtime_seconds, kwh, cost, period_start, period_end)
	VALUES (?, ?, ?, ?, ?, ?)
`

// Append stores one flush in a single transaction.
func (r *EnergySQLite) Append(ctx context.Context, samples []models.EnergySample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin energy transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, s := range samples {
		if _, err := tx.ExecContext(ctx, insertEnergySQL,
			s.Component, s.RuntimeSeconds, s.KWh, s.Cost, s.PeriodStart.UTC(), s.PeriodEnd.UTC()); err != nil {
			return fmt.Errorf("insert energy sample %q: %w", s.Component, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit energy samples: %w", err)
	}
	return nil
}

// Totals sums samples overlapping [from, to] per component. Zero bounds are open.
func (r *EnergySQLite) Totals(ctx context.Context, from, to time.Time) ([]models.EnergyTotal, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "period_end >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "period_start <= ?")
		args = append(args, to.UTC())
	}
	q := `SELECT component, SUM(runtime_seconds), SUM(kwh), SUM(cost) FROM energy_samples`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " GROUP BY component ORDER BY component"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query energy totals: %w", err)
	}
	defer rows.Close()

	var out []models.EnergyTotal
	for rows.Next() {
		var t models.EnergyTotal
		if err := rows.Scan(&t.Component, &t.RuntimeSeconds, &t.KWh, &t.Cost); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
