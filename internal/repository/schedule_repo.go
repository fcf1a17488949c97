package repository

import (
	"context"
	"database/sql"
	"fmt"

	"opensoak/internal/models"
)

type ScheduleSQLite struct {
	db *sql.DB
}

func NewScheduleSQLite(db *sql.DB) *ScheduleSQLite { return &ScheduleSQLite{db: db} }

var _ ScheduleRepo = (*ScheduleSQLite)(nil)

const (
	selectSchedulesSQL = `SELECT id, name, start_time, end_time, days_of_week, target_temp, active FROM schedules`
	insertScheduleSQL  = `INSERT INTO schedules (name, start_time, end_time, days_of_week, target_temp, active) VALUES (?, ?, ?, ?, ?, ?)`
	deleteScheduleSQL  = `DELETE FROM schedules WHERE id = ?`
)

func (r *ScheduleSQLite) List(ctx context.Context) ([]models.Schedule, error) {
	return r.query(ctx, selectSchedulesSQL+" ORDER BY id")
}

func (r *ScheduleSQLite) ListActive(ctx context.Context) ([]models.Schedule, error) {
	return r.query(ctx, selectSchedulesSQL+" WHERE active = 1 ORDER BY id")
}

// Create inserts s and returns its id.
func (r *ScheduleSQLite) Create(ctx context.Context, s models.Schedule) (int, error) {
	res, err := r.db.ExecContext(ctx, insertScheduleSQL, s.Name, s.StartTime, s.EndTime, s.DaysOfWeek, s.TargetTemp, s.Active)
	if err != nil {
		return 0, fmt.Errorf("insert schedule %q: %w", s.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for schedule %q: %w", s.Name, err)
	}
	return int(id), nil
}

// Delete removes a schedule; ErrNotFound if it did not exist.
func (r *ScheduleSQLite) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, deleteScheduleSQL, id)
	if err != nil {
		return fmt.Errorf("delete schedule %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete schedule %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ScheduleSQLite) query(ctx context.Context, q string) ([]models.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	var out []models.Schedule
	for rows.Next() {
		var s models.Schedule
		if err := rows.Scan(&s.ID, &s.Name, &s.StartTime, &s.EndTime, &s.DaysOfWeek, &s.TargetTemp, &s.Active); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
