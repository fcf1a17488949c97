package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"opensoak/internal/models"
)

type DesiredStateSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewDesiredStateSQLite(db *sql.DB) *DesiredStateSQLite {
	return &DesiredStateSQLite{db: db, now: time.Now}
}

var _ DesiredStateRepo = (*DesiredStateSQLite)(nil)

const (
	desiredStateRowID = 1

	selectDesiredStateSQL = `
		SELECT circ_pump, heater, jet_pump, light, ozone,
			manual_soak_active, manual_soak_expires_at,
			session_active, session_expires_at, updated_at
		FROM desired_state WHERE id=?
	`

	updateTogglesSQL = `
		UPDATE desired_state SET
			circ_pump=COALESCE(?, circ_pump),
			heater=COALESCE(?, heater),
			jet_pump=COALESCE(?, jet_pump),
			light=COALESCE(?, light),
			ozone=COALESCE(?, ozone),
			updated_at=?
		WHERE id=?
	`

	setCirculationSQL = `UPDATE desired_state SET circ_pump=?, updated_at=? WHERE id=?`

	setManualSoakSQL = `UPDATE desired_state SET manual_soak_active=?, manual_soak_expires_at=?, updated_at=? WHERE id=?`

	setSessionSQL = `UPDATE desired_state SET session_active=?, session_expires_at=?, updated_at=? WHERE id=?`
)

// Load fetches the desired-state row. A missing row reads as everything off.
func (r *DesiredStateSQLite) Load(ctx context.Context) (models.DesiredState, error) {
	var (
		s           models.DesiredState
		soakExpires sql.NullTime
		sessExpires sql.NullTime
		updatedAt   sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, selectDesiredStateSQL, desiredStateRowID).Scan(
		&s.CircPump, &s.Heater, &s.JetPump, &s.Light, &s.Ozone,
		&s.ManualSoak.Active, &soakExpires,
		&s.ScheduledSession.Active, &sessExpires,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DesiredState{}, nil
		}
		return models.DesiredState{}, fmt.Errorf("select desired state: %w", err)
	}
	s.ManualSoak.ExpiresAt = nullTime(soakExpires)
	s.ScheduledSession.ExpiresAt = nullTime(sessExpires)
	s.UpdatedAt = nullTime(updatedAt)
	return s, nil
}

// UpdateToggles applies the non-nil fields of p.
func (r *DesiredStateSQLite) UpdateToggles(ctx context.Context, p models.TogglePatch) error {
	return r.exec(ctx, "update toggles", updateTogglesSQL,
		boolOrNil(p.CircPump), boolOrNil(p.Heater), boolOrNil(p.JetPump), boolOrNil(p.Light), boolOrNil(p.Ozone),
		r.now().UTC(), desiredStateRowID)
}

func (r *DesiredStateSQLite) SetCirculation(ctx context.Context, on bool) error {
	return r.exec(ctx, "set circulation", setCirculationSQL, on, r.now().UTC(), desiredStateRowID)
}

func (r *DesiredStateSQLite) StartManualSoak(ctx context.Context, expiresAt time.Time) error {
	return r.exec(ctx, "start manual soak", setManualSoakSQL, true, expiresAt.UTC(), r.now().UTC(), desiredStateRowID)
}

func (r *DesiredStateSQLite) ClearManualSoak(ctx context.Context) error {
	return r.exec(ctx, "clear manual soak", setManualSoakSQL, false, nil, r.now().UTC(), desiredStateRowID)
}

// SetScheduledSession records the schedule-driven session window. A zero
// expiresAt is stored as NULL.
func (r *DesiredStateSQLite) SetScheduledSession(ctx context.Context, active bool, expiresAt time.Time) error {
	return r.exec(ctx, "set scheduled session", setSessionSQL, active, utcOrNil(expiresAt), r.now().UTC(), desiredStateRowID)
}

func (r *DesiredStateSQLite) exec(ctx context.Context, what, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: desired state row missing: %w", what, ErrNotFound)
	}
	return nil
}

func boolOrNil(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
