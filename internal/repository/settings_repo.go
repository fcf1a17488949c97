package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"opensoak/internal/models"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite { return &SettingsSQLite{db: db} }

var _ SettingsRepo = (*SettingsSQLite)(nil)

const (
	settingsRowID = 1

	selectSettingsSQL = `
		SELECT set_point, default_rest_temp, hysteresis_upper, hysteresis_lower, max_temp_limit,
			circ_pump_watts, heater_watts, jet_pump_watts, light_watts, ozone_watts, cost_per_kwh
		FROM settings WHERE id=?
	`

	updateSettingsSQL = `
		UPDATE settings SET
			set_point=COALESCE(?, set_point),
			default_rest_temp=COALESCE(?, default_rest_temp),
			hysteresis_upper=COALESCE(?, hysteresis_upper),
			hysteresis_lower=COALESCE(?, hysteresis_lower),
			max_temp_limit=COALESCE(?, max_temp_limit),
			circ_pump_watts=COALESCE(?, circ_pump_watts),
			heater_watts=COALESCE(?, heater_watts),
			jet_pump_watts=COALESCE(?, jet_pump_watts),
			light_watts=COALESCE(?, light_watts),
			ozone_watts=COALESCE(?, ozone_watts),
			cost_per_kwh=COALESCE(?, cost_per_kwh)
		WHERE id=?
	`

	setSetPointSQL = `UPDATE settings SET set_point=? WHERE id=?`
)

// Load fetches the settings row, falling back to defaults when it is missing.
func (r *SettingsSQLite) Load(ctx context.Context) (models.Settings, error) {
	var s models.Settings
	err := r.db.QueryRowContext(ctx, selectSettingsSQL, settingsRowID).Scan(
		&s.SetPoint, &s.DefaultRestTemp, &s.HysteresisUpper, &s.HysteresisLower, &s.MaxTempLimit,
		&s.CircPumpWatts, &s.HeaterWatts, &s.JetPumpWatts, &s.LightWatts, &s.OzoneWatts, &s.CostPerKWh,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultSettings(), nil
		}
		return models.Settings{}, fmt.Errorf("select settings: %w", err)
	}
	return s, nil
}

// Update applies the non-nil fields of p.
func (r *SettingsSQLite) Update(ctx context.Context, p models.SettingsPatch) error {
	_, err := r.db.ExecContext(ctx, updateSettingsSQL,
		floatOrNil(p.SetPoint), floatOrNil(p.DefaultRestTemp), floatOrNil(p.HysteresisUpper),
		floatOrNil(p.HysteresisLower), floatOrNil(p.MaxTempLimit), floatOrNil(p.CircPumpWatts),
		floatOrNil(p.HeaterWatts), floatOrNil(p.JetPumpWatts), floatOrNil(p.LightWatts),
		floatOrNil(p.OzoneWatts), floatOrNil(p.CostPerKWh), settingsRowID)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

func (r *SettingsSQLite) SetSetPoint(ctx context.Context, v float64) error {
	if _, err := r.db.ExecContext(ctx, setSetPointSQL, v, settingsRowID); err != nil {
		return fmt.Errorf("set set point: %w", err)
	}
	return nil
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
