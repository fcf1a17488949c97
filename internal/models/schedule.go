package models

// Schedule turns the heater on to TargetTemp between StartTime and EndTime
// (HH:MM, local time) on the listed weekdays ("0,1,...,6", Monday=0).
type Schedule struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	DaysOfWeek string  `json:"days_of_week"`
	TargetTemp float64 `json:"target_temp"`
	Active     bool    `json:"active"`
}
