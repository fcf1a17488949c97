package models

// Settings are the control parameters. The engine only writes SetPoint, and
// only when a manual soak expires.
type Settings struct {
	SetPoint        float64 `json:"set_point"`
	DefaultRestTemp float64 `json:"default_rest_temp"`
	HysteresisUpper float64 `json:"hysteresis_upper"`
	HysteresisLower float64 `json:"hysteresis_lower"`
	MaxTempLimit    float64 `json:"max_temp_limit"`
	CircPumpWatts   float64 `json:"circ_pump_watts"`
	HeaterWatts     float64 `json:"heater_watts"`
	JetPumpWatts    float64 `json:"jet_pump_watts"`
	LightWatts      float64 `json:"light_watts"`
	OzoneWatts      float64 `json:"ozone_watts"`
	CostPerKWh      float64 `json:"cost_per_kwh"`
}

// DefaultSettings mirrors the values a fresh controller boots with.
func DefaultSettings() Settings {
	return Settings{
		SetPoint:        104.0,
		DefaultRestTemp: 99.0,
		HysteresisUpper: 0.5,
		HysteresisLower: 1.0,
		MaxTempLimit:    106.0,
		CircPumpWatts:   250,
		HeaterWatts:     5500,
		JetPumpWatts:    1500,
		LightWatts:      10,
		OzoneWatts:      50,
		CostPerKWh:      0.15,
	}
}

// Wattage returns the configured load per component name.
func (s Settings) Wattage() map[string]float64 {
	return map[string]float64{
		ComponentCircPump: s.CircPumpWatts,
		ComponentHeater:   s.HeaterWatts,
		ComponentJetPump:  s.JetPumpWatts,
		ComponentLight:    s.LightWatts,
		ComponentOzone:    s.OzoneWatts,
	}
}

// SettingsPatch is a partial settings update; nil fields are left alone.
type SettingsPatch struct {
	SetPoint        *float64 `json:"set_point,omitempty"`
	DefaultRestTemp *float64 `json:"default_rest_temp,omitempty"`
	HysteresisUpper *float64 `json:"hysteresis_upper,omitempty"`
	HysteresisLower *float64 `json:"hysteresis_lower,omitempty"`
	MaxTempLimit    *float64 `json:"max_temp_limit,omitempty"`
	CircPumpWatts   *float64 `json:"circ_pump_watts,omitempty"`
	HeaterWatts     *float64 `json:"heater_watts,omitempty"`
	JetPumpWatts    *float64 `json:"jet_pump_watts,omitempty"`
	LightWatts      *float64 `json:"light_watts,omitempty"`
	OzoneWatts      *float64 `json:"ozone_watts,omitempty"`
	CostPerKWh      *float64 `json:"cost_per_kwh,omitempty"`
}

// Component names shared by relays, energy samples and API payloads.
const (
	ComponentCircPump = "circ_pump"
	ComponentHeater   = "heater"
	ComponentJetPump  = "jet_pump"
	ComponentLight    = "light"
	ComponentOzone    = "ozone"
)

// Components lists every switched load in relay order.
var Components = []string{ComponentCircPump, ComponentHeater, ComponentJetPump, ComponentLight, ComponentOzone}
