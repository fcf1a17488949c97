// Package config loads the controller configuration through viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"opensoak/internal/logger"

	"github.com/spf13/viper"
)

// Hardware modes.
const (
	ModeSimulated = "simulated"
	ModeGPIO      = "gpio"
)

const envPrefix = "OPENSOAK"

// Config is the full process configuration.
type Config struct {
	Port      string          `mapstructure:"port"`
	LogLevel  string          `mapstructure:"log_level"`
	LogFormat string          `mapstructure:"log_format"`
	DB        DBConfig        `mapstructure:"db"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Hardware  HardwareConfig  `mapstructure:"hardware"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`

	// OpenRegistration allows sign-up after the first operator exists.
	OpenRegistration bool `mapstructure:"open_registration"`
}

// HardwareConfig selects and parameterizes the relay/sensor backend.
type HardwareConfig struct {
	Mode           string           `mapstructure:"mode"`
	Chip           string           `mapstructure:"chip"`
	RelayActiveLow bool             `mapstructure:"relay_active_low"`
	Pins           RelayPins        `mapstructure:"pins"`
	FlowPin        int              `mapstructure:"flow_pin"` // <0: no flow switch fitted
	FlowActiveLow  bool             `mapstructure:"flow_active_low"`
	SPI            SPIConfig        `mapstructure:"spi"`
	Thermistor     ThermistorConfig `mapstructure:"thermistor"`
	Simulation     SimulationConfig `mapstructure:"simulation"`
}

// RelayPins are BCM line offsets on the GPIO chip.
type RelayPins struct {
	CircPump int `mapstructure:"circ_pump"`
	Heater   int `mapstructure:"heater"`
	JetPump  int `mapstructure:"jet_pump"`
	Light    int `mapstructure:"light"`
	Ozone    int `mapstructure:"ozone"`
}

type SPIConfig struct {
	Port           string `mapstructure:"port"` // "" picks the first bus
	SpeedHz        int64  `mapstructure:"speed_hz"`
	PrimaryChannel int    `mapstructure:"primary_channel"`
	HiLimitChannel int    `mapstructure:"hi_limit_channel"`
}

// ThermistorConfig is a three-point Steinhart-Hart calibration.
type ThermistorConfig struct {
	SeriesOhms   float64   `mapstructure:"series_ohms"`
	VRef         float64   `mapstructure:"vref"`
	OffsetC      float64   `mapstructure:"offset_c"`
	CalibrationC []float64 `mapstructure:"calibration_c"`
	CalibrationR []float64 `mapstructure:"calibration_ohms"`
}

type SimulationConfig struct {
	StartTempF     float64 `mapstructure:"start_temp_f"`
	AmbientF       float64 `mapstructure:"ambient_f"`
	HiLimitOffsetF float64 `mapstructure:"hi_limit_offset_f"`
	NoiseF         float64 `mapstructure:"noise_f"`
}

// EngineConfig holds the control loop cadences.
type EngineConfig struct {
	PollInterval        time.Duration `mapstructure:"poll_interval"`
	FlowGracePeriod     time.Duration `mapstructure:"flow_grace_period"`
	MaxFlowFailures     int           `mapstructure:"max_flow_failures"`
	TempLogInterval     time.Duration `mapstructure:"temp_log_interval"`
	EnergyFlushInterval time.Duration `mapstructure:"energy_flush_interval"`
}

type SchedulerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type MQTTConfig struct {
	Broker      string `mapstructure:"broker"` // empty disables publishing
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// setDefaults seeds every key so env overrides work without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", logger.InfoLevel)
	v.SetDefault("log_format", logger.FormatConsole)
	v.SetDefault("db.path", "opensoak.db")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.open_registration", false)
	v.SetDefault("hardware.mode", ModeSimulated)
	v.SetDefault("hardware.chip", "gpiochip0")
	v.SetDefault("hardware.relay_active_low", true)
	v.SetDefault("hardware.pins.circ_pump", 22)
	v.SetDefault("hardware.pins.heater", 4)
	v.SetDefault("hardware.pins.jet_pump", 27)
	v.SetDefault("hardware.pins.light", 5)
	v.SetDefault("hardware.pins.ozone", 6)
	v.SetDefault("hardware.flow_pin", -1)
	v.SetDefault("hardware.flow_active_low", true)
	v.SetDefault("hardware.spi.port", "")
	v.SetDefault("hardware.spi.speed_hz", 1_000_000)
	v.SetDefault("hardware.spi.primary_channel", 0)
	v.SetDefault("hardware.spi.hi_limit_channel", 1)
	v.SetDefault("hardware.thermistor.series_ohms", 10_000.0)
	v.SetDefault("hardware.thermistor.vref", 3.3)
	v.SetDefault("hardware.thermistor.offset_c", 4.0)
	v.SetDefault("hardware.thermistor.calibration_c", []float64{6.8, 23.9, 49.0})
	v.SetDefault("hardware.thermistor.calibration_ohms", []float64{23300, 10080, 3300})
	v.SetDefault("hardware.simulation.start_temp_f", 100.0)
	v.SetDefault("hardware.simulation.ambient_f", 70.0)
	v.SetDefault("hardware.simulation.hi_limit_offset_f", 0.2)
	v.SetDefault("hardware.simulation.noise_f", 0.1)
	v.SetDefault("engine.poll_interval", time.Second)
	v.SetDefault("engine.flow_grace_period", 5 * time.Second)
	v.SetDefault("engine.max_flow_failures", 5)
	v.SetDefault("engine.temp_log_interval", time.Minute)
	v.SetDefault("engine.energy_flush_interval", time.Hour)
	v.SetDefault("scheduler.interval", time.Minute)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "opensoak")
	v.SetDefault("mqtt.topic_prefix", "opensoak")
	v.SetDefault("metrics.enabled", true)
}

// Load reads path (or configs/config.yml when path is empty), applies
// OPENSOAK_* environment overrides and validates the result. A missing
// default config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the controller cannot run safely with.
func (c *Config) Validate() error {
	if !logger.ValidLevel(c.LogLevel) {
		return fmt.Errorf("log_level %q: must be debug, info, warn or error", c.LogLevel)
	}
	if !logger.ValidFormat(c.LogFormat) {
		return fmt.Errorf("log_format %q: must be console or json", c.LogFormat)
	}
	if c.DB.Path == "" {
		return errors.New("db.path is required")
	}
	if strings.TrimSpace(c.Auth.SigningKey) == "" {
		return errors.New("auth.signing_key is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	switch c.Hardware.Mode {
	case ModeSimulated:
	case ModeGPIO:
		if err := c.Hardware.validateGPIO(); err != nil {
			return fmt.Errorf("hardware: %w", err)
		}
	default:
		return fmt.Errorf("hardware.mode %q: must be %s or %s", c.Hardware.Mode, ModeSimulated, ModeGPIO)
	}
	if c.Engine.PollInterval <= 0 {
		return errors.New("engine.poll_interval must be positive")
	}
	if c.Engine.FlowGracePeriod < 0 {
		return errors.New("engine.flow_grace_period must not be negative")
	}
	if c.Engine.MaxFlowFailures < 1 {
		return errors.New("engine.max_flow_failures must be at least 1")
	}
	if c.Engine.TempLogInterval <= 0 || c.Engine.EnergyFlushInterval <= 0 {
		return errors.New("engine log and flush intervals must be positive")
	}
	if c.Scheduler.Interval <= 0 {
		return errors.New("scheduler.interval must be positive")
	}
	return nil
}

func (h HardwareConfig) validateGPIO() error {
	if h.Chip == "" {
		return errors.New("chip is required")
	}
	seen := map[int]string{}
	for name, pin := range map[string]int{
		"circ_pump": h.Pins.CircPump,
		"heater":    h.Pins.Heater,
		"jet_pump":  h.Pins.JetPump,
		"light":     h.Pins.Light,
		"ozone":     h.Pins.Ozone,
	} {
		if pin < 0 {
			return fmt.Errorf("pins.%s must not be negative", name)
		}
		if other, dup := seen[pin]; dup {
			return fmt.Errorf("pins.%s and pins.%s share line %d", name, other, pin)
		}
		seen[pin] = name
	}
	if _, clash := seen[h.FlowPin]; clash && h.FlowPin >= 0 {
		return fmt.Errorf("flow_pin %d is already used by a relay", h.FlowPin)
	}
	t := h.Thermistor
	if len(t.CalibrationC) != 3 || len(t.CalibrationR) != 3 {
		return errors.New("thermistor calibration needs exactly three points")
	}
	if t.SeriesOhms <= 0 || t.VRef <= 0 {
		return errors.New("thermistor series_ohms and vref must be positive")
	}
	if h.SPI.PrimaryChannel == h.SPI.HiLimitChannel {
		return errors.New("spi primary and hi-limit channels must differ")
	}
	return nil
}

// LoggerOptions maps the log keys onto logger.Options.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{Level: c.LogLevel, Format: c.LogFormat}
}
