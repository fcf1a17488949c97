package hardware

import (
	"fmt"

	"opensoak/internal/config"
	"opensoak/internal/logger"
)

// New builds the backend selected by cfg.Mode. The choice is made once here.
func New(cfg config.HardwareConfig, log *logger.Logger) (Controller, error) {
	switch cfg.Mode {
	case config.ModeSimulated:
		log.Infow("hardware_simulation_mode")
		return NewSimulated(SimConfig{
			StartTempF:     cfg.Simulation.StartTempF,
			AmbientF:       cfg.Simulation.AmbientF,
			HiLimitOffsetF: cfg.Simulation.HiLimitOffsetF,
			NoiseF:         cfg.Simulation.NoiseF,
		}), nil
	case config.ModeGPIO:
		therm, err := NewThermistor(ThermistorParams{
			SeriesOhms:   cfg.Thermistor.SeriesOhms,
			VRef:         cfg.Thermistor.VRef,
			OffsetC:      cfg.Thermistor.OffsetC,
			CalibrationC: cfg.Thermistor.CalibrationC,
			CalibrationR: cfg.Thermistor.CalibrationR,
		})
		if err != nil {
			return nil, fmt.Errorf("thermistor: %w", err)
		}
		adc, err := OpenMCP3008(cfg.SPI.Port, cfg.SPI.SpeedHz)
		if err != nil {
			return nil, err
		}
		g, err := NewGPIO(GPIOConfig{
			Chip:           cfg.Chip,
			ActiveLow:      cfg.RelayActiveLow,
			Pins:           pinMap(cfg.Pins),
			FlowPin:        cfg.FlowPin,
			FlowActiveLow:  cfg.FlowActiveLow,
			PrimaryChannel: cfg.SPI.PrimaryChannel,
			HiLimitChannel: cfg.SPI.HiLimitChannel,
		}, adc, therm, log)
		if err != nil {
			_ = adc.Close()
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown hardware mode %q", cfg.Mode)
	}
}

func pinMap(p config.RelayPins) map[Channel]int {
	return map[Channel]int{
		CircPump: p.CircPump,
		Heater:   p.Heater,
		JetPump:  p.JetPump,
		Light:    p.Light,
		Ozone:    p.Ozone,
	}
}
