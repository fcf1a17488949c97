//go:build linux

package hardware

import (
	"errors"
	"fmt"

	"opensoak/internal/logger"

	"github.com/warthog618/go-gpiocdev"
)

const gpioConsumer = "opensoak"

// GPIO drives the relay board through the Linux GPIO character device and
// reads the probes from an MCP3008.
type GPIO struct {
	chip     *gpiocdev.Chip
	lines    map[Channel]*gpiocdev.Line
	flow     *gpiocdev.Line
	adc      voltageReader
	therm    *Thermistor
	channels [2]int
	log      *logger.Logger
}

// NewGPIO requests every relay line as an output driven off, plus the flow
// switch input when one is configured.
func NewGPIO(cfg GPIOConfig, adc voltageReader, therm *Thermistor, log *logger.Logger) (*GPIO, error) {
	chip, err := gpiocdev.NewChip(cfg.Chip, gpiocdev.WithConsumer(gpioConsumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	g := &GPIO{
		chip:     chip,
		lines:    make(map[Channel]*gpiocdev.Line, len(Channels)),
		adc:      adc,
		therm:    therm,
		channels: [2]int{cfg.PrimaryChannel, cfg.HiLimitChannel},
		log:      log,
	}

	for _, ch := range Channels {
		pin, ok := cfg.Pins[ch]
		if !ok {
			g.release()
			return nil, fmt.Errorf("no pin configured for %s", ch)
		}
		opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
		if cfg.ActiveLow {
			opts = append(opts, gpiocdev.AsActiveLow)
		}
		line, err := chip.RequestLine(pin, opts...)
		if err != nil {
			g.release()
			return nil, fmt.Errorf("request %s pin %d: %w", ch, pin, err)
		}
		g.lines[ch] = line
	}

	if cfg.FlowPin >= 0 {
		opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullUp}
		if cfg.FlowActiveLow {
			opts = append(opts, gpiocdev.AsActiveLow)
		}
		flow, err := chip.RequestLine(cfg.FlowPin, opts...)
		if err != nil {
			g.release()
			return nil, fmt.Errorf("request flow pin %d: %w", cfg.FlowPin, err)
		}
		g.flow = flow
	} else {
		log.Warnw("no_flow_switch_configured", "fallback", "circulation relay state")
	}
	return g, nil
}

// ReadTemperature converts one ADC channel through the thermistor model.
func (g *GPIO) ReadTemperature(p Probe) float64 {
	if p < 0 || int(p) >= len(g.channels) {
		return SensorFault
	}
	volts, err := g.adc.ReadVolts(g.channels[p], g.therm.vref)
	if err != nil {
		g.log.Warnw("temperature_read_failed", "probe", int(p), "err", err)
		return SensorFault
	}
	return g.therm.Fahrenheit(volts)
}

// SetRelay drives one relay. Heater on is refused unless the circulation
// line currently reads on.
func (g *GPIO) SetRelay(ch Channel, on bool) bool {
	line, ok := g.lines[ch]
	if !ok {
		return false
	}
	if !interlockAllows(ch, on, g.RelayState(CircPump)) {
		g.log.Warnw("interlock_rejected_heater", "reason", "circulation off")
		g.write(Heater, false)
		return false
	}
	if err := line.SetValue(boolToValue(on)); err != nil {
		g.log.Errorw("relay_write_failed", "relay", ch.String(), "on", on, "err", err)
		return false
	}
	if ch == CircPump && !on {
		g.write(Heater, false)
	}
	return true
}

func (g *GPIO) RelayState(ch Channel) bool {
	line, ok := g.lines[ch]
	if !ok {
		return false
	}
	v, err := line.Value()
	if err != nil {
		g.log.Errorw("relay_read_failed", "relay", ch.String(), "err", err)
		return false
	}
	return v == 1
}

func (g *GPIO) AllStates() map[string]bool {
	out := make(map[string]bool, len(Channels))
	for _, ch := range Channels {
		out[ch.String()] = g.RelayState(ch)
	}
	return out
}

// FlowDetected reads the flow switch, or the circulation relay when no
// switch is fitted.
func (g *GPIO) FlowDetected() bool {
	if g.flow == nil {
		return g.RelayState(CircPump)
	}
	v, err := g.flow.Value()
	if err != nil {
		g.log.Errorw("flow_read_failed", "err", err)
		return false
	}
	return v == 1
}

// EmergencyShutdown drives every relay off, heater first.
func (g *GPIO) EmergencyShutdown() {
	g.write(Heater, false)
	for _, ch := range Channels {
		g.write(ch, false)
	}
	g.log.Warnw("emergency_shutdown_executed")
}

// Close shuts every relay off and releases the lines, chip and ADC.
func (g *GPIO) Close() error {
	g.EmergencyShutdown()
	return g.release()
}

func (g *GPIO) write(ch Channel, on bool) {
	if line, ok := g.lines[ch]; ok {
		if err := line.SetValue(boolToValue(on)); err != nil {
			g.log.Errorw("relay_write_failed", "relay", ch.String(), "on", on, "err", err)
		}
	}
}

func (g *GPIO) release() error {
	var errs []error
	for ch, line := range g.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s line: %w", ch, err))
		}
	}
	g.lines = nil
	if g.flow != nil {
		if err := g.flow.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close flow line: %w", err))
		}
		g.flow = nil
	}
	if g.chip != nil {
		if err := g.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		g.chip = nil
	}
	if g.adc != nil {
		if err := g.adc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close adc: %w", err))
		}
		g.adc = nil
	}
	return errors.Join(errs...)
}

func boolToValue(on bool) int {
	if on {
		return 1
	}
	return 0
}
