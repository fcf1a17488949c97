//go:build !linux

package hardware

import (
	"errors"

	"opensoak/internal/logger"
)

// GPIO is not available on non-Linux platforms.
type GPIO struct {
	relayBank
}

// NewGPIO returns an error on non-Linux platforms.
func NewGPIO(cfg GPIOConfig, adc voltageReader, therm *Thermistor, log *logger.Logger) (*GPIO, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

func (g *GPIO) ReadTemperature(p Probe) float64   { return SensorFault }
func (g *GPIO) SetRelay(ch Channel, on bool) bool { return false }
func (g *GPIO) RelayState(ch Channel) bool        { return false }
func (g *GPIO) AllStates() map[string]bool        { return g.all() }
func (g *GPIO) FlowDetected() bool                { return false }
func (g *GPIO) EmergencyShutdown()                {}
func (g *GPIO) Close() error                      { return nil }
