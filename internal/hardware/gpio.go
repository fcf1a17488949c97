package hardware

// GPIOConfig describes the relay board wiring.
type GPIOConfig struct {
	Chip           string
	ActiveLow      bool // relay energizes when the line is driven low
	Pins           map[Channel]int
	FlowPin        int // <0: no flow switch, flow follows the circulation relay
	FlowActiveLow  bool
	PrimaryChannel int // ADC channels of the two probes
	HiLimitChannel int
}

// voltageReader is the ADC as seen by the GPIO controller.
type voltageReader interface {
	ReadVolts(ch int, vref float64) (float64, error)
	Close() error
}
