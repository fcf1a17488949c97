package hardware

// RelayCommand records one SetRelay call on a Fake.
type RelayCommand struct {
	Channel  Channel
	On       bool
	Accepted bool
}

// Fake is a scripted Controller for tests. Temperatures and flow are set
// directly; relay commands go through the same interlock as real hardware.
type Fake struct {
	// Temps holds the readings for ProbePrimary and ProbeHiLimit.
	Temps [2]float64
	// Flow overrides FlowDetected when non-nil; otherwise flow follows circulation.
	Flow *bool
	// ReadPanic, if set, is raised from ReadTemperature.
	ReadPanic any

	Commands  []RelayCommand
	Shutdowns int
	Closed    bool

	relays relayBank
}

// NewFake creates a Fake with both probes at the given readings.
func NewFake(primaryF, hiLimitF float64) *Fake {
	return &Fake{Temps: [2]float64{primaryF, hiLimitF}}
}

func (f *Fake) ReadTemperature(p Probe) float64 {
	if f.ReadPanic != nil {
		panic(f.ReadPanic)
	}
	if p < 0 || int(p) >= len(f.Temps) {
		return SensorFault
	}
	return f.Temps[p]
}

// SetTemp sets both probes to the same reading.
func (f *Fake) SetTemp(v float64) { f.Temps = [2]float64{v, v} }

// SetFlow pins FlowDetected to v.
func (f *Fake) SetFlow(v bool) { f.Flow = &v }

func (f *Fake) SetRelay(ch Channel, on bool) bool {
	ok := f.relays.set(ch, on)
	f.Commands = append(f.Commands, RelayCommand{Channel: ch, On: on, Accepted: ok})
	return ok
}

func (f *Fake) RelayState(ch Channel) bool { return f.relays.get(ch) }

func (f *Fake) AllStates() map[string]bool { return f.relays.all() }

func (f *Fake) FlowDetected() bool {
	if f.Flow != nil {
		return *f.Flow
	}
	return f.relays.get(CircPump)
}

func (f *Fake) EmergencyShutdown() {
	f.relays.off()
	f.Shutdowns++
}

func (f *Fake) Close() error {
	f.EmergencyShutdown()
	f.Closed = true
	return nil
}

// Rejected counts commands refused by the interlock.
func (f *Fake) Rejected() int { return f.relays.rejected }

// Reset clears recorded calls without touching relays or readings.
func (f *Fake) Reset() {
	f.Commands = nil
	f.Shutdowns = 0
	f.Closed = false
}
