package engine

import (
	"sync"
	"time"

	"opensoak/internal/models"
)

// EnergyAccumulator sums per-component on-time between flushes. The engine
// worker accumulates and flushes; API readers project concurrently.
type EnergyAccumulator struct {
	mu          sync.Mutex
	seconds     map[string]float64
	last        time.Time
	periodStart time.Time
}

func NewEnergyAccumulator() *EnergyAccumulator {
	return &EnergyAccumulator{seconds: make(map[string]float64)}
}

// Accumulate adds the wall time since the previous call to every component
// that is on. The first call only starts the clock.
func (a *EnergyAccumulator) Accumulate(now time.Time, states map[string]bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last.IsZero() {
		a.last = now
		a.periodStart = now
		return
	}
	elapsed := now.Sub(a.last).Seconds()
	a.last = now
	if elapsed <= 0 {
		return
	}
	for name, on := range states {
		if on {
			a.seconds[name] += elapsed
		}
	}
}

// Restart moves the clock to now without crediting anything. Used when a
// tick could not observe the relays.
func (a *EnergyAccumulator) Restart(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.periodStart.IsZero() {
		a.periodStart = now
	}
	a.last = now
}

// Flush converts the accumulated runtime into samples and hands them to
// persist. Runtime is only deducted once persist succeeds.
func (a *EnergyAccumulator) Flush(now time.Time, watts map[string]float64, price float64, persist func([]models.EnergySample) error) ([]models.EnergySample, error) {
	a.mu.Lock()
	samples := a.samplesLocked(now, watts, price)
	a.mu.Unlock()

	if len(samples) > 0 {
		if err := persist(samples); err != nil {
			return nil, err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range samples {
		a.seconds[s.Component] -= s.RuntimeSeconds
		if a.seconds[s.Component] <= 0 {
			delete(a.seconds, s.Component)
		}
	}
	a.periodStart = now
	return samples, nil
}

// Project returns what a flush at now would produce, without flushing.
func (a *EnergyAccumulator) Project(now time.Time, watts map[string]float64, price float64) []models.EnergySample {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.samplesLocked(now, watts, price)
}

// Seconds returns the accumulated runtime of one component.
func (a *EnergyAccumulator) Seconds(component string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seconds[component]
}

func (a *EnergyAccumulator) samplesLocked(now time.Time, watts map[string]float64, price float64) []models.EnergySample {
	var out []models.EnergySample
	for _, name := range models.Components {
		secs := a.seconds[name]
		if secs <= 0 {
			continue
		}
		kwh, cost := EnergyCost(watts[name], secs, price)
		out = append(out, models.EnergySample{
			Component:      name,
			RuntimeSeconds: secs,
			KWh:            kwh,
			Cost:           cost,
			PeriodStart:    a.periodStart.UTC(),
			PeriodEnd:      now.UTC(),
		})
	}
	return out
}

// EnergyCost converts runtime at a load into kWh and cost.
func EnergyCost(watts, seconds, pricePerKWh float64) (kwh, cost float64) {
	kwh = watts * seconds / 3600 / 1000
	return kwh, kwh * pricePerKWh
}
