// Package metrics exposes safety engine telemetry to Prometheus.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "opensoak"

// Collector receives engine telemetry. Implementations must be safe for
// concurrent use.
type Collector interface {
	ObserveTick(outcome string, seconds float64)
	SetTemperature(probe string, f float64)
	SetRelay(component string, on bool)
	SetLocked(locked bool)
	SetFlowFailures(n int)
	AddEnergy(component string, kwh float64)
}

// Prometheus is a Collector backed by client_golang vectors.
type Prometheus struct {
	ticks        *prometheus.CounterVec
	tickDuration prometheus.Histogram
	temperature  *prometheus.GaugeVec
	relay        *prometheus.GaugeVec
	locked       prometheus.Gauge
	flowFailures prometheus.Gauge
	energy       *prometheus.CounterVec
}

// NewPrometheus creates the engine metrics and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "ticks_total",
			Help:      "Control loop ticks by outcome.",
		}, []string{"outcome"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent in one control loop tick.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_fahrenheit",
			Help:      "Last reading of each temperature probe.",
		}, []string{"probe"}),
		relay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_on",
			Help:      "Observed relay state (1 = on).",
		}, []string{"component"}),
		locked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "safety",
			Name:      "locked",
			Help:      "1 while a latched fault holds the system locked.",
		}),
		flowFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "safety",
			Name:      "flow_failures",
			Help:      "Consecutive failed flow checks.",
		}),
		energy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "energy",
			Name:      "kwh_total",
			Help:      "Energy flushed to storage per component.",
		}, []string{"component"}),
	}
	for _, c := range []prometheus.Collector{
		p.ticks, p.tickDuration, p.temperature, p.relay, p.locked, p.flowFailures, p.energy,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) ObserveTick(outcome string, seconds float64) {
	p.ticks.WithLabelValues(outcome).Inc()
	p.tickDuration.Observe(seconds)
}

func (p *Prometheus) SetTemperature(probe string, f float64) {
	p.temperature.WithLabelValues(probe).Set(f)
}

func (p *Prometheus) SetRelay(component string, on bool) {
	p.relay.WithLabelValues(component).Set(boolToFloat(on))
}

func (p *Prometheus) SetLocked(locked bool) { p.locked.Set(boolToFloat(locked)) }

func (p *Prometheus) SetFlowFailures(n int) { p.flowFailures.Set(float64(n)) }

func (p *Prometheus) AddEnergy(component string, kwh float64) {
	if kwh <= 0 {
		return
	}
	p.energy.WithLabelValues(component).Add(kwh)
}

// Nop discards everything.
type Nop struct{}

func (Nop) ObserveTick(string, float64)    {}
func (Nop) SetTemperature(string, float64) {}
func (Nop) SetRelay(string, bool)          {}
func (Nop) SetLocked(bool)                 {}
func (Nop) SetFlowFailures(int)            {}
func (Nop) AddEnergy(string, float64)      {}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
