package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	if err != nil {
		t.Fatalf("NewPrometheus() error = %v", err)
	}

	p.ObserveTick("continue", 0.002)
	p.ObserveTick("continue", 0.001)
	p.ObserveTick("locked", 0.001)
	if got := testutil.ToFloat64(p.ticks.WithLabelValues("continue")); got != 2 {
		t.Fatalf("continue ticks = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(p.tickDuration); n != 1 {
		t.Fatalf("tick histogram series = %d, want 1", n)
	}

	p.SetTemperature("primary", 101.5)
	if got := testutil.ToFloat64(p.temperature.WithLabelValues("primary")); got != 101.5 {
		t.Fatalf("primary temperature = %v", got)
	}

	p.SetRelay("heater", true)
	if got := testutil.ToFloat64(p.relay.WithLabelValues("heater")); got != 1 {
		t.Fatalf("heater relay gauge = %v, want 1", got)
	}
	p.SetRelay("heater", false)
	if got := testutil.ToFloat64(p.relay.WithLabelValues("heater")); got != 0 {
		t.Fatalf("heater relay gauge = %v, want 0", got)
	}

	p.SetLocked(true)
	p.SetFlowFailures(3)
	if testutil.ToFloat64(p.locked) != 1 || testutil.ToFloat64(p.flowFailures) != 3 {
		t.Fatalf("safety gauges not set")
	}

	p.AddEnergy("heater", 1.25)
	p.AddEnergy("heater", 0)
	if got := testutil.ToFloat64(p.energy.WithLabelValues("heater")); got != 1.25 {
		t.Fatalf("heater energy = %v, want 1.25", got)
	}
}

func TestPrometheusDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheus(reg); err != nil {
		t.Fatalf("first NewPrometheus() error = %v", err)
	}
	if _, err := NewPrometheus(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestNopSatisfiesCollector(t *testing.T) {
	var c Collector = Nop{}
	c.ObserveTick("error", 1)
	c.AddEnergy("light", 1)
}
