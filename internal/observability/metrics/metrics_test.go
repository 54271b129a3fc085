package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSchedulingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulingMetrics(reg)
	m.ObserveTransition("confirm", "applied")
	m.ObserveReservation("created")
	m.ObserveSweep("expire", "ok")
	m.ObserveRouteStops(4)
}

func TestSchedulingMetricsNilSafe(t *testing.T) {
	var m *SchedulingMetrics
	m.ObserveTransition("confirm", "applied")
	m.ObserveReservation("created")
	m.ObserveSweep("expire", "ok")
	m.ObserveRouteStops(1)
}
