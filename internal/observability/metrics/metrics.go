package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for the appointment engine.
type SchedulingMetrics struct {
	transitionsTotal  *prometheus.CounterVec
	reservationsTotal *prometheus.CounterVec
	sweepTotal        *prometheus.CounterVec
	routeStops        prometheus.Histogram
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cbt",
			Subsystem: "turnos",
			Name:      "transitions_total",
			Help:      "Total appointment state transitions",
		}, []string{"action", "outcome"}),
		reservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cbt",
			Subsystem: "booking",
			Name:      "reservations_total",
			Help:      "Total reservation attempts",
		}, []string{"outcome"}),
		sweepTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cbt",
			Subsystem: "sweeper",
			Name:      "processed_total",
			Help:      "Total appointments processed by lifecycle sweeps",
		}, []string{"action", "outcome"}),
		routeStops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cbt",
			Subsystem: "routing",
			Name:      "route_stops",
			Help:      "Number of stops in computed inspection routes",
			Buckets:   []float64{1, 2, 5, 10, 20, 50},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitionsTotal, m.reservationsTotal, m.sweepTotal, m.routeStops)
	return m
}

func (m *SchedulingMetrics) ObserveTransition(action, outcome string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(action, outcome).Inc()
}

func (m *SchedulingMetrics) ObserveReservation(outcome string) {
	if m == nil {
		return
	}
	m.reservationsTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulingMetrics) ObserveSweep(action, outcome string) {
	if m == nil {
		return
	}
	m.sweepTotal.WithLabelValues(action, outcome).Inc()
}

func (m *SchedulingMetrics) ObserveRouteStops(n int) {
	if m == nil {
		return
	}
	m.routeStops.Observe(float64(n))
}
