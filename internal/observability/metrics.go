package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the winds service.
type Metrics struct {
	WindBatches        *prometheus.CounterVec // labels: outcome={success,invalid_input,upstream_error}
	WaypointsRequested prometheus.Counter
	WaypointsOmitted   *prometheus.CounterVec // labels: reason={bad_coordinates,no_data}
	SamplesProduced    prometheus.Counter
	UpstreamDuration   *prometheus.HistogramVec // labels: provider

	MetarRequests *prometheus.CounterVec // labels: outcome={success,bad_request,upstream_error}
	UpstreamUp    prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.WindBatches,
		m.WaypointsRequested,
		m.WaypointsOmitted,
		m.SamplesProduced,
		m.UpstreamDuration,
		m.MetarRequests,
		m.UpstreamUp,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		WindBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "route_winds",
			Name:      "batches_total",
			Help:      "Wind batch requests by outcome.",
		}, []string{"outcome"}),
		WaypointsRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "route_winds",
			Name:      "waypoints_requested_total",
			Help:      "Waypoints received across all batches.",
		}),
		WaypointsOmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "route_winds",
			Name:      "waypoints_omitted_total",
			Help:      "Waypoints that produced no sample, by reason.",
		}, []string{"reason"}),
		SamplesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "route_winds",
			Name:      "samples_produced_total",
			Help:      "Wind samples returned to callers.",
		}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "route_winds",
			Name:      "upstream_duration_seconds",
			Help:      "Upstream forecast request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		MetarRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "route_winds",
			Name:      "metar_requests_total",
			Help:      "METAR proxy requests by outcome.",
		}, []string{"outcome"}),
		UpstreamUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "route_winds",
			Name:      "upstream_up",
			Help:      "1 when the last readiness probe succeeded, 0 otherwise.",
		}),
	}
}
