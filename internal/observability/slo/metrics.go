// Package slo tracks service level indicators for the parse endpoint.
package slo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SLO targets for /parse. Latency includes the remote fetch and, when enabled, the LLM call.
const (
	// AvailabilitySLO is the target share of parse requests answered without a server error, in percent.
	AvailabilitySLO = 99.0

	// LatencyP95SLO is the 95th percentile latency target in seconds.
	LatencyP95SLO = 30.0

	// LatencyP99SLO is the 99th percentile latency target in seconds.
	LatencyP99SLO = 60.0

	// ErrorRateSLO is the maximum acceptable error ratio.
	ErrorRateSLO = 0.01
)

// Gauges are refreshed by Tracker after every observation.
var (
	// SLOAvailability is (requests - 5xx) / requests over the tracker window.
	SLOAvailability = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_availability_ratio",
			Help: "Availability ratio (0-1) of recent parse requests, target: 0.99",
		},
	)

	SLOLatencyP95 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_latency_p95_seconds",
			Help: "p95 latency of recent parse requests in seconds, target: 30",
		},
	)

	SLOLatencyP99 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_latency_p99_seconds",
			Help: "p99 latency of recent parse requests in seconds, target: 60",
		},
	)

	// SLOErrorRate is 5xx / requests over the tracker window.
	SLOErrorRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_error_rate_ratio",
			Help: "Error ratio (0-1) of recent parse requests, target: 0.01",
		},
	)
)

// UpdateAvailability sets the availability gauge.
func UpdateAvailability(ratio float64) {
	SLOAvailability.Set(ratio)
}

// UpdateLatencyP95 sets the p95 latency gauge.
func UpdateLatencyP95(seconds float64) {
	SLOLatencyP95.Set(seconds)
}

// UpdateLatencyP99 sets the p99 latency gauge.
func UpdateLatencyP99(seconds float64) {
	SLOLatencyP99.Set(seconds)
}

// UpdateErrorRate sets the error rate gauge.
func UpdateErrorRate(ratio float64) {
	SLOErrorRate.Set(ratio)
}
