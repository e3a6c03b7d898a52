// Package observability groups the service's logging, metrics and tracing.
//
// Subpackages:
//   - logging: slog setup and request-scoped loggers
//   - metrics: Prometheus collectors and recorders
//   - tracing: OpenTelemetry provider setup, middleware and span helpers
//   - slo: availability and latency gauges over recent /parse requests
package observability
