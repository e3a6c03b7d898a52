// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Parse pipeline metrics (page fetches, LLM calls, extraction results, cache lookups)
//   - History store query metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	start := time.Now()
//	result, err := svc.Parse(ctx, req)
//	metrics.RecordParse(string(result.Source), "success", time.Since(start), len(result.Items))
package metrics
