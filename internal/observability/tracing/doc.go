// Package tracing provides OpenTelemetry tracing for the parser service.
//
// The HTTP middleware opens a server span per request and propagates W3C trace context.
// The parse pipeline opens child spans for fetching, decoding and extraction:
//
//	ctx, span := tracing.StartSpan(ctx, "parse.extract")
//	feed, err := extractor.Extract(ctx, page, base)
//	tracing.EndSpan(span, err)
//
// No exporter is configured by default; spans go to whatever provider is registered with otel.SetTracerProvider.
package tracing
