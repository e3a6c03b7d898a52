package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installExporter(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(sdktrace.NewTracerProvider()) })
	return exporter, tp
}

func serve(statusCode int, path string) *httptest.ResponseRecorder {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestMiddleware_CreatesSpan(t *testing.T) {
	exporter, tp := installExporter(t)

	serve(http.StatusOK, "/parse")
	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "GET /parse" {
		t.Errorf("expected span name 'GET /parse', got '%s'", span.Name)
	}

	want := map[attribute.Key]string{
		"http.method": "GET",
		"http.path":   "/parse",
	}
	found := 0
	for _, attr := range span.Attributes {
		switch attr.Key {
		case "http.method", "http.path":
			found++
			if attr.Value.AsString() != want[attr.Key] {
				t.Errorf("expected %s=%s, got %s", attr.Key, want[attr.Key], attr.Value.AsString())
			}
		case "http.status_code":
			found++
			if attr.Value.AsInt64() != 200 {
				t.Errorf("expected http.status_code=200, got %d", attr.Value.AsInt64())
			}
		}
	}
	if found != 3 {
		t.Errorf("expected 3 http attributes, found %d", found)
	}
}

func TestMiddleware_AddsTraceIDToResponse(t *testing.T) {
	installExporter(t)

	rr := serve(http.StatusOK, "/health")

	traceID := rr.Header().Get("X-Trace-Id")
	if len(traceID) != 32 {
		t.Errorf("expected 32 hex trace id, got %q", traceID)
	}
}

func TestMiddleware_PropagatesTraceContext(t *testing.T) {
	exporter, tp := installExporter(t)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/parse", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if got := spans[0].SpanContext.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace id not propagated, got %s", got)
	}
}

func TestMiddleware_StatusByResponseCode(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   codes.Code
	}{
		{name: "5xx marks error", status: http.StatusInternalServerError, want: codes.Error},
		{name: "4xx stays unset", status: http.StatusNotFound, want: codes.Unset},
		{name: "2xx stays unset", status: http.StatusOK, want: codes.Unset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter, tp := installExporter(t)

			serve(tt.status, "/parse")
			_ = tp.ForceFlush(context.Background())

			spans := exporter.GetSpans()
			if len(spans) != 1 {
				t.Fatalf("expected 1 span, got %d", len(spans))
			}
			if spans[0].Status.Code != tt.want {
				t.Errorf("status = %v, want %v", spans[0].Status.Code, tt.want)
			}
		})
	}
}

func TestStartSpan_EndSpan(t *testing.T) {
	exporter, _ := installExporter(t)

	_, ok := StartSpan(context.Background(), "parse.fetch", attribute.String("url", "https://example.com"))
	EndSpan(ok, nil)

	_, failed := StartSpan(context.Background(), "parse.extract")
	EndSpan(failed, errors.New("llm unavailable"))

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "parse.fetch" || spans[0].Status.Code != codes.Unset {
		t.Errorf("unexpected first span: %s %v", spans[0].Name, spans[0].Status.Code)
	}
	if spans[0].Attributes[0].Value.AsString() != "https://example.com" {
		t.Errorf("url attribute missing")
	}
	if spans[1].Status.Code != codes.Error || spans[1].Status.Description != "llm unavailable" {
		t.Errorf("second span should carry the error, got %+v", spans[1].Status)
	}
	if len(spans[1].Events) != 1 {
		t.Errorf("expected a recorded error event, got %d", len(spans[1].Events))
	}
}

func TestResponseWriter_CapturesStatusCode(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())

	if rw.statusCode != http.StatusOK {
		t.Errorf("expected default status code 200, got %d", rw.statusCode)
	}

	rw.WriteHeader(http.StatusCreated)

	if rw.statusCode != http.StatusCreated {
		t.Errorf("expected status code 201, got %d", rw.statusCode)
	}
}
