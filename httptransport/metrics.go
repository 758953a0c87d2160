// Tencent is pleased to support the open source community by making trpc-oauth2-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-oauth2-go is licensed under the Apache License Version 2.0.

package httptransport

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder is an abstraction over metric reporting used by the
// metrics middleware. Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	// RecordRequest increments the total request counter for an endpoint.
	RecordRequest(ctx context.Context, endpoint string)
	// RecordError increments the error counter for an endpoint and status code.
	RecordError(ctx context.Context, endpoint string, status int)
	// RecordLatency records the observed request latency in milliseconds.
	RecordLatency(ctx context.Context, endpoint string, latencyMs float64)
}

// OtelMetricsRecorder reports through OpenTelemetry instruments:
//   - oauth2_requests_total (counter) by endpoint
//   - oauth2_errors_total (counter) by endpoint and status
//   - oauth2_request_duration_ms (histogram) by endpoint
//
// Endpoint names are the fixed protocol endpoints, so attribute cardinality
// stays low.
type OtelMetricsRecorder struct {
	requestCounter metric.Int64Counter
	errorCounter   metric.Int64Counter
	latencyHist    metric.Float64Histogram
}

// NewOtelMetricsRecorder builds a recorder on the given meter. A nil meter
// uses the global meter provider.
func NewOtelMetricsRecorder(meter metric.Meter) (*OtelMetricsRecorder, error) {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter("trpc.group/trpc-go/trpc-oauth2-go/httptransport")
	}
	requestCounter, err := meter.Int64Counter("oauth2_requests_total",
		metric.WithDescription("Total OAuth 2.0 endpoint requests"))
	if err != nil {
		return nil, err
	}
	errorCounter, err := meter.Int64Counter("oauth2_errors_total",
		metric.WithDescription("Total OAuth 2.0 endpoint error responses"))
	if err != nil {
		return nil, err
	}
	latencyHist, err := meter.Float64Histogram("oauth2_request_duration_ms",
		metric.WithDescription("OAuth 2.0 endpoint request latency in milliseconds"))
	if err != nil {
		return nil, err
	}
	return &OtelMetricsRecorder{
		requestCounter: requestCounter,
		errorCounter:   errorCounter,
		latencyHist:    latencyHist,
	}, nil
}

// RecordRequest implements MetricsRecorder.
func (r *OtelMetricsRecorder) RecordRequest(ctx context.Context, endpoint string) {
	r.requestCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}

// RecordError implements MetricsRecorder.
func (r *OtelMetricsRecorder) RecordError(ctx context.Context, endpoint string, status int) {
	r.errorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.Int("status", status),
	))
}

// RecordLatency implements MetricsRecorder.
func (r *OtelMetricsRecorder) RecordLatency(ctx context.Context, endpoint string, latencyMs float64) {
	r.latencyHist.Record(ctx, latencyMs, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}

// WithMetrics returns a middleware that records request count, error count
// and latency for the named endpoint. A nil recorder makes the middleware a
// no-op.
func WithMetrics(recorder MetricsRecorder, endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			statusW := &statusRecorder{ResponseWriter: w}

			recorder.RecordRequest(r.Context(), endpoint)
			next.ServeHTTP(statusW, r)

			if statusW.status >= http.StatusBadRequest {
				recorder.RecordError(r.Context(), endpoint, statusW.status)
			}
			recorder.RecordLatency(r.Context(), endpoint, float64(time.Since(start).Milliseconds()))
		})
	}
}
