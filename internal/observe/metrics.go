// Package observe provides application-wide observability primitives for
// Auricle: OpenTelemetry metrics, tracing, structured logging, and HTTP
// middleware for the metrics endpoint.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Auricle metrics.
const meterName = "github.com/auricle-voice/auricle"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Counters ---

	// WakeDetections counts wake-phrase detections. Use with attribute:
	//   attribute.String("label", ...)
	WakeDetections metric.Int64Counter

	// SessionsOpened counts live session connection attempts. Use with
	// attribute: attribute.String("status", "ok"|"error")
	SessionsOpened metric.Int64Counter

	// ChunksSent counts audio chunks streamed to the remote model.
	ChunksSent metric.Int64Counter

	// ChunksReceived counts audio chunks received from the remote model.
	ChunksReceived metric.Int64Counter

	// InactivityTimeouts counts sessions ended by the inactivity watchdog.
	InactivityTimeouts metric.Int64Counter

	// --- Histograms ---

	// SessionDuration tracks how long each live session lasted.
	SessionDuration metric.Float64Histogram

	// --- Gauges ---

	// ActiveSessions tracks the number of currently open live sessions
	// (0 or 1 for a single assistant, but counted for fleet dashboards).
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time on the metrics
	// endpoint. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// sessionBuckets defines histogram bucket boundaries (in seconds) sized for
// conversational session lifetimes.
var sessionBuckets = []float64{
	1, 5, 10, 30, 60, 120, 300, 600, 1800,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Counters.
	if met.WakeDetections, err = m.Int64Counter("auricle.wake.detections",
		metric.WithDescription("Total wake-phrase detections by label."),
	); err != nil {
		return nil, err
	}
	if met.SessionsOpened, err = m.Int64Counter("auricle.sessions.opened",
		metric.WithDescription("Total live session connection attempts by status."),
	); err != nil {
		return nil, err
	}
	if met.ChunksSent, err = m.Int64Counter("auricle.audio.chunks_sent",
		metric.WithDescription("Total microphone chunks streamed to the remote model."),
	); err != nil {
		return nil, err
	}
	if met.ChunksReceived, err = m.Int64Counter("auricle.audio.chunks_received",
		metric.WithDescription("Total audio chunks received from the remote model."),
	); err != nil {
		return nil, err
	}
	if met.InactivityTimeouts, err = m.Int64Counter("auricle.sessions.inactivity_timeouts",
		metric.WithDescription("Total sessions ended by the inactivity watchdog."),
	); err != nil {
		return nil, err
	}

	// Histograms.
	if met.SessionDuration, err = m.Float64Histogram("auricle.session.duration",
		metric.WithDescription("Duration of live sessions."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(sessionBuckets...),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("auricle.active_sessions",
		metric.WithDescription("Number of currently open live sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("auricle.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordWakeDetection records a wake-phrase detection for the given label.
func (m *Metrics) RecordWakeDetection(ctx context.Context, label string) {
	m.WakeDetections.Add(ctx, 1,
		metric.WithAttributes(attribute.String("label", label)),
	)
}

// RecordSessionOpened records a live session connection attempt with the
// given status ("ok" or "error").
func (m *Metrics) RecordSessionOpened(ctx context.Context, status string) {
	m.SessionsOpened.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordInactivityTimeout records a session ended by the watchdog.
func (m *Metrics) RecordInactivityTimeout(ctx context.Context) {
	m.InactivityTimeouts.Add(ctx, 1)
}
