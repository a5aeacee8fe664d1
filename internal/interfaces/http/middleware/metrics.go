package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sitemanager/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Enabled       bool
}

type httpMetrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	responseSize    metric.Float64Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	in := telemetry.NewInstruments(meter)
	m := &httpMetrics{
		requestTotal: in.Counter("http_server_request_total", "Total number of HTTP requests", "{request}"),
		requestDuration: in.Histogram("http_server_request_duration_seconds",
			"HTTP request latency distribution in seconds", "s", telemetry.HTTPDurationBuckets...),
		responseSize: in.Histogram("http_server_response_size_bytes",
			"HTTP response body size distribution in bytes", "By", 100, 500, 1000, 5000, 10000, 50000, 100000, 500000),
		activeRequests: in.UpDownCounter("http_server_active_requests", "Number of currently active HTTP requests", "{request}"),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// HTTPMetrics returns a Gin middleware that collects HTTP metrics. It is a
// no-op when metrics are disabled.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(cfg.MeterProvider.Meter("http.server"), true)
}

// HTTPMetricsWithMeter returns HTTP metrics middleware using an existing meter.
func HTTPMetricsWithMeter(meter metric.Meter, enabled bool) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}
	metrics, err := newHTTPMetrics(meter)
	if err != nil {
		return passThrough
	}
	return metrics.middleware
}

func passThrough(c *gin.Context) {
	c.Next()
}

func (m *httpMetrics) middleware(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()

	m.activeRequests.Add(ctx, 1)
	c.Next()
	m.activeRequests.Add(ctx, -1)

	route := c.FullPath()
	if route == "" {
		route = "unknown"
	}
	baseAttrs := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(c.Request.Method),
		telemetry.AttrHTTPRoute.String(route),
	}

	// Counters carry the status and site; histograms stay at method+route.
	requestAttrs := append([]attribute.KeyValue{
		telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()),
	}, baseAttrs...)
	if siteID := GetActingSiteID(c); siteID != "" {
		requestAttrs = append(requestAttrs, telemetry.AttrSiteID.String(siteID))
	}
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(requestAttrs...))
	m.requestDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(baseAttrs...))
	if size := c.Writer.Size(); size > 0 {
		m.responseSize.Record(ctx, float64(size), metric.WithAttributes(baseAttrs...))
	}
}
