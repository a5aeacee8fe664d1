package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap/zaptest"

	"github.com/sitemanager/backend/internal/infrastructure/config"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	tp, err := NewTracerProvider(ctx, Config{Enabled: false, ServiceName: "test-service"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewTracerProviderWithExporter(t *testing.T) {
	exporter := newRecordingTracer(t)

	_, span := StartServiceSpan(context.Background(), "unit", "test", WithAttribute("k", "v"))
	span.End()

	stub := spanNamed(t, exporter, "unit.test")
	v, ok := attrValue(stub, "k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
	svc, ok := stub.Resource.Set().Value(attribute.Key("service.name"))
	require.True(t, ok)
	assert.Equal(t, "test-service", svc.AsString())
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.TelemetryConfig{
		Enabled:           true,
		CollectorEndpoint: "otel:4317",
		SamplingRatio:     0.25,
		ServiceName:       "svc",
		Insecure:          true,
	})
	assert.Equal(t, Config{Enabled: true, CollectorEndpoint: "otel:4317", SamplingRatio: 0.25, ServiceName: "svc", Insecure: true}, cfg)
}
