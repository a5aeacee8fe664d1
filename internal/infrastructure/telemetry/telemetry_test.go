package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

// newRecordingTracer installs a synchronous in-memory tracer for the test.
func newRecordingTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp, err := NewTracerProviderWithExporter(Config{ServiceName: "test-service", SamplingRatio: 1.0}, exporter, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

func spanNamed(t *testing.T, exporter *tracetest.InMemoryExporter, name string) tracetest.SpanStub {
	t.Helper()
	for _, s := range exporter.GetSpans() {
		if s.Name == name {
			return s
		}
	}
	require.Failf(t, "span not found", "no span %q in %d spans", name, len(exporter.GetSpans()))
	return tracetest.SpanStub{}
}

func attrValue(stub tracetest.SpanStub, key string) (any, bool) {
	for _, kv := range stub.Attributes {
		if string(kv.Key) == key {
			return kv.Value.AsInterface(), true
		}
	}
	return nil, false
}
