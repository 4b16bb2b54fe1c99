package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	tr, err := New(context.Background(), Config{ServiceName: "crmd"})
	require.NoError(t, err)

	_, span := tr.Start(context.Background(), "noop")
	span.End()

	assert.False(t, span.SpanContext().IsValid())
	assert.NoError(t, tr.Shutdown(context.Background()))
}

// TestPurpose: Validates that the stdout exporter writes finished spans.
// Scope: Unit Test
// Expected: The span name appears in the exporter output after shutdown.
// Test Case ID: TRC-01
func TestNew_StdoutExporter(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()

	tr, err := New(ctx, Config{
		Enabled:     true,
		Exporter:    ExporterStdout,
		ServiceName: "crmd",
		Output:      &buf,
	})
	require.NoError(t, err)

	_, span := tr.Start(ctx, "customer.create")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, tr.Shutdown(ctx))
	assert.Contains(t, buf.String(), "customer.create")
}

func TestNew_UnknownExporter(t *testing.T) {
	_, err := New(context.Background(), Config{Enabled: true, Exporter: "zipkin"})
	assert.Error(t, err)
}
