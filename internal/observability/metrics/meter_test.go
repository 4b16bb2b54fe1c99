package metrics

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func TestNew_Disabled(t *testing.T) {
	m, err := New(context.Background(), Config{}, "crmd")
	require.NoError(t, err)

	counter, err := m.CreateCounter("crm.customer.operations", "customer operations")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	assert.NoError(t, m.Shutdown(context.Background()))
}

// TestPurpose: Validates that enabled metrics are flushed to the configured writer on shutdown.
// Scope: Unit Test
// Expected: The exported payload names the recorded counter.
// Test Case ID: MET-01
func TestNew_EnabledExportsOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()

	m, err := New(ctx, Config{Enabled: true, Output: &buf}, "crmd")
	require.NoError(t, err)

	counter, err := m.CreateCounter("crm.customer.operations", "customer operations")
	require.NoError(t, err)
	counter.Add(ctx, 2, metric.WithAttributes(attribute.String("operation", "create")))

	require.NoError(t, m.Shutdown(ctx))
	assert.Contains(t, buf.String(), "crm.customer.operations")
}
