// Copyright 2026 The crmd Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
	// Interval between exports. Defaults to one minute.
	Interval time.Duration
	// Output receives exported metrics. Defaults to stdout.
	Output io.Writer
}

// Meter wraps an OpenTelemetry meter and the provider that owns it
type Meter struct {
	meter    metric.Meter
	provider metric.MeterProvider
	shutdown func(context.Context) error
}

// New creates a new meter instance. When metrics are disabled a no-op
// provider is used so instruments can still be created and recorded.
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		return &Meter{
			meter:    provider.Meter(serviceName),
			provider: provider,
			shutdown: func(context.Context) error { return nil },
		}, nil
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(out))
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(provider)

	return &Meter{
		meter:    provider.Meter(serviceName),
		provider: provider,
		shutdown: provider.Shutdown,
	}, nil
}

// GetMeter returns the underlying meter
func (m *Meter) GetMeter() metric.Meter {
	return m.meter
}

// Provider returns the meter provider, for instrumenting libraries
func (m *Meter) Provider() metric.MeterProvider {
	return m.provider
}

// Shutdown flushes pending metrics and stops the exporter
func (m *Meter) Shutdown(ctx context.Context) error {
	return m.shutdown(ctx)
}

// CreateCounter creates a new counter metric
func (m *Meter) CreateCounter(name, description string) (metric.Int64Counter, error) {
	counter, err := m.meter.Int64Counter(
		name,
		metric.WithDescription(description),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return counter, nil
}

// CreateHistogram creates a new histogram metric
func (m *Meter) CreateHistogram(name, description, unit string) (metric.Float64Histogram, error) {
	histogram, err := m.meter.Float64Histogram(
		name,
		metric.WithDescription(description),
		metric.WithUnit(unit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", name, err)
	}
	return histogram, nil
}
