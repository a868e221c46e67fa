package cli

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	otelProm "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/keboola/go-ajax/pkg/ajax"
)

// metrics collects the coordinator metrics, they are printed in the Prometheus text format.
type metrics struct {
	registry *prometheus.Registry
	provider *metric.MeterProvider
}

func newMetrics() (*metrics, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelProm.New(otelProm.WithRegisterer(registry), otelProm.WithoutScopeInfo())
	if err != nil {
		return nil, fmt.Errorf("cannot create metrics exporter: %w", err)
	}
	return &metrics{registry: registry, provider: metric.NewMeterProvider(metric.WithReader(exporter))}, nil
}

func (m *metrics) option() ajax.Option {
	return ajax.WithTelemetry(nil, m.provider)
}

func (m *metrics) print(out io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("cannot gather metrics: %w", err)
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(out, family); err != nil {
			return err
		}
	}
	return nil
}
