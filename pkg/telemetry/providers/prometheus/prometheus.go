// SPDX-License-Identifier: Apache-2.0

// Package prometheus provides the Prometheus metric reader and scrape handler
package prometheus

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Config holds the Prometheus reader configuration.
type Config struct {
	// EnableMetricsPath enables the Prometheus /metrics endpoint handler
	EnableMetricsPath bool
	// IncludeRuntimeMetrics adds Go runtime and process collectors to the registry
	IncludeRuntimeMetrics bool
}

// NewReader creates a Prometheus metric reader for use in a unified meter
// provider, along with the HTTP handler that serves the scrape endpoint.
func NewReader(config Config) (sdkmetric.Reader, http.Handler, error) {
	if !config.EnableMetricsPath {
		return nil, nil, fmt.Errorf("prometheus reader requires EnableMetricsPath")
	}

	// A private registry keeps the scrape output limited to what this
	// process explicitly registers.
	registry := prometheus.NewRegistry()

	if config.IncludeRuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return exporter, handler, nil
}
