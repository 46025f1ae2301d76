// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides Prometheus-backed OpenTelemetry metrics:
// counters for tool invocations and token endpoint traffic, exposed through
// a /metrics handler on the HTTP transports.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/osbuild/image-builder-mcp/pkg/logger"
	"github.com/osbuild/image-builder-mcp/pkg/telemetry/providers/prometheus"
)

// Config holds the telemetry configuration.
type Config struct {
	ServiceName    string // ServiceName identifies the service for telemetry data
	ServiceVersion string // ServiceVersion identifies the service version for telemetry data

	// EnableMetricsPath enables the Prometheus /metrics endpoint. The stdio
	// transport has no listener to scrape, so it runs with this disabled.
	EnableMetricsPath bool
}

// Provider bundles the meter provider with the Prometheus scrape handler.
type Provider struct {
	meterProvider     metric.MeterProvider
	prometheusHandler http.Handler
	shutdownFuncs     []func(context.Context) error
}

// NewProvider creates a Prometheus-backed meter provider. When the metrics
// path is disabled it returns a no-op provider and no handler.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if !config.EnableMetricsPath {
		logger.Debugf("Metrics endpoint disabled, using no-op meter provider")
		return &Provider{
			meterProvider: noop.NewMeterProvider(),
			shutdownFuncs: []func(context.Context) error{},
		}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource with service name '%s' and version '%s': %w",
			config.ServiceName, config.ServiceVersion, err)
	}

	reader, handler, err := prometheus.NewReader(prometheus.Config{
		EnableMetricsPath:     true,
		IncludeRuntimeMetrics: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus reader: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)

	logger.Infof("Prometheus metrics enabled")
	return &Provider{
		meterProvider:     meterProvider,
		prometheusHandler: handler,
		shutdownFuncs:     []func(context.Context) error{meterProvider.Shutdown},
	}, nil
}

// MeterProvider returns the meter provider.
func (p *Provider) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// PrometheusHandler returns the /metrics handler, or nil when disabled.
func (p *Provider) PrometheusHandler() http.Handler {
	return p.prometheusHandler
}

// Shutdown flushes and stops all metric pipelines.
func (p *Provider) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	for i, shutdown := range p.shutdownFuncs {
		if err := shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("provider %d shutdown failed: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown failed with %d errors: %v", len(errs), errs)
	}
	return nil
}
