// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/osbuild/image-builder-mcp/pkg/telemetry"

// OutcomeSuccess labels a call that completed without error. Failures are
// labeled with the error kind instead.
const OutcomeSuccess = "success"

// Metrics records the server's counters against a meter provider. With a
// no-op provider every method is a cheap no-op, so callers never need to
// guard recording sites.
type Metrics struct {
	toolCalls     metric.Int64Counter
	tokenRequests metric.Int64Counter
}

// NewMetrics creates the counters on the given meter provider.
func NewMetrics(meterProvider metric.MeterProvider) *Metrics {
	meter := meterProvider.Meter(instrumentationName)

	toolCalls, _ := meter.Int64Counter(
		"image_builder_mcp_tool_calls", // The exporter adds the _total suffix automatically
		metric.WithDescription("Total number of MCP tool invocations"),
	)

	tokenRequests, _ := meter.Int64Counter(
		"image_builder_mcp_token_requests", // The exporter adds the _total suffix automatically
		metric.WithDescription("Total number of token endpoint round trips"),
	)

	return &Metrics{
		toolCalls:     toolCalls,
		tokenRequests: tokenRequests,
	}
}

// RecordToolCall counts one tool invocation and its outcome.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, outcome string) {
	m.toolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("outcome", outcome),
	))
}

// RecordTokenRequest counts one token endpoint round trip.
func (m *Metrics) RecordTokenRequest(ctx context.Context, outcome string) {
	m.tokenRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}
