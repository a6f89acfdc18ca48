/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package completion

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Call outcomes recorded by Metrics.
const (
	OutcomeOK        = "ok"
	OutcomeMalformed = "malformed"
	OutcomeError     = "error"
)

// Metrics records token usage and call outcomes through OpenTelemetry. Any
// instrument that cannot be created is replaced by a no-op so completion
// calls never fail because of telemetry.
type Metrics struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	calls            metric.Int64Counter
	latency          metric.Float64Histogram
}

// NewMetrics creates the instruments on the global meter provider. The model
// and provider are recorded as attributes, so one meter name serves all
// backends.
func NewMetrics(meterName string) *Metrics {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	promptTokens, err := meter.Int64Counter("genai.token.prompt",
		metric.WithDescription("The number of prompt tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create prompt tokens counter, metrics will be disabled", "error", err, "meter", meterName)
		promptTokens = noop.Int64Counter{}
	}

	completionTokens, err := meter.Int64Counter("genai.token.completion",
		metric.WithDescription("The number of completion tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create completion tokens counter, metrics will be disabled", "error", err, "meter", meterName)
		completionTokens = noop.Int64Counter{}
	}

	calls, err := meter.Int64Counter("genai.completion.calls",
		metric.WithDescription("The number of completion calls by outcome"),
		metric.WithUnit("{calls}"))
	if err != nil {
		slog.Warn("Failed to create completion call counter, metrics will be disabled", "error", err, "meter", meterName)
		calls = noop.Int64Counter{}
	}

	latency, err := meter.Float64Histogram("genai.completion.duration",
		metric.WithDescription("Latency of completion calls"),
		metric.WithUnit("s"))
	if err != nil {
		slog.Warn("Failed to create completion latency histogram, metrics will be disabled", "error", err, "meter", meterName)
		latency = noop.Float64Histogram{}
	}

	return &Metrics{
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		calls:            calls,
		latency:          latency,
	}
}

// RecordTokens adds prompt and completion token counts for model.
func (m *Metrics) RecordTokens(ctx context.Context, provider, model string, u Usage) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
	)
	m.promptTokens.Add(ctx, u.PromptTokens, attrs)
	m.completionTokens.Add(ctx, u.CompletionTokens, attrs)
}

// RecordCall counts one call with its outcome and latency.
func (m *Metrics) RecordCall(ctx context.Context, provider, model, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
		attribute.String("outcome", outcome),
	)
	m.calls.Add(ctx, 1, attrs)
	m.latency.Record(ctx, elapsed.Seconds(), attrs)
}

// Instrument records every call made through c on m. A nil m returns c
// unchanged.
func Instrument(c Client, provider string, m *Metrics) Client {
	if m == nil {
		return c
	}
	return &instrumented{next: c, provider: provider, metrics: m}
}

type instrumented struct {
	next     Client
	provider string
	metrics  *Metrics
}

func (i *instrumented) Check() error { return Check(i.next) }

func (i *instrumented) Complete(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	res, err := i.next.Complete(ctx, req)

	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = OutcomeError
	case res.IsMalformed():
		outcome = OutcomeMalformed
	}
	i.metrics.RecordCall(ctx, i.provider, req.Model, outcome, time.Since(start))
	if err == nil {
		i.metrics.RecordTokens(ctx, i.provider, req.Model, res.Usage())
	}
	return res, err
}
