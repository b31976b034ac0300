package synth

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsObserver reports selector outcomes as OpenTelemetry counters.
type MetricsObserver struct {
	completed metric.Int64Counter
	failed    metric.Int64Counter
	fallbacks metric.Int64Counter
}

func NewMetricsObserver(log *slog.Logger) *MetricsObserver {
	meter := otel.Meter("github.com/verbalabs/verba-core/internal/synth")
	o := &MetricsObserver{}
	var err error
	if o.completed, err = meter.Int64Counter("synth.completed",
		metric.WithDescription("Synthesis requests that produced a stream")); err != nil {
		log.Warn("failed to register counter", slog.String("error", err.Error()))
	}
	if o.failed, err = meter.Int64Counter("synth.attempt_failures",
		metric.WithDescription("Adapter attempts that failed")); err != nil {
		log.Warn("failed to register counter", slog.String("error", err.Error()))
	}
	if o.fallbacks, err = meter.Int64Counter("synth.fallbacks",
		metric.WithDescription("Requests served by the fallback adapter")); err != nil {
		log.Warn("failed to register counter", slog.String("error", err.Error()))
	}
	return o
}

func (o *MetricsObserver) AttemptFailed(ctx context.Context, adapter string, err error) {
	if o.failed != nil {
		o.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("adapter", adapter)))
	}
}

func (o *MetricsObserver) Completed(ctx context.Context, adapter string, fallback bool) {
	if o.completed != nil {
		o.completed.Add(ctx, 1, metric.WithAttributes(attribute.String("adapter", adapter)))
	}
	if fallback && o.fallbacks != nil {
		o.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("adapter", adapter)))
	}
}
