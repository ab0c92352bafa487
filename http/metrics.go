package http

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/xtraqtiv/clickup-sync/http"

// instruments groups the per-client telemetry handles.
type instruments struct {
	tracer   trace.Tracer
	attempts metric.Int64Counter
	retries  metric.Int64Counter
	duration metric.Float64Histogram
}

func newInstruments(tp trace.TracerProvider, mp metric.MeterProvider) *instruments {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	attempts, err := meter.Int64Counter("clickup.http.attempts",
		metric.WithDescription("HTTP attempts sent, including retries"))
	if err != nil {
		attempts = noop.Int64Counter{}
	}
	retries, err := meter.Int64Counter("clickup.http.retries",
		metric.WithDescription("Retries scheduled, by reason"))
	if err != nil {
		retries = noop.Int64Counter{}
	}
	duration, err := meter.Float64Histogram("clickup.http.call.duration",
		metric.WithDescription("Duration of a logical call including backoff"),
		metric.WithUnit("s"))
	if err != nil {
		duration = noop.Float64Histogram{}
	}

	return &instruments{
		tracer:   tp.Tracer(instrumentationName),
		attempts: attempts,
		retries:  retries,
		duration: duration,
	}
}

func (i *instruments) recordAttempt(ctx context.Context, method string) {
	i.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("http.request.method", method)))
}

func (i *instruments) recordRetry(ctx context.Context, reason ErrorType) {
	i.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(reason))))
}

func (i *instruments) recordCall(ctx context.Context, method string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(TypeOf(err))
	}
	i.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("outcome", outcome),
	))
}
