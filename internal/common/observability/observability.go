// internal/common/observability/observability.go
package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Observability bundles the OTel meter and tracer providers used by the
// verification pipeline.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         oteltrace.Tracer

	verifyCounter  otelmetric.Int64Counter
	verifyDuration otelmetric.Float64Histogram
}

// New sets up the Prometheus metric exporter and, when a Jaeger endpoint is
// configured, a Jaeger trace exporter.
func New(serviceName, jaegerEndpoint string) *Observability {
	o := &Observability{}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	o.meterProvider = provider
	o.meter = provider.Meter(serviceName)

	o.verifyCounter, _ = o.meter.Int64Counter(
		"verifications.processed",
		otelmetric.WithDescription("Number of verification invocations processed"),
	)

	o.verifyDuration, _ = o.meter.Float64Histogram(
		"verifications.duration",
		otelmetric.WithDescription("Verification processing duration"),
		otelmetric.WithUnit("ms"),
	)

	if jaegerEndpoint != "" {
		jexp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
		if err != nil {
			log.Printf("Failed to create Jaeger exporter: %v", err)
		} else {
			tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(jexp))
			otel.SetTracerProvider(tp)
			o.tracerProvider = tp
		}
	}
	o.tracer = otel.Tracer(serviceName)

	return o
}

// StartSpan starts a span for one pipeline stage.
func (o *Observability) StartSpan(ctx context.Context, name string) (context.Context, oteltrace.Span) {
	if o.tracer == nil {
		return ctx, oteltrace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name)
}

// RecordVerification records one completed invocation.
func (o *Observability) RecordVerification(ctx context.Context, outcome string) {
	if o.verifyCounter != nil {
		o.verifyCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

// RecordVerificationDuration records the wall time of one invocation.
func (o *Observability) RecordVerificationDuration(ctx context.Context, duration time.Duration, outcome string) {
	if o.verifyDuration != nil {
		o.verifyDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
