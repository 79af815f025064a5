// Package observability installs the global OpenTelemetry trace and meter
// providers for the helpdesk service. Telemetry is opt-in: with OTEL_ENABLED
// unset Init installs inert providers, so the spans around answer generation
// and knowledge base search cost nothing.
package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/voyora/zara/internal/types"
)

const shutdownGrace = 5 * time.Second

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init resolves the OTel settings from the application configuration and
// installs the global tracer and meter providers. The returned ShutdownFunc
// must be called on exit so buffered spans and metrics reach the collector.
func Init(cfg *types.Config) (ShutdownFunc, error) {
	set, err := resolveSettings(cfg)
	if err != nil {
		return noopShutdown, err
	}

	ctx := context.Background()

	if !set.enabled {
		tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.NeverSample()))
		mp := sdkmetric.NewMeterProvider()
		install(tp, mp)
		return shutdownBoth(tp, mp), nil
	}

	res, err := set.resource(ctx)
	if err != nil {
		return noopShutdown, fmt.Errorf("observability: failed to build resource: %w", err)
	}

	spanExporter, err := newTraceExporter(ctx, set)
	if err != nil {
		return noopShutdown, fmt.Errorf("observability: failed to create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(set.sampler()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(spanExporter),
	)

	metricExporter, err := newMetricExporter(ctx, set)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return noopShutdown, fmt.Errorf("observability: failed to create metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(set.metricInterval))),
	)

	install(tp, mp)
	return shutdownBoth(tp, mp), nil
}

func install(tp *sdktrace.TracerProvider, mp *sdkmetric.MeterProvider) {
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

func shutdownBoth(tp *sdktrace.TracerProvider, mp *sdkmetric.MeterProvider) ShutdownFunc {
	return func(ctx context.Context) error {
		if ctx == nil {
			ctx = context.Background()
		}
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, shutdownGrace)
			defer cancel()
		}

		var errs []error
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
		return errors.Join(errs...)
	}
}
