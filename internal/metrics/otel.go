package metrics

import (
	"context"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	otelMetricsOnce       sync.Once
	otelRegistrationError error
)

// InitOTelMetrics initializes OpenTelemetry metrics for served answers.
// It registers an observable gauge that reports cumulative totals from SQLite.
// This should be called after observability.Init() has been called.
func InitOTelMetrics() error {
	otelMetricsOnce.Do(func() {
		meter := otel.Meter("zara/metrics")

		_, err := meter.Int64ObservableGauge(
			"zara.answers.total",
			metric.WithDescription("Cumulative answers served by method (rag, fallback, no_results, llm_no_context)"),
			metric.WithUnit("{answers}"),
			metric.WithInt64Callback(answerCallback),
		)
		if err != nil {
			log.Printf("metrics: failed to create answer gauge: %v", err)
			otelRegistrationError = err
			return
		}
	})
	return otelRegistrationError
}

// answerCallback is called by the OTel SDK to collect current metric values.
// It reads cumulative totals from SQLite and reports them as gauge values.
func answerCallback(_ context.Context, observer metric.Int64Observer) error {
	stats := GetStats()
	if stats == nil {
		// Store not initialized, report zeros
		for _, method := range answerMethods {
			observer.Observe(0, metric.WithAttributes(
				attribute.String("method", string(method)),
			))
		}
		return nil
	}

	for method, count := range stats {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("method", string(method)),
		))
	}

	return nil
}

// ResetOTelForTesting resets the OTel initialization state for testing purposes.
// This should only be used in tests.
func ResetOTelForTesting() {
	otelMetricsOnce = sync.Once{}
	otelRegistrationError = nil
}
