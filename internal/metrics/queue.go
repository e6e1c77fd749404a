package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// QueueDepthFunc reports the current number of pending operations and dead letters.
type QueueDepthFunc func(ctx context.Context) (pending, deadLetters int64, err error)

// RegisterQueueDepthGauge registers gauges for the pending log and the dead
// letter table. observe is called on every collection; a failed observation
// reports nothing for that scrape.
func RegisterQueueDepthGauge(
	meterProvider metric.MeterProvider,
	namespace string,
	observe QueueDepthFunc,
) (metric.Registration, error) {
	meter := meterProvider.Meter(namespace)

	pendingGauge, err := meter.Int64ObservableGauge(
		fmt.Sprintf("%s_queue_pending", namespace),
		metric.WithDescription("Number of writes waiting in the local log"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending gauge: %w", err)
	}

	deadLetterGauge, err := meter.Int64ObservableGauge(
		fmt.Sprintf("%s_queue_dead_letters", namespace),
		metric.WithDescription("Number of writes moved to the dead letter table"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dead letter gauge: %w", err)
	}

	registration, err := meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			pending, deadLetters, err := observe(ctx)
			if err != nil {
				return err
			}
			o.ObserveInt64(pendingGauge, pending)
			o.ObserveInt64(deadLetterGauge, deadLetters)
			return nil
		},
		pendingGauge,
		deadLetterGauge,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register queue depth callback: %w", err)
	}

	return registration, nil
}
