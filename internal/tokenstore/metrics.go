package tokenstore

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type instruments struct {
	saveDuration metric.Float64Histogram
	saves        metric.Int64Counter
}

func newInstruments(meter metric.Meter, driver string, count func() int) (*instruments, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("tokenstore")
	}

	inst := &instruments{}
	var err error

	inst.saveDuration, err = meter.Float64Histogram(
		"token_store_save_duration_seconds",
		metric.WithDescription("Time spent persisting the token store"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create save duration histogram: %w", err)
	}

	inst.saves, err = meter.Int64Counter(
		"token_store_saves_total",
		metric.WithDescription("Token store saves by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create save counter: %w", err)
	}

	driverAttr := metric.WithAttributes(attribute.String("driver", driver))
	_, err = meter.Int64ObservableGauge(
		"token_store_records",
		metric.WithDescription("Records in the token store view"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(count()), driverAttr)
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create record gauge: %w", err)
	}

	return inst, nil
}

func (i *instruments) recordSave(ctx context.Context, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	attrs := metric.WithAttributes(attribute.String("result", result))
	i.saveDuration.Record(ctx, elapsed.Seconds(), attrs)
	i.saves.Add(ctx, 1, attrs)
}
