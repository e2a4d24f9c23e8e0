package license

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	TracerName = "tokenauth/license"
	MeterName  = "tokenauth/license"
)

// Metrics holds the verification service instruments
type Metrics struct {
	Verifications metric.Int64Counter
	Mutations     metric.Int64Counter
}

// NewMetrics creates the service instruments on meter; a nil meter yields no-ops
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	m := &Metrics{}
	var err error

	m.Verifications, err = meter.Int64Counter(
		"token_verifications_total",
		metric.WithDescription("Token verifications by endpoint and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification counter: %w", err)
	}

	m.Mutations, err = meter.Int64Counter(
		"token_mutations_total",
		metric.WithDescription("Token register, extend and delete operations by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mutation counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) recordVerification(ctx context.Context, channel Channel, outcome Outcome) {
	m.Verifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", string(channel)),
		attribute.String("outcome", string(outcome)),
	))
}

func (m *Metrics) recordMutation(ctx context.Context, operation, result string) {
	m.Mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("result", result),
	))
}
