package license

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"tokenauth/internal/shared/testutil"
	"tokenauth/internal/tokenstore"
)

func TestServiceMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	ctx := context.Background()
	defer mp.Shutdown(ctx)

	store, err := tokenstore.NewMemoryStore()
	require.NoError(t, err)
	svc, err := NewService(store, Config{
		DefaultValidityDays: 30,
		Now:                 testutil.FixedClock(2024, time.June, 15),
		Meter:               mp.Meter(MeterName),
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, "T1", "2030-01-01")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "T1", "2030-01-01")
	require.Error(t, err)

	svc.Verify(ctx, ChannelDesktop, "T1")
	svc.Verify(ctx, ChannelDesktop, "T1")
	svc.Verify(ctx, ChannelExtension, "nope")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	found := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = m.Data
		}
	}

	verifications, ok := found["token_verifications_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(2), sumFor(verifications, "endpoint", "desktop", "outcome", "valid"))
	assert.Equal(t, int64(1), sumFor(verifications, "endpoint", "extension", "outcome", "token_not_found"))

	mutations, ok := found["token_mutations_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), sumFor(mutations, "operation", "register", "result", "ok"))
	assert.Equal(t, int64(1), sumFor(mutations, "operation", "register", "result", "conflict"))
}

// sumFor returns the value of the data point carrying both key/value pairs
func sumFor(sum metricdata.Sum[int64], k1, v1, k2, v2 string) int64 {
	for _, dp := range sum.DataPoints {
		a, okA := dp.Attributes.Value(attribute.Key(k1))
		b, okB := dp.Attributes.Value(attribute.Key(k2))
		if okA && okB && a.AsString() == v1 && b.AsString() == v2 {
			return dp.Value
		}
	}
	return 0
}
