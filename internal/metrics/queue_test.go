package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterQueueDepthGauge(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	registration, err := RegisterQueueDepthGauge(provider.MeterProvider(), "test_app",
		func(context.Context) (int64, int64, error) {
			return 3, 1, nil
		},
	)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, registration.Unregister())
	}()

	output := scrape(t, provider)

	assertMetricLine(t, output, "test_app_queue_pending", "", "3")
	assertMetricLine(t, output, "test_app_queue_dead_letters", "", "1")
}

func TestRegisterQueueDepthGauge_ObservationError(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	registration, err := RegisterQueueDepthGauge(provider.MeterProvider(), "test_app",
		func(context.Context) (int64, int64, error) {
			return 0, 0, assert.AnError
		},
	)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, registration.Unregister())
	}()

	output := scrape(t, provider)
	assert.NotRegexp(t, `test_app_queue_pending\{[^}]*\} `, output)
}
