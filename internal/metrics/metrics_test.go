package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCacheCounter(t *testing.T) {
	vec := NewTrackingCacheTotal()
	c := NewCacheCounter(vec)

	c.Hit()
	c.Hit()
	c.Miss()

	require.Equal(t, 2.0, testutil.ToFloat64(vec.WithLabelValues("hit")))
	require.Equal(t, 1.0, testutil.ToFloat64(vec.WithLabelValues("miss")))
}

func TestLabeledCounter(t *testing.T) {
	vec := NewPaymentsTotal()
	c := NewLabeledCounter(vec)

	c.Inc("webhook", "paid")

	require.Equal(t, 1.0, testutil.ToFloat64(vec.WithLabelValues("webhook", "paid")))
	require.Equal(t, 1, testutil.CollectAndCount(vec))
}

func TestConstructors_Describe(t *testing.T) {
	require.Equal(t, 1, testutil.CollectAndCount(NewRateLimitExceededTotal()))
	require.Equal(t, 1, testutil.CollectAndCount(NewNotificationRetriesTotal()))
	require.Equal(t, 0, testutil.CollectAndCount(NewNotificationsTotal()))
	require.Equal(t, 0, testutil.CollectAndCount(NewParcelTransitionsTotal()))
	require.Equal(t, 0, testutil.CollectAndCount(NewParcelsByStatus()))
}
