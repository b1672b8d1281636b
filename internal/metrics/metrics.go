package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewNotificationRetriesTotal returns a counter of notification send retries.
func NewNotificationRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_retries_total",
		Help: "Total number of retry attempts performed by the notification sender",
	})
}

// NewNotificationsTotal returns notification outcomes by channel and result (sent|failed).
func NewNotificationsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Notifications processed by channel and result",
	}, []string{"channel", "result"})
}

// NewTrackingCacheTotal returns tracking cache lookups by result (hit|miss).
func NewTrackingCacheTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_cache_requests_total",
		Help: "Tracking cache lookups by result",
	}, []string{"result"})
}

// NewParcelTransitionsTotal returns committed status transitions by target status.
func NewParcelTransitionsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parcel_transitions_total",
		Help: "Committed parcel status transitions by target status",
	}, []string{"to"})
}

// NewPaymentsTotal returns payment outcomes by channel (direct|webhook) and result.
func NewPaymentsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_total",
		Help: "Payment reconciliation outcomes by channel and result",
	}, []string{"channel", "result"})
}

// NewParcelsByStatus returns a gauge of stored parcels per status.
func NewParcelsByStatus() *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "parcels_by_status",
		Help: "Number of stored parcels per status",
	}, []string{"status"})
}

// CacheCounter adapts a hit/miss vector to the tracking cache.
type CacheCounter struct{ vec *prometheus.CounterVec }

// NewCacheCounter wraps vec.
func NewCacheCounter(vec *prometheus.CounterVec) CacheCounter { return CacheCounter{vec: vec} }

// Hit counts a cache hit.
func (c CacheCounter) Hit() { c.vec.WithLabelValues("hit").Inc() }

// Miss counts a cache miss.
func (c CacheCounter) Miss() { c.vec.WithLabelValues("miss").Inc() }

// LabeledCounter increments a counter vector by label values.
type LabeledCounter struct{ vec *prometheus.CounterVec }

// NewLabeledCounter wraps vec.
func NewLabeledCounter(vec *prometheus.CounterVec) LabeledCounter { return LabeledCounter{vec: vec} }

// Inc increments the series identified by labels.
func (c LabeledCounter) Inc(labels ...string) { c.vec.WithLabelValues(labels...).Inc() }
