package app

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"service-parcel-platform/internal/metrics"
)

type metricsOut struct {
	dig.Out

	RateLimitExceededTotal   prometheus.Counter     `name:"rate_limit_exceeded_total"`
	NotificationRetriesTotal prometheus.Counter     `name:"notification_retries_total"`
	NotificationsTotal       *prometheus.CounterVec `name:"notifications_total"`
	TrackingCacheTotal       *prometheus.CounterVec `name:"tracking_cache_total"`
	ParcelTransitionsTotal   *prometheus.CounterVec `name:"parcel_transitions_total"`
	PaymentsTotal            *prometheus.CounterVec `name:"payments_total"`
	ParcelsByStatus          *prometheus.GaugeVec   `name:"parcels_by_status"`
}

// register adds c to the default registry. An equal collector registered earlier is reused.
func register[T prometheus.Collector](name string, c T) (T, error) {
	err := prometheus.DefaultRegisterer.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("register %s: %w", name, err)
}

func provideMetrics() (metricsOut, error) {
	var (
		out metricsOut
		err error
	)
	if out.RateLimitExceededTotal, err = register("rate_limit_exceeded_total", metrics.NewRateLimitExceededTotal()); err != nil {
		return metricsOut{}, err
	}
	if out.NotificationRetriesTotal, err = register("notification_retries_total", metrics.NewNotificationRetriesTotal()); err != nil {
		return metricsOut{}, err
	}
	if out.NotificationsTotal, err = register("notifications_total", metrics.NewNotificationsTotal()); err != nil {
		return metricsOut{}, err
	}
	if out.TrackingCacheTotal, err = register("tracking_cache_total", metrics.NewTrackingCacheTotal()); err != nil {
		return metricsOut{}, err
	}
	if out.ParcelTransitionsTotal, err = register("parcel_transitions_total", metrics.NewParcelTransitionsTotal()); err != nil {
		return metricsOut{}, err
	}
	if out.PaymentsTotal, err = register("payments_total", metrics.NewPaymentsTotal()); err != nil {
		return metricsOut{}, err
	}
	if out.ParcelsByStatus, err = register("parcels_by_status", metrics.NewParcelsByStatus()); err != nil {
		return metricsOut{}, err
	}
	return out, nil
}
