package app

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"service-parcel-platform/internal/cache"
	"service-parcel-platform/internal/config"
	"service-parcel-platform/internal/gateway/payments"
	"service-parcel-platform/internal/jobs"
	"service-parcel-platform/internal/logx"
	"service-parcel-platform/internal/metrics"
	"service-parcel-platform/internal/repository"
	"service-parcel-platform/internal/service/assignment"
	"service-parcel-platform/internal/service/driver"
	"service-parcel-platform/internal/service/effects"
	"service-parcel-platform/internal/service/notify"
	"service-parcel-platform/internal/service/parcel"
	"service-parcel-platform/internal/service/payment"
	"service-parcel-platform/internal/service/tracking"
)

func registerService(container *dig.Container) error {
	return provideAll(container,
		func(db *pgxpool.Pool) *repository.ParcelRepo { return repository.NewParcelRepo(db) },
		func(db *pgxpool.Pool) *repository.DriverRepo { return repository.NewDriverRepo(db) },
		newTrackingService,
		func(n *notifier, logger logx.Logger) *notify.Dispatcher {
			return notify.NewDispatcher(n.queue, logger.With(logx.String("component", "notify")))
		},
		newEffects,
		func(repo *repository.ParcelRepo, geo geocoder, fx *effects.Effects, timeout time.Duration, logger logx.Logger) *parcel.Service {
			return parcel.NewService(repo, geo, fx, timeout, logger)
		},
		func(repo *repository.ParcelRepo, fx *effects.Effects, cfg *config.Config, timeout time.Duration, logger logx.Logger) *assignment.Service {
			return assignment.NewService(repo, fx, cfg.Assignment.DriverCapacity, timeout, logger)
		},
		newPaymentService,
		func(repo *repository.DriverRepo, timeout time.Duration) *driver.Service {
			return driver.NewService(repo, timeout)
		},
		newStatusMetricsJob,
	)
}

type trackingIn struct {
	dig.In

	Repo    *repository.ParcelRepo
	Cache   cache.Cache
	Config  *config.Config
	Counter *prometheus.CounterVec `name:"tracking_cache_total"`
	Timeout time.Duration
	Logger  logx.Logger
}

func newTrackingService(in trackingIn) *tracking.Service {
	ttl := tracking.TTL{Settled: in.Config.Tracking.SettledTTL, Active: in.Config.Tracking.ActiveTTL}
	return tracking.NewService(in.Repo, in.Cache, ttl, metrics.NewCacheCounter(in.Counter), in.Timeout,
		in.Logger.With(logx.String("component", "tracking")))
}

type effectsIn struct {
	dig.In

	Tracking    *tracking.Service
	Dispatcher  *notify.Dispatcher
	Transitions *prometheus.CounterVec `name:"parcel_transitions_total"`
	Logger      logx.Logger
}

func newEffects(in effectsIn) *effects.Effects {
	return effects.New(in.Tracking, in.Dispatcher, metrics.NewLabeledCounter(in.Transitions), in.Logger)
}

type paymentIn struct {
	dig.In

	Repo    *repository.ParcelRepo
	Stripe  *payments.Stripe
	Results *prometheus.CounterVec `name:"payments_total"`
	Timeout time.Duration
	Logger  logx.Logger
}

func newPaymentService(in paymentIn) *payment.Service {
	return payment.NewService(in.Repo, in.Stripe, metrics.NewLabeledCounter(in.Results), in.Timeout,
		in.Logger.With(logx.String("component", "payment")))
}

type jobIn struct {
	dig.In

	Repo    *repository.ParcelRepo
	Gauge   *prometheus.GaugeVec `name:"parcels_by_status"`
	Config  *config.Config
	Timeout time.Duration
	Logger  logx.Logger
}

func newStatusMetricsJob(in jobIn) *jobs.StatusMetricsJob {
	return jobs.NewStatusMetricsJob(in.Repo, in.Gauge, in.Config.Jobs.StatusMetricsSchedule, in.Timeout, in.Logger)
}
