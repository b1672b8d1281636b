package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"service-parcel-platform/internal/cache"
	"service-parcel-platform/internal/config"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/gateway/geocode"
	"service-parcel-platform/internal/gateway/payments"
	"service-parcel-platform/internal/gateway/sender"
	"service-parcel-platform/internal/logx"
	"service-parcel-platform/internal/metrics"
	"service-parcel-platform/internal/queue"
	"service-parcel-platform/internal/service/notify"
	"service-parcel-platform/internal/transport/kafka"
)

const trackingKeyPrefix = "tracking:"

type geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, bool, error)
}

func registerInfra(container *dig.Container) error {
	return provideAll(container,
		newTrackingCache,
		newRetryingSender,
		newNotifier,
		newGeocoder,
		func(cfg *config.Config, logger logx.Logger) *payments.Stripe {
			return payments.NewStripe(cfg.Stripe.APIKey, nil, logger.With(logx.String("component", "stripe")))
		},
		func(cfg *config.Config) *payments.Verifier {
			return payments.NewVerifier(cfg.Stripe.WebhookSecret)
		},
	)
}

func newTrackingCache(cfg *config.Config, logger logx.Logger) (cache.Cache, error) {
	if cfg.Redis.URL == "" {
		logger.Info("tracking cache: in-process")
		return cache.NewMemory(), nil
	}
	logger.Info("tracking cache: redis")
	return cache.NewRedisAdapter(cfg.Redis.URL, trackingKeyPrefix)
}

type senderIn struct {
	dig.In

	Config  *config.Config
	Logger  logx.Logger
	Retries prometheus.Counter     `name:"notification_retries_total"`
	Results *prometheus.CounterVec `name:"notifications_total"`
}

func newRetryingSender(in senderIn) *notify.RetryingSender {
	l := in.Logger.With(logx.String("component", "notify"))
	return notify.NewRetryingSender(sender.NewLogging(l), l, in.Retries, metrics.NewLabeledCounter(in.Results), notify.RetryConfig{
		MaxAttempts: in.Config.Notify.MaxAttempts,
		Backoff:     in.Config.Notify.Backoff,
	})
}

// notifier is the notification queue of the API process together with its lifecycle.
// With Kafka configured the queue is a producer and delivery happens in the worker.
type notifier struct {
	queue notify.Queue
	local *queue.Local
	close func() error
}

func newNotifier(cfg *config.Config, logger logx.Logger, s *notify.RetryingSender) (*notifier, error) {
	if cfg.Kafka.Enabled() {
		p, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, err
		}
		logger.Info("notifications: kafka", logx.String("topic", cfg.Kafka.Topic))
		return &notifier{queue: p, close: p.Close}, nil
	}
	l := queue.NewLocal(s, cfg.Notify.QueueSize, cfg.Notify.Workers, logger.With(logx.String("component", "notify_queue")))
	logger.Info("notifications: in-process", logx.Int("workers", cfg.Notify.Workers))
	return &notifier{queue: l, local: l}, nil
}

func (n *notifier) start(ctx context.Context) {
	if n.local != nil {
		n.local.Start(ctx)
	}
}

func (n *notifier) stop(ctx context.Context) error {
	if n.local != nil {
		return n.local.Close(ctx)
	}
	if n.close != nil {
		return n.close()
	}
	return nil
}

// newGeocoder returns a nil interface when no API key is configured.
func newGeocoder(cfg *config.Config, logger logx.Logger) geocoder {
	if cfg.Geocode.APIKey == "" {
		return nil
	}
	return geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.APIKey, cfg.Geocode.Timeout,
		logger.With(logx.String("component", "geocode")))
}
