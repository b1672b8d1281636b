package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/dig"

	"service-parcel-platform/internal/config"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
	"service-parcel-platform/internal/service/notify"
	"service-parcel-platform/internal/transport/kafka"
)

// WorkerRunner runs the notification worker
type WorkerRunner struct {
	runFn func(*dig.Container) error
}

// NewWorkerRunner returns a new WorkerRunner
func NewWorkerRunner() *WorkerRunner {
	return &WorkerRunner{runFn: runWorker}
}

// MustRun consumes notifications until the container context is done.
func (r *WorkerRunner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	panic(err)
}

func registerWorker(container *dig.Container) error {
	return provideAll(container,
		newRetryingSender,
		func(cfg *config.Config, logger logx.Logger, s *notify.RetryingSender) (*kafka.Consumer, error) {
			return kafka.NewConsumer(logger.With(logx.String("component", "kafka")),
				cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, deliverNotification(s))
		},
	)
}

// deliverNotification sends through s. Exhausted retries are not redelivered;
// a cancelled context leaves the message for the next consumer.
func deliverNotification(s notify.Sender) kafka.HandleFunc {
	return func(ctx context.Context, n domain.Notification) error {
		err := s.Send(ctx, n)
		if err == nil || ctx.Err() != nil {
			return err
		}
		return kafka.Permanent(err)
	}
}

func runWorker(container *dig.Container) error {
	return container.Invoke(workerRun)
}

func workerRun(ctx context.Context, logger logx.Logger, consumer *kafka.Consumer) error {
	if consumer == nil {
		return fmt.Errorf("kafka consumer is nil: KAFKA_BROKERS, KAFKA_NOTIFICATIONS_TOPIC and KAFKA_GROUP_ID must be set")
	}
	defer closeWorker(logger, consumer)

	logger.Info("service-parcel-worker started")
	return consumer.Run(ctx)
}

func closeWorker(logger logx.Logger, consumer *kafka.Consumer) {
	if err := consumer.Close(); err != nil {
		logger.Error("kafka close error", logx.Err(err))
	}
	_ = logger.Sync()
}
