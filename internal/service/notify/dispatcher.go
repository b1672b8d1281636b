package notify

import (
	"context"

	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
)

// Dispatcher turns committed changes into queued notifications.
// It never fails the caller: enqueue errors are logged and dropped.
type Dispatcher struct {
	queue  Queue
	logger logx.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(q Queue, logger logx.Logger) *Dispatcher {
	return &Dispatcher{queue: q, logger: logger}
}

// Dispatch enqueues the notifications for ev.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.TransitionEvent) {
	// уведомления не должны зависеть от отмены исходного запроса
	ctx = context.WithoutCancel(ctx)
	for _, n := range Build(ev) {
		if err := d.queue.Enqueue(ctx, n); err != nil {
			d.logger.Error("notification enqueue failed",
				logx.String("tracking_code", n.TrackingCode),
				logx.String("channel", string(n.Channel)),
				logx.Err(err),
			)
			continue
		}
		d.logger.Debug("notification enqueued",
			logx.String("event", string(ev.Kind)),
			logx.String("tracking_code", n.TrackingCode),
			logx.String("channel", string(n.Channel)),
		)
	}
}
