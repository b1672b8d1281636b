// Package effects runs the side effects of a committed parcel change.
package effects

import (
	"context"
	"fmt"
	"time"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
)

const (
	invalidateAttempts = 3
	invalidateBackoff  = 50 * time.Millisecond
)

type invalidator interface {
	Invalidate(ctx context.Context, code string) error
}

type dispatcher interface {
	Dispatch(ctx context.Context, ev domain.TransitionEvent)
}

type counter interface {
	Inc(labels ...string)
}

type nopCounter struct{}

func (nopCounter) Inc(...string) {}

// Effects invalidates the tracking projection and emits the change for notification.
type Effects struct {
	cache       invalidator
	events      dispatcher
	transitions counter
	logger      logx.Logger
	sleep       func(time.Duration)
}

// New creates Effects. transitions may be nil.
func New(cache invalidator, events dispatcher, transitions counter, logger logx.Logger) *Effects {
	if transitions == nil {
		transitions = nopCounter{}
	}
	return &Effects{cache: cache, events: events, transitions: transitions, logger: logger, sleep: time.Sleep}
}

// Committed must be called after the transaction that produced ev has committed.
// The cache entry is gone when it returns nil; notifications are only queued.
// An error means the tracking projection may still be stale and the write must not be
// reported as done. Notifications are dispatched either way.
func (e *Effects) Committed(ctx context.Context, ev domain.TransitionEvent) error {
	p := ev.Parcel
	invErr := e.invalidate(ctx, p.TrackingCode)

	if ev.From != p.Status {
		e.transitions.Inc(string(p.Status))
		e.logger.Info("parcel status changed",
			logx.String("event", "parcel_status_changed"),
			logx.String("tracking_code", p.TrackingCode),
			logx.String("from", string(ev.From)),
			logx.String("to", string(p.Status)),
		)
	}
	e.events.Dispatch(ctx, ev)
	return invErr
}

func (e *Effects) invalidate(ctx context.Context, code string) error {
	var err error
	for attempt := 1; attempt <= invalidateAttempts; attempt++ {
		if err = e.cache.Invalidate(ctx, code); err == nil {
			return nil
		}
		e.logger.Warn("tracking cache invalidation failed",
			logx.String("tracking_code", code),
			logx.Int("attempt", attempt),
			logx.Err(err),
		)
		if attempt < invalidateAttempts {
			e.sleep(invalidateBackoff)
		}
	}
	e.logger.Error("tracking cache invalidation gave up", logx.String("tracking_code", code), logx.Err(err))
	return fmt.Errorf("%w: %w", apperr.ErrProcessing, err)
}
