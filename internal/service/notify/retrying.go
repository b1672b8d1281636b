package notify

import (
	"context"
	"time"

	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
)

// RetryConfig describes RetryingSender behaviour.
type RetryConfig struct {
	MaxAttempts int
	Backoff     time.Duration
}

// RetryingSender retries a Sender with a fixed pause between attempts.
type RetryingSender struct {
	next    Sender
	logger  logx.Logger
	retries counter
	results resultCounter
	cfg     RetryConfig
	sleep   func(ctx context.Context, d time.Duration) bool
}

// NewRetryingSender returns nil when next is nil.
func NewRetryingSender(next Sender, logger logx.Logger, retries counter, results resultCounter, cfg RetryConfig) *RetryingSender {
	if next == nil {
		return nil
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &RetryingSender{
		next:    next,
		logger:  logger,
		retries: retries,
		results: results,
		cfg:     cfg,
		sleep:   sleepWithContext,
	}
}

// WithSleep replaces the pause function.
func (s *RetryingSender) WithSleep(sleep func(ctx context.Context, d time.Duration) bool) *RetryingSender {
	s.sleep = sleep
	return s
}

// Send delivers n, retrying up to MaxAttempts. Exhaustion is logged and returned.
func (s *RetryingSender) Send(ctx context.Context, n domain.Notification) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		err := s.next.Send(ctx, n)
		if err == nil {
			s.count(n, "sent")
			return nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == s.cfg.MaxAttempts {
			break
		}
		if s.retries != nil {
			s.retries.Inc()
		}
		s.logger.Warn("notification send retry",
			logx.String("tracking_code", n.TrackingCode),
			logx.String("channel", string(n.Channel)),
			logx.Int("attempt", attempt),
			logx.Duration("delay", s.cfg.Backoff),
			logx.Err(err),
		)
		if !s.sleep(ctx, s.cfg.Backoff) {
			break
		}
	}

	s.count(n, "failed")
	s.logger.Error("notification send failed",
		logx.String("tracking_code", n.TrackingCode),
		logx.String("channel", string(n.Channel)),
		logx.String("notification_id", n.ID.String()),
		logx.Int("attempts", s.cfg.MaxAttempts),
		logx.Err(lastErr),
	)
	return lastErr
}

func (s *RetryingSender) count(n domain.Notification, result string) {
	if s.results != nil {
		s.results.Inc(string(n.Channel), result)
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
