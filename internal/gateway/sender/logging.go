// Package sender delivers notifications. Delivery itself is delegated to an
// external provider; this implementation records each message in the log.
package sender

import (
	"context"
	"fmt"

	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
)

// Logging writes each notification to the log as delivered.
type Logging struct {
	logger logx.Logger
}

// NewLogging creates a logging sender.
func NewLogging(logger logx.Logger) *Logging {
	return &Logging{logger: logger}
}

// Send logs n.
func (s *Logging) Send(ctx context.Context, n domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch n.Channel {
	case domain.ChannelSMS, domain.ChannelEmail:
	default:
		return fmt.Errorf("unsupported channel %q", n.Channel)
	}
	s.logger.Info("notification delivered",
		logx.String("event", "notification_sent"),
		logx.String("notification_id", n.ID.String()),
		logx.String("channel", string(n.Channel)),
		logx.String("to", n.To),
		logx.String("tracking_code", n.TrackingCode),
		logx.String("subject", n.Subject),
	)
	return nil
}
