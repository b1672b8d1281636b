// Package payment reconciles processor payments with parcels.
//
// Both the direct charge path and the processor webhook end in MarkPaid, which is
// idempotent: the second caller observes paid and succeeds without a write.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
	"service-parcel-platform/internal/ports/parceltx"
)

// Currency is the only currency parcels are priced in.
const Currency = "usd"

// Payment channels used as metric labels.
const (
	channelDirect  = "direct"
	channelWebhook = "webhook"
)

// Service handles parcel payments.
type Service struct {
	repo             parcelRepository
	processor        Processor
	results          resultCounter
	operationTimeout time.Duration
	logger           logx.Logger
}

// NewService creates a payment Service. results may be nil.
func NewService(r parcelRepository, p Processor, results resultCounter, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if results == nil {
		results = nopCounter{}
	}
	return &Service{
		repo:             r,
		processor:        p,
		results:          results,
		operationTimeout: timeout,
		logger:           logger,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// Pay charges the parcel price to paymentMethodID on behalf of the parcel's sender.
// The parcel is marked paid when the processor captures the funds synchronously;
// otherwise the processor webhook completes the payment later.
func (s *Service) Pay(ctx context.Context, by domain.Principal, parcelID uuid.UUID, paymentMethodID string) (domain.PaymentResult, error) {
	paymentMethodID = strings.TrimSpace(paymentMethodID)
	if paymentMethodID == "" {
		return domain.PaymentResult{}, apperr.Invalidf("payment_method_id is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := s.repo.GetByID(ctx, parcelID)
	if err != nil {
		return domain.PaymentResult{}, err
	}
	if p == nil || !p.OwnedBy(by.ID) {
		return domain.PaymentResult{}, apperr.ErrNotFound
	}
	if p.PaymentStatus == domain.PaymentPaid {
		return domain.PaymentResult{}, apperr.ErrAlreadyPaid
	}

	log := s.logger.With(logx.String("tracking_code", p.TrackingCode))
	res, err := s.processor.Charge(ctx, domain.ChargeRequest{
		TrackingCode:    p.TrackingCode,
		Amount:          p.Price,
		Currency:        Currency,
		PaymentMethodID: paymentMethodID,
		Description:     fmt.Sprintf("Parcel %s", p.TrackingCode),
	})
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrPaymentDeclined):
			s.results.Inc(channelDirect, "declined")
			log.Warn("payment declined", logx.Err(err))
		default:
			s.results.Inc(channelDirect, "error")
			log.Error("payment processing failed", logx.Err(err))
			if !apperr.Known(err) {
				err = fmt.Errorf("%w: %v", apperr.ErrProcessing, err)
			}
		}
		return domain.PaymentResult{}, err
	}

	out := domain.PaymentResult{
		TrackingCode:  p.TrackingCode,
		PaymentStatus: domain.PaymentPending,
		ClientSecret:  res.ClientSecret,
	}
	if !res.Succeeded {
		s.results.Inc(channelDirect, "pending")
		log.Info("payment awaiting confirmation", logx.String("intent_id", res.IntentID))
		return out, nil
	}

	if err := s.markPaid(ctx, p.TrackingCode, channelDirect); err != nil {
		return domain.PaymentResult{}, err
	}
	out.PaymentStatus = domain.PaymentPaid
	return out, nil
}

// MarkPaid sets the parcel's payment status to paid. Paying an already paid parcel is a no-op.
// The delivery status is never touched.
func (s *Service) MarkPaid(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return apperr.Invalidf("tracking code is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.markPaid(ctx, code, channelWebhook)
}

func (s *Service) markPaid(ctx context.Context, code, channel string) error {
	changed := false
	err := parceltx.WithRetry(ctx, s.repo, func(tx parceltx.Repository) error {
		changed = false
		p, err := tx.GetParcelByTrackingCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: tracking code %s", apperr.ErrNotFound, code)
		}
		if p.PaymentStatus == domain.PaymentPaid {
			return nil
		}
		if err := tx.MarkPaid(ctx, p.ID); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return err
	}

	if !changed {
		s.results.Inc(channel, "duplicate")
		s.logger.Debug("parcel already paid", logx.String("tracking_code", code), logx.String("channel", channel))
		return nil
	}
	s.results.Inc(channel, "paid")
	s.logger.Info("parcel marked paid",
		logx.String("event", "payment_marked_paid"),
		logx.String("tracking_code", code),
		logx.String("channel", channel),
	)
	return nil
}

// HandleEvent applies a verified processor event.
// Unknown event types and payment failures are acknowledged without changes.
func (s *Service) HandleEvent(ctx context.Context, ev domain.PaymentEvent) error {
	log := s.logger.With(
		logx.String("event_id", ev.ID),
		logx.String("event_type", string(ev.Type)),
		logx.String("tracking_code", ev.TrackingCode),
	)
	switch ev.Type {
	case domain.PaymentSucceeded:
		if ev.TrackingCode == "" {
			log.Warn("payment event without tracking code", logx.String("intent_id", ev.IntentID))
			return nil
		}
		return s.MarkPaid(ctx, ev.TrackingCode)
	case domain.PaymentFailed:
		s.results.Inc(channelWebhook, "failed")
		log.Warn("payment failed", logx.String("intent_id", ev.IntentID), logx.String("reason", ev.FailureReason))
		return nil
	default:
		log.Debug("payment event ignored")
		return nil
	}
}
