// Package payments talks to the Stripe payment processor.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
)

// MetadataTrackingCode is the metadata key carrying the parcel tracking code.
const MetadataTrackingCode = "tracking_code"

type intentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Stripe charges payment methods through PaymentIntents.
type Stripe struct {
	intents intentCreator
	logger  logx.Logger
}

// NewStripe creates a client. backends may be nil to use the public API.
func NewStripe(apiKey string, backends *stripe.Backends, logger logx.Logger) *Stripe {
	api := client.New(apiKey, backends)
	return &Stripe{intents: api.PaymentIntents, logger: logger}
}

// IdempotencyKey identifies one charge attempt: the same parcel, amount and payment method.
// Duplicate submits resolve to the PaymentIntent of the first one instead of charging twice.
func IdempotencyKey(req domain.ChargeRequest) string {
	return fmt.Sprintf("parcel-pay:%s:%d:%s", req.TrackingCode, req.Amount.MinorUnits(), req.PaymentMethodID)
}

// Charge creates and confirms a PaymentIntent for req.
func (s *Stripe) Charge(ctx context.Context, req domain.ChargeRequest) (domain.ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.Amount.MinorUnits()),
		Currency:      stripe.String(req.Currency),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		Description:   stripe.String(req.Description),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataTrackingCode, req.TrackingCode)
	params.SetIdempotencyKey(IdempotencyKey(req))

	pi, err := s.intents.New(params)
	if err != nil {
		return domain.ChargeResult{}, s.mapError(req.TrackingCode, err)
	}

	s.logger.Info("payment intent created",
		logx.String("tracking_code", req.TrackingCode),
		logx.String("intent_id", pi.ID),
		logx.String("intent_status", string(pi.Status)),
	)
	return domain.ChargeResult{
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
		Succeeded:    pi.Status == stripe.PaymentIntentStatusSucceeded,
	}, nil
}

func (s *Stripe) mapError(code string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		s.logger.Warn("payment processor error",
			logx.String("tracking_code", code),
			logx.String("stripe_request_id", serr.RequestID),
			logx.String("stripe_type", string(serr.Type)),
			logx.String("stripe_code", string(serr.Code)),
			logx.String("decline_code", string(serr.DeclineCode)),
		)
		switch {
		case serr.Type == stripe.ErrorTypeCard:
			return apperr.Declined(serr.Msg)
		case serr.Type == stripe.ErrorTypeInvalidRequest && serr.Code == stripe.ErrorCodeResourceMissing:
			return apperr.Declined("unknown payment method")
		}
		return fmt.Errorf("%w: processor %s error", apperr.ErrProcessing, serr.Type)
	}
	s.logger.Error("payment processor unreachable", logx.String("tracking_code", code), logx.Err(err))
	return fmt.Errorf("%w: processor unreachable", apperr.ErrProcessing)
}
