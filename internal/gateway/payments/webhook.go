package payments

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"service-parcel-platform/internal/domain"
)

// ErrBadSignature is returned when the event signature does not verify.
var ErrBadSignature = errors.New("invalid webhook signature")

// Verifier checks signed processor events.
type Verifier struct {
	secret string
}

// NewVerifier creates a Verifier for the endpoint secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Parse verifies the Stripe-Signature header and extracts the payment fields.
// Events that are not about a payment intent come back with an empty IntentID.
func (v *Verifier) Parse(payload []byte, signature string) (domain.PaymentEvent, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	out := domain.PaymentEvent{ID: ev.ID, Type: domain.PaymentEventType(ev.Type)}
	if ev.Data == nil || len(ev.Data.Raw) == 0 {
		return out, nil
	}
	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(ev.Data.Raw, &obj); err != nil || obj.Object != "payment_intent" {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return out, fmt.Errorf("decode payment intent: %w", err)
	}
	out.IntentID = pi.ID
	out.TrackingCode = pi.Metadata[MetadataTrackingCode]
	if pi.LastPaymentError != nil {
		out.FailureReason = pi.LastPaymentError.Msg
	}
	return out, nil
}
