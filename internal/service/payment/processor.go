//go:generate mockgen -source=processor.go -destination=payment_mocks_test.go -package=payment_test

package payment

import (
	"context"

	"service-parcel-platform/internal/domain"
)

// Processor charges payment methods.
type Processor interface {
	Charge(ctx context.Context, req domain.ChargeRequest) (domain.ChargeResult, error)
}
