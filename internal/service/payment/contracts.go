package payment

import (
	"context"

	"github.com/google/uuid"

	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/ports/parceltx"
)

type parcelRepository interface {
	parceltx.Runner
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Parcel, error)
}

type resultCounter interface {
	Inc(labels ...string)
}

type nopCounter struct{}

func (nopCounter) Inc(...string) {}
