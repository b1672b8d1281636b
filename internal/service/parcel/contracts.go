package parcel

import (
	"context"

	"github.com/google/uuid"

	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/ports/parceltx"
)

// parcelRepository defines storage operations required by the parcel service.
type parcelRepository interface {
	parceltx.Runner
	Create(ctx context.Context, p *domain.Parcel) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Parcel, error)
	List(ctx context.Context, f domain.ListFilter) (domain.ParcelList, error)
}

type geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, bool, error)
}

type committer interface {
	Committed(ctx context.Context, ev domain.TransitionEvent) error
}
