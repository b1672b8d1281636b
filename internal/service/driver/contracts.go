package driver

import (
	"context"

	"github.com/google/uuid"

	"service-parcel-platform/internal/domain"
)

// driverRepository defines storage operations required by the business layer.
type driverRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Driver, error)
	List(ctx context.Context, limit, offset *int) ([]domain.Driver, error)
	Create(ctx context.Context, d *domain.Driver) error
	UpdatePartial(ctx context.Context, u domain.PartialDriverUpdate) (bool, error)
}
