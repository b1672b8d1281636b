package parceltx

import (
	"context"

	"github.com/google/uuid"

	"service-parcel-platform/internal/domain"
)

// Repository is the parcel store seen from inside a transaction.
// Lookups return (nil, nil) when the row does not exist.
// Guarded writes return apperr.ErrConflict when the stored row no longer matches the expected state.
type Repository interface {
	GetParcelForUpdate(ctx context.Context, id uuid.UUID) (*domain.Parcel, error)
	GetParcelByTrackingCodeForUpdate(ctx context.Context, code string) (*domain.Parcel, error)
	GetDriver(ctx context.Context, id uuid.UUID) (*domain.Driver, error)
	GetDriverForUpdate(ctx context.Context, id uuid.UUID) (*domain.Driver, error)
	CountActiveByDriver(ctx context.Context, driverID uuid.UUID) (int, error)

	// AssignDriver binds the driver and moves the parcel to assigned, expecting pending with no driver.
	AssignDriver(ctx context.Context, parcelID, driverID uuid.UUID) error
	// UpdateStatus moves the parcel from -> to.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.ParcelStatus) error
	// UpdateLocation stores the position and moves the parcel from -> to (to may equal from).
	UpdateLocation(ctx context.Context, id uuid.UUID, from, to domain.ParcelStatus, loc domain.LocationUpdate) error
	// UpdateDetails applies sender edits, expecting the parcel to still be pending.
	UpdateDetails(ctx context.Context, id uuid.UUID, upd domain.PartialParcelUpdate) error
	// MarkPaid sets payment_status=paid, expecting it to be pending.
	MarkPaid(ctx context.Context, id uuid.UUID) error
}

// Runner is a transaction runner.
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
