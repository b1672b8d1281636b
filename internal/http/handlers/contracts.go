package handlers

import (
	"context"

	"github.com/google/uuid"

	"service-parcel-platform/internal/domain"
)

type parcelUsecase interface {
	Create(ctx context.Context, by domain.Principal, in domain.NewParcel) (*domain.Parcel, error)
	Get(ctx context.Context, by domain.Principal, id uuid.UUID) (*domain.Parcel, error)
	List(ctx context.Context, by domain.Principal, page domain.Page) (domain.ParcelList, error)
	Dashboard(ctx context.Context, by domain.Principal, page domain.Page) (domain.ParcelList, error)
	Update(ctx context.Context, by domain.Principal, id uuid.UUID, upd domain.PartialParcelUpdate) (*domain.Parcel, error)
	Cancel(ctx context.Context, by domain.Principal, id uuid.UUID) (*domain.Parcel, error)
	UpdateLocation(ctx context.Context, by domain.Principal, id uuid.UUID, loc domain.LocationUpdate) (*domain.Parcel, error)
	SetStatus(ctx context.Context, by domain.Principal, id uuid.UUID, to domain.ParcelStatus) (*domain.Parcel, error)
	Confirm(ctx context.Context, by domain.Principal, code string) (*domain.Parcel, error)
}

type assignmentUsecase interface {
	Assign(ctx context.Context, parcelID, driverID uuid.UUID) (domain.AssignResult, error)
}

type paymentUsecase interface {
	Pay(ctx context.Context, by domain.Principal, parcelID uuid.UUID, paymentMethodID string) (domain.PaymentResult, error)
	HandleEvent(ctx context.Context, ev domain.PaymentEvent) error
}

type eventParser interface {
	Parse(payload []byte, signature string) (domain.PaymentEvent, error)
}

type trackingUsecase interface {
	Track(ctx context.Context, code string) (domain.TrackingView, error)
}

type driverUsecase interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Driver, error)
	List(ctx context.Context, limit, offset *int) ([]domain.Driver, error)
	Create(ctx context.Context, d *domain.Driver) error
	UpdatePartial(ctx context.Context, u domain.PartialDriverUpdate) (*domain.Driver, error)
}
