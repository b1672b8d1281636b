// Package parcel implements the sender and driver side of the parcel lifecycle.
package parcel

import (
	"context"
	"encoding/hex"
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

const maxCodeAttempts = 3

// Service coordinates parcel business logic.
type Service struct {
	repo             parcelRepository
	geo              geocoder
	effects          committer
	logger           logx.Logger
	operationTimeout time.Duration
	newCode          func() string
}

// NewService creates a parcel Service. geo may be nil, then addresses are not geocoded.
func NewService(r parcelRepository, geo geocoder, effects committer, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		repo:             r,
		geo:              geo,
		effects:          effects,
		logger:           logger,
		operationTimeout: timeout,
		newCode:          NewTrackingCode,
	}
}

// NewTrackingCode returns "TRK" followed by 12 upper-case hex digits.
func NewTrackingCode() string {
	id := uuid.New()
	return "TRK" + strings.ToUpper(hex.EncodeToString(id[:6]))
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// visible reports whether by may see p.
func visible(by domain.Principal, p *domain.Parcel) bool {
	switch by.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleDriver:
		return p.DeliveredBy(by.ID)
	default:
		return p.OwnedBy(by.ID)
	}
}

// Create stores a new pending parcel sent by the caller.
func (s *Service) Create(ctx context.Context, by domain.Principal, in domain.NewParcel) (*domain.Parcel, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p := &domain.Parcel{
		ID:               uuid.New(),
		SenderID:         by.ID,
		SenderEmail:      by.Email,
		SenderPhone:      by.Phone,
		RecipientName:    strings.TrimSpace(in.RecipientName),
		RecipientAddress: strings.TrimSpace(in.RecipientAddress),
		RecipientPhone:   in.RecipientPhone,
		Origin:           strings.TrimSpace(in.Origin),
		Destination:      strings.TrimSpace(in.Destination),
		Status:           domain.StatusPending,
		CurrentLocation:  in.CurrentLocation,
		CurrentLatitude:  in.CurrentLatitude,
		CurrentLongitude: in.CurrentLongitude,
		Price:            in.Price,
		PaymentStatus:    domain.PaymentPending,
	}
	if p.CurrentLatitude == nil && p.CurrentLongitude == nil {
		s.geocode(ctx, p)
	}

	for attempt := 1; ; attempt++ {
		p.TrackingCode = s.newCode()
		err := s.repo.Create(ctx, p)
		if err == nil {
			break
		}
		if !errors.Is(err, apperr.ErrConflict) || attempt == maxCodeAttempts {
			return nil, err
		}
		s.logger.Warn("tracking code collision, regenerating", logx.String("tracking_code", p.TrackingCode))
	}

	s.logger.Info("parcel created",
		logx.String("event", "parcel_created"),
		logx.String("tracking_code", p.TrackingCode),
		logx.UUID("parcel_id", p.ID),
		logx.UUID("sender_id", p.SenderID),
	)
	return p, nil
}

// geocode fills coordinates from the recipient address. Failures leave them empty.
func (s *Service) geocode(ctx context.Context, p *domain.Parcel) {
	if s.geo == nil {
		return
	}
	c, ok, err := s.geo.Geocode(ctx, p.RecipientAddress)
	if err != nil {
		s.logger.Warn("geocoding failed", logx.UUID("parcel_id", p.ID), logx.Err(err))
		return
	}
	if !ok || domain.ValidateCoordinates(&c.Lat, &c.Lng) != nil {
		return
	}
	p.CurrentLatitude = &c.Lat
	p.CurrentLongitude = &c.Lng
}

// Get returns the parcel if the caller may see it.
func (s *Service) Get(ctx context.Context, by domain.Principal, id uuid.UUID) (*domain.Parcel, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || !visible(by, p) {
		return nil, apperr.ErrNotFound
	}
	return p, nil
}

// List returns the caller's own parcels.
func (s *Service) List(ctx context.Context, by domain.Principal, page domain.Page) (domain.ParcelList, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	id := by.ID
	return s.repo.List(ctx, domain.ListFilter{SenderID: &id, Page: page})
}

// Dashboard lists parcels scoped by role: all for admins, assigned ones for drivers,
// sent ones for customers. Customers do not see recipient contact details.
func (s *Service) Dashboard(ctx context.Context, by domain.Principal, page domain.Page) (domain.ParcelList, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	f := domain.ListFilter{Page: page}
	id := by.ID
	switch by.Role {
	case domain.RoleAdmin:
	case domain.RoleDriver:
		f.DriverID = &id
	default:
		f.SenderID = &id
	}

	out, err := s.repo.List(ctx, f)
	if err != nil {
		return domain.ParcelList{}, err
	}
	if by.Role == domain.RoleCustomer {
		for i := range out.Rows {
			out.Rows[i].ContactHidden = true
		}
	}
	return out, nil
}

// Update edits a pending parcel of the caller.
func (s *Service) Update(ctx context.Context, by domain.Principal, id uuid.UUID, upd domain.PartialParcelUpdate) (*domain.Parcel, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	upd = trimDetails(upd)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out domain.Parcel
	err := parceltx.WithRetry(ctx, s.repo, func(tx parceltx.Repository) error {
		p, err := tx.GetParcelForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil || !p.OwnedBy(by.ID) {
			return apperr.ErrNotFound
		}
		if p.Status != domain.StatusPending {
			return fmt.Errorf("%w: parcel is %s, only pending parcels can be edited", apperr.ErrInvalidTransition, p.Status)
		}
		if err := tx.UpdateDetails(ctx, id, upd); err != nil {
			return err
		}
		applyDetails(p, upd)
		out = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func trimDetails(u domain.PartialParcelUpdate) domain.PartialParcelUpdate {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	return domain.PartialParcelUpdate{
		RecipientName:    trim(u.RecipientName),
		RecipientAddress: trim(u.RecipientAddress),
		RecipientPhone:   u.RecipientPhone,
		Origin:           trim(u.Origin),
		Destination:      trim(u.Destination),
	}
}

func applyDetails(p *domain.Parcel, u domain.PartialParcelUpdate) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.RecipientName, u.RecipientName)
	set(&p.RecipientAddress, u.RecipientAddress)
	set(&p.RecipientPhone, u.RecipientPhone)
	set(&p.Origin, u.Origin)
	set(&p.Destination, u.Destination)
}
