package parcel

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/ports/parceltx"
)

// Cancel cancels a pending or assigned parcel. Allowed for its sender and for admins.
func (s *Service) Cancel(ctx context.Context, by domain.Principal, id uuid.UUID) (*domain.Parcel, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var ev domain.TransitionEvent
	err := parceltx.WithRetry(ctx, s.repo, func(tx parceltx.Repository) error {
		p, err := tx.GetParcelForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil || !(p.OwnedBy(by.ID) || by.IsAdmin()) {
			return apperr.ErrNotFound
		}
		ev, err = transition(ctx, tx, p, domain.StatusCancelled)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.effects.Committed(ctx, ev); err != nil {
		return nil, err
	}
	return &ev.Parcel, nil
}

// UpdateLocation stores the position reported by the assigned driver.
// The first update of an assigned parcel moves it to in_transit.
func (s *Service) UpdateLocation(ctx context.Context, by domain.Principal, id uuid.UUID, loc domain.LocationUpdate) (*domain.Parcel, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var ev domain.TransitionEvent
	err := parceltx.WithRetry(ctx, s.repo, func(tx parceltx.Repository) error {
		p, err := tx.GetParcelForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil || !p.DeliveredBy(by.ID) {
			return apperr.ErrNotFound
		}

		from, to := p.Status, p.Status
		switch from {
		case domain.StatusAssigned:
			to = domain.StatusInTransit
		case domain.StatusInTransit:
		default:
			return domain.CheckTransition(from, domain.StatusInTransit)
		}

		if err := tx.UpdateLocation(ctx, id, from, to, loc); err != nil {
			return err
		}
		applyLocation(p, loc)
		p.Status = to
		ev = domain.TransitionEvent{Kind: domain.EventStatusChanged, Parcel: *p, From: from}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if ev.From != ev.Parcel.Status {
		if err := s.effects.Committed(ctx, ev); err != nil {
			return nil, err
		}
	}
	return &ev.Parcel, nil
}

// SetStatus moves a parcel of the calling driver to in_transit or delivered.
func (s *Service) SetStatus(ctx context.Context, by domain.Principal, id uuid.UUID, to domain.ParcelStatus) (*domain.Parcel, error) {
	if to != domain.StatusInTransit && to != domain.StatusDelivered {
		return nil, apperr.Invalidf("status must be %s or %s", domain.StatusInTransit, domain.StatusDelivered)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var ev domain.TransitionEvent
	err := parceltx.WithRetry(ctx, s.repo, func(tx parceltx.Repository) error {
		p, err := tx.GetParcelForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil || !p.DeliveredBy(by.ID) {
			return apperr.ErrNotFound
		}
		ev, err = transition(ctx, tx, p, to)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.effects.Committed(ctx, ev); err != nil {
		return nil, err
	}
	return &ev.Parcel, nil
}

// Confirm marks a delivered parcel as received. Only its sender may confirm.
func (s *Service) Confirm(ctx context.Context, by domain.Principal, code string) (*domain.Parcel, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.Invalidf("tracking code is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var ev domain.TransitionEvent
	err := parceltx.WithRetry(ctx, s.repo, func(tx parceltx.Repository) error {
		p, err := tx.GetParcelByTrackingCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}
		if p == nil || !p.OwnedBy(by.ID) {
			return apperr.ErrNotFound
		}
		ev, err = transition(ctx, tx, p, domain.StatusConfirmed)
		if err != nil {
			return err
		}
		if p.AssignedDriverID != nil {
			ev.Driver, err = tx.GetDriver(ctx, *p.AssignedDriverID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.effects.Committed(ctx, ev); err != nil {
		return nil, err
	}
	return &ev.Parcel, nil
}

// transition applies a guarded status write and returns the resulting event.
func transition(ctx context.Context, tx parceltx.Repository, p *domain.Parcel, to domain.ParcelStatus) (domain.TransitionEvent, error) {
	from := p.Status
	if err := domain.CheckTransition(from, to); err != nil {
		return domain.TransitionEvent{}, err
	}
	if err := tx.UpdateStatus(ctx, p.ID, from, to); err != nil {
		return domain.TransitionEvent{}, err
	}
	p.Status = to
	return domain.TransitionEvent{Kind: domain.EventStatusChanged, Parcel: *p, From: from}, nil
}

func applyLocation(p *domain.Parcel, loc domain.LocationUpdate) {
	if loc.Latitude != nil {
		p.CurrentLatitude = loc.Latitude
	}
	if loc.Longitude != nil {
		p.CurrentLongitude = loc.Longitude
	}
	if loc.CurrentLocation != nil {
		p.CurrentLocation = loc.CurrentLocation
	}
}
