// Package assignment binds drivers to parcels within the driver's capacity.
package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
	"service-parcel-platform/internal/ports/parceltx"
)

// DefaultCapacity is the number of active parcels a driver may carry.
const DefaultCapacity = 5

type committer interface {
	Committed(ctx context.Context, ev domain.TransitionEvent) error
}

// Service assigns parcels to drivers.
type Service struct {
	repo             parceltx.Runner
	effects          committer
	capacity         int
	operationTimeout time.Duration
	logger           logx.Logger
}

// NewService creates an assignment Service.
func NewService(r parceltx.Runner, effects committer, capacity int, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Service{
		repo:             r,
		effects:          effects,
		capacity:         capacity,
		operationTimeout: timeout,
		logger:           logger,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// Assign binds driverID to parcelID and moves the parcel to assigned.
// The parcel row and the driver row stay locked until commit, so concurrent
// assignments to the same driver see each other's result.
func (s *Service) Assign(ctx context.Context, parcelID, driverID uuid.UUID) (domain.AssignResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var ev domain.TransitionEvent
	err := parceltx.WithRetry(ctx, s.repo, func(tx parceltx.Repository) error {
		p, err := tx.GetParcelForUpdate(ctx, parcelID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: parcel %s", apperr.ErrNotFound, parcelID)
		}
		d, err := tx.GetDriverForUpdate(ctx, driverID)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("%w: driver %s", apperr.ErrNotFound, driverID)
		}

		if p.AssignedDriverID != nil {
			return apperr.ErrAlreadyAssigned
		}
		if err := domain.CheckTransition(p.Status, domain.StatusAssigned); err != nil {
			return err
		}

		active, err := tx.CountActiveByDriver(ctx, driverID)
		if err != nil {
			return err
		}
		if active >= s.capacity {
			return fmt.Errorf("%w: %d of %d", apperr.ErrDriverOverloaded, active, s.capacity)
		}

		if err := tx.AssignDriver(ctx, parcelID, driverID); err != nil {
			return err
		}

		from := p.Status
		p.Status = domain.StatusAssigned
		p.AssignedDriverID = &d.ID
		ev = domain.TransitionEvent{Kind: domain.EventDriverAssigned, Parcel: *p, From: from, Driver: d}
		return nil
	})
	if err != nil {
		return domain.AssignResult{}, err
	}

	s.logger.Info("driver assigned",
		logx.String("event", "driver_assigned"),
		logx.String("tracking_code", ev.Parcel.TrackingCode),
		logx.UUID("parcel_id", parcelID),
		logx.UUID("driver_id", driverID),
	)
	if err := s.effects.Committed(ctx, ev); err != nil {
		return domain.AssignResult{}, err
	}

	return domain.AssignResult{
		ParcelID:     parcelID,
		TrackingCode: ev.Parcel.TrackingCode,
		DriverID:     driverID,
		DriverName:   ev.Driver.Name,
		Status:       ev.Parcel.Status,
	}, nil
}
