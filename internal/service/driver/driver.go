// Package driver manages driver accounts.
package driver

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/domain"
)

// Service coordinates driver business logic and orchestrates repository calls.
type Service struct {
	repo             driverRepository
	operationTimeout time.Duration
}

// NewService creates and configures a driver Service.
func NewService(r driverRepository, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{repo: r, operationTimeout: timeout}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// Get retrieves a driver by its ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Driver, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.ErrNotFound
	}
	return d, nil
}

// List returns drivers with optional pagination
func (s *Service) List(ctx context.Context, limit, offset *int) ([]domain.Driver, error) {
	if (limit != nil && *limit < 0) || (offset != nil && *offset < 0) {
		return nil, apperr.Invalidf("limit and offset must be non-negative")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.List(ctx, limit, offset)
}

// Create persists a new driver.
func (s *Service) Create(ctx context.Context, d *domain.Driver) error {
	if d == nil {
		return apperr.Invalidf("driver is required")
	}
	d.Name = strings.TrimSpace(d.Name)
	d.LicenseNumber = strings.TrimSpace(d.LicenseNumber)
	if err := d.Validate(); err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.Create(ctx, d)
}

// UpdatePartial applies a partial update to a driver.
func (s *Service) UpdatePartial(ctx context.Context, u domain.PartialDriverUpdate) (*domain.Driver, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ok, err := s.repo.UpdatePartial(ctx, u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotFound
	}
	d, err := s.repo.Get(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.ErrNotFound
	}
	return d, nil
}
