package tracking

import (
	"context"

	"service-parcel-platform/internal/domain"
)

type viewStore interface {
	GetTrackingView(ctx context.Context, code string) (*domain.TrackingView, error)
}

type cacheCounter interface {
	Hit()
	Miss()
}

type nopCounter struct{}

func (nopCounter) Hit()  {}
func (nopCounter) Miss() {}
