package domain

import (
	"github.com/google/uuid"

	"service-parcel-platform/internal/apperr"
)

// Page size limits for parcel listings.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps Offset far from int overflow.
	MaxPage = 1_000_000
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage normalizes a page request. Zero values take defaults, oversized pages are capped.
func NewPage(number, size int) (Page, error) {
	if number == 0 {
		number = 1
	}
	if number < 1 || number > MaxPage {
		return Page{}, apperr.Invalidf("page must be between 1 and %d", MaxPage)
	}
	switch {
	case size == 0:
		size = DefaultPageSize
	case size < 0:
		return Page{}, apperr.Invalidf("page_size must be >= 1")
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}, nil
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// ListFilter scopes a parcel listing. Nil fields do not filter.
type ListFilter struct {
	SenderID *uuid.UUID
	DriverID *uuid.UUID
	Page     Page
}

// ParcelList is one page of a parcel listing with the total match count.
type ParcelList struct {
	Count int
	Page  Page
	Rows  []DashboardRow
}
