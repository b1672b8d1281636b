package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/http/middleware"
)

type stubParcels struct {
	create    func(domain.Principal, domain.NewParcel) (*domain.Parcel, error)
	get       func(domain.Principal, uuid.UUID) (*domain.Parcel, error)
	list      func(domain.Principal, domain.Page) (domain.ParcelList, error)
	dashboard func(domain.Principal, domain.Page) (domain.ParcelList, error)
	update    func(domain.Principal, uuid.UUID, domain.PartialParcelUpdate) (*domain.Parcel, error)
	cancel    func(domain.Principal, uuid.UUID) (*domain.Parcel, error)
	location  func(domain.Principal, uuid.UUID, domain.LocationUpdate) (*domain.Parcel, error)
	status    func(domain.Principal, uuid.UUID, domain.ParcelStatus) (*domain.Parcel, error)
	confirm   func(domain.Principal, string) (*domain.Parcel, error)
}

func (s *stubParcels) Create(_ context.Context, by domain.Principal, in domain.NewParcel) (*domain.Parcel, error) {
	return s.create(by, in)
}

func (s *stubParcels) Get(_ context.Context, by domain.Principal, id uuid.UUID) (*domain.Parcel, error) {
	return s.get(by, id)
}

func (s *stubParcels) List(_ context.Context, by domain.Principal, page domain.Page) (domain.ParcelList, error) {
	return s.list(by, page)
}

func (s *stubParcels) Dashboard(_ context.Context, by domain.Principal, page domain.Page) (domain.ParcelList, error) {
	return s.dashboard(by, page)
}

func (s *stubParcels) Update(_ context.Context, by domain.Principal, id uuid.UUID, upd domain.PartialParcelUpdate) (*domain.Parcel, error) {
	return s.update(by, id, upd)
}

func (s *stubParcels) Cancel(_ context.Context, by domain.Principal, id uuid.UUID) (*domain.Parcel, error) {
	return s.cancel(by, id)
}

func (s *stubParcels) UpdateLocation(_ context.Context, by domain.Principal, id uuid.UUID, loc domain.LocationUpdate) (*domain.Parcel, error) {
	return s.location(by, id, loc)
}

func (s *stubParcels) SetStatus(_ context.Context, by domain.Principal, id uuid.UUID, to domain.ParcelStatus) (*domain.Parcel, error) {
	return s.status(by, id, to)
}

func (s *stubParcels) Confirm(_ context.Context, by domain.Principal, code string) (*domain.Parcel, error) {
	return s.confirm(by, code)
}

type stubAssignment func(parcelID, driverID uuid.UUID) (domain.AssignResult, error)

func (f stubAssignment) Assign(_ context.Context, parcelID, driverID uuid.UUID) (domain.AssignResult, error) {
	return f(parcelID, driverID)
}

type stubPayments struct {
	pay    func(domain.Principal, uuid.UUID, string) (domain.PaymentResult, error)
	events []domain.PaymentEvent
	err    error
}

func (s *stubPayments) Pay(_ context.Context, by domain.Principal, id uuid.UUID, pm string) (domain.PaymentResult, error) {
	return s.pay(by, id, pm)
}

func (s *stubPayments) HandleEvent(_ context.Context, ev domain.PaymentEvent) error {
	s.events = append(s.events, ev)
	return s.err
}

type stubParser struct {
	ev  domain.PaymentEvent
	err error

	gotPayload   string
	gotSignature string
}

func (s *stubParser) Parse(payload []byte, signature string) (domain.PaymentEvent, error) {
	s.gotPayload, s.gotSignature = string(payload), signature
	return s.ev, s.err
}

type stubTracking func(code string) (domain.TrackingView, error)

func (f stubTracking) Track(_ context.Context, code string) (domain.TrackingView, error) {
	return f(code)
}

// newRequest builds a request with chi URL params and, when by is non-nil, a principal.
func newRequest(method, target, body string, by *domain.Principal, params map[string]string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if by != nil {
		ctx = middleware.WithPrincipal(ctx, *by)
	}
	return req.WithContext(ctx)
}

func customer() *domain.Principal {
	return &domain.Principal{ID: uuid.New(), Role: domain.RoleCustomer, Email: "c@example.com"}
}

func sprintf(format string, args ...any) string { return fmt.Sprintf(format, args...) }
