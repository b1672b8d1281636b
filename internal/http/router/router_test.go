package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/http/handlers"
	"service-parcel-platform/internal/http/middleware"
	"service-parcel-platform/internal/http/middleware/ratelimit"
	"service-parcel-platform/internal/http/router"
	"service-parcel-platform/internal/logx"
)

type parcels struct{ calls []string }

func (p *parcels) record(name string) (*domain.Parcel, error) {
	p.calls = append(p.calls, name)
	return &domain.Parcel{ID: uuid.New(), Status: domain.StatusPending}, nil
}

func (p *parcels) Create(context.Context, domain.Principal, domain.NewParcel) (*domain.Parcel, error) {
	return p.record("create")
}

func (p *parcels) Get(context.Context, domain.Principal, uuid.UUID) (*domain.Parcel, error) {
	return p.record("get")
}

func (p *parcels) List(context.Context, domain.Principal, domain.Page) (domain.ParcelList, error) {
	p.calls = append(p.calls, "list")
	return domain.ParcelList{}, nil
}

func (p *parcels) Dashboard(context.Context, domain.Principal, domain.Page) (domain.ParcelList, error) {
	p.calls = append(p.calls, "dashboard")
	return domain.ParcelList{}, nil
}

func (p *parcels) Update(context.Context, domain.Principal, uuid.UUID, domain.PartialParcelUpdate) (*domain.Parcel, error) {
	return p.record("update")
}

func (p *parcels) Cancel(context.Context, domain.Principal, uuid.UUID) (*domain.Parcel, error) {
	return p.record("cancel")
}

func (p *parcels) UpdateLocation(context.Context, domain.Principal, uuid.UUID, domain.LocationUpdate) (*domain.Parcel, error) {
	return p.record("location")
}

func (p *parcels) SetStatus(context.Context, domain.Principal, uuid.UUID, domain.ParcelStatus) (*domain.Parcel, error) {
	return p.record("status")
}

func (p *parcels) Confirm(context.Context, domain.Principal, string) (*domain.Parcel, error) {
	return p.record("confirm")
}

type payments struct{ events int }

func (p *payments) Pay(context.Context, domain.Principal, uuid.UUID, string) (domain.PaymentResult, error) {
	return domain.PaymentResult{PaymentStatus: domain.PaymentPaid}, nil
}

func (p *payments) HandleEvent(context.Context, domain.PaymentEvent) error {
	p.events++
	return nil
}

type parser struct{}

func (parser) Parse([]byte, string) (domain.PaymentEvent, error) {
	return domain.PaymentEvent{Type: domain.PaymentSucceeded, TrackingCode: "TRK1"}, nil
}

type tracking struct{}

func (tracking) Track(_ context.Context, code string) (domain.TrackingView, error) {
	return domain.TrackingView{TrackingCode: code, Status: domain.StatusPending, AssignedDriver: domain.NotAssigned}, nil
}

type assignment struct{}

func (assignment) Assign(_ context.Context, p, d uuid.UUID) (domain.AssignResult, error) {
	return domain.AssignResult{ParcelID: p, DriverID: d, Status: domain.StatusAssigned}, nil
}

type drivers struct{}

func (drivers) Get(_ context.Context, id uuid.UUID) (*domain.Driver, error) {
	return &domain.Driver{ID: id}, nil
}

func (drivers) List(context.Context, *int, *int) ([]domain.Driver, error) { return nil, nil }

func (drivers) Create(context.Context, *domain.Driver) error { return nil }

func (drivers) UpdatePartial(_ context.Context, u domain.PartialDriverUpdate) (*domain.Driver, error) {
	return &domain.Driver{ID: u.ID}, nil
}

type fixture struct {
	handler  http.Handler
	parcels  *parcels
	payments *payments
}

func newFixture(limiter ratelimit.Limiter) fixture {
	l := logx.Nop()
	ps, pay := &parcels{}, &payments{}
	h := router.New(router.Params{
		Logger:     l,
		Base:       handlers.New(l),
		Parcels:    handlers.NewParcelHandler(l, ps),
		Assignment: handlers.NewAssignmentHandler(l, assignment{}),
		Payments:   handlers.NewPaymentHandler(l, pay, parser{}),
		Tracking:   handlers.NewTrackingHandler(l, tracking{}),
		Drivers:    handlers.NewDriverHandler(l, drivers{}),
		RateLimit:  ratelimit.New(l, nil, limiter, nil),
		Debug: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	})
	return fixture{handler: h, parcels: ps, payments: pay}
}

func do(h http.Handler, method, path, body string, role domain.Role) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if role != "" {
		req.Header.Set(middleware.HeaderUserID, uuid.NewString())
		req.Header.Set(middleware.HeaderUserRole, string(role))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_PublicRoutes(t *testing.T) {
	t.Parallel()

	f := newFixture(nil)

	require.Equal(t, http.StatusOK, do(f.handler, http.MethodGet, "/ping", "", "").Code)
	require.Equal(t, http.StatusNoContent, do(f.handler, http.MethodHead, "/healthcheck", "", "").Code)
	require.Equal(t, http.StatusOK, do(f.handler, http.MethodGet, "/metrics", "", "").Code)
	require.Equal(t, http.StatusTeapot, do(f.handler, http.MethodGet, "/debug/pprof/heap", "", "").Code)

	rr := do(f.handler, http.MethodPost, "/webhooks/payment", `{}`, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, f.payments.events)

	rr = do(f.handler, http.MethodGet, "/nope", "", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), `"code":"NotFound"`)

	rr = do(f.handler, http.MethodDelete, "/ping", "", "")
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRouter_RoleGuards(t *testing.T) {
	t.Parallel()

	id := uuid.NewString()
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		role   domain.Role
		want   int
	}{
		{"no identity", http.MethodGet, "/parcels", "", "", http.StatusUnauthorized},
		{"list as customer", http.MethodGet, "/parcels", "", domain.RoleCustomer, http.StatusOK},
		{"create as driver", http.MethodPost, "/parcels", `{}`, domain.RoleDriver, http.StatusForbidden},
		{"get as driver", http.MethodGet, "/parcels/" + id, "", domain.RoleDriver, http.StatusOK},
		{"track as driver", http.MethodGet, "/parcels/TRK1/track", "", domain.RoleDriver, http.StatusOK},
		{"pay as admin", http.MethodPost, "/parcels/" + id + "/pay", `{"payment_method_id":"pm"}`, domain.RoleAdmin, http.StatusForbidden},
		{"pay as customer", http.MethodPost, "/parcels/" + id + "/pay", `{"payment_method_id":"pm"}`, domain.RoleCustomer, http.StatusOK},
		{"location as customer", http.MethodPatch, "/parcels/" + id + "/update-location", `{}`, domain.RoleCustomer, http.StatusForbidden},
		{"location as driver", http.MethodPatch, "/parcels/" + id + "/update-location", `{"current_location":"depot"}`, domain.RoleDriver, http.StatusOK},
		{"status as driver", http.MethodPatch, "/parcels/" + id + "/status", `{"status":"delivered"}`, domain.RoleDriver, http.StatusOK},
		{"cancel as customer", http.MethodPost, "/parcels/" + id + "/cancel", "", domain.RoleCustomer, http.StatusOK},
		{"confirm as driver", http.MethodPatch, "/parcels/confirm/TEST123", "", domain.RoleDriver, http.StatusForbidden},
		{"confirm as customer", http.MethodPatch, "/parcels/confirm/TEST123", "", domain.RoleCustomer, http.StatusOK},
		{"assign as customer", http.MethodPost, "/parcels/" + id + "/assign-driver/" + id, "", domain.RoleCustomer, http.StatusForbidden},
		{"assign as admin", http.MethodPost, "/parcels/" + id + "/assign-driver/" + id, "", domain.RoleAdmin, http.StatusOK},
		{"dashboard as driver", http.MethodGet, "/dashboard", "", domain.RoleDriver, http.StatusOK},
		{"drivers as customer", http.MethodGet, "/drivers", "", domain.RoleCustomer, http.StatusForbidden},
		{"drivers as admin", http.MethodGet, "/drivers", "", domain.RoleAdmin, http.StatusOK},
		{"driver by id as admin", http.MethodGet, "/drivers/" + id, "", domain.RoleAdmin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)
			rr := do(f.handler, tt.method, tt.path, tt.body, tt.role)
			require.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func TestRouter_RateLimitAppliesToAuthenticatedRoutesOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(denyAll{})

	require.Equal(t, http.StatusTooManyRequests, do(f.handler, http.MethodGet, "/parcels", "", domain.RoleCustomer).Code)
	require.Equal(t, http.StatusOK, do(f.handler, http.MethodGet, "/ping", "", "").Code)
	require.Equal(t, http.StatusOK, do(f.handler, http.MethodPost, "/webhooks/payment", `{}`, "").Code)
	require.Empty(t, f.parcels.calls)
}
