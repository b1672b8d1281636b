package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/http/handlers"
	"service-parcel-platform/internal/http/middleware"
	"service-parcel-platform/internal/http/middleware/ratelimit"
	"service-parcel-platform/internal/logx"
)

const defaultTimeout = 5 * time.Second

// Params holds everything the router mounts.
type Params struct {
	Logger     logx.Logger
	Base       *handlers.Handlers
	Parcels    *handlers.ParcelHandler
	Assignment *handlers.AssignmentHandler
	Payments   *handlers.PaymentHandler
	Tracking   *handlers.TrackingHandler
	Drivers    *handlers.DriverHandler
	RateLimit  *ratelimit.Middleware

	// Metrics defaults to the prometheus default registry.
	Metrics http.Handler
	// Debug is mounted under /debug/pprof when set.
	Debug   http.Handler
	Timeout time.Duration
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(p Params) http.Handler {
	if p.Logger == nil {
		p.Logger = logx.Nop()
	}
	if p.Metrics == nil {
		p.Metrics = promhttp.Handler()
	}
	if p.Timeout <= 0 {
		p.Timeout = defaultTimeout
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Observability(p.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(p.Timeout))

	r.Get("/ping", p.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(p.Base.HealthcheckHead))
	r.Method(http.MethodGet, "/metrics", p.Metrics)
	if p.Debug != nil {
		r.Mount("/debug/pprof", p.Debug)
	}

	// подпись проверяется внутри, авторизации нет
	r.Post("/webhooks/payment", p.Payments.Webhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(p.Logger))
		if p.RateLimit != nil {
			r.Use(p.RateLimit.Handler())
		}

		admin := middleware.RequireRole(domain.RoleAdmin)
		driver := middleware.RequireRole(domain.RoleDriver)
		customer := middleware.RequireRole(domain.RoleCustomer)

		r.Route("/parcels", func(r chi.Router) {
			r.With(middleware.RequireRole(domain.RoleCustomer, domain.RoleAdmin)).Post("/", p.Parcels.Create)
			r.Get("/", p.Parcels.List)
			r.With(customer).Patch("/confirm/{trackingCode}", p.Parcels.Confirm)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", p.Parcels.Get)
				r.Patch("/", p.Parcels.Update)
				r.Get("/track", p.Tracking.Track)
				r.Post("/cancel", p.Parcels.Cancel)
				r.With(customer).Post("/pay", p.Payments.Pay)
				r.With(driver).Patch("/update-location", p.Parcels.UpdateLocation)
				r.With(driver).Patch("/status", p.Parcels.SetStatus)
				r.With(admin).Post("/assign-driver/{driverId}", p.Assignment.Assign)
			})
		})

		r.Get("/dashboard", p.Parcels.Dashboard)

		r.Route("/drivers", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", p.Drivers.List)
			r.Post("/", p.Drivers.Create)
			r.Get("/{id}", p.Drivers.GetByID)
			r.Patch("/{id}", p.Drivers.Update)
		})
	})

	r.NotFound(p.Base.NotFound)
	r.MethodNotAllowed(p.Base.MethodNotAllowed)

	return r
}
