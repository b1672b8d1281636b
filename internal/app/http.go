package app

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/dig"

	"service-parcel-platform/internal/config"
	"service-parcel-platform/internal/gateway/payments"
	"service-parcel-platform/internal/http/handlers"
	"service-parcel-platform/internal/http/middleware/ratelimit"
	"service-parcel-platform/internal/http/pprofserver"
	"service-parcel-platform/internal/http/router"
	"service-parcel-platform/internal/logx"
	"service-parcel-platform/internal/service/assignment"
	"service-parcel-platform/internal/service/driver"
	"service-parcel-platform/internal/service/parcel"
	"service-parcel-platform/internal/service/payment"
	"service-parcel-platform/internal/service/tracking"
)

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		handlers.New,
		func(l logx.Logger, s *parcel.Service) *handlers.ParcelHandler { return handlers.NewParcelHandler(l, s) },
		func(l logx.Logger, s *assignment.Service) *handlers.AssignmentHandler {
			return handlers.NewAssignmentHandler(l, s)
		},
		func(l logx.Logger, s *payment.Service, v *payments.Verifier) *handlers.PaymentHandler {
			return handlers.NewPaymentHandler(l, s, v)
		},
		func(l logx.Logger, s *tracking.Service) *handlers.TrackingHandler { return handlers.NewTrackingHandler(l, s) },
		func(l logx.Logger, s *driver.Service) *handlers.DriverHandler { return handlers.NewDriverHandler(l, s) },
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
		newRouter,
		serverProvider,
	)
}

type routerIn struct {
	dig.In

	Config     *config.Config
	Logger     logx.Logger
	Base       *handlers.Handlers
	Parcels    *handlers.ParcelHandler
	Assignment *handlers.AssignmentHandler
	Payments   *handlers.PaymentHandler
	Tracking   *handlers.TrackingHandler
	Drivers    *handlers.DriverHandler
	RateLimit  *ratelimit.Middleware
}

func newRouter(in routerIn) http.Handler {
	p := router.Params{
		Logger:     in.Logger,
		Base:       in.Base,
		Parcels:    in.Parcels,
		Assignment: in.Assignment,
		Payments:   in.Payments,
		Tracking:   in.Tracking,
		Drivers:    in.Drivers,
		RateLimit:  in.RateLimit,
	}
	if pp := in.Config.Pprof; pp.Enabled {
		p.Debug = pprofserver.Handler(pprofserver.Config{User: pp.User, Pass: pp.Pass},
			in.Logger.With(logx.String("component", "pprof")))
	}
	return router.New(p)
}
