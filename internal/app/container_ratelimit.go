package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"service-parcel-platform/internal/config"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/http/middleware"
	"service-parcel-platform/internal/http/middleware/ratelimit"
	"service-parcel-platform/internal/logx"
)

func newRateLimiter(cfg *config.Config, clock ratelimit.Clock) ratelimit.Limiter {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return ratelimit.NopLimiter{}
	}
	return ratelimit.NewBuckets(clock, ratelimit.Config{
		Default: ratelimit.Quota{Rate: rl.Rate, Burst: rl.Burst},
		Classes: map[string]ratelimit.Quota{
			string(domain.RoleDriver): {Rate: rl.DriverRate, Burst: rl.DriverBurst},
		},
		IdleTTL: rl.TTL,
		MaxKeys: rl.MaxBuckets,
	})
}

func newRateLimitClock() ratelimit.Clock {
	return ratelimit.RealClock{}
}

// principalKey buckets authenticated callers by role and user, everyone else by client IP.
func principalKey(r *http.Request) string {
	if p, ok := middleware.PrincipalFrom(r.Context()); ok {
		return string(p.Role) + ":" + p.ID.String()
	}
	return "ip:" + ratelimit.ClientIP(r)
}

type rateLimitIn struct {
	dig.In
	Logger  logx.Logger
	Counter prometheus.Counter `name:"rate_limit_exceeded_total"`
	Limiter ratelimit.Limiter
}

func newRateLimitMiddleware(in rateLimitIn) *ratelimit.Middleware {
	return ratelimit.New(in.Logger, in.Counter, in.Limiter, principalKey)
}
