package ratelimit

import (
	"io"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"service-parcel-platform/internal/logx"
)

// KeyFunc returns the bucket key for a request.
type KeyFunc func(r *http.Request) string

// Middleware ограничивает частоту запросов на ключ (клиент или пользователь)
type Middleware struct {
	logger  logx.Logger
	counter prometheus.Counter
	limiter Limiter
	key     KeyFunc
}

// New creates a Middleware. A nil limiter lets everything through, a nil key buckets by client IP.
func New(logger logx.Logger, counter prometheus.Counter, limiter Limiter, key KeyFunc) *Middleware {
	if limiter == nil {
		limiter = NopLimiter{}
	}
	if key == nil {
		key = ClientIP
	}
	return &Middleware{
		logger:  logger,
		counter: counter,
		limiter: limiter,
		key:     key,
	}
}

// Handler returns chi-style middleware.
func (m *Middleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := m.key(r)
			if m.limiter.Allow(key) {
				next.ServeHTTP(w, r)
				return
			}

			if m.counter != nil {
				m.counter.Inc()
			}
			m.logger.Warn("rate limit exceeded",
				logx.String("key", key),
				logx.String("method", r.Method),
				logx.String("path", r.URL.Path),
			)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := io.WriteString(w, `{"code":"RateLimited","error":"too many requests"}`); err != nil {
				// клиент мог оборвать соединение; это не ошибка бизнес-логики
				m.logger.Debug("rate limit response write failed", logx.String("key", key), logx.Err(err))
			}
		})
	}
}

// ClientIP keys requests by remote address. Run chi's RealIP before it to honour proxy headers.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
