package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"service-parcel-platform/internal/logx"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// init регистрируем метрики
func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration)
}

// Observability records request metrics and writes one access log line per request.
// Server errors are logged at error level.
func Observability(logger logx.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor) // через прокси читаем ответ
			next.ServeHTTP(ww, r)
			path := pathPattern(r) // шаблон маршрута, а не сырой путь: иначе кардинальность меток взорвётся
			tm := time.Since(start)
			code := ww.Status()
			if code == 0 {
				code = http.StatusOK
			}
			status := strconv.Itoa(code)

			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(tm.Seconds())

			fields := []logx.Field{
				logx.String("request_id", chimw.GetReqID(r.Context())),
				logx.String("method", r.Method),
				logx.String("path", path),
				logx.Int("status", code),
				logx.Duration("duration", tm),
			}
			if p, ok := PrincipalFrom(r.Context()); ok {
				fields = append(fields, logx.String("role", string(p.Role)))
			}
			if code >= http.StatusInternalServerError {
				logger.Error("http request", fields...)
				return
			}
			logger.Info("http request", fields...)
		})
	}
}

func pathPattern(r *http.Request) string {
	rc := chi.RouteContext(r.Context())
	if rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
