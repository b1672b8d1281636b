package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"

	"service-parcel-platform/internal/cache"
	"service-parcel-platform/internal/config"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/http/middleware"
	"service-parcel-platform/internal/http/middleware/ratelimit"
	"service-parcel-platform/internal/logx"
	"service-parcel-platform/internal/metrics"
	"service-parcel-platform/internal/queue"
	"service-parcel-platform/internal/service/notify"
	"service-parcel-platform/internal/transport/kafka"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:             8080,
		LogFormat:        "slog",
		LogLevel:         "error",
		OperationTimeout: time.Second,
		DB:               config.DefaultDB(),
		Assignment:       config.DefaultAssignment(),
		Tracking:         config.DefaultTracking(),
		Notify:           config.DefaultNotify(),
		RateLimit:        config.RateLimit{Enabled: true, Rate: 10, Burst: 10, TTL: time.Minute, MaxBuckets: 100},
		Jobs:             config.Jobs{StatusMetricsSchedule: "@every 1h"},
	}
}

func stubConnect(pool *pgxpool.Pool, err error) dbConnectFunc {
	return func(context.Context, logx.Logger, string, int, time.Duration) (*pgxpool.Pool, error) {
		return pool, err
	}
}

func TestProvideAll_Success(t *testing.T) {
	t.Parallel()

	c := dig.New()

	err := provideAll(c,
		func() context.Context { return context.Background() },
		func() time.Duration { return 3 * time.Second },
	)
	require.NoError(t, err)

	err = c.Invoke(func(ctx context.Context, d time.Duration) {
		require.NotNil(t, ctx)
		require.Equal(t, 3*time.Second, d)
	})
	require.NoError(t, err)
}

func TestProvideAll_InvalidProvider(t *testing.T) {
	t.Parallel()

	c := dig.New()

	type bad struct{}
	err := provideAll(c, bad{})
	require.Error(t, err)
}

func TestRegisterDb_UsesDbConnectAndProvidesPool(t *testing.T) {
	t.Parallel()

	c := dig.New()
	ctx := context.Background()
	cfg := testConfig()

	require.NoError(t, registerCore(c, ctx, func() (*config.Config, error) { return cfg, nil }))

	stubPool := &pgxpool.Pool{}
	connect := func(gotCtx context.Context, _ logx.Logger, dsn string, retries int, delay time.Duration) (*pgxpool.Pool, error) {
		require.Equal(t, ctx, gotCtx)
		require.Equal(t, cfg.DB.DSN(), dsn)
		require.Equal(t, 10, retries)
		require.Equal(t, time.Second, delay)
		return stubPool, nil
	}
	require.NoError(t, registerDb(c, connect))

	err := c.Invoke(func(pool *pgxpool.Pool, timeout time.Duration) {
		require.Same(t, stubPool, pool)
		require.Equal(t, time.Second, timeout)
	})
	require.NoError(t, err)
}

func TestContainerBuilder_Build_ServesRoutes(t *testing.T) {
	t.Parallel()

	c, err := NewContainerBuilder().
		WithConfig(testConfig()).
		WithDBConnect(stubConnect(&pgxpool.Pool{}, nil)).
		build(context.Background())
	require.NoError(t, err)

	err = c.Invoke(func(srv *http.Server, n *notifier) {
		require.Equal(t, ":8080", srv.Addr)
		require.Greater(t, srv.ReadHeaderTimeout, time.Duration(0))
		require.Greater(t, srv.IdleTimeout, time.Duration(0))
		require.NotNil(t, n.local, "without kafka notifications are delivered in-process")

		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		rr = httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/parcels", nil))
		require.Equal(t, http.StatusUnauthorized, rr.Code)

		rr = httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
		require.Equal(t, http.StatusNotFound, rr.Code)
	})
	require.NoError(t, err)
}

func TestContainerBuilder_Build_PprofEnabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Pprof = config.Pprof{Enabled: true, User: "ops", Pass: "s3cret"}

	c, err := NewContainerBuilder().
		WithConfig(cfg).
		WithDBConnect(stubConnect(&pgxpool.Pool{}, nil)).
		build(context.Background())
	require.NoError(t, err)

	err = c.Invoke(func(h http.Handler) {
		req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
		req.RemoteAddr = "192.0.2.10:4000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)

		req.SetBasicAuth("ops", "s3cret")
		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	})
	require.NoError(t, err)
}

func TestContainerBuilder_Build_DBError(t *testing.T) {
	t.Parallel()

	c, err := NewContainerBuilder().
		WithConfig(testConfig()).
		WithDBConnect(stubConnect(nil, errors.New("db failed"))).
		build(context.Background())
	require.NoError(t, err)

	err = c.Invoke(func(*pgxpool.Pool) {})
	require.Error(t, err)
	require.Contains(t, err.Error(), "db failed")
}

func TestContainerBuilder_MustBuild_DoesNotCallFatal(t *testing.T) {
	t.Parallel()

	builder := NewContainerBuilder().
		WithConfig(testConfig()).
		WithDBConnect(stubConnect(&pgxpool.Pool{}, nil)).
		WithLogFatalf(func(format string, args ...interface{}) {
			require.FailNowf(t, "logFatalf must not be called", format, args...)
		})

	require.NotNil(t, builder.MustBuild(context.Background()))
	require.NotNil(t, builder.MustBuildWorker(context.Background()))
}

func TestContainerBuilder_BuildWorker_WithoutKafka(t *testing.T) {
	t.Parallel()

	c, err := NewContainerBuilder().WithConfig(testConfig()).buildWorker(context.Background())
	require.NoError(t, err)

	err = c.Invoke(func(consumer *kafka.Consumer, s *notify.RetryingSender) {
		require.Nil(t, consumer)
		require.NotNil(t, s)
	})
	require.NoError(t, err)
	require.Error(t, runWorker(c))
}

func TestNewTrackingCache(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	c, err := newTrackingCache(cfg, logx.Nop())
	require.NoError(t, err)
	require.IsType(t, &cache.Memory{}, c)
	require.NoError(t, c.Close())

	mr := miniredis.RunT(t)
	cfg.Redis.URL = "redis://" + mr.Addr() + "/0"
	c, err = newTrackingCache(cfg, logx.Nop())
	require.NoError(t, err)
	require.IsType(t, &cache.RedisAdapter{}, c)

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "TRK1", []byte("v"), time.Minute))
	require.True(t, mr.Exists(trackingKeyPrefix+"TRK1"))
	require.NoError(t, c.Close())

	cfg.Redis.URL = "://bad"
	_, err = newTrackingCache(cfg, logx.Nop())
	require.Error(t, err)
}

func TestNewGeocoder_NilWithoutKey(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	require.Nil(t, newGeocoder(cfg, logx.Nop()))

	cfg.Geocode = config.Geocode{APIKey: "k", BaseURL: "http://127.0.0.1:1", Timeout: time.Second}
	require.NotNil(t, newGeocoder(cfg, logx.Nop()))
}

type countingSender struct{ sent chan string }

func (s countingSender) Send(_ context.Context, n domain.Notification) error {
	s.sent <- n.TrackingCode
	return nil
}

func TestNotifier_LocalQueueDeliversAndDrains(t *testing.T) {
	t.Parallel()

	sent := make(chan string, 1)
	l := queue.NewLocal(countingSender{sent: sent}, 4, 1, logx.Nop())
	n := &notifier{queue: l, local: l}

	n.start(context.Background())
	require.NoError(t, n.queue.Enqueue(context.Background(), domain.Notification{TrackingCode: "TRK1"}))
	require.Equal(t, "TRK1", <-sent)
	require.NoError(t, n.stop(context.Background()))

	closed := false
	require.NoError(t, (&notifier{close: func() error { closed = true; return nil }}).stop(context.Background()))
	require.True(t, closed)
}

func TestNotifier_DrainsAfterSignal(t *testing.T) {
	t.Parallel()

	sent := make(chan string, 2)
	l := queue.NewLocal(countingSender{sent: sent}, 4, 1, logx.Nop())
	n := &notifier{queue: l, local: l}

	sigCtx, stop := context.WithCancel(context.Background())
	n.start(sigCtx)
	stop()

	// запрос, завершающийся во время srv.Shutdown
	require.NoError(t, n.queue.Enqueue(context.Background(), domain.Notification{TrackingCode: "TRK2"}))

	drainCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, n.stop(drainCtx))
	require.Equal(t, "TRK2", <-sent)
}

func TestPrincipalKey(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/parcels", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	require.Equal(t, "ip:10.0.0.1", principalKey(req))

	p := domain.Principal{ID: uuid.New(), Role: domain.RoleCustomer}
	req = req.WithContext(middleware.WithPrincipal(req.Context(), p))
	require.Equal(t, "customer:"+p.ID.String(), principalKey(req))
}

func TestNewRateLimiter(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.RateLimit = config.RateLimit{Enabled: true, Rate: 1, Burst: 1, DriverRate: 1, DriverBurst: 3}
	l := newRateLimiter(cfg, newRateLimitClock())

	require.True(t, l.Allow("customer:c1"))
	require.False(t, l.Allow("customer:c1"))
	for i := 0; i < 3; i++ {
		require.True(t, l.Allow("driver:d1"))
	}
	require.False(t, l.Allow("driver:d1"))

	cfg.RateLimit.Enabled = false
	require.IsType(t, ratelimit.NopLimiter{}, newRateLimiter(cfg, newRateLimitClock()))
}

func TestProvideMetrics_RegistersAndReuses(t *testing.T) {
	oldReg := prometheus.DefaultRegisterer
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	t.Cleanup(func() { prometheus.DefaultRegisterer = oldReg })

	existing := metrics.NewPaymentsTotal()
	require.NoError(t, reg.Register(existing))

	out, err := provideMetrics()
	require.NoError(t, err)
	require.NotNil(t, out.RateLimitExceededTotal)
	require.NotNil(t, out.ParcelsByStatus)
	require.Same(t, existing, out.PaymentsTotal)

	again, err := provideMetrics()
	require.NoError(t, err)
	require.Same(t, out.TrackingCacheTotal, again.TrackingCacheTotal)
}

type errRegisterer struct{ err error }

func (e errRegisterer) Register(prometheus.Collector) error  { return e.err }
func (e errRegisterer) MustRegister(...prometheus.Collector) {}
func (e errRegisterer) Unregister(prometheus.Collector) bool { return false }

func TestProvideMetrics_RegisterError(t *testing.T) {
	oldReg := prometheus.DefaultRegisterer
	prometheus.DefaultRegisterer = errRegisterer{err: errors.New("boom")}
	t.Cleanup(func() { prometheus.DefaultRegisterer = oldReg })

	_, err := provideMetrics()
	require.Error(t, err)
	require.Contains(t, err.Error(), "register rate_limit_exceeded_total")
}
