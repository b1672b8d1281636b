package app

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"

	"service-parcel-platform/internal/cache"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/jobs"
	"service-parcel-platform/internal/logx"
	"service-parcel-platform/internal/metrics"
	"service-parcel-platform/internal/queue"
	"service-parcel-platform/internal/testutil/testlog"
)

type nopSender struct{}

func (nopSender) Send(context.Context, domain.Notification) error { return nil }

type emptyCounts struct{}

func (emptyCounts) CountByStatus(context.Context) (map[domain.ParcelStatus]int, error) {
	return map[domain.ParcelStatus]int{}, nil
}

func TestGracefulShutdown_DoesNotPanic(t *testing.T) {
	t.Parallel()

	srv := &http.Server{
		Addr:    "127.0.0.1:0",
		Handler: http.NewServeMux(),
	}

	require.NotPanics(t, func() {
		gracefulShutdown(srv, logx.Nop(), 100*time.Millisecond)
	})
}

func newRunnerContainer(t *testing.T, rec *testlog.Recorder) *dig.Container {
	t.Helper()
	container := dig.New()
	require.NoError(t, container.Provide(func() logx.Logger { return rec.Logger() }))
	return container
}

func TestRunner_MustRun_ShutdownRequested(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	r := &Runner{
		runFn: func(*dig.Container) error { return context.Canceled },
		exit:  func(int) { t.Fatal("exit must not be called") },
	}
	r.MustRun(newRunnerContainer(t, rec))

	_, ok := rec.Find("shutdown requested, exiting")
	require.True(t, ok)
}

func TestRunner_MustRun_StartupTimeout(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	r := &Runner{
		runFn: func(*dig.Container) error { return context.DeadlineExceeded },
		exit:  func(int) { t.Fatal("exit must not be called") },
	}
	r.MustRun(newRunnerContainer(t, rec))

	_, ok := rec.Find("startup aborted: startup timeout exceeded")
	require.True(t, ok)
}

func TestRunner_MustRun_ExitsOnOtherError(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	code := 0
	r := &Runner{
		runFn: func(*dig.Container) error { return errors.New("listen tcp :8080: address already in use") },
		exit:  func(c int) { code = c },
	}
	r.MustRun(newRunnerContainer(t, rec))

	require.Equal(t, 1, code)
	require.Len(t, rec.ByLevel("error"), 1)
}

func TestNewRunner_DefaultFields(t *testing.T) {
	t.Parallel()

	r := NewRunner()
	require.NotNil(t, r.runFn)
	require.NotNil(t, r.exit)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := testlog.New()
	container := dig.New()
	l := queue.NewLocal(nopSender{}, 4, 1, logx.Nop())
	providers := []any{
		func() context.Context { return ctx },
		func() logx.Logger { return rec.Logger() },
		func() *pgxpool.Pool { return nil },
		func() cache.Cache { return cache.NewMemory() },
		func() *notifier { return &notifier{queue: l, local: l} },
		func() *jobs.StatusMetricsJob {
			return jobs.NewStatusMetricsJob(emptyCounts{}, metrics.NewParcelsByStatus(), "@every 1h", time.Second, logx.Nop())
		},
		func() *http.Server {
			return &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
		},
	}
	for _, p := range providers {
		require.NoError(t, container.Provide(p))
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := run(container)
	require.ErrorIs(t, err, context.Canceled)

	_, ok := rec.Find("shutting down service-parcel")
	require.True(t, ok)
	require.ErrorIs(t, l.Enqueue(context.Background(), domain.Notification{}), queue.ErrClosed)
}

func TestRun_ReturnsListenError(t *testing.T) {
	t.Parallel()

	container := dig.New()
	l := queue.NewLocal(nopSender{}, 1, 1, logx.Nop())
	providers := []any{
		func() context.Context { return context.Background() },
		func() logx.Logger { return logx.Nop() },
		func() *pgxpool.Pool { return nil },
		func() cache.Cache { return nil },
		func() *notifier { return &notifier{queue: l, local: l} },
		func() *jobs.StatusMetricsJob {
			return jobs.NewStatusMetricsJob(emptyCounts{}, metrics.NewParcelsByStatus(), "@every 1h", time.Second, logx.Nop())
		},
		func() *http.Server { return &http.Server{Addr: "256.0.0.1:bad"} },
	}
	for _, p := range providers {
		require.NoError(t, container.Provide(p))
	}

	err := run(container)
	require.Error(t, err)
	require.NotErrorIs(t, err, context.Canceled)
}
