package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"service-parcel-platform/internal/cache"
	"service-parcel-platform/internal/jobs"
	"service-parcel-platform/internal/logx"
)

const (
	shutdownTimeout = 15 * time.Second
	drainTimeout    = 10 * time.Second
)

// Runner runs the HTTP server
type Runner struct {
	runFn func(*dig.Container) error
	exit  func(int)
}

// NewRunner returns a new Runner
func NewRunner() *Runner {
	return &Runner{runFn: run, exit: os.Exit}
}

// MustRun starts the HTTP server using the provided DI container
func (r *Runner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil {
		return
	}
	logger := loggerFrom(container)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("shutdown requested, exiting")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("startup aborted: startup timeout exceeded")
	default:
		logger.Error("run error", logx.Err(err))
		_ = logger.Sync()
		if r.exit != nil {
			r.exit(1)
		}
	}
}

func loggerFrom(container *dig.Container) logx.Logger {
	logger := logx.Nop()
	_ = container.Invoke(func(l logx.Logger) { logger = l })
	return logger
}

func run(container *dig.Container) error {
	return container.Invoke(appRun)
}

type appIn struct {
	dig.In

	Ctx      context.Context
	Server   *http.Server
	Logger   logx.Logger
	Pool     *pgxpool.Pool
	Cache    cache.Cache
	Notifier *notifier
	Job      *jobs.StatusMetricsJob
}

func appRun(in appIn) error {
	in.Notifier.start(in.Ctx)
	if err := in.Job.Start(in.Ctx); err != nil {
		return err
	}

	errCh := startServer(in.Server, in.Logger)
	select {
	case <-in.Ctx.Done():
		in.Logger.Info("shutting down service-parcel")
	case err := <-errCh:
		in.Job.Stop()
		closeResources(in, in.Logger)
		return err
	}

	gracefulShutdown(in.Server, in.Logger, shutdownTimeout)
	in.Job.Stop()
	closeResources(in, in.Logger)
	return in.Ctx.Err()
}

func startServer(server *http.Server, logger logx.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("service-parcel listening", logx.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

func gracefulShutdown(srv *http.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Error("graceful shutdown error", logx.Err(err))
	}
}

// closeResources drains queued notifications before closing the stores they may still read.
func closeResources(in appIn, logger logx.Logger) {
	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := in.Notifier.stop(drainCtx); err != nil {
		logger.Error("notification queue close error", logx.Err(err))
	}
	if in.Cache != nil {
		if err := in.Cache.Close(); err != nil {
			logger.Error("cache close error", logx.Err(err))
		}
	}
	if in.Pool != nil {
		in.Pool.Close()
	}
	_ = logger.Sync()
}
