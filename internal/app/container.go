package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"service-parcel-platform/internal/config"
	"service-parcel-platform/internal/logx"
)

type dbConnectFunc func(ctx context.Context, logger logx.Logger, dsn string, retries int, delay time.Duration) (*pgxpool.Pool, error)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect  dbConnectFunc
	loadConfig func() (*config.Config, error)
	logFatalf  func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect:  connectAndMigrate,
		loadConfig: config.Load,
		logFatalf:  log.Fatalf,
	}
}

// WithDBConnect sets the database connection function
func (b *ContainerBuilder) WithDBConnect(fn dbConnectFunc) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithConfig replaces configuration loading with a fixed config.
func (b *ContainerBuilder) WithConfig(cfg *config.Config) *ContainerBuilder {
	if cfg != nil {
		b.loadConfig = func() (*config.Config, error) { return cfg, nil }
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds the API container.
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

// MustBuildWorker builds the notification worker container.
func (b *ContainerBuilder) MustBuildWorker(ctx context.Context) *dig.Container {
	container, err := b.buildWorker(ctx)
	if err != nil {
		b.logFatalf("failed to build worker container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx, b.loadConfig); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDb(container, b.dbConnect); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := registerInfra(container); err != nil {
		return nil, fmt.Errorf("infra: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

func (b *ContainerBuilder) buildWorker(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx, b.loadConfig); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerWorker(container); err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds the API container with default settings.
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

// MustBuildWorkerContainer builds the worker container with default settings.
func MustBuildWorkerContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuildWorker(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context, load func() (*config.Config, error)) error {
	if err := provideAll(container,
		func() context.Context { return ctx },
		load,
		NewLogger,
		func(cfg *config.Config) time.Duration { return cfg.OperationTimeout },
	); err != nil {
		return err
	}
	return container.Provide(provideMetrics)
}

func registerDb(container *dig.Container, dbConnect dbConnectFunc) error {
	providerDB := func(ctx context.Context, cfg *config.Config, logger logx.Logger) (*pgxpool.Pool, error) {
		return dbConnect(ctx, logger, cfg.DB.DSN(), 10, time.Second)
	}
	return provideAll(container, providerDB)
}
