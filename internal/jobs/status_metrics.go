// Package jobs runs scheduled background tasks of the parcel service.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
)

type statusCounter interface {
	CountByStatus(ctx context.Context) (map[domain.ParcelStatus]int, error)
}

// StatusMetricsJob periodically publishes the number of stored parcels per status.
type StatusMetricsJob struct {
	repo     statusCounter
	gauge    *prometheus.GaugeVec
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   logx.Logger
}

// NewStatusMetricsJob creates the job. schedule accepts cron descriptors such as "@every 30s".
func NewStatusMetricsJob(
	repo statusCounter,
	gauge *prometheus.GaugeVec,
	schedule string,
	timeout time.Duration,
	logger logx.Logger,
) *StatusMetricsJob {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &StatusMetricsJob{
		repo:     repo,
		gauge:    gauge,
		schedule: schedule,
		timeout:  timeout,
		cron:     cron.New(),
		logger:   logger.With(logx.String("component", "status_metrics_job")),
	}
}

// Start schedules the job and refreshes the gauge once right away.
func (j *StatusMetricsJob) Start(ctx context.Context) error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.Refresh(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", j.schedule, err)
	}
	j.Refresh(ctx)
	j.cron.Start()
	j.logger.Info("status metrics job started", logx.String("schedule", j.schedule))
	return nil
}

// Stop stops scheduling and waits for a running refresh.
func (j *StatusMetricsJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("status metrics job stopped")
}

// Refresh reads the counts and updates the gauge. Statuses without parcels are reported as zero.
func (j *StatusMetricsJob) Refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	counts, err := j.repo.CountByStatus(ctx)
	if err != nil {
		j.logger.Error("count parcels by status failed", logx.Err(err))
		return
	}
	for _, s := range domain.Statuses() {
		j.gauge.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}
