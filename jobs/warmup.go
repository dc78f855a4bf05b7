package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/reporting"
)

// DashboardBuilder is the slice of the reporting service the warmup needs.
type DashboardBuilder interface {
	Dashboard(ctx context.Context) (*reporting.Dashboard, error)
}

// ReportsWarmupJob rebuilds the dashboard report into the cache so the
// first morning request is served warm.
type ReportsWarmupJob struct {
	Reports DashboardBuilder
	Logger  *slog.Logger
}

// NewReportsWarmupJob wires dependencies for the warmup handler.
func NewReportsWarmupJob(reports DashboardBuilder, logger *slog.Logger) *ReportsWarmupJob {
	return &ReportsWarmupJob{Reports: reports, Logger: logger}
}

// Handle processes TaskReportsWarmup tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	logger := j.logger()
	started := time.Now()

	buildCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := j.Reports.Dashboard(buildCtx); err != nil {
		logger.Error("dashboard warmup failed", slog.Any("error", err))
		return err
	}
	logger.Info("dashboard warmed", slog.Duration("duration", time.Since(started)))
	return nil
}

func (j *ReportsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportsWarmup))
}
