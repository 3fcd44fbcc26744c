// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/mealbridge/mealbridge/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Reconciler rewrites donation statuses that drifted from their capacity.
type Reconciler interface {
	Reconcile(ctx context.Context) (int64, error)
}

// DailyReporter generates one report per active school for a day.
type DailyReporter interface {
	GenerateDaily(ctx context.Context, day time.Time) (int, error)
}

// ReconcileCapacity is the "reconcile-capacity" job.
func ReconcileCapacity(r Reconciler, schedule string, logger *zap.Logger) Job {
	return Job{
		Name:     "reconcile-capacity",
		Schedule: schedule,
		Timeout:  timeouts.Batch(),
		Run: func(ctx context.Context) error {
			n, err := r.Reconcile(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("donation statuses reconciled", zap.Int64("changed", n))
			}
			return nil
		},
	}
}

// DailyReports is the "daily-report" job. Each run covers the previous UTC
// day; now is injectable for tests.
func DailyReports(g DailyReporter, schedule string, now func() time.Time, logger *zap.Logger) Job {
	if now == nil {
		now = time.Now
	}
	return Job{
		Name:     "daily-report",
		Schedule: schedule,
		Timeout:  timeouts.Batch(),
		Run: func(ctx context.Context) error {
			day := now().UTC().AddDate(0, 0, -1)
			n, err := g.GenerateDaily(ctx, day)
			if err != nil {
				return err
			}
			logger.Info("daily reports generated",
				zap.String("date", day.Format("2006-01-02")),
				zap.Int("reports", n))
			return nil
		},
	}
}
