// internal/app/system/tasks/tasks.go
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named unit of scheduled work. Schedule is a standard five-field
// cron expression or a descriptor such as "@every 10m".
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs Jobs on their cron schedules. Runs of the same job never
// overlap; a tick that arrives while the previous run is still going is
// skipped.
type Scheduler struct {
	c   *cron.Cron
	log *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		c:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:    logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers j. An empty schedule disables the job.
func (s *Scheduler) Add(j Job) error {
	if j.Schedule == "" {
		s.log.Info("job disabled", zap.String("job", j.Name))
		return nil
	}
	if _, err := s.c.AddFunc(j.Schedule, func() { s.RunNow(j) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", j.Name, j.Schedule, err)
	}
	s.log.Info("job scheduled", zap.String("job", j.Name), zap.String("schedule", j.Schedule))
	return nil
}

// RunNow executes j once in the caller's goroutine with its timeout applied.
func (s *Scheduler) RunNow(j Job) {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := j.Run(ctx); err != nil {
		s.log.Error("job failed", zap.String("job", j.Name), zap.Error(err), zap.Duration("took", time.Since(start)))
		return
	}
	s.log.Debug("job finished", zap.String("job", j.Name), zap.Duration("took", time.Since(start)))
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop cancels running jobs and waits for them until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.c.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out")
	}
}
