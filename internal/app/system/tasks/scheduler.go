// Package tasks runs periodic maintenance jobs on a cron scheduler.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named unit of periodic work. Schedule is a cron spec; when empty
// the job runs "@every Interval".
type Job struct {
	Name     string
	Schedule string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

func (j Job) spec() (string, error) {
	if j.Schedule != "" {
		return j.Schedule, nil
	}
	if j.Interval <= 0 {
		return "", fmt.Errorf("tasks: job %q has neither schedule nor interval", j.Name)
	}
	return "@every " + j.Interval.String(), nil
}

// Scheduler wraps a cron runner. Overlapping runs of the same job are
// skipped, and a panic in one job does not stop the others.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log: logger,
	}
}

// Add registers a job.
func (s *Scheduler) Add(j Job) error {
	spec, err := j.spec()
	if err != nil {
		return err
	}
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	_, err = s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		start := time.Now()
		if err := j.Run(ctx); err != nil {
			s.log.Error("scheduled job failed", zap.String("job", j.Name), zap.Error(err))
			return
		}
		s.log.Debug("scheduled job finished", zap.String("job", j.Name), zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("tasks: schedule %q (%s): %w", j.Name, spec, err)
	}
	s.log.Info("scheduled job", zap.String("job", j.Name), zap.String("schedule", spec))
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for running jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out with jobs still running")
	}
}

type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.s.Errorw(msg, append(kv, "error", err)...)
}
