package retrieval

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// RunExecutor is the single-run entry point the scheduler drives.
type RunExecutor interface {
	Run(ctx context.Context) (Report, error)
}

// Scheduler repeats retrieval runs on a fixed interval. The wait between
// runs is interruptible, so a stop signal during the sleep is honored
// immediately; a stop during a run lets the run finish and persist.
type Scheduler struct {
	runner   RunExecutor
	interval time.Duration
	log      *zap.Logger
}

// NewScheduler constructs a continuous-mode scheduler.
func NewScheduler(runner RunExecutor, interval time.Duration, log *zap.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("retrieval: nil run executor")
	}
	if interval <= 0 {
		return nil, errors.New("retrieval: non-positive interval")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{runner: runner, interval: interval, log: log}, nil
}

// Start runs immediately, then on every interval tick until ctx is done.
// A failed run (persistence included) is logged and the loop continues;
// deciding whether to keep polling is the scheduler's call, not the run's.
func (s *Scheduler) Start(ctx context.Context) {
	s.runOnce(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped", zap.Error(ctx.Err()))
			return
		case <-timer.C:
			s.runOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// runOnce executes one run shielded from the stop signal. An in-flight
// snapshot either completes and persists or was never started.
func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := s.runner.Run(context.WithoutCancel(ctx))
	if err != nil {
		s.log.Error("retrieval run failed",
			zap.String("run_id", report.RunID),
			zap.String("path", report.Path),
			zap.Error(err))
	}
}
