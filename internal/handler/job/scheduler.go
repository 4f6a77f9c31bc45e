package job

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one periodic task. Errors are logged and the next tick runs anyway.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	jobs   []Job
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewScheduler(logger *slog.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, logger: logger}
}

// Start launches one goroutine per job. They stop when ctx is cancelled;
// Wait blocks until the current runs finish.
func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		if j.Interval <= 0 {
			s.logger.Warn("job disabled", "job", j.Name)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, j)
		}()
	}
}

func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	logger := s.logger.With("job", j.Name)
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			if err := j.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("job failed", "error", err.Error(), "duration_ms", time.Since(start).Milliseconds())
				continue
			}
			logger.Debug("job finished", "duration_ms", time.Since(start).Milliseconds())
		}
	}
}
