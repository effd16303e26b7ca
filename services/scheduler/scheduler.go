package schedulersvc

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/rollcall/core"
)

// Job is a unit of scheduled work. It gets a context bounded by the scheduler's job timeout.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron    *cron.Cron
	logger  core.Logger
	timeout time.Duration
}

// NewScheduler returns a Scheduler skipping a run while the previous one of the same job is still going.
func NewScheduler(std *log.Logger, logger core.Logger, timeout time.Duration) *Scheduler {
	cronLogger := cron.PrintfLogger(std)
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		logger:  logger,
		timeout: timeout,
	}
}

// Add registers job under name. An empty schedule disables the job.
func (s *Scheduler) Add(name, schedule string, job Job) error {
	if schedule == "" {
		s.logger.Info(fmt.Sprintf("job %q disabled", name))
		return nil
	}
	_, err := s.cron.AddFunc(schedule, func() { s.run(name, job) })
	if err != nil {
		return errors.Wrapf(err, "scheduling job %q", name)
	}
	s.logger.Info(fmt.Sprintf("job %q scheduled: %s", name, schedule))
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		s.logger.Error(fmt.Sprintf("job %q failed: %v", name, err), err)
		return
	}
	s.logger.Info(fmt.Sprintf("job %q done in %v", name, time.Since(start)))
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops the scheduler and waits for the running jobs, at most until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries returns the number of scheduled jobs.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }
