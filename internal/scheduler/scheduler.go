package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// JobFunc performs one run of a scheduled action.
type JobFunc func(ctx context.Context) error

// Job is an action with its own cadence inside the shared tick loop.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds one run; zero means unbounded.
	Timeout time.Duration
	Run     JobFunc
}

// Options tune scheduler behaviour.
type Options struct {
	Tick         time.Duration
	StartupDelay time.Duration
}

// Scheduler runs jobs sequentially from a single loop; runs never overlap.
type Scheduler struct {
	opts   Options
	jobs   []Job
	next   []time.Time
	now    func() time.Time
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger, jobs ...Job) (*Scheduler, error) {
	if opts.Tick <= 0 {
		return nil, errors.New("scheduler tick must be positive")
	}
	for _, j := range jobs {
		if j.Run == nil {
			return nil, fmt.Errorf("job %q has no run function", j.Name)
		}
		if j.Interval <= 0 {
			return nil, fmt.Errorf("job %q interval must be positive", j.Name)
		}
	}
	return &Scheduler{
		opts:   opts,
		jobs:   jobs,
		next:   make([]time.Time, len(jobs)),
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Run blocks until ctx is cancelled. Every job runs on the first tick and then whenever its
// interval has elapsed since its previous start.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(s.opts.Tick)
	defer ticker.Stop()

	for {
		s.RunDue(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunDue executes every job whose next run time has passed and returns how many ran.
func (s *Scheduler) RunDue(ctx context.Context) int {
	ran := 0
	for i, job := range s.jobs {
		if ctx.Err() != nil {
			return ran
		}
		started := s.now()
		if !s.next[i].IsZero() && started.Before(s.next[i]) {
			continue
		}
		s.next[i] = started.Add(job.Interval)
		s.runJob(ctx, job)
		ran++
	}
	return ran
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	runCtx := ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	started := time.Now()
	log := s.logger.With().Str("job", job.Name).Logger()
	log.Debug().Msg("executing scheduled job")

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("job panicked")
		}
	}()

	err := job.Run(runCtx)
	elapsed := time.Since(started)
	switch {
	case err == nil:
		log.Debug().Dur("elapsed", elapsed).Msg("job finished")
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		log.Error().Err(err).Dur("timeout", job.Timeout).Msg("job timed out")
	default:
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("job execution failed")
	}
}
