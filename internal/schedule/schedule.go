// Package schedule runs the ETL pipeline and its downstream scoring
// passes on a cron schedule, the way the teacher schedules its own
// periodic scans with robfig/cron.
package schedule

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one named unit of scheduled work. Errors are logged, not
// returned to the cron runner, so a failed run never stops subsequent
// scheduled runs.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler wraps robfig/cron with structured logging around each job
// invocation.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
	ctx  context.Context
}

// New constructs a Scheduler. Jobs run against ctx; cancelling ctx does
// not stop the cron loop itself, only in-flight job bodies that honor
// context cancellation.
func New(ctx context.Context, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
		ctx:  ctx,
	}
}

// AddJob registers job to run on the given standard 6-field cron
// expression (seconds-enabled, matching cron.WithSeconds above).
func (s *Scheduler) AddJob(spec string, job Job) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() {
		start := s.log.Info().Str("job", job.Name)
		start.Msg("scheduled job starting")
		if err := job.Run(s.ctx); err != nil {
			s.log.Error().Str("job", job.Name).Err(err).Msg("scheduled job failed")
			return
		}
		s.log.Info().Str("job", job.Name).Msg("scheduled job completed")
	})
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the scheduler, waiting for any in-flight job to finish.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }
