package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Job is a named unit of periodic maintenance
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs jobs on fixed intervals until its context ends
type Scheduler struct {
	jobs []Job
}

// NewScheduler creates a scheduler; jobs with a non-positive interval are skipped
func NewScheduler(jobs ...Job) *Scheduler {
	s := &Scheduler{}
	for _, job := range jobs {
		if job.Interval > 0 && job.Run != nil {
			s.jobs = append(s.jobs, job)
		}
	}
	return s
}

// Jobs returns the scheduled job names
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for _, job := range s.jobs {
		names = append(names, job.Name)
	}
	return names
}

// Run blocks until ctx is done. A failing run is logged and the job keeps
// its schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, job := range s.jobs {
		g.Go(func() error {
			runEvery(gctx, job)
			return nil
		})
	}
	return g.Wait()
}

func runEvery(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	log.Info().Str("job", job.Name).Dur("interval", job.Interval).Msg("Scheduled job started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			started := time.Now()
			if err := job.Run(ctx); err != nil {
				log.Error().Err(err).Str("job", job.Name).Msg("Scheduled job failed")
				continue
			}
			log.Debug().Str("job", job.Name).Dur("took", time.Since(started)).Msg("Scheduled job finished")
		}
	}
}
