package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// EventPruner deletes activity log entries older than a cutoff.
type EventPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler runs the activity log retention job on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	pruner    EventPruner
	retention time.Duration
	now       func() time.Time
}

// NewScheduler validates spec and prepares the retention job. Nothing runs until Run.
func NewScheduler(spec string, retention time.Duration, pruner EventPruner) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		pruner:    pruner,
		retention: retention,
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.prune); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", spec, err)
	}
	return s, nil
}

// Run prunes once immediately, then on schedule until ctx is cancelled.
// It waits for a running job to finish before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().Dur("retention", s.retention).Msg("Starting event retention scheduler")

	s.prune()
	s.cron.Start()

	<-ctx.Done()
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped event retention scheduler")
	return nil
}

func (s *Scheduler) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	removed, err := s.pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Time("cutoff", cutoff).Msg("Scheduler: Failed to prune events")
		return
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("Scheduler: Pruned old events")
	}
}
