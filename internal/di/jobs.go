package di

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/comptroller/internal/config"
	"github.com/aristath/comptroller/internal/modules/history"
	"github.com/aristath/comptroller/internal/scheduler"
)

// RegisterJobs creates the background jobs and schedules them on sched.
// A nil scheduler creates the jobs without scheduling them.
func RegisterJobs(container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	if container.HistoryRepo == nil || container.HistoryDB == nil {
		return nil, fmt.Errorf("history database not initialized")
	}

	retention := time.Duration(cfg.HistoryRetentionHours) * time.Hour
	jobs := &JobInstances{
		HistoryPrune:      history.NewPruneJob(container.HistoryRepo, retention, container.EventManager, log),
		HistoryCheckpoint: history.NewCheckpointJob(container.HistoryDB, log),
	}

	if sched != nil {
		schedules := []struct {
			spec string
			job  scheduler.Job
		}{
			{cfg.PruneSchedule, jobs.HistoryPrune},
			{cfg.CheckpointSchedule, jobs.HistoryCheckpoint},
		}
		for _, s := range schedules {
			if err := sched.AddJob(s.spec, s.job); err != nil {
				return nil, fmt.Errorf("failed to schedule %s: %w", s.job.Name(), err)
			}
		}
	}

	log.Info().Int("jobs", len(jobs.All())).Msg("Jobs registered")
	return jobs, nil
}
