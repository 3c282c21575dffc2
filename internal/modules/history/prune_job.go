package history

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/comptroller/internal/events"
)

// PruneJob deletes samples older than the retention window
type PruneJob struct {
	repo      *Repository
	retention time.Duration
	events    *events.Manager
	log       zerolog.Logger
	now       func() time.Time
}

// NewPruneJob creates a prune job keeping retention worth of samples
func NewPruneJob(repo *Repository, retention time.Duration, eventManager *events.Manager, log zerolog.Logger) *PruneJob {
	return &PruneJob{
		repo:      repo,
		retention: retention,
		events:    eventManager,
		log:       log.With().Str("job", "history_prune").Logger(),
		now:       time.Now,
	}
}

// Name returns the job name
func (j *PruneJob) Name() string {
	return "history_prune"
}

// Run executes the prune
func (j *PruneJob) Run() error {
	if j.retention <= 0 {
		j.log.Debug().Msg("Retention disabled, nothing to prune")
		return nil
	}

	cutoff := j.now().Add(-j.retention).UTC()
	deleted, err := j.repo.PruneOlderThan(cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	j.log.Info().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("History pruned")

	if j.events != nil && deleted > 0 {
		j.events.EmitTyped("history", &events.HistoryPrunedData{
			Deleted: deleted,
			Cutoff:  cutoff.Format(time.RFC3339),
		})
	}
	return nil
}
