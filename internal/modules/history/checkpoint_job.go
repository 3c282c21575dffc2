package history

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Checkpointer is the database maintenance surface the checkpoint job needs
type Checkpointer interface {
	QuickCheck(ctx context.Context) error
	WALCheckpoint(mode string) error
}

// CheckpointJob folds the history WAL back into the main database file
type CheckpointJob struct {
	db      Checkpointer
	timeout time.Duration
	log     zerolog.Logger
}

// NewCheckpointJob creates a checkpoint job for db
func NewCheckpointJob(db Checkpointer, log zerolog.Logger) *CheckpointJob {
	return &CheckpointJob{
		db:      db,
		timeout: 5 * time.Second,
		log:     log.With().Str("job", "history_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *CheckpointJob) Name() string {
	return "history_checkpoint"
}

// Run pings the database, then truncates its WAL
func (j *CheckpointJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.db.QuickCheck(ctx); err != nil {
		return fmt.Errorf("history database unreachable: %w", err)
	}
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		return err
	}

	j.log.Debug().Msg("WAL checkpoint completed")
	return nil
}
