package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lossrange/lossrange/internal/results"
)

// SweepJob purges expired rows from the results cache and truncates the
// WAL afterwards so the reclaimed space returns to the filesystem.
type SweepJob struct {
	log   zerolog.Logger
	store *results.Store
}

// NewSweepJob creates a sweep job over the results store.
func NewSweepJob(store *results.Store, log zerolog.Logger) *SweepJob {
	return &SweepJob{
		log:   log.With().Str("job", "sweep").Logger(),
		store: store,
	}
}

// Name returns the job name
func (j *SweepJob) Name() string {
	return "sweep"
}

// Run deletes expired cache rows and checkpoints the database.
func (j *SweepJob) Run() error {
	start := time.Now()

	removed, err := j.store.DeleteExpired(context.Background())
	if err != nil {
		return err
	}

	if err := j.store.Checkpoint(); err != nil {
		j.log.Warn().Err(err).Msg("Failed to checkpoint results database")
	}

	j.log.Info().
		Int64("removed", removed).
		Dur("duration", time.Since(start)).
		Msg("Sweep completed")

	return nil
}
