package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lossrange/lossrange/internal/results"
	"github.com/lossrange/lossrange/internal/treefile"
)

// RefreshJob re-resolves every tree definition on disk, so expired cache
// entries are recomputed before queries need them. Trees that fail to
// load or validate are logged and skipped.
type RefreshJob struct {
	log      zerolog.Logger
	treesDir string
	resolver *results.Resolver
}

// NewRefreshJob creates a refresh job over the trees directory.
func NewRefreshJob(treesDir string, resolver *results.Resolver, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		log:      log.With().Str("job", "refresh").Logger(),
		treesDir: treesDir,
		resolver: resolver,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "refresh"
}

// Run resolves every discovered tree through the cache.
func (j *RefreshJob) Run() error {
	start := time.Now()

	paths, err := treefile.Discover(j.treesDir)
	if err != nil {
		return err
	}

	var cached, simulated, failed int
	for _, path := range paths {
		name := treefile.TreeName(path)

		nodes, err := treefile.Load(path)
		if err != nil {
			failed++
			j.log.Warn().Err(err).Str("tree", name).Msg("Failed to load tree definition")
			continue
		}

		outcome, err := j.resolver.Resolve(context.Background(), name, nodes)
		if err != nil {
			failed++
			j.log.Warn().Err(err).Str("tree", name).Msg("Failed to resolve tree")
			continue
		}

		if outcome.FromCache {
			cached++
		} else {
			simulated++
		}
	}

	j.log.Info().
		Int("trees", len(paths)).
		Int("cached", cached).
		Int("simulated", simulated).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Refresh completed")

	return nil
}
