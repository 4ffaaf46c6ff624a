package results

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lossrange/lossrange/internal/domain"
	"github.com/lossrange/lossrange/internal/simulation"
	"github.com/lossrange/lossrange/internal/tree"
)

// Outcome is a resolved simulation: the tree result plus its cache identity.
type Outcome struct {
	RunID     string
	CacheKey  string
	TreeName  string
	FromCache bool
	CreatedAt time.Time
	Result    *simulation.RiskTreeResult
}

// Resolver answers simulation requests through the results cache. A nil
// store disables caching and every request simulates.
type Resolver struct {
	store *Store
	sim   *simulation.Simulator
	cfg   simulation.Config
	ttl   time.Duration
	log   zerolog.Logger
}

// NewResolver builds a resolver around a store and simulation config.
func NewResolver(store *Store, cfg simulation.Config, ttl time.Duration, log zerolog.Logger) *Resolver {
	return &Resolver{
		store: store,
		sim:   simulation.NewSimulator(cfg, log),
		cfg:   cfg,
		ttl:   ttl,
		log:   log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve validates the node set, then serves the tree result from cache
// when a fresh run with the same cache key exists, simulating otherwise.
// Cache failures degrade to simulation instead of failing the request.
func (r *Resolver) Resolve(ctx context.Context, treeName string, nodes []domain.RiskNode) (*Outcome, error) {
	idx, err := tree.FromNodes(nodes)
	if err != nil {
		return nil, err
	}

	key, err := CacheKey(nodes, r.cfg)
	if err != nil {
		return nil, err
	}

	if r.store != nil {
		entry, ok, err := r.store.Get(ctx, key)
		if err != nil {
			r.log.Warn().Err(err).Str("tree", treeName).Msg("cache read failed, simulating")
		} else if ok {
			result, err := DecodeTreeResult(entry.Payload)
			if err != nil {
				r.log.Warn().Err(err).Str("tree", treeName).Msg("failed to decode cached result, recalculating")
			} else {
				return &Outcome{
					RunID:     entry.RunID,
					CacheKey:  key,
					TreeName:  entry.TreeName,
					FromCache: true,
					CreatedAt: entry.CreatedAt,
					Result:    result,
				}, nil
			}
		}
	}

	result, err := r.sim.SimulateTree(ctx, idx)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	now := time.Now().UTC()

	if r.store != nil {
		if err := r.cacheOutcome(ctx, treeName, key, runID, now, nodes, result); err != nil {
			r.log.Warn().Err(err).Str("tree", treeName).Msg("failed to cache simulation result")
		}
	}

	return &Outcome{
		RunID:     runID,
		CacheKey:  key,
		TreeName:  treeName,
		FromCache: false,
		CreatedAt: now,
		Result:    result,
	}, nil
}

func (r *Resolver) cacheOutcome(
	ctx context.Context,
	treeName, key, runID string,
	now time.Time,
	nodes []domain.RiskNode,
	result *simulation.RiskTreeResult,
) error {
	payload, err := EncodeTreeResult(result)
	if err != nil {
		return err
	}
	treeHash, err := TreeHash(nodes)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, &Entry{
		CacheKey:  key,
		RunID:     runID,
		TreeName:  treeName,
		TreeHash:  treeHash,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
		Payload:   payload,
	})
}

// Invalidate drops every cached run of the named tree.
func (r *Resolver) Invalidate(ctx context.Context, treeName string) (int64, error) {
	if r.store == nil {
		return 0, nil
	}
	return r.store.InvalidateTreeName(ctx, treeName)
}

// Config returns the simulation config requests resolve under.
func (r *Resolver) Config() simulation.Config {
	return r.cfg
}
