// Package simulation runs deterministic Monte Carlo trials over risk
// trees and aggregates the sparse per-trial loss outcomes.
package simulation

// Seeds are the global seed components shared by every sampler in a run.
// Together with a per-risk seed and a trial index they key every draw.
type Seeds struct {
	Entity uint64 `json:"entity"`
	Seed3  uint64 `json:"seed3"`
	Seed4  uint64 `json:"seed4"`
}

// Config carries the parameters of one simulation run. It is plain data;
// the Simulator owns the behavior.
type Config struct {
	// Trials is the number of Monte Carlo trials per leaf.
	Trials int `json:"trials"`
	// MaxConcurrentSimulations bounds how many leaves simulate at once.
	MaxConcurrentSimulations int `json:"max_concurrent_simulations"`
	// TrialParallelism bounds how many loss batches run at once, across
	// all leaves.
	TrialParallelism int `json:"trial_parallelism"`
	// Seeds key the deterministic draw streams.
	Seeds Seeds `json:"seeds"`
}

func normalizeConfig(cfg Config) Config {
	if cfg.Trials < 1 {
		cfg.Trials = 1
	}
	if cfg.MaxConcurrentSimulations < 1 {
		cfg.MaxConcurrentSimulations = 1
	}
	if cfg.TrialParallelism < 1 {
		cfg.TrialParallelism = 1
	}
	return cfg
}
