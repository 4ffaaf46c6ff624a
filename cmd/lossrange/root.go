package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lossrange/lossrange/internal/config"
	"github.com/lossrange/lossrange/pkg/logger"
)

var (
	cfg *config.Config
	log zerolog.Logger

	rootCmd = &cobra.Command{
		Use:   "lossrange",
		Short: "Monte Carlo risk quantification over hierarchical loss trees",
		Long: `Lossrange simulates trees of risks: leaves carry an occurrence
probability and a loss distribution, portfolios aggregate their children
trial by trial. Runs are deterministic for a given tree, trial count and
seed set, and are cached so repeated queries answer without recomputing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
			logger.SetGlobalLogger(log)
			return nil
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
