package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lossrange/lossrange/internal/curve"
	"github.com/lossrange/lossrange/internal/domain"
	"github.com/lossrange/lossrange/internal/results"
	"github.com/lossrange/lossrange/internal/simulation"
	"github.com/lossrange/lossrange/internal/treefile"
	"github.com/lossrange/lossrange/pkg/formulas"
)

var (
	simulateNode      string
	simulateThreshold int64
	simulateTrials    int
	simulateNoCache   bool
	simulateJSON      bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <tree>",
	Short: "Simulate a risk tree and print its loss exceedance curve",
	Long: `Resolves a tree through the results cache (simulating on a miss) and
prints the loss exceedance curve and summary statistics for the root, or
for a specific node with --node. The tree argument is a file path or the
name of a file in the trees directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simulateNode, "node", "", "node id to report on (default: the root)")
	simulateCmd.Flags().Int64Var(&simulateThreshold, "threshold", 0, "also print P(loss >= threshold) for the node")
	simulateCmd.Flags().IntVar(&simulateTrials, "trials", 0, "override the configured trial count")
	simulateCmd.Flags().BoolVar(&simulateNoCache, "no-cache", false, "bypass the results cache")
	simulateCmd.Flags().BoolVar(&simulateJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(simulateCmd)
}

type thresholdReport struct {
	Loss                  int64   `json:"loss"`
	ExceedanceProbability float64 `json:"exceedance_probability"`
	Exact                 string  `json:"exact"`
}

type simulateReport struct {
	Tree      string           `json:"tree"`
	RunID     string           `json:"run_id"`
	FromCache bool             `json:"from_cache"`
	CreatedAt time.Time        `json:"created_at"`
	Summary   formulas.Summary `json:"summary"`
	Curve     *curve.LECCurve  `json:"curve"`
	Threshold *thresholdReport `json:"threshold,omitempty"`
}

func runSimulate(cmd *cobra.Command, args []string) error {
	path, err := resolveTreePath(args[0])
	if err != nil {
		return err
	}
	name := treefile.TreeName(path)

	nodes, err := treefile.Load(path)
	if err != nil {
		return err
	}

	simCfg := cfg.SimulationConfig()
	if simulateTrials > 0 {
		simCfg.Trials = simulateTrials
	}

	var store *results.Store
	if !simulateNoCache {
		store, err = results.Open(cfg.ResultsDBPath(), log)
		if err != nil {
			log.Warn().Err(err).Msg("Results cache unavailable, simulating without it")
			store = nil
		} else {
			defer store.Close()
		}
	}

	resolver := results.NewResolver(store, simCfg, cfg.CacheTTL, log)
	outcome, err := resolver.Resolve(cmd.Context(), name, nodes)
	if err != nil {
		return err
	}

	target := outcome.Result
	if simulateNode != "" {
		target = outcome.Result.Find(domain.NodeID(simulateNode))
		if target == nil {
			return fmt.Errorf("node %q not present in tree %s", simulateNode, name)
		}
	}

	report := buildReport(outcome, target, simulateThreshold)
	if simulateJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	writeReport(cmd.OutOrStdout(), report)
	return nil
}

// resolveTreePath accepts either a direct file path or a tree name living
// in the trees directory.
func resolveTreePath(arg string) (string, error) {
	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}
	candidate := filepath.Join(cfg.TreesDir, arg+".json")
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("no tree definition at %s or %s", arg, candidate)
}

func buildReport(outcome *results.Outcome, target *simulation.RiskTreeResult, threshold int64) *simulateReport {
	childIDs := make([]domain.NodeID, 0, len(target.Children))
	for _, child := range target.Children {
		childIDs = append(childIDs, child.NodeID)
	}

	bundle := curve.FromResult(target.Result)
	lec, _ := bundle.ToLECCurve(target.NodeID, target.Name, childIDs)

	report := &simulateReport{
		Tree:      outcome.TreeName,
		RunID:     outcome.RunID,
		FromCache: outcome.FromCache,
		CreatedAt: outcome.CreatedAt,
		Summary:   formulas.Summarize(target.Result.Outcomes(), target.Result.NTrials()),
		Curve:     lec,
	}

	if threshold > 0 {
		exact := target.Result.ProbOfExceedance(threshold)
		prob, _ := exact.Float64()
		report.Threshold = &thresholdReport{
			Loss:                  threshold,
			ExceedanceProbability: prob,
			Exact:                 exact.RatString(),
		}
	}

	return report
}

func writeReport(w io.Writer, r *simulateReport) {
	source := "simulated"
	if r.FromCache {
		source = "cached"
	}

	fmt.Fprintf(w, "Tree: %s\n", r.Tree)
	fmt.Fprintf(w, "Run:  %s (%s %s)\n", r.RunID, source, r.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Node: %s (%s)\n\n", r.Curve.NodeID, r.Curve.Name)

	s := r.Summary
	occurredPct := 0.0
	if s.Trials > 0 {
		occurredPct = float64(s.Occurred) / float64(s.Trials) * 100
	}
	fmt.Fprintf(w, "Trials: %d   Occurred: %d (%.2f%%)\n", s.Trials, s.Occurred, occurredPct)
	fmt.Fprintf(w, "Mean: %.2f   StdDev: %.2f   Max: %.0f\n", s.Mean, s.StdDev, s.MaxLoss)
	fmt.Fprintf(w, "VaR95: %.0f   VaR99: %.0f   ES95: %.0f   ES99: %.0f\n\n", s.VaR95, s.VaR99, s.ES95, s.ES99)

	if r.Threshold != nil {
		fmt.Fprintf(w, "P(loss >= %d) = %.4f (%s)\n\n", r.Threshold.Loss, r.Threshold.ExceedanceProbability, r.Threshold.Exact)
	}

	if len(r.Curve.Points) == 0 {
		fmt.Fprintln(w, "No losses occurred in any trial.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "EXCEEDANCE\tLOSS\t")
	for _, p := range r.Curve.Points {
		fmt.Fprintf(tw, "%.4f\t%d\t\n", p.ExceedanceProbability, p.Loss)
	}
	_ = tw.Flush()
}
