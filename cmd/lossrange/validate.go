package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lossrange/lossrange/internal/domain"
	"github.com/lossrange/lossrange/internal/treefile"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Validate tree definition files",
	Long: `Parses and fully validates tree definition files, listing every
violation found rather than stopping at the first. With no arguments,
validates every tree in the configured trees directory.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		var err error
		paths, err = treefile.Discover(cfg.TreesDir)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no tree files found in %s", cfg.TreesDir)
		}
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range paths {
		name := treefile.TreeName(path)

		idx, err := treefile.LoadIndex(path)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: INVALID\n", name)

			var verrs domain.ValidationErrors
			if errors.As(err, &verrs) {
				for _, verr := range verrs {
					fmt.Fprintf(out, "  - %s: %s\n", verr.Field, verr.Message)
				}
			} else {
				fmt.Fprintf(out, "  - %v\n", err)
			}
			continue
		}

		fmt.Fprintf(out, "%s: OK (%d nodes, %d leaves)\n", name, idx.Len(), len(idx.Leaves()))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tree files invalid", failed, len(paths))
	}
	return nil
}
