package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/scenario"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <scenario.yaml>...",
		Short: "Validate scenario files without running them",
		Long: `Parse and validate one or more scenario files.

Every file is checked; the command fails if any of them is invalid.

Examples:
  reactor check cart.yaml
  reactor check scenarios/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args)
		},
	}
	return cmd
}

func runCheck(cmd *cobra.Command, paths []string) error {
	w := cmd.OutOrStdout()
	var firstErr error
	failed := 0
	for _, path := range paths {
		sc, err := scenario.LoadFile(path)
		if err != nil {
			failed++
			fmt.Fprintf(w, "\033[31m✗\033[0m %s\n", path)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		success(w, "%s: %s (%d steps)", path, sc.Name, sc.Count())
		if sc.Description != "" {
			info(w, "%s", sc.Description)
		}
	}
	if failed > 0 && len(paths) > 1 {
		fmt.Fprintf(w, "\n%d of %d scenarios invalid\n", failed, len(paths))
	}
	return firstErr
}
