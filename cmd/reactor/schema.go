package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/config"
	"github.com/vango-dev/reactor/internal/scenario"
)

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [config|scenario]",
		Short: "Print the JSON schema of a file format",
		Long: `Print the JSON schema of reactor.yaml ("config") or of scenario
files ("scenario", the default). Editors with YAML language support can
use it for completion and validation.

Examples:
  reactor schema
  reactor schema config > reactor.schema.json`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"config", "scenario"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "scenario"
			if len(args) == 1 {
				kind = args[0]
			}

			var (
				data []byte
				err  error
			)
			switch kind {
			case "config":
				data, err = config.Schema()
			case "scenario":
				data, err = scenario.Schema()
			default:
				return fmt.Errorf("unknown schema %q: expected config or scenario", kind)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	return cmd
}
