package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/config"
	"github.com/vango-dev/reactor/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// globalFlags are shared by all subcommands.
type globalFlags struct {
	configPath string
	noColor    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "reactor",
		Short: "Run scripted sessions against reactive objects",
		Long: `Reactor drives dynamic observable objects from YAML scenarios.

A scenario declares properties, derived properties, watchers and
interceptors, then applies a list of steps. The transcript shows
every watcher re-run, committed change and veto in order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				errors.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to "+config.ConfigFileName+" (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored error output")

	rootCmd.AddCommand(
		runCmd(flags),
		checkCmd(),
		schemaCmd(),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig resolves the configuration: an explicit --config path, else
// the nearest reactor.yaml, else the defaults.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case flags.configPath != "":
		cfg, err = config.LoadFile(flags.configPath)
	default:
		root, findErr := config.FindProjectRoot(".")
		if findErr != nil {
			return config.New(), nil
		}
		cfg, err = config.Load(root)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
