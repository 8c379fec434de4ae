package cmd

import (
	"os"

	"github.com/Toasterson/bastel-project-webhookinator/config"
	"github.com/Toasterson/bastel-project-webhookinator/config/modules"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/errs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	configurationFile string
	verbose           bool
)

// initConfig loads and validates the configuration. --verbose raises the
// log level to debug.
func initConfig(filename string) (*config.Config, error) {
	cfg := config.New()
	if err := config.Load(filename, cfg); err != nil {
		return nil, errors.Wrap(err, "could not load configuration")
	}
	if verbose {
		cfg.Log.Level = modules.LogLevelDebug
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "whinator",
		Short:        "Scriptable webhook receiver",
		Long:         `Receives JSON webhooks and evaluates a JavaScript script against each payload.`,
		SilenceUsage: true,
	}

	cmd.SetOut(os.Stdout)
	flags := cmd.PersistentFlags()
	flags.BoolVar(&verbose, "verbose", false, "Verbose logging.")
	flags.StringVar(&configurationFile, "config", "", "The configuration filename (default "+config.DefaultFilename+" if present)")

	cmd.AddCommand(
		newVersionCmd(),
		newStartCmd(),
		newEvalCmd(),
	)

	return cmd
}

// exitCode is 2 for errors that no retry can fix, such as an invalid
// configuration or an unusable listen address, and 1 otherwise.
func exitCode(err error) int {
	if errs.KindOf(err).Fatal() {
		return 2
	}
	return 1
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
