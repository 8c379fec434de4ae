package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Toasterson/bastel-project-webhookinator/config/modules"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/errs"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/log"
	"github.com/Toasterson/bastel-project-webhookinator/proxy"
	"github.com/Toasterson/bastel-project-webhookinator/worker"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	var scriptFile string

	eval := &cobra.Command{
		Use:   "eval [payload.json | -]",
		Short: "Evaluate the script against a payload",
		Long: `Evaluate the configured script, or the one given with --script, against a JSON
payload read from a file or standard input, and print the result as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := initConfig(configurationFile)
			if err != nil {
				return err
			}
			if scriptFile != "" {
				cfg.Script.File = scriptFile
			}
			cfg.Script.Watch = false

			if verbose {
				if _, err := log.NewZapLogger(&modules.LogConfig{
					File:   "stderr",
					Level:  modules.LogLevelDebug,
					Format: modules.LogFormatText,
				}); err != nil {
					return err
				}
			}

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return errors.Wrap(err, "could not read payload")
				}
				defer f.Close()
				in = f
			}

			payload, err := proxy.DecodePayload(in)
			if err != nil {
				return errors.Wrapf(err, "evaluation failed (%s)", errs.KindOf(err))
			}

			w, err := worker.NewWorker(cfg.Worker, cfg.Script, worker.Options{})
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}
			defer w.Stop()

			result, err := w.Evaluate(cmd.Context(), payload)
			if err != nil {
				return errors.Wrapf(err, "evaluation failed (%s)", errs.KindOf(err))
			}

			b, err := json.Marshal(result)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}

	eval.Flags().StringVarP(&scriptFile, "script", "s", "", "The script file, overriding the configured script")

	return eval
}
