package cmd

import (
	"os/signal"
	"syscall"

	"github.com/Toasterson/bastel-project-webhookinator/app"
	"github.com/spf13/cobra"
)

func newStartCmd() *cobra.Command {
	start := &cobra.Command{
		Use:   "start",
		Short: "Start server",
		Long:  `Start the webhook listener and, unless disabled, the status server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := initConfig(configurationFile)
			if err != nil {
				return err
			}

			app, err := app.New(cfg)
			if err != nil {
				return err
			}

			if err := app.Start(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				<-ctx.Done()
				errCh <- app.Stop()
			}()

			app.Wait()
			if ctx.Err() == nil {
				return nil
			}
			return <-errCh
		},
	}

	return start
}
