package cmd

import (
	"fmt"

	"github.com/Toasterson/bastel-project-webhookinator/config"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Long:  `Print the version of whinator and the commit it was built from.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if short {
				_, err := fmt.Fprintln(out, config.VERSION)
				return err
			}
			_, err := fmt.Fprintf(out, "whinator %s (%s)\n", config.VERSION, config.COMMIT)
			return err
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print the version number only")

	return cmd
}
