package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mesosphere/marathon-scaletest/internal/scaletest"
)

// Print version info and exit.
func versionCmd(a *scaletest.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.Out = cmd.OutOrStdout()
			return a.Version()
		},
	}
	return cmd
}
