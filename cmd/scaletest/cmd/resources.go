package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mesosphere/marathon-scaletest/internal/scaletest"
)

func resourcesCmd(a *scaletest.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Print the resources available on the private agents and the number of deployed apps.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Resources(context.Background())
		},
	}
	return cmd
}
