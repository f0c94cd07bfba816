package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mesosphere/marathon-scaletest/internal/common/app"
	"github.com/mesosphere/marathon-scaletest/internal/scaletest"
)

func cleanupCmd(a *scaletest.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove all apps and groups from the Marathon and wait for the deployments to finish.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.CreateContextWithShutdown(context.Background())
			defer cancel()
			return a.Cleanup(ctx)
		},
	}
	return cmd
}
