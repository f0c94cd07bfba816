package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesosphere/marathon-scaletest/internal/common"
	"github.com/mesosphere/marathon-scaletest/internal/common/app"
	"github.com/mesosphere/marathon-scaletest/internal/revisionstats"
)

// RootCmd prints how long the active code review revisions have been open.
func RootCmd() *cobra.Command {
	a := revisionstats.New()
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "revisionstats",
		Short: "Print the age of active Phabricator revisions at the 20th, 50th and 90th percentile.",
		Long: `Print the age of active Phabricator revisions at the 20th, 50th and 90th percentile.

The Conduit API token is read from --token or the SCALETEST_TOKEN environment variable.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			a.Out = cmd.OutOrStdout()
			return common.UnmarshalConfig(v, a.Config)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.CreateContextWithShutdown(context.Background())
			defer cancel()
			return a.Run(ctx)
		},
	}

	cmd.Flags().String("endpoint", a.Config.Endpoint, "Conduit API endpoint")
	cmd.Flags().String("token", a.Config.Token, "Conduit API token")
	cmd.Flags().IntSlice("percentiles", a.Config.Percentiles, "percentiles to print")
	cmd.Flags().Duration("timeout", a.Config.Timeout, "request timeout")
	for _, name := range []string{"endpoint", "token", "percentiles", "timeout"} {
		_ = v.BindPFlag(name, cmd.Flags().Lookup(name))
	}
	common.BindEnv(v)
	return cmd
}
