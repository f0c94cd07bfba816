package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mesosphere/marathon-scaletest/internal/common/app"
	"github.com/mesosphere/marathon-scaletest/internal/scaletest"
)

// Run scale test units in order and write the report. Ctrl-C stops the run,
// but the report is still written and all apps are removed.
func runCmd(a *scaletest.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Run scale test scenarios, e.g., test_root_apps_instances_1_100.",
		Long: `Run scale test scenarios in the given order.

Scenario names have the form test_<instance>_apps_<shape>_<apps>_<instancesPerApp>, where shape is
one of instances, count and group. If no scenarios are given, those of the scenarioFile or the
scenarios config are run, falling back to the default list.

Results are written to <outputDir>/<csvFile> and <outputDir>/<metadataFile>.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.CreateContextWithShutdown(context.Background())
			defer cancel()
			return a.Run(ctx, args)
		},
	}
	return cmd
}
