package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mesosphere/marathon-scaletest/internal/common"
	"github.com/mesosphere/marathon-scaletest/internal/scaletest"
	"github.com/mesosphere/marathon-scaletest/pkg/client"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	a := scaletest.New()
	cmd := &cobra.Command{
		Use:   "scaletest",
		Short: "scaletest measures how fast a Marathon on DC/OS deploys apps at increasing scale.",
		Long: `scaletest measures how fast a Marathon on DC/OS deploys apps at increasing scale.

Persistent config can be saved in a config file so it doesn't have to be specified every command.

Example structure:
dcosUrl: https://leader.mesos
acsToken: eyJhbGciOi...
instance: root
resourceHeadroom: 0.8
app:
  cpu: 10m
  memory: 32Mi
timeout:
  max: 30m
scenarios:
  - test_root_apps_instances_1_1
  - test_root_apps_instances_1_10

The location of this file can be passed in using the --config argument.
If not provided, $HOME/.scaletest.yaml is used.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file (default is $HOME/.scaletest.yaml)")
	client.AddDcosConnectionCommandlineArgs(cmd)
	addConfigFlags(cmd.PersistentFlags(), a.Params.Config)

	cmd.AddCommand(
		runCmd(a),
		cleanupCmd(a),
		resourcesCmd(a),
		momeeCmd(a),
		versionCmd(a),
	)
	return cmd
}

// configFlags maps flag names to the viper keys of scaletest.Config.
var configFlags = map[string]string{
	"instance":           "instance",
	"marathonService":    "marathonService",
	"scenarioFile":       "scenarioFile",
	"resourceHeadroom":   "resourceHeadroom",
	"appCmd":             "app.cmd",
	"appCpu":             "app.cpu",
	"appMemory":          "app.memory",
	"appDisk":            "app.disk",
	"timeoutPerInstance": "timeout.perInstance",
	"minTimeout":         "timeout.min",
	"maxTimeout":         "timeout.max",
	"cleanupTimeout":     "timeout.cleanup",
	"pollInterval":       "pollInterval",
	"outputDir":          "output.dir",
	"csvFile":            "output.csvFile",
	"metadataFile":       "output.metadataFile",
	"junitFile":          "output.junitFile",
	"metricsPort":        "metrics.port",
	"pushgatewayUrl":     "metrics.pushgatewayUrl",
	"metricsJob":         "metrics.job",
}

func addConfigFlags(flags *pflag.FlagSet, defaults *scaletest.Config) {
	flags.String("instance", defaults.Instance, "label of the Marathon under test, used in scenario names and reports")
	flags.String("marathonService", defaults.MarathonService, "test the Marathon running as this service instead of the root Marathon")
	flags.String("scenarioFile", defaults.ScenarioFile, "yaml file listing the scenarios to run")
	flags.Float64("resourceHeadroom", defaults.ResourceHeadroom, "skip units needing more than this fraction of the available resources")
	flags.String("appCmd", defaults.App.Cmd, "command run by every app instance")
	flags.String("appCpu", defaults.App.Cpu.String(), "cpus requested per app instance")
	flags.String("appMemory", defaults.App.Memory.String(), "memory requested per app instance")
	flags.String("appDisk", defaults.App.Disk.String(), "disk requested per app instance")
	flags.Duration("timeoutPerInstance", defaults.Timeout.PerInstance, "deployment time allowed per instance")
	flags.Duration("minTimeout", defaults.Timeout.Min, "minimum deployment timeout")
	flags.Duration("maxTimeout", defaults.Timeout.Max, "maximum deployment timeout")
	flags.Duration("cleanupTimeout", defaults.Timeout.Cleanup, "time allowed for removing all apps")
	flags.Duration("pollInterval", defaults.PollInterval, "interval between deployment status polls")
	flags.String("outputDir", defaults.Output.Dir, "directory the result files are written to")
	flags.String("csvFile", defaults.Output.CsvFile, "name of the deploy time csv file")
	flags.String("metadataFile", defaults.Output.MetadataFile, "name of the run metadata json file")
	flags.String("junitFile", defaults.Output.JunitFile, "name of an optional junit report")
	flags.Uint16("metricsPort", defaults.Metrics.Port, "serve Prometheus metrics on this port while running")
	flags.String("pushgatewayUrl", defaults.Metrics.PushgatewayUrl, "push metrics to this Prometheus Pushgateway when done")
	flags.String("metricsJob", defaults.Metrics.Job, "job name used when pushing metrics")

	for name, key := range configFlags {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
}

func initParams(cmd *cobra.Command, a *scaletest.App) error {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if err := client.LoadCommandlineArgsFromConfigFile(configFile); err != nil {
		return err
	}
	a.Params.ApiConnectionDetails = client.ExtractCommandlineApiConnectionDetails()
	a.Out = cmd.OutOrStdout()
	return common.UnmarshalConfig(viper.GetViper(), a.Params.Config)
}
