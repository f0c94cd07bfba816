package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mesosphere/marathon-scaletest/internal/common"
	"github.com/mesosphere/marathon-scaletest/internal/common/app"
	"github.com/mesosphere/marathon-scaletest/internal/common/command"
	"github.com/mesosphere/marathon-scaletest/internal/momee"
	"github.com/mesosphere/marathon-scaletest/internal/scaletest"
)

var momeeFlags = map[string]string{
	"workDir":           "momee.workDir",
	"fixtureDir":        "momee.fixtureDir",
	"dockerUser":        "momee.dockerUser",
	"dockerPassword":    "momee.dockerPassword",
	"sshUser":           "momee.ssh.user",
	"sshKeyFile":        "momee.ssh.keyFile",
	"sshPort":           "momee.ssh.port",
	"momeeTimeout":      "momee.timeout",
	"momeePollInterval": "momee.pollInterval",
	"includeStrict":     "momee.includeStrict",
	"momeeJunitFile":    "momee.junitFile",
}

func addMomeeFlags(flags *pflag.FlagSet, defaults *momee.Config) {
	flags.String("workDir", defaults.WorkDir, "directory for the service account key pair")
	flags.String("fixtureDir", defaults.FixtureDir, "directory with mom-ee-<mode>-<version>.json app definitions; generated if empty")
	flags.String("dockerUser", defaults.DockerUser, "Docker Hub user pulling the Marathon EE image (default $DOCKER_HUB_USERNAME)")
	flags.String("dockerPassword", defaults.DockerPassword, "Docker Hub password (default $DOCKER_HUB_PASSWORD)")
	flags.String("sshUser", defaults.Ssh.User, "user logging into the private agents")
	flags.String("sshKeyFile", defaults.Ssh.KeyFile, "private key logging into the private agents (default ~/.ssh/id_rsa)")
	flags.Uint16("sshPort", defaults.Ssh.Port, "ssh port of the private agents")
	flags.Duration("momeeTimeout", defaults.Timeout, "time allowed for each deployment")
	flags.Duration("momeePollInterval", defaults.PollInterval, "interval between deployment status polls")
	flags.Bool("includeStrict", defaults.IncludeStrict, "also test strict security mode")
	flags.String("momeeJunitFile", defaults.JunitFile, "write a junit report to this file")

	for name, key := range momeeFlags {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
}

// Install Marathon EE nested in the root Marathon for every supported version and security mode,
// and check that each installation runs apps.
func momeeCmd(a *scaletest.App) *cobra.Command {
	config := momee.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "momee",
		Short: "Test Marathon-on-Marathon EE installations on the cluster.",
		Long: `Test Marathon-on-Marathon EE installations on the cluster.

For each Marathon EE version and security mode, the nested Marathon is installed together with its
service account, secret and Docker Hub credentials, and a sleep app is deployed on it. Everything is
removed afterwards. Requires DC/OS 1.9 or newer, the dcos CLI, and ssh access to the private agents.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initParams(cmd, a); err != nil {
				return err
			}
			return common.UnmarshalConfig(viper.GetViper(), &struct{ Momee *momee.Config }{config})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(); err != nil {
				return err
			}
			uploader, err := momee.NewSshUploader(config.Ssh)
			if err != nil {
				return err
			}
			installer := momee.NewInstaller(config, a.Params.ApiConnectionDetails, &command.ExecRunner{Dir: config.WorkDir}, uploader)
			installer.Out = cmd.OutOrStdout()
			suite := momee.NewSuite(config, installer)
			suite.Out = cmd.OutOrStdout()

			ctx, cancel := app.CreateContextWithShutdown(context.Background())
			defer cancel()
			_, err = suite.Run(ctx, momee.Cases(config.IncludeStrict))
			return err
		},
	}
	addMomeeFlags(cmd.Flags(), config)
	return cmd
}
