package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// AddDcosConnectionCommandlineArgs registers the flags describing how to reach the cluster.
func AddDcosConnectionCommandlineArgs(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String("dcosUrl", "", "specify the DC/OS cluster url, e.g., https://leader.mesos")
	viper.BindPFlag("dcosUrl", rootCmd.PersistentFlags().Lookup("dcosUrl"))
	rootCmd.PersistentFlags().String("acsToken", "", "specify the DC/OS ACS token used to authenticate requests")
	viper.BindPFlag("acsToken", rootCmd.PersistentFlags().Lookup("acsToken"))
	rootCmd.PersistentFlags().String("marathonPath", defaultMarathonPath, "specify the admin router path of the root Marathon")
	viper.BindPFlag("marathonPath", rootCmd.PersistentFlags().Lookup("marathonPath"))
	rootCmd.PersistentFlags().Bool("insecure", false, "skip TLS certificate verification")
	viper.BindPFlag("insecure", rootCmd.PersistentFlags().Lookup("insecure"))
	rootCmd.PersistentFlags().Duration("requestTimeout", defaultTimeout, "specify the timeout of a single API request")
	viper.BindPFlag("requestTimeout", rootCmd.PersistentFlags().Lookup("requestTimeout"))
}

func LoadCommandlineArgsFromConfigFile(cfgFile string) error {
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("[LoadCommandlineArgsFromConfigFile] error finding executable path: %s", err)
	} else {
		exeDir := filepath.Dir(exePath)
		viper.SetConfigFile(exeDir + "/scaletest-defaults.yaml")
		err := viper.ReadInConfig()
		if err != nil {
			switch err.(type) {
			case viper.ConfigFileNotFoundError:
			case *os.PathError:
				// No default config is fine
			default:
				return fmt.Errorf("[LoadCommandlineArgsFromConfigFile] error reading config file %s: %s", viper.ConfigFileUsed(), err)
			}
		}
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			return fmt.Errorf("[LoadCommandlineArgsFromConfigFile] error getting user home directory: %s", err)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".scaletest")
	}

	viper.SetEnvPrefix("SCALETEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	err = viper.MergeInConfig()

	if err != nil {
		switch err.(type) {
		case viper.ConfigFileNotFoundError:
			// This only occurs when looking for the default .scaletest file and it is not present
			// This is not an error as users don't have to specify it, so do nothing
		default:
			return fmt.Errorf("[LoadCommandlineArgsFromConfigFile] error reading config file %s: %s", viper.ConfigFileUsed(), err)
		}
	}
	return nil
}

// ExtractCommandlineApiConnectionDetails reads the connection details from viper. The keys are read one by one
// since other config shares the top-level namespace, e.g., "timeout".
func ExtractCommandlineApiConnectionDetails() *ApiConnectionDetails {
	return &ApiConnectionDetails{
		DcosUrl:      viper.GetString("dcosUrl"),
		AcsToken:     viper.GetString("acsToken"),
		MarathonPath: viper.GetString("marathonPath"),
		Insecure:     viper.GetBool("insecure"),
		Timeout:      viper.GetDuration("requestTimeout"),
	}
}
