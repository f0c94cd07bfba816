package common

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/mesosphere/marathon-scaletest/internal/common/config"
)

const envPrefix = "SCALETEST"

// LoadConfig reads a config file named config.yaml from path into out.
// Values may be overridden with SCALETEST_ prefixed environment variables.
func LoadConfig(out interface{}, path string) error {
	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(path)
	BindEnv(v)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	return UnmarshalConfig(v, out)
}

// UnmarshalConfig decodes everything viper knows into out using the custom decode hooks.
func UnmarshalConfig(v *viper.Viper, out interface{}) error {
	return v.Unmarshal(out, config.CustomHooks...)
}

func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func ConfigureLogging() {
	log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: true})
	log.SetOutput(os.Stdout)
}

// ConfigureCommandLineLogging is used by the CLIs. Level is taken from SCALETEST_LOG_LEVEL.
func ConfigureCommandLineLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	level, err := log.ParseLevel(os.Getenv(envPrefix + "_LOG_LEVEL"))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
