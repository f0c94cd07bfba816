package scaletest

import (
	"time"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/mesosphere/marathon-scaletest/internal/common/scaleerrors"
)

// Config holds everything that can be tuned about a scale test run.
// It is loaded by viper from flags, a config file and SCALETEST_ environment variables.
type Config struct {
	// Label of the Marathon under test, e.g., "root". Used in scenario names and reports.
	Instance string
	// If set, test the Marathon running as this service behind the admin router
	// instead of the root Marathon.
	MarathonService string
	// Scenarios to run, in order. Defaults to DefaultScenarios.
	Scenarios []string
	// Optional yaml file containing a list of scenario names. Takes precedence over Scenarios.
	ScenarioFile string
	// A unit is skipped if it needs more than this fraction of the available resources.
	ResourceHeadroom float64
	App              AppConfig
	Timeout          TimeoutConfig
	// Interval between deployment status polls.
	PollInterval time.Duration
	Output       OutputConfig
	Metrics      MetricsConfig
}

// AppConfig describes the app deployed by every scale test. Every instance requests Cpu, Memory and Disk.
type AppConfig struct {
	Cmd    string
	Cpu    resource.Quantity
	Memory resource.Quantity
	Disk   resource.Quantity
}

type TimeoutConfig struct {
	// Time allowed per deployed instance; the deployment timeout is this times the number of instances.
	PerInstance time.Duration
	Min         time.Duration
	Max         time.Duration
	// Time allowed for removing all apps before and after a run.
	Cleanup time.Duration
}

type OutputConfig struct {
	Dir          string
	CsvFile      string
	MetadataFile string
	// If set, a junit report of all units is written to this file.
	JunitFile string
}

type MetricsConfig struct {
	// If non-zero, metrics are served on this port at /metrics while the run is in progress.
	Port uint16
	// If set, metrics are pushed to this Prometheus Pushgateway at the end of the run.
	PushgatewayUrl string
	Job            string
}

// DefaultConfig returns the config used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Instance:         "root",
		ResourceHeadroom: 0.8,
		App: AppConfig{
			Cmd:    "sleep 1000",
			Cpu:    resource.MustParse("10m"),
			Memory: resource.MustParse("32Mi"),
			Disk:   resource.MustParse("0"),
		},
		Timeout: TimeoutConfig{
			PerInstance: 100 * time.Millisecond,
			Min:         time.Minute,
			Max:         30 * time.Minute,
			Cleanup:     10 * time.Minute,
		},
		PollInterval: time.Second,
		Output: OutputConfig{
			Dir:          ".",
			CsvFile:      "scale-test.csv",
			MetadataFile: "meta-data.json",
		},
		Metrics: MetricsConfig{
			Job: "marathon-scaletest",
		},
	}
}

func (config *Config) Validate() error {
	if config.Instance == "" {
		return errors.WithStack(&scaleerrors.ErrInvalidArgument{
			Name:    "Instance",
			Value:   config.Instance,
			Message: "not provided",
		})
	}
	if !ValidInstance(config.Instance) {
		return errors.WithStack(&scaleerrors.ErrInvalidArgument{
			Name:    "Instance",
			Value:   config.Instance,
			Message: "may only contain lower case letters, digits and dashes",
		})
	}
	if config.ResourceHeadroom <= 0 || config.ResourceHeadroom > 1 {
		return errors.WithStack(&scaleerrors.ErrInvalidArgument{
			Name:    "ResourceHeadroom",
			Value:   config.ResourceHeadroom,
			Message: "must be in (0, 1]",
		})
	}
	if config.App.Cmd == "" {
		return errors.WithStack(&scaleerrors.ErrInvalidArgument{
			Name:    "App.Cmd",
			Value:   config.App.Cmd,
			Message: "not provided",
		})
	}
	if config.App.Cpu.Sign() <= 0 && config.App.Memory.Sign() <= 0 {
		return errors.WithStack(&scaleerrors.ErrInvalidArgument{
			Name:    "App",
			Value:   config.App,
			Message: "at least one of cpu and memory must be positive",
		})
	}
	if config.Timeout.Min <= 0 || config.Timeout.Max < config.Timeout.Min {
		return errors.WithStack(&scaleerrors.ErrInvalidArgument{
			Name:    "Timeout",
			Value:   config.Timeout,
			Message: "min must be positive and no greater than max",
		})
	}
	if config.PollInterval <= 0 {
		return errors.WithStack(&scaleerrors.ErrInvalidArgument{
			Name:    "PollInterval",
			Value:   config.PollInterval,
			Message: "must be positive",
		})
	}
	if config.Output.CsvFile == "" || config.Output.MetadataFile == "" {
		return errors.WithStack(&scaleerrors.ErrInvalidArgument{
			Name:    "Output",
			Value:   config.Output,
			Message: "csv and metadata file names must be provided",
		})
	}
	return CheckScenarios(config.Scenarios, config.Instance)
}

// DeploymentTimeout returns the time a unit is given to deploy numInstances instances,
// clamped to [Min, Max].
func (config *TimeoutConfig) DeploymentTimeout(numInstances int) time.Duration {
	timeout := config.PerInstance * time.Duration(numInstances)
	if timeout < config.Min {
		return config.Min
	}
	if timeout > config.Max {
		return config.Max
	}
	return timeout
}
