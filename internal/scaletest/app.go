package scaletest

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mesosphere/marathon-scaletest/internal/common/build"
	"github.com/mesosphere/marathon-scaletest/pkg/client"
	"github.com/mesosphere/marathon-scaletest/pkg/client/marathon"
	"github.com/mesosphere/marathon-scaletest/pkg/client/mesos"
)

type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the applications's output.
	Out io.Writer
}

// Params struct holds all user-customizable parameters.
// Using a single struct for all CLI commands ensures that all flags are distinct
// and that they can be provided either dynamically on a command line, or
// statically in a config file that's reused between command runs.
type Params struct {
	ApiConnectionDetails *client.ApiConnectionDetails
	Config               *Config
}

// New instantiates an App with default parameters and standard output.
func New() *App {
	return &App{
		Params: &Params{
			ApiConnectionDetails: &client.ApiConnectionDetails{},
			Config:               DefaultConfig(),
		},
		Out: os.Stdout,
	}
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	return build.Print(a.Out)
}

func (a *App) marathonClient() *marathon.Client {
	if a.Params.Config.MarathonService != "" {
		return marathon.NewService(a.Params.Config.MarathonService, a.Params.ApiConnectionDetails)
	}
	return marathon.NewRoot(a.Params.ApiConnectionDetails)
}

func (a *App) prober() *ClusterProber {
	return NewClusterProber(mesos.New(a.Params.ApiConnectionDetails), a.marathonClient())
}

// NewOrchestrator creates an orchestrator for the Marathon and cluster described by a.Params.
func (a *App) NewOrchestrator() *Orchestrator {
	o := NewOrchestrator(a.Params.Config, NewMarathonScheduler(a.marathonClient(), a.Params.Config), a.prober())
	o.Out = a.Out
	return o
}

// Scenarios returns the scenarios to run: names if given, otherwise those configured,
// otherwise the default scenarios.
func (a *App) Scenarios(names []string) ([]string, error) {
	config := a.Params.Config
	switch {
	case len(names) > 0:
	case config.ScenarioFile != "":
		var err error
		if names, err = ReadScenarioFile(config.ScenarioFile); err != nil {
			return nil, err
		}
	case len(config.Scenarios) > 0:
		names = config.Scenarios
	default:
		return DefaultScenarios(config.Instance), nil
	}
	if err := CheckScenarios(names, config.Instance); err != nil {
		return nil, err
	}
	return names, nil
}

// Run runs the given scenarios against the configured Marathon, optionally serving metrics while doing so.
func (a *App) Run(ctx context.Context, names []string) error {
	if err := a.Params.Config.Validate(); err != nil {
		return err
	}
	scenarios, err := a.Scenarios(names)
	if err != nil {
		return err
	}

	o := a.NewOrchestrator()
	o.Metrics = NewMetrics()

	// The metrics server never stops the run: it gets its own context and its errors are only logged.
	var g errgroup.Group
	serveCtx, stopServing := context.WithCancel(ctx)
	if port := a.Params.Config.Metrics.Port; port != 0 {
		g.Go(func() error {
			if err := o.Metrics.Serve(serveCtx, port); err != nil {
				log.WithError(err).Warnf("error serving metrics on port %d; continuing without them", port)
			}
			return nil
		})
	}
	err = o.RunAll(ctx, scenarios)
	stopServing()
	_ = g.Wait()
	return err
}

// Cleanup removes all apps from the configured Marathon.
func (a *App) Cleanup(ctx context.Context) error {
	scheduler := NewMarathonScheduler(a.marathonClient(), a.Params.Config)
	return scheduler.DeleteAll(ctx)
}

// Resources prints the resources available on the private agents and the number of deployed apps.
func (a *App) Resources(ctx context.Context) error {
	p := a.prober()
	available, err := p.AvailableResources(ctx)
	if err != nil {
		return errors.WithMessage(err, "error probing available resources")
	}
	numApps, err := p.DeployedAppCount(ctx)
	if err != nil {
		return errors.WithMessage(err, "error counting deployed apps")
	}
	_, _ = fmt.Fprintf(a.Out, "Available resources:\t%s\n", available)
	_, _ = fmt.Fprintf(a.Out, "Deployed apps:\t%d\n", numApps)
	return nil
}
