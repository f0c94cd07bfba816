package scaletest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mesosphere/marathon-scaletest/pkg/client/marathon"
)

// Workload is what a unit asks the scheduler to deploy.
type Workload struct {
	// Marathon id of the app (for ShapeInstances) or group the apps are created in.
	ID              string
	Shape           Shape
	Apps            int
	InstancesPerApp int
	// Magnitude that must be deployed for the unit to pass.
	Target int
}

// Scheduler is the system under test.
type Scheduler interface {
	// Submit starts deploying workload.
	Submit(ctx context.Context, workload *Workload) error
	// Deployed returns the magnitude of workload currently deployed, i.e., the number of running
	// instances for ShapeInstances and the number of fully running apps otherwise.
	Deployed(ctx context.Context, workload *Workload) (int, error)
	// DeleteAll removes all workloads and waits for the removal to finish.
	// Calling it when nothing is deployed is not an error.
	DeleteAll(ctx context.Context) error
}

func workloadId(scenario Scenario) string {
	return marathon.NormalizeId(strings.ReplaceAll(scenario.Name, "_", "-"))
}

// MarathonScheduler deploys workloads to a Marathon using sleeping apps.
type MarathonScheduler struct {
	client         *marathon.Client
	app            AppConfig
	pollInterval   time.Duration
	cleanupTimeout time.Duration
}

func NewMarathonScheduler(client *marathon.Client, config *Config) *MarathonScheduler {
	return &MarathonScheduler{
		client:         client,
		app:            config.App,
		pollInterval:   config.PollInterval,
		cleanupTimeout: config.Timeout.Cleanup,
	}
}

func (srv *MarathonScheduler) Submit(ctx context.Context, workload *Workload) error {
	switch workload.Shape {
	case ShapeInstances:
		_, err := srv.client.AddApp(ctx, srv.appDefinition(workload.ID, workload.InstancesPerApp))
		return err
	case ShapeCount:
		for i := 0; i < workload.Apps; i++ {
			id := fmt.Sprintf("%s/app-%d", workload.ID, i)
			if _, err := srv.client.AddApp(ctx, srv.appDefinition(id, workload.InstancesPerApp)); err != nil {
				return err
			}
		}
		return nil
	case ShapeGroup:
		group := &marathon.Group{ID: workload.ID}
		for i := 0; i < workload.Apps; i++ {
			id := fmt.Sprintf("%s/app-%d", workload.ID, i)
			group.Apps = append(group.Apps, srv.appDefinition(id, workload.InstancesPerApp))
		}
		_, err := srv.client.AddGroup(ctx, group)
		return err
	}
	return errors.Errorf("unknown shape %q", workload.Shape)
}

func (srv *MarathonScheduler) Deployed(ctx context.Context, workload *Workload) (int, error) {
	if workload.Shape == ShapeInstances {
		app, err := srv.client.GetApp(ctx, workload.ID)
		if err != nil {
			return 0, err
		}
		return app.TasksRunning, nil
	}
	group, err := srv.client.GetGroup(ctx, workload.ID)
	if err != nil {
		return 0, err
	}
	deployed := 0
	for _, app := range group.AllApps() {
		if app.TasksRunning >= workload.InstancesPerApp {
			deployed++
		}
	}
	return deployed, nil
}

func (srv *MarathonScheduler) DeleteAll(ctx context.Context) error {
	if err := srv.client.DeleteAllApps(ctx); err != nil {
		return err
	}
	if err := srv.client.WaitForDeployments(ctx, srv.cleanupTimeout, srv.pollInterval); err != nil {
		return errors.WithMessage(err, "error waiting for apps to be removed")
	}
	log.Info("all apps removed")
	return nil
}

func (srv *MarathonScheduler) appDefinition(id string, instances int) *marathon.App {
	return &marathon.App{
		ID:        id,
		Cmd:       srv.app.Cmd,
		Cpus:      cpus(srv.app.Cpu),
		Mem:       megabytes(srv.app.Memory),
		Disk:      megabytes(srv.app.Disk),
		Instances: instances,
		Labels:    map[string]string{"scaletest": "true"},
	}
}
