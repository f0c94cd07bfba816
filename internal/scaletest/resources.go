package scaletest

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/mesosphere/marathon-scaletest/pkg/client/marathon"
	"github.com/mesosphere/marathon-scaletest/pkg/client/mesos"
)

// Resources in the units used by Mesos and Marathon: cpus, and megabytes of memory and disk.
type Resources struct {
	Cpus float64
	Mem  float64
	Disk float64
}

func (r Resources) Add(other Resources) Resources {
	return Resources{Cpus: r.Cpus + other.Cpus, Mem: r.Mem + other.Mem, Disk: r.Disk + other.Disk}
}

func (r Resources) Scale(f float64) Resources {
	return Resources{Cpus: r.Cpus * f, Mem: r.Mem * f, Disk: r.Disk * f}
}

// Exceeds returns true if any dimension of r is strictly greater than that of other.
func (r Resources) Exceeds(other Resources) bool {
	return r.Cpus > other.Cpus || r.Mem > other.Mem || r.Disk > other.Disk
}

func (r Resources) String() string {
	return fmt.Sprintf("cpus=%.2f mem=%.2f disk=%.2f", r.Cpus, r.Mem, r.Disk)
}

// PerInstance returns the resources requested by a single app instance.
func (config *AppConfig) PerInstance() Resources {
	return Resources{
		Cpus: cpus(config.Cpu),
		Mem:  megabytes(config.Memory),
		Disk: megabytes(config.Disk),
	}
}

// ScaleTestResources returns the resources needed to deploy the workload of scenario.
func ScaleTestResources(scenario Scenario, perInstance Resources) Resources {
	return perInstance.Scale(float64(scenario.NumInstances()))
}

func cpus(q resource.Quantity) float64 {
	return float64(q.MilliValue()) / 1000
}

func megabytes(q resource.Quantity) float64 {
	return float64(q.Value()) / (1024 * 1024)
}

// Prober reports the current state of the cluster.
type Prober interface {
	// AvailableResources returns the resources not currently used by any task.
	AvailableResources(ctx context.Context) (Resources, error)
	// DeployedAppCount returns the number of apps currently deployed.
	DeployedAppCount(ctx context.Context) (int, error)
}

// ClusterProber reads free resources from the Mesos master and the app count from Marathon.
// Only private agents are considered, since scale test apps are never placed on public agents.
type ClusterProber struct {
	mesos    *mesos.Client
	marathon *marathon.Client
}

func NewClusterProber(mesosClient *mesos.Client, marathonClient *marathon.Client) *ClusterProber {
	return &ClusterProber{mesos: mesosClient, marathon: marathonClient}
}

func (p *ClusterProber) AvailableResources(ctx context.Context) (Resources, error) {
	agents, err := p.mesos.PrivateAgents(ctx)
	if err != nil {
		return Resources{}, err
	}
	var available Resources
	for _, agent := range agents {
		free := agent.Free()
		available = available.Add(Resources{Cpus: free.Cpus, Mem: free.Mem, Disk: free.Disk})
	}
	return available, nil
}

func (p *ClusterProber) DeployedAppCount(ctx context.Context) (int, error) {
	apps, err := p.marathon.GetApps(ctx)
	if err != nil {
		return 0, err
	}
	return len(apps), nil
}
