package mesos

import (
	"context"

	"github.com/mesosphere/marathon-scaletest/pkg/client"
)

const publicRole = "slave_public"

// Resources as reported by the Mesos master. Memory and disk are in MB.
type Resources struct {
	Cpus float64 `json:"cpus"`
	Mem  float64 `json:"mem"`
	Disk float64 `json:"disk"`
}

type Agent struct {
	ID                string               `json:"id"`
	Hostname          string               `json:"hostname"`
	Active            bool                 `json:"active"`
	Resources         Resources            `json:"resources"`
	UsedResources     Resources            `json:"used_resources"`
	ReservedResources map[string]Resources `json:"reserved_resources"`
	Attributes        map[string]string    `json:"attributes"`
}

// Public returns true for agents reserved for public (edge) workloads.
func (a *Agent) Public() bool {
	_, ok := a.ReservedResources[publicRole]
	return ok || a.Attributes["public_ip"] == "true"
}

// Free returns the resources of a that are not used by any task.
func (a *Agent) Free() Resources {
	return Resources{
		Cpus: a.Resources.Cpus - a.UsedResources.Cpus,
		Mem:  a.Resources.Mem - a.UsedResources.Mem,
		Disk: a.Resources.Disk - a.UsedResources.Disk,
	}
}

type Framework struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Active        bool      `json:"active"`
	UsedResources Resources `json:"used_resources"`
}

type StateSummary struct {
	Hostname   string       `json:"hostname"`
	Cluster    string       `json:"cluster"`
	Slaves     []*Agent     `json:"slaves"`
	Frameworks []*Framework `json:"frameworks"`
}

// Client reads cluster state from the Mesos master behind the admin router.
type Client struct {
	rest *client.RestClient
}

func New(connection *client.ApiConnectionDetails) *Client {
	return &Client{rest: client.NewRestClient("mesos", connection.Url("/mesos"), connection)}
}

func (c *Client) StateSummary(ctx context.Context) (*StateSummary, error) {
	summary := &StateSummary{}
	if err := c.rest.Get(ctx, "/state-summary", nil, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// PrivateAgents returns all active agents that are not public agents.
func (c *Client) PrivateAgents(ctx context.Context) ([]*Agent, error) {
	summary, err := c.StateSummary(ctx)
	if err != nil {
		return nil, err
	}
	var agents []*Agent
	for _, agent := range summary.Slaves {
		if agent.Active && !agent.Public() {
			agents = append(agents, agent)
		}
	}
	return agents, nil
}
