package marathon

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mesosphere/marathon-scaletest/internal/common/scaleerrors"
	"github.com/mesosphere/marathon-scaletest/pkg/client"
)

var errDeploymentsPending = errors.New("deployments still in progress")

// Client talks to one Marathon instance, either the root Marathon or one nested behind
// the admin router (e.g., /service/marathon-user-ee).
type Client struct {
	rest *client.RestClient
}

// New creates a client for the Marathon served at baseUrl.
func New(baseUrl string, connection *client.ApiConnectionDetails) *Client {
	return &Client{rest: client.NewRestClient("marathon", baseUrl, connection)}
}

// NewRoot creates a client for the root Marathon of the cluster.
func NewRoot(connection *client.ApiConnectionDetails) *Client {
	return New(connection.MarathonUrl(), connection)
}

// NewService creates a client for a Marathon running as a service on the cluster, e.g., MoM-EE.
func NewService(name string, connection *client.ApiConnectionDetails) *Client {
	return New(connection.ServiceUrl(name), connection)
}

// Ping returns nil if Marathon is up and answering.
func (c *Client) Ping(ctx context.Context) error {
	return c.rest.Get(ctx, "/ping", nil, nil)
}

func (c *Client) Info(ctx context.Context) (*Info, error) {
	info := &Info{}
	if err := c.rest.Get(ctx, "/v2/info", nil, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (c *Client) GetApps(ctx context.Context) ([]*App, error) {
	var res struct {
		Apps []*App `json:"apps"`
	}
	if err := c.rest.Get(ctx, "/v2/apps", nil, &res); err != nil {
		return nil, err
	}
	return res.Apps, nil
}

// GetApp returns the app with the given id, including its tasks.
func (c *Client) GetApp(ctx context.Context, id string) (*App, error) {
	var res struct {
		App *App `json:"app"`
	}
	query := url.Values{"embed": {"app.tasks", "app.lastTaskFailure"}}
	if err := c.rest.Get(ctx, appPath(id), query, &res); err != nil {
		return nil, err
	}
	if res.App == nil {
		return nil, errors.WithStack(&scaleerrors.ErrNotFound{Type: "app", Value: id})
	}
	return res.App, nil
}

func (c *Client) GetTasks(ctx context.Context, id string) ([]*Task, error) {
	var res struct {
		Tasks []*Task `json:"tasks"`
	}
	if err := c.rest.Get(ctx, appPath(id)+"/tasks", nil, &res); err != nil {
		return nil, err
	}
	return res.Tasks, nil
}

func (c *Client) AddApp(ctx context.Context, app *App) (*App, error) {
	created := &App{}
	if err := c.rest.Do(ctx, http.MethodPost, "/v2/apps", nil, app, created); err != nil {
		return nil, errors.WithMessagef(err, "error adding app %s", app.ID)
	}
	return created, nil
}

func (c *Client) RemoveApp(ctx context.Context, id string, force bool) error {
	if err := c.rest.Do(ctx, http.MethodDelete, appPath(id), forceQuery(force), nil, nil); err != nil {
		return errors.WithMessagef(err, "error removing app %s", id)
	}
	return nil
}

func (c *Client) AddGroup(ctx context.Context, group *Group) (*DeploymentResult, error) {
	res := &DeploymentResult{}
	if err := c.rest.Do(ctx, http.MethodPost, "/v2/groups", nil, group, res); err != nil {
		return nil, errors.WithMessagef(err, "error adding group %s", group.ID)
	}
	return res, nil
}

// GetGroup returns the group with the given id with its apps (including task counts) and sub-groups embedded.
func (c *Client) GetGroup(ctx context.Context, id string) (*Group, error) {
	group := &Group{}
	query := url.Values{"embed": {"group.groups", "group.apps", "group.apps.counts"}}
	if err := c.rest.Get(ctx, groupPath(id), query, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (c *Client) RemoveGroup(ctx context.Context, id string, force bool) error {
	if err := c.rest.Do(ctx, http.MethodDelete, groupPath(id), forceQuery(force), nil, nil); err != nil {
		return errors.WithMessagef(err, "error removing group %s", id)
	}
	return nil
}

func (c *Client) GetDeployments(ctx context.Context) ([]*Deployment, error) {
	var deployments []*Deployment
	if err := c.rest.Get(ctx, "/v2/deployments", nil, &deployments); err != nil {
		return nil, err
	}
	return deployments, nil
}

// DeleteAllApps removes every app and group by force-deleting the root group.
// Deleting an empty root group is not an error.
func (c *Client) DeleteAllApps(ctx context.Context) error {
	err := c.RemoveGroup(ctx, "/", true)
	if scaleerrors.IsNotFound(err) {
		return nil
	}
	return err
}

// WaitForDeployments polls every interval until Marathon reports no deployments in progress,
// giving up once timeout has elapsed or ctx is cancelled.
func (c *Client) WaitForDeployments(ctx context.Context, timeout time.Duration, interval time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	attempts := uint(timeout/interval) + 1
	return retry.Do(
		func() error {
			deployments, err := c.GetDeployments(ctx)
			if err != nil {
				return err
			}
			if len(deployments) > 0 {
				log.Debugf("waiting for %d deployment(s)", len(deployments))
				return errDeploymentsPending
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

func appPath(id string) string {
	return "/v2/apps" + NormalizeId(id)
}

func groupPath(id string) string {
	trimmed := strings.Trim(id, "/")
	if trimmed == "" {
		return "/v2/groups/"
	}
	return "/v2/groups/" + trimmed
}

func forceQuery(force bool) url.Values {
	if !force {
		return nil
	}
	return url.Values{"force": {"true"}}
}
