package dcos

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	"github.com/mesosphere/marathon-scaletest/internal/common/scaleerrors"
	"github.com/mesosphere/marathon-scaletest/pkg/client"
)

type Version struct {
	Version         string `json:"version"`
	DcosImageCommit string `json:"dcos-image-commit"`
	BootstrapId     string `json:"bootstrap-id"`
}

// Semver parses the cluster version. Suffixes such as "-dev" are kept as pre-release.
func (v *Version) Semver() (*semver.Version, error) {
	parsed, err := semver.NewVersion(v.Version)
	if err != nil {
		return nil, errors.WithStack(&scaleerrors.ErrInvalidArgument{
			Name:    "dcos-version",
			Value:   v.Version,
			Message: err.Error(),
		})
	}
	return parsed, nil
}

// Permissions lists the actions a user may perform on a resource.
type Permissions struct {
	Array []Action `json:"array"`
}

type Action struct {
	Name string `json:"name"`
	Url  string `json:"url"`
}

// Client wraps the DC/OS cluster metadata and the ACS (access control service) APIs.
type Client struct {
	rest *client.RestClient
}

func New(connection *client.ApiConnectionDetails) *Client {
	return &Client{rest: client.NewRestClient("dcos", connection.Url("/"), connection)}
}

func (c *Client) Version(ctx context.Context) (*Version, error) {
	version := &Version{}
	if err := c.rest.Get(ctx, "/dcos-metadata/dcos-version.json", nil, version); err != nil {
		return nil, err
	}
	return version, nil
}

// AtLeast returns true if the cluster runs DC/OS satisfying the constraint ">= minimum".
func (c *Client) AtLeast(ctx context.Context, minimum string) (bool, error) {
	version, err := c.Version(ctx)
	if err != nil {
		return false, err
	}
	parsed, err := version.Semver()
	if err != nil {
		return false, err
	}
	constraint, err := semver.NewConstraint(">= " + minimum)
	if err != nil {
		return false, errors.WithStack(err)
	}
	// Development builds report e.g. 1.10-dev, which a plain constraint never matches.
	if parsed.Prerelease() != "" {
		release, err := parsed.SetPrerelease("")
		if err != nil {
			return false, errors.WithStack(err)
		}
		parsed = &release
	}
	return constraint.Check(parsed), nil
}

// Grant gives uid the action on the resource rid. Granting an existing permission is not an error.
func (c *Client) Grant(ctx context.Context, rid string, uid string, action string) error {
	err := c.rest.Do(ctx, http.MethodPut, aclPath(rid, uid, action), nil, nil, nil)
	var apiErr *scaleerrors.ErrExternalAPI
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
		return nil
	}
	return errors.WithMessagef(err, "error granting %s on %s to %s", action, rid, uid)
}

// Revoke removes the action on rid from uid. Revoking a missing permission is not an error.
func (c *Client) Revoke(ctx context.Context, rid string, uid string, action string) error {
	err := c.rest.Do(ctx, http.MethodDelete, aclPath(rid, uid, action), nil, nil, nil)
	if scaleerrors.IsNotFound(err) {
		return nil
	}
	return errors.WithMessagef(err, "error revoking %s on %s from %s", action, rid, uid)
}

// HasPermission returns true if uid has been granted action on rid.
func (c *Client) HasPermission(ctx context.Context, rid string, uid string, action string) (bool, error) {
	permissions := &Permissions{}
	err := c.rest.Get(ctx, "/acs/api/v1/acls/"+url.PathEscape(rid)+"/users/"+url.PathEscape(uid), nil, permissions)
	if scaleerrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, a := range permissions.Array {
		if strings.EqualFold(a.Name, action) || strings.HasSuffix(a.Url, "/"+action) {
			return true, nil
		}
	}
	return false, nil
}

func aclPath(rid string, uid string, action string) string {
	return "/acs/api/v1/acls/" + url.PathEscape(rid) + "/users/" + url.PathEscape(uid) + "/" + action
}
