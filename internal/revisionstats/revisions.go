// Package revisionstats reports the age of open code review revisions on a Phabricator server.
package revisionstats

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/mesosphere/marathon-scaletest/pkg/client"
)

const searchMethod = "/differential.revision.search"

type Revision struct {
	ID     int            `json:"id"`
	Phid   string         `json:"phid"`
	Fields RevisionFields `json:"fields"`
}

type RevisionFields struct {
	Title string `json:"title"`
	// Unix timestamps.
	DateCreated  int64 `json:"dateCreated"`
	DateModified int64 `json:"dateModified"`
}

func (r *Revision) Created() time.Time {
	return time.Unix(r.Fields.DateCreated, 0)
}

type searchResponse struct {
	Result struct {
		Data []*Revision `json:"data"`
	} `json:"result"`
	ErrorCode *string `json:"error_code"`
	ErrorInfo *string `json:"error_info"`
}

// Client calls the Conduit API of a Phabricator server.
type Client struct {
	rest  *client.RestClient
	token string
}

// NewClient creates a client for the Conduit API at endpoint, e.g., https://phabricator.example.com/api.
func NewClient(endpoint string, token string, timeout time.Duration) *Client {
	return &Client{
		rest:  client.NewRestClient("phabricator", endpoint, &client.ApiConnectionDetails{Timeout: timeout}),
		token: token,
	}
}

// ActiveRevisions returns the revisions still waiting for review or landing, newest first.
func (c *Client) ActiveRevisions(ctx context.Context) ([]*Revision, error) {
	query := url.Values{
		"queryKey":  {"active"},
		"order":     {"newest"},
		"api.token": {c.token},
	}
	res := &searchResponse{}
	if err := c.rest.Get(ctx, searchMethod, query, res); err != nil {
		return nil, err
	}
	if res.ErrorCode != nil {
		info := ""
		if res.ErrorInfo != nil {
			info = *res.ErrorInfo
		}
		return nil, errors.Errorf("differential.revision.search failed with %s: %s", *res.ErrorCode, info)
	}
	return res.Result.Data, nil
}
