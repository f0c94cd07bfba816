package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mesosphere/marathon-scaletest/internal/common/scaleerrors"
)

// RestClient performs JSON requests against one HTTP API behind the DC/OS admin router.
type RestClient struct {
	// Name of the system used in error messages, e.g., "marathon".
	System  string
	BaseUrl string
	Token   string
	Http    *http.Client
}

// NewRestClient creates a RestClient for baseUrl using the token and transport settings of connection.
func NewRestClient(system string, baseUrl string, connection *ApiConnectionDetails) *RestClient {
	return &RestClient{
		System:  system,
		BaseUrl: strings.TrimSuffix(baseUrl, "/"),
		Token:   connection.AcsToken,
		Http:    connection.HttpClient(),
	}
}

// Do sends a request with body encoded as JSON, if non-nil, and decodes the response into out, if non-nil.
// Non-2xx responses are returned as *scaleerrors.ErrExternalAPI, except 404 which is returned as *scaleerrors.ErrNotFound.
func (c *RestClient) Do(ctx context.Context, method string, path string, query url.Values, body interface{}, out interface{}) error {
	operation := method + " " + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.WithMessagef(err, "error encoding body of %s", operation)
		}
		reader = bytes.NewReader(payload)
	}

	u := c.BaseUrl + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u = u + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("token=%s", c.Token))
	}

	log.WithField("system", c.System).Debugf("%s %s", method, u)
	res, err := c.Http.Do(req)
	if err != nil {
		return errors.WithStack(&scaleerrors.ErrExternalAPI{
			System:    c.System,
			Operation: operation,
			Message:   err.Error(),
		})
	}
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.WithStack(&scaleerrors.ErrExternalAPI{
			System:    c.System,
			Operation: operation,
			Code:      res.StatusCode,
			Message:   err.Error(),
		})
	}
	if res.StatusCode == http.StatusNotFound {
		return errors.WithStack(&scaleerrors.ErrNotFound{
			Type:    c.System,
			Value:   path,
			Message: strings.TrimSpace(string(responseBody)),
		})
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return errors.WithStack(&scaleerrors.ErrExternalAPI{
			System:    c.System,
			Operation: operation,
			Code:      res.StatusCode,
			Message:   strings.TrimSpace(string(responseBody)),
		})
	}

	if out == nil || len(responseBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(responseBody, out); err != nil {
		return errors.WithMessagef(err, "error decoding response of %s", operation)
	}
	return nil
}

// Get is shorthand for Do with method GET and no body.
func (c *RestClient) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}
