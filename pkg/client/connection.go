package client

import (
	"crypto/tls"
	"net/http"
	"strings"
	"time"
)

const (
	defaultMarathonPath = "/marathon"
	defaultTimeout      = 30 * time.Second
)

// ApiConnectionDetails describes how to reach a DC/OS cluster and the services behind its admin router.
type ApiConnectionDetails struct {
	// Base URL of the cluster, e.g., https://leader.mesos
	DcosUrl string
	// ACS token sent as "Authorization: token=<AcsToken>"
	AcsToken string
	// Path of the root Marathon behind the admin router. Defaults to /marathon.
	MarathonPath string
	// Skip TLS verification. DC/OS clusters commonly use self-signed certificates.
	Insecure bool
	// Per-request timeout. Defaults to 30s.
	Timeout time.Duration
}

// Url joins path onto the cluster base URL.
func (c *ApiConnectionDetails) Url(path string) string {
	return strings.TrimSuffix(c.DcosUrl, "/") + "/" + strings.TrimPrefix(path, "/")
}

// MarathonUrl returns the URL of the root Marathon.
func (c *ApiConnectionDetails) MarathonUrl() string {
	path := c.MarathonPath
	if path == "" {
		path = defaultMarathonPath
	}
	return c.Url(path)
}

// ServiceUrl returns the admin router URL of a service running on the cluster, e.g., a nested Marathon.
func (c *ApiConnectionDetails) ServiceUrl(name string) string {
	return c.Url("/service/" + strings.Trim(name, "/"))
}

// HttpClient creates an http.Client configured according to the connection details.
func (c *ApiConnectionDetails) HttpClient() *http.Client {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
