package momee

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

const dockerHubRegistry = "https://index.docker.io/v1/"

type dockerAuth struct {
	Auth string `json:"auth"`
}

type dockerConfig struct {
	Auths map[string]dockerAuth `json:"auths"`
}

// DockerConfigJson returns a docker client config.json holding credentials for Docker Hub.
func DockerConfigJson(user string, password string) ([]byte, error) {
	config := dockerConfig{
		Auths: map[string]dockerAuth{
			dockerHubRegistry: {Auth: base64.StdEncoding.EncodeToString([]byte(user + ":" + password))},
		},
	}
	data, err := json.MarshalIndent(config, "", "    ")
	return data, errors.WithStack(err)
}

// DockerCredentialsTarball returns a gzipped tarball containing .docker/config.json, the format
// the Mesos fetcher unpacks into the sandbox of a task pulling a private image.
func DockerCredentialsTarball(user string, password string) ([]byte, error) {
	config, err := DockerConfigJson(user, password)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	header := &tar.Header{
		Name:    ".docker/config.json",
		Mode:    0o600,
		Size:    int64(len(config)),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return nil, errors.WithStack(err)
	}
	if _, err := tw.Write(config); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := tw.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := gz.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}
