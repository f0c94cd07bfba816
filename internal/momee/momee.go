// Package momee installs an enterprise Marathon nested inside the root Marathon of a DC/OS cluster
// (Marathon-on-Marathon EE) and checks that it can run apps, for each supported image and security mode.
package momee

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/mesosphere/marathon-scaletest/internal/common/scaleerrors"
)

const (
	// Name is the app id of the nested Marathon and the name of its admin router service.
	Name           = "marathon-user-ee"
	ServiceAccount = "marathon_user_ee"
	SecretName     = "my-secret"

	ImageRepository = "mesosphere/marathon-dcos-ee"
	// MinimumDcosVersion is the oldest DC/OS release the nested Marathon images support.
	MinimumDcosVersion = "1.9"

	enterpriseCliPackage = "dcos-enterprise-cli"
	superuserResource    = "dcos:superuser"
	fullAction           = "full"
	credentialsFile      = "docker.tar.gz"
	privateKeyFile       = "private-key.pem"
	publicKeyFile        = "public-key.pem"
)

// Images maps a Marathon EE release line to the image tag deployed for it.
var Images = map[string]string{
	"1.4": "1.4.1_1.9.7",
	"1.3": "1.3.10_1.1.5",
}

// Versions returns the keys of Images, newest first.
func Versions() []string {
	versions := make([]string, 0, len(Images))
	for v := range Images {
		versions = append(versions, v)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	return versions
}

// Image returns the full docker image for version.
func Image(version string) (string, error) {
	tag, ok := Images[version]
	if !ok {
		return "", errors.WithStack(&scaleerrors.ErrInvalidArgument{
			Name:    "version",
			Value:   version,
			Message: fmt.Sprintf("no image known, expected one of %v", Versions()),
		})
	}
	return ImageRepository + ":" + tag, nil
}

type SecurityMode string

const (
	Strict     SecurityMode = "strict"
	Permissive SecurityMode = "permissive"
	Disabled   SecurityMode = "disabled"
)

var SecurityModes = []SecurityMode{Strict, Permissive, Disabled}

// Case is one installation of the nested Marathon to test.
type Case struct {
	Version string
	Mode    SecurityMode
}

func (c Case) String() string {
	return fmt.Sprintf("mom_ee_%s_%s", c.Mode, c.Version)
}

// Cases returns the test matrix. Strict mode cases are only included on request.
func Cases(includeStrict bool) []Case {
	var cases []Case
	for _, version := range Versions() {
		for _, mode := range SecurityModes {
			if mode == Strict && !includeStrict {
				continue
			}
			cases = append(cases, Case{Version: version, Mode: mode})
		}
	}
	return cases
}

type SshConfig struct {
	User    string
	KeyFile string
	Port    uint16
}

type Config struct {
	// Directory for the service account key pair and other scratch files.
	WorkDir string
	// Optional directory with app definitions named mom-ee-<mode>-<version>.json.
	// If empty, app definitions are generated.
	FixtureDir     string
	DockerUser     string
	DockerPassword string
	Ssh            SshConfig
	Timeout        time.Duration
	PollInterval   time.Duration
	IncludeStrict  bool
	// Optional path of a junit file with one test case per installation.
	JunitFile string
}

func DefaultConfig() *Config {
	return &Config{
		WorkDir:        os.TempDir(),
		DockerUser:     os.Getenv("DOCKER_HUB_USERNAME"),
		DockerPassword: os.Getenv("DOCKER_HUB_PASSWORD"),
		Ssh: SshConfig{
			User: "core",
			Port: 22,
		},
		Timeout:      10 * time.Minute,
		PollInterval: 5 * time.Second,
	}
}

func (c *Config) Validate() error {
	switch {
	case c.DockerUser == "":
		return invalid("docker-user", c.DockerUser, "DOCKER_HUB_USERNAME is not set")
	case c.DockerPassword == "":
		return invalid("docker-password", "", "DOCKER_HUB_PASSWORD is not set")
	case c.WorkDir == "":
		return invalid("work-dir", c.WorkDir, "must not be empty")
	case c.Ssh.User == "":
		return invalid("ssh-user", c.Ssh.User, "must not be empty")
	case c.Timeout <= 0:
		return invalid("timeout", c.Timeout.String(), "must be positive")
	case c.PollInterval <= 0 || c.PollInterval > c.Timeout:
		return invalid("poll-interval", c.PollInterval.String(), "must be positive and at most the timeout")
	}
	return nil
}

func invalid(name string, value string, message string) error {
	return errors.WithStack(&scaleerrors.ErrInvalidArgument{Name: name, Value: value, Message: message})
}
