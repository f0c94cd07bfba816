package momee

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mesosphere/marathon-scaletest/pkg/client/marathon"
	"github.com/mesosphere/marathon-scaletest/pkg/client/util"
)

const serviceCredential = "service-credential"

// FixtureFile returns the name of the app definition fixture for version and mode.
func FixtureFile(version string, mode SecurityMode) string {
	return fmt.Sprintf("mom-ee-%s-%s.json", mode, version)
}

// AppDefinition returns the app definition of the nested Marathon for version and mode. The definition is read
// from the fixture directory if one is configured. The docker image always matches version.
func (c *Config) AppDefinition(version string, mode SecurityMode) (*marathon.App, error) {
	image, err := Image(version)
	if err != nil {
		return nil, err
	}

	var app *marathon.App
	if c.FixtureDir != "" {
		app = &marathon.App{}
		if err := util.BindJsonOrYaml(filepath.Join(c.FixtureDir, FixtureFile(version, mode)), app); err != nil {
			return nil, err
		}
	} else {
		app = c.generateAppDefinition(mode)
	}

	if app.Container == nil {
		app.Container = &marathon.Container{Type: "DOCKER"}
	}
	if app.Container.Docker == nil {
		app.Container.Docker = &marathon.Docker{}
	}
	app.Container.Docker.Image = image
	return app, nil
}

func (c *Config) generateAppDefinition(mode SecurityMode) *marathon.App {
	args := []string{
		"--master", "zk://master.mesos:2181/mesos",
		"--zk", "zk://master.mesos:2181/universe/" + Name,
		"--framework_name", Name,
		"--mesos_role", Name,
		"--default_accepted_resource_roles", "*",
		"--max_instances_per_offer", "50",
		"--mesos_leader_ui_url", "/mesos",
		"--enable_features", "vips,task_killing,external_volumes,secrets,gpu_resources",
	}
	env := map[string]interface{}{
		"JVM_OPTS":                  "-Xms256m -Xmx2g",
		"MESOS_NATIVE_JAVA_LIBRARY": "/opt/mesosphere/lib/libmesos.so",
	}
	var secrets map[string]marathon.Secret

	if mode != Disabled {
		args = append(args,
			"--mesos_authentication",
			"--mesos_authentication_principal", ServiceAccount,
			"--mesos_user", "nobody",
		)
		env["DCOS_STRICT_SECURITY_ENABLED"] = strconv.FormatBool(mode == Strict)
		env["DCOS_SERVICE_ACCOUNT_CREDENTIAL_TOKEN"] = map[string]string{"secret": serviceCredential}
		env["MESOS_AUTHENTICATEE"] = "com_mesosphere_dcos_ClassicRPCAuthenticatee"
		env["MESOS_MODULES"] = "file:///opt/mesosphere/etc/mesos-scheduler-modules/dcos_authenticatee_module.json"
		env["PLUGIN_ACS_URL"] = "https://master.mesos"
		env["PLUGIN_AUTHN_MODE"] = "dcos/jwt"
		env["PLUGIN_FRAMEWORK_TYPE"] = "marathon"
		secrets = map[string]marathon.Secret{serviceCredential: {Source: SecretName}}
	}

	cmd := "cd $MESOS_SANDBOX && LIBPROCESS_PORT=$PORT1 && /marathon/bin/start --hostname $LIBPROCESS_IP --http_port $PORT0 " +
		strings.Join(quoteAll(args), " ")

	user := "nobody"
	if mode == Disabled {
		user = "root"
	}

	return &marathon.App{
		ID:        "/" + Name,
		Cmd:       cmd,
		Cpus:      2,
		Mem:       4096,
		Instances: 1,
		User:      user,
		Container: &marathon.Container{
			Type:   "DOCKER",
			Docker: &marathon.Docker{Network: "HOST", ForcePullImage: true},
		},
		Env:     env,
		Secrets: secrets,
		Labels: map[string]string{
			"DCOS_SERVICE_NAME":       Name,
			"DCOS_SERVICE_PORT_INDEX": "0",
			"DCOS_SERVICE_SCHEME":     "http",
		},
		Fetch: []marathon.Fetch{
			{Uri: fmt.Sprintf("file:///home/%s/%s", c.Ssh.User, credentialsFile)},
		},
		Constraints: [][]string{{"hostname", "UNIQUE"}},
		HealthChecks: []marathon.HealthCheck{{
			Protocol:               "HTTP",
			Path:                   "/ping",
			PortIndex:              0,
			GracePeriodSeconds:     1800,
			IntervalSeconds:        10,
			TimeoutSeconds:         5,
			MaxConsecutiveFailures: 3,
		}},
		PortDefinitions: []marathon.PortDefinition{
			{Port: 0, Name: "http"},
			{Port: 0, Name: "libprocess"},
		},
	}
}

func quoteAll(args []string) []string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		if strings.HasPrefix(arg, "--") {
			quoted[i] = arg
		} else {
			quoted[i] = strconv.Quote(arg)
		}
	}
	return quoted
}
