package momee

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mesosphere/marathon-scaletest/internal/common/command"
	"github.com/mesosphere/marathon-scaletest/internal/common/scaleerrors"
	"github.com/mesosphere/marathon-scaletest/pkg/client"
	"github.com/mesosphere/marathon-scaletest/pkg/client/dcos"
	"github.com/mesosphere/marathon-scaletest/pkg/client/marathon"
	"github.com/mesosphere/marathon-scaletest/pkg/client/mesos"
)

var errEndpointUnavailable = errors.New("service endpoint unavailable")

// Installer installs and removes the nested Marathon and everything it depends on:
// the enterprise CLI, its service account, permissions, secret, and docker credentials.
type Installer struct {
	Out io.Writer

	config   *Config
	runner   command.Runner
	root     *marathon.Client
	nested   *marathon.Client
	acs      *dcos.Client
	mesos    *mesos.Client
	uploader Uploader
}

func NewInstaller(config *Config, connection *client.ApiConnectionDetails, runner command.Runner, uploader Uploader) *Installer {
	return &Installer{
		Out:      os.Stdout,
		config:   config,
		runner:   runner,
		root:     marathon.NewRoot(connection),
		nested:   marathon.NewService(Name, connection),
		acs:      dcos.New(connection),
		mesos:    mesos.New(connection),
		uploader: uploader,
	}
}

// Supported returns true if the cluster runs a DC/OS release the nested Marathon images support.
func (i *Installer) Supported(ctx context.Context) (bool, error) {
	return i.acs.AtLeast(ctx, MinimumDcosVersion)
}

// IsDeployed returns true if the root Marathon runs the nested Marathon app.
func (i *Installer) IsDeployed(ctx context.Context) (bool, error) {
	apps, err := i.root.GetApps(ctx)
	if err != nil {
		return false, err
	}
	for _, app := range apps {
		if app.ID == "/"+Name {
			return true, nil
		}
	}
	return false, nil
}

// Remove deletes all apps of the nested Marathon, if it is answering, and then the nested Marathon itself.
func (i *Installer) Remove(ctx context.Context) error {
	fmt.Fprintf(i.Out, "Removing %s...\n", Name)
	if err := i.nested.Ping(ctx); err == nil {
		if err := i.nested.DeleteAllApps(ctx); err != nil {
			return err
		}
		if err := i.nested.WaitForDeployments(ctx, i.config.Timeout, i.config.PollInterval); err != nil {
			return err
		}
	}
	if err := i.root.RemoveApp(ctx, Name, true); err != nil && !scaleerrors.IsNotFound(err) {
		return err
	}
	return i.root.WaitForDeployments(ctx, i.config.Timeout, i.config.PollInterval)
}

// Ensure replaces any running nested Marathon with a fresh installation of version in mode
// and waits until its endpoint answers.
func (i *Installer) Ensure(ctx context.Context, version string, mode SecurityMode) error {
	app, err := i.config.AppDefinition(version, mode)
	if err != nil {
		return err
	}

	deployed, err := i.IsDeployed(ctx)
	if err != nil {
		return err
	}
	if deployed {
		if err := i.Remove(ctx); err != nil {
			return err
		}
		if deployed, err = i.IsDeployed(ctx); err != nil {
			return err
		} else if deployed {
			return errors.Errorf("%s is still deployed after removal", Name)
		}
	}

	if err := i.EnsurePrerequisites(ctx); err != nil {
		return err
	}
	if err := i.EnsureServiceAccount(ctx); err != nil {
		return err
	}
	if err := i.EnsurePermissions(ctx); err != nil {
		return err
	}
	if err := i.EnsureSecret(ctx, mode == Strict); err != nil {
		return err
	}
	if err := i.EnsureDockerCredentials(ctx); err != nil {
		return err
	}

	fmt.Fprintf(i.Out, "Deploying %s %s in %s mode\n", Name, app.Container.Docker.Image, mode)
	if _, err := i.root.AddApp(ctx, app); err != nil {
		return err
	}
	if err := i.root.WaitForDeployments(ctx, i.config.Timeout, i.config.PollInterval); err != nil {
		return err
	}
	return i.waitForEndpoint(ctx)
}

func (i *Installer) waitForEndpoint(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, i.config.Timeout)
	defer cancel()
	return retry.Do(
		func() error {
			if err := i.nested.Ping(ctx); err != nil {
				log.WithError(err).Debugf("waiting for %s endpoint", Name)
				return errEndpointUnavailable
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(i.config.Timeout/i.config.PollInterval)+1),
		retry.Delay(i.config.PollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

// EnsurePrerequisites installs the enterprise CLI unless it is installed already.
func (i *Installer) EnsurePrerequisites(ctx context.Context) error {
	installed, err := i.hasPrerequisites(ctx)
	if err != nil || installed {
		return err
	}
	fmt.Fprintf(i.Out, "Installing %s package\n", enterpriseCliPackage)
	if _, err := i.dcos(ctx, "package", "install", enterpriseCliPackage, "--yes"); err != nil {
		return err
	}
	if installed, err = i.hasPrerequisites(ctx); err != nil {
		return err
	} else if !installed {
		return errors.Errorf("%s is not installed after installation", enterpriseCliPackage)
	}
	return nil
}

func (i *Installer) hasPrerequisites(ctx context.Context) (bool, error) {
	var packages []struct {
		Name string `json:"name"`
	}
	if err := i.dcosJson(ctx, &packages, "package", "list", "--json"); err != nil {
		return false, err
	}
	for _, p := range packages {
		if p.Name == enterpriseCliPackage {
			return true, nil
		}
	}
	return false, nil
}

func (i *Installer) privateKeyPath() string {
	return filepath.Join(i.config.WorkDir, privateKeyFile)
}

func (i *Installer) publicKeyPath() string {
	return filepath.Join(i.config.WorkDir, publicKeyFile)
}

// EnsureServiceAccount recreates the service account with a new key pair. The private key is kept
// in the work directory until EnsureSecret stores it as a secret.
func (i *Installer) EnsureServiceAccount(ctx context.Context) error {
	exists, err := i.hasServiceAccount(ctx)
	if err != nil {
		return err
	}
	if exists {
		if err := i.deleteServiceAccount(ctx); err != nil {
			return err
		}
	}

	for _, file := range []string{i.privateKeyPath(), i.publicKeyPath()} {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			return errors.WithStack(err)
		}
	}
	fmt.Fprintln(i.Out, "Creating a key pair for the service account")
	if _, err := i.dcos(ctx, "security", "org", "service-accounts", "keypair", i.privateKeyPath(), i.publicKeyPath()); err != nil {
		return err
	}
	for _, file := range []string{i.privateKeyPath(), i.publicKeyPath()} {
		if _, err := os.Stat(file); err != nil {
			return errors.WithMessage(err, "service account key pair not found")
		}
	}

	fmt.Fprintf(i.Out, "Creating %s service account\n", ServiceAccount)
	_, err = i.dcos(ctx, "security", "org", "service-accounts", "create",
		"-p", i.publicKeyPath(), "-d", "Marathon-EE service account", ServiceAccount)
	if removeErr := os.Remove(i.publicKeyPath()); removeErr != nil && err == nil {
		err = errors.WithStack(removeErr)
	}
	if err != nil {
		return err
	}

	if exists, err = i.hasServiceAccount(ctx); err != nil {
		return err
	} else if !exists {
		return errors.Errorf("service account %s not found after creation", ServiceAccount)
	}
	return nil
}

func (i *Installer) hasServiceAccount(ctx context.Context) (bool, error) {
	accounts := map[string]interface{}{}
	if err := i.dcosJson(ctx, &accounts, "security", "org", "service-accounts", "show", "--json"); err != nil {
		return false, err
	}
	_, ok := accounts[ServiceAccount]
	return ok, nil
}

func (i *Installer) deleteServiceAccount(ctx context.Context) error {
	fmt.Fprintf(i.Out, "Removing existing service account %s\n", ServiceAccount)
	_, err := i.dcos(ctx, "security", "org", "service-accounts", "delete", ServiceAccount)
	return err
}

// EnsurePermissions makes the service account a superuser.
func (i *Installer) EnsurePermissions(ctx context.Context) error {
	fmt.Fprintf(i.Out, "Granting full permissions to %s\n", ServiceAccount)
	if err := i.acs.Grant(ctx, superuserResource, ServiceAccount, fullAction); err != nil {
		return err
	}
	granted, err := i.acs.HasPermission(ctx, superuserResource, ServiceAccount, fullAction)
	if err != nil {
		return err
	}
	if !granted {
		return errors.Errorf("%s permission on %s could not be granted to %s", fullAction, superuserResource, ServiceAccount)
	}
	return nil
}

// EnsureSecret recreates the secret holding the service account credentials from the private key
// created by EnsureServiceAccount, and then removes the key.
func (i *Installer) EnsureSecret(ctx context.Context, strict bool) error {
	exists, err := i.hasSecret(ctx)
	if err != nil {
		return err
	}
	if exists {
		if err := i.deleteSecret(ctx); err != nil {
			return err
		}
	}

	if _, err := os.Stat(i.privateKeyPath()); err != nil {
		return errors.WithMessage(err, "service account private key not found")
	}
	fmt.Fprintf(i.Out, "Creating new secret %s\n", SecretName)
	args := []string{"security", "secrets", "create-sa-secret"}
	if strict {
		args = append(args, "--strict")
	}
	args = append(args, i.privateKeyPath(), ServiceAccount, SecretName)
	_, err = i.dcos(ctx, args...)
	if removeErr := os.Remove(i.privateKeyPath()); removeErr != nil && err == nil {
		err = errors.WithStack(removeErr)
	}
	if err != nil {
		return err
	}

	if exists, err = i.hasSecret(ctx); err != nil {
		return err
	} else if !exists {
		return errors.Errorf("secret %s not found after creation", SecretName)
	}
	return nil
}

func (i *Installer) hasSecret(ctx context.Context) (bool, error) {
	var secrets []string
	if err := i.dcosJson(ctx, &secrets, "security", "secrets", "list", "/", "--json"); err != nil {
		return false, err
	}
	for _, s := range secrets {
		if s == SecretName {
			return true, nil
		}
	}
	return false, nil
}

func (i *Installer) deleteSecret(ctx context.Context) error {
	fmt.Fprintf(i.Out, "Removing existing secret %s\n", SecretName)
	_, err := i.dcos(ctx, "security", "secrets", "delete", SecretName)
	return err
}

// EnsureDockerCredentials uploads a docker credentials tarball to every private agent.
func (i *Installer) EnsureDockerCredentials(ctx context.Context) error {
	tarball, err := DockerCredentialsTarball(i.config.DockerUser, i.config.DockerPassword)
	if err != nil {
		return err
	}
	agents, err := i.mesos.PrivateAgents(ctx)
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		return errors.New("no private agents to upload docker credentials to")
	}

	fmt.Fprintf(i.Out, "Uploading docker credentials for %s to %d private agent(s)\n", i.config.DockerUser, len(agents))
	g, ctx := errgroup.WithContext(ctx)
	for _, agent := range agents {
		host := agent.Hostname
		g.Go(func() error {
			return i.uploader.Upload(ctx, host, credentialsFile, tarball)
		})
	}
	return g.Wait()
}

// SimpleSleepApp deploys a sleep app on the nested Marathon and checks that it starts a task.
func (i *Installer) SimpleSleepApp(ctx context.Context) error {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	app := &marathon.App{
		ID:        "/" + id,
		Cmd:       "sleep 1000",
		Cpus:      0.01,
		Mem:       32,
		Instances: 1,
	}
	if _, err := i.nested.AddApp(ctx, app); err != nil {
		return err
	}
	if err := i.nested.WaitForDeployments(ctx, i.config.Timeout, i.config.PollInterval); err != nil {
		return err
	}
	tasks, err := i.nested.GetTasks(ctx, id)
	if err != nil {
		return err
	}
	log.Infof("%s tasks: %d", Name, len(tasks))
	if len(tasks) == 0 {
		return errors.Errorf("app %s on %s has no tasks", id, Name)
	}
	return nil
}

// Teardown removes the nested Marathon, its service account, and its secret.
func (i *Installer) Teardown(ctx context.Context) error {
	var result *multierror.Error
	if err := i.Remove(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := i.deleteServiceAccount(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := i.deleteSecret(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (i *Installer) dcos(ctx context.Context, args ...string) (*command.Result, error) {
	result, err := command.Dcos(ctx, i.runner, args...)
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		return nil, errors.Errorf("dcos %s exited with code %d: %s",
			strings.Join(args, " "), result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return result, nil
}

// dcosJson runs the dcos CLI and decodes its output into out. Empty output leaves out unchanged.
func (i *Installer) dcosJson(ctx context.Context, out interface{}, args ...string) error {
	result, err := i.dcos(ctx, args...)
	if err != nil {
		return err
	}
	if strings.TrimSpace(result.Stdout) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(result.Stdout), out); err != nil {
		return errors.WithMessagef(err, "error decoding output of dcos %s", strings.Join(args, " "))
	}
	return nil
}
