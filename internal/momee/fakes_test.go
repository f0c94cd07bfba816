package momee

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesosphere/marathon-scaletest/internal/common/command"
	"github.com/mesosphere/marathon-scaletest/pkg/client"
	"github.com/mesosphere/marathon-scaletest/pkg/client/marathon"
)

// fakeDcosCli emulates the dcos CLI subcommands used by the installer.
type fakeDcosCli struct {
	t *testing.T

	mu       sync.Mutex
	calls    []string
	packages []string
	accounts map[string]bool
	secrets  map[string]bool
	// Commands starting with failOn exit with code 1.
	failOn string
}

func newFakeDcosCli(t *testing.T) *fakeDcosCli {
	return &fakeDcosCli{
		t:        t,
		accounts: map[string]bool{},
		secrets:  map[string]bool{},
	}
}

func (f *fakeDcosCli) Run(_ context.Context, name string, args ...string) (*command.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(f.t, "dcos", name)
	line := strings.Join(args, " ")
	f.calls = append(f.calls, line)
	if f.failOn != "" && strings.HasPrefix(line, f.failOn) {
		return &command.Result{ExitCode: 1, Stderr: "failed"}, nil
	}

	last := args[len(args)-1]
	switch {
	case line == "package list --json":
		var packages []map[string]string
		for _, p := range f.packages {
			packages = append(packages, map[string]string{"name": p})
		}
		return f.json(packages), nil
	case line == "package install dcos-enterprise-cli --yes":
		f.packages = append(f.packages, "dcos-enterprise-cli")
	case line == "security org service-accounts show --json":
		accounts := map[string]map[string]string{}
		for a := range f.accounts {
			accounts[a] = map[string]string{"description": "Marathon-EE service account"}
		}
		return f.json(accounts), nil
	case strings.HasPrefix(line, "security org service-accounts keypair"):
		assert.NoError(f.t, os.WriteFile(args[4], []byte("private"), 0o600))
		assert.NoError(f.t, os.WriteFile(args[5], []byte("public"), 0o600))
	case strings.HasPrefix(line, "security org service-accounts create"):
		f.accounts[last] = true
	case strings.HasPrefix(line, "security org service-accounts delete"):
		delete(f.accounts, last)
	case line == "security secrets list / --json":
		var secrets []string
		for s := range f.secrets {
			secrets = append(secrets, s)
		}
		if len(secrets) == 0 {
			return &command.Result{}, nil
		}
		return f.json(secrets), nil
	case strings.HasPrefix(line, "security secrets create-sa-secret"):
		f.secrets[last] = true
	case strings.HasPrefix(line, "security secrets delete"):
		delete(f.secrets, last)
	default:
		f.t.Errorf("unexpected dcos command %q", line)
	}
	return &command.Result{}, nil
}

func (f *fakeDcosCli) json(v interface{}) *command.Result {
	data, err := json.Marshal(v)
	assert.NoError(f.t, err)
	return &command.Result{Stdout: string(data)}
}

func (f *fakeDcosCli) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

type fakeUploader struct {
	mu    sync.Mutex
	hosts []string
	data  map[string][]byte
}

func (u *fakeUploader) Upload(_ context.Context, host string, name string, data []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.hosts = append(u.hosts, host)
	if u.data == nil {
		u.data = map[string][]byte{}
	}
	u.data[host+":"+name] = data
	return nil
}

// fakeCluster serves the root Marathon, the nested Marathon behind /service/marathon-user-ee,
// the Mesos state summary, the DC/OS version, and the ACS ACLs.
type fakeCluster struct {
	t *testing.T

	mu          sync.Mutex
	dcosVersion string
	rootApps    map[string]*marathon.App
	nestedApps  map[string]*marathon.App
	granted     bool
}

func newFakeCluster(t *testing.T) *fakeCluster {
	return &fakeCluster{
		t:           t,
		dcosVersion: "1.10.0",
		rootApps:    map[string]*marathon.App{},
		nestedApps:  map[string]*marathon.App{},
	}
}

const nestedPrefix = "/service/" + Name

const stateSummary = `{
  "slaves": [
    {"id": "a1", "hostname": "10.0.1.1", "active": true, "resources": {"cpus": 4, "mem": 14000}},
    {"id": "a2", "hostname": "10.0.1.2", "active": true, "resources": {"cpus": 4, "mem": 14000}},
    {"id": "a3", "hostname": "10.0.5.1", "active": true, "resources": {"cpus": 4, "mem": 14000},
     "reserved_resources": {"slave_public": {"cpus": 4, "mem": 14000}}}
  ]
}`

func (c *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	path := r.URL.Path
	_, deployed := c.rootApps["/"+Name]

	switch {
	case path == "/dcos-metadata/dcos-version.json":
		writeJson(w, map[string]string{"version": c.dcosVersion})
	case path == "/mesos/state-summary":
		_, _ = w.Write([]byte(stateSummary))
	case path == "/acs/api/v1/acls/dcos:superuser/users/marathon_user_ee/full" && r.Method == http.MethodPut:
		c.granted = true
		w.WriteHeader(http.StatusNoContent)
	case path == "/acs/api/v1/acls/dcos:superuser/users/marathon_user_ee":
		actions := []map[string]string{}
		if c.granted {
			actions = append(actions, map[string]string{"url": "/acs/api/v1/acls/dcos:superuser/users/marathon_user_ee/full"})
		}
		writeJson(w, map[string]interface{}{"array": actions})

	case path == "/marathon/v2/apps" && r.Method == http.MethodGet:
		writeJson(w, map[string]interface{}{"apps": values(c.rootApps)})
	case path == "/marathon/v2/apps" && r.Method == http.MethodPost:
		c.addApp(w, r, c.rootApps)
	case path == "/marathon/v2/apps/"+Name && r.Method == http.MethodDelete:
		if !deployed {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(c.rootApps, "/"+Name)
		c.nestedApps = map[string]*marathon.App{}
		writeJson(w, map[string]string{"deploymentId": "d1"})
	case path == "/marathon/v2/deployments":
		_, _ = w.Write([]byte(`[]`))

	case strings.HasPrefix(path, nestedPrefix) && !deployed:
		w.WriteHeader(http.StatusBadGateway)
	case path == nestedPrefix+"/ping":
		_, _ = w.Write([]byte(`pong`))
	case path == nestedPrefix+"/v2/groups/" && r.Method == http.MethodDelete:
		c.nestedApps = map[string]*marathon.App{}
		writeJson(w, map[string]string{"deploymentId": "d2"})
	case path == nestedPrefix+"/v2/deployments":
		_, _ = w.Write([]byte(`[]`))
	case path == nestedPrefix+"/v2/apps" && r.Method == http.MethodPost:
		c.addApp(w, r, c.nestedApps)
	case strings.HasPrefix(path, nestedPrefix+"/v2/apps/") && strings.HasSuffix(path, "/tasks"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, nestedPrefix+"/v2/apps"), "/tasks")
		app, ok := c.nestedApps[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var tasks []*marathon.Task
		for i := 0; i < app.Instances; i++ {
			tasks = append(tasks, &marathon.Task{ID: app.ID + ".task", AppID: app.ID, Host: "10.0.1.1"})
		}
		writeJson(w, map[string]interface{}{"tasks": tasks})
	default:
		c.t.Errorf("unexpected request %s %s", r.Method, path)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (c *fakeCluster) addApp(w http.ResponseWriter, r *http.Request, apps map[string]*marathon.App) {
	app := &marathon.App{}
	assert.NoError(c.t, json.NewDecoder(r.Body).Decode(app))
	apps[app.ID] = app
	w.WriteHeader(http.StatusCreated)
	writeJson(w, app)
}

func (c *fakeCluster) RootApp(id string) *marathon.App {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rootApps[id]
}

func (c *fakeCluster) NestedApps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.nestedApps)
}

func values(apps map[string]*marathon.App) []*marathon.App {
	result := []*marathon.App{}
	for _, app := range apps {
		result = append(result, app)
	}
	return result
}

func writeJson(w http.ResponseWriter, v interface{}) {
	_ = json.NewEncoder(w).Encode(v)
}

type installerFixture struct {
	installer *Installer
	cluster   *fakeCluster
	cli       *fakeDcosCli
	uploader  *fakeUploader
	out       *strings.Builder
}

func newInstallerFixture(t *testing.T) *installerFixture {
	cluster := newFakeCluster(t)
	server := httptest.NewServer(cluster)
	t.Cleanup(server.Close)

	cli := newFakeDcosCli(t)
	uploader := &fakeUploader{}
	out := &strings.Builder{}
	installer := NewInstaller(validConfig(t), &client.ApiConnectionDetails{DcosUrl: server.URL}, cli, uploader)
	installer.Out = out
	return &installerFixture{
		installer: installer,
		cluster:   cluster,
		cli:       cli,
		uploader:  uploader,
		out:       out,
	}
}
