package scaletest

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesosphere/marathon-scaletest/internal/common/scaleerrors"
	"github.com/mesosphere/marathon-scaletest/pkg/client"
)

func newTestApp(t *testing.T, handler http.HandlerFunc) (*App, *bytes.Buffer) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	out := &bytes.Buffer{}
	app := New()
	app.Out = out
	app.Params.ApiConnectionDetails = &client.ApiConnectionDetails{DcosUrl: server.URL}
	app.Params.Config = testConfig(t)
	return app, out
}

// clusterHandler serves a cluster with one private agent on which every app becomes fully running immediately.
func clusterHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/mesos/state-summary":
			_, _ = w.Write([]byte(`{"slaves": [{"hostname": "a", "active": true, "resources": {"cpus": 8, "mem": 16000, "disk": 1000}, "used_resources": {}}]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/marathon/v2/apps":
			_, _ = w.Write([]byte(`{"apps": []}`))
		case r.Method == http.MethodPost && r.URL.Path == "/marathon/v2/apps":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{}`))
		case r.Method == http.MethodGet && r.URL.Path == "/marathon/v2/apps/test-root-apps-instances-1-10":
			_, _ = w.Write([]byte(`{"app": {"id": "/test-root-apps-instances-1-10", "instances": 10, "tasksRunning": 10}}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/marathon/v2/groups/":
			_, _ = w.Write([]byte(`{}`))
		case r.Method == http.MethodGet && r.URL.Path == "/marathon/v2/deployments":
			_, _ = w.Write([]byte(`[]`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestApp_Run(t *testing.T) {
	app, out := newTestApp(t, clusterHandler(t))

	err := app.Run(context.Background(), []string{"test_root_apps_instances_1_10"})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "test_root_apps_instances_1_10: passed")
	data, err := os.ReadFile(filepath.Join(app.Params.Config.Output.Dir, "scale-test.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Marathon: root, instances\n10\n")
}

func TestApp_RunWhenMetricsPortIsTaken(t *testing.T) {
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer listener.Close()
	app, out := newTestApp(t, clusterHandler(t))
	app.Params.Config.Metrics.Port = uint16(listener.Addr().(*net.TCPAddr).Port)

	require.NoError(t, app.Run(context.Background(), []string{"test_root_apps_instances_1_10"}))
	assert.Contains(t, out.String(), "test_root_apps_instances_1_10: passed")
}

func TestApp_RunInvalidConfig(t *testing.T) {
	app, _ := newTestApp(t, clusterHandler(t))
	app.Params.Config.PollInterval = 0
	assert.Error(t, app.Run(context.Background(), nil))
}

func TestApp_Scenarios(t *testing.T) {
	app, _ := newTestApp(t, clusterHandler(t))

	names, err := app.Scenarios(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultScenarios("root"), names)

	app.Params.Config.Scenarios = []string{"test_root_apps_count_1_1"}
	names, err = app.Scenarios(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"test_root_apps_count_1_1"}, names)

	names, err = app.Scenarios([]string{"test_root_apps_group_10_1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"test_root_apps_group_10_1"}, names)

	_, err = app.Scenarios([]string{"bogus"})
	assert.Error(t, err)
}

func TestApp_ScenariosForOtherInstance(t *testing.T) {
	app, _ := newTestApp(t, clusterHandler(t))
	app.Params.Config.Instance = "mom1"

	_, err := app.Scenarios([]string{"test_mom1_apps_count_1_1", "test_root_apps_count_10_1"})
	var invalid *scaleerrors.ErrInvalidArgument
	assert.True(t, errors.As(err, &invalid))

	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- test_root_apps_count_1_1\n"), 0o644))
	app.Params.Config.ScenarioFile = path
	_, err = app.Scenarios(nil)
	assert.Error(t, err)

	app.Params.Config.ScenarioFile = ""
	names, err := app.Scenarios(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultScenarios("mom1"), names)
}

func TestApp_Resources(t *testing.T) {
	app, out := newTestApp(t, clusterHandler(t))
	require.NoError(t, app.Resources(context.Background()))
	assert.Contains(t, out.String(), "cpus=8.00 mem=16000.00 disk=1000.00")
	assert.Contains(t, out.String(), "Deployed apps:\t0")
}

func TestApp_Cleanup(t *testing.T) {
	app, _ := newTestApp(t, clusterHandler(t))
	app.Params.Config.Timeout.Cleanup = time.Second
	assert.NoError(t, app.Cleanup(context.Background()))
}

func TestApp_Version(t *testing.T) {
	app, out := newTestApp(t, clusterHandler(t))
	require.NoError(t, app.Version())
	assert.Contains(t, out.String(), "Go version:")
}
