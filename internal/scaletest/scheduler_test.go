package scaletest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/mesosphere/marathon-scaletest/pkg/client"
	"github.com/mesosphere/marathon-scaletest/pkg/client/marathon"
)

// fakeMarathon records submitted apps and groups and serves them back as fully running.
type fakeMarathon struct {
	mu     sync.Mutex
	apps   []*marathon.App
	groups []*marathon.Group
	server *httptest.Server
}

func newFakeMarathon(t *testing.T) *fakeMarathon {
	f := &fakeMarathon{}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle(t)))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeMarathon) handle(t *testing.T) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/marathon/v2/apps":
			app := &marathon.App{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(app))
			f.apps = append(f.apps, app)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(app)
		case r.Method == http.MethodPost && r.URL.Path == "/marathon/v2/groups":
			group := &marathon.Group{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(group))
			f.groups = append(f.groups, group)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"version": "v1", "deploymentId": "d1"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/marathon/v2/apps/test-root-apps-instances-1-10":
			_, _ = w.Write([]byte(`{"app": {"id": "/test-root-apps-instances-1-10", "instances": 10, "tasksRunning": 7}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/marathon/v2/groups/test-root-apps-count-3-1":
			_, _ = w.Write([]byte(`{"id": "/test-root-apps-count-3-1", "apps": [
				{"id": "/test-root-apps-count-3-1/app-0", "tasksRunning": 1},
				{"id": "/test-root-apps-count-3-1/app-1", "tasksRunning": 0},
				{"id": "/test-root-apps-count-3-1/app-2", "tasksRunning": 1}
			]}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/marathon/v2/groups/":
			f.apps, f.groups = nil, nil
			_, _ = w.Write([]byte(`{"version": "v2", "deploymentId": "d2"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/marathon/v2/deployments":
			_, _ = w.Write([]byte(`[]`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
}

func (f *fakeMarathon) scheduler(t *testing.T) *MarathonScheduler {
	c := marathon.NewRoot(&client.ApiConnectionDetails{DcosUrl: f.server.URL})
	return NewMarathonScheduler(c, testConfig(t))
}

func TestMarathonScheduler_Submit(t *testing.T) {
	tests := map[string]struct {
		scenario       string
		expectedApps   []string
		expectedGroups []string
		instances      int
	}{
		"instances": {
			scenario:     "test_root_apps_instances_1_10",
			expectedApps: []string{"/test-root-apps-instances-1-10"},
			instances:    10,
		},
		"count": {
			scenario:     "test_root_apps_count_3_1",
			expectedApps: []string{"/test-root-apps-count-3-1/app-0", "/test-root-apps-count-3-1/app-1", "/test-root-apps-count-3-1/app-2"},
			instances:    1,
		},
		"group": {
			scenario:       "test_root_apps_group_3_1",
			expectedGroups: []string{"/test-root-apps-group-3-1"},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFakeMarathon(t)
			scenario, err := ParseScenario(tc.scenario)
			require.NoError(t, err)
			unit := NewUnit(scenario, clocktesting.NewFakeClock(testStart))

			require.NoError(t, f.scheduler(t).Submit(context.Background(), unit.Workload()))

			var apps, groups []string
			for _, app := range f.apps {
				apps = append(apps, app.ID)
				assert.Equal(t, "sleep 1000", app.Cmd)
				assert.Equal(t, 0.01, app.Cpus)
				assert.Equal(t, float64(32), app.Mem)
				assert.Equal(t, tc.instances, app.Instances)
			}
			for _, group := range f.groups {
				groups = append(groups, group.ID)
				assert.Len(t, group.Apps, 3)
			}
			assert.Equal(t, tc.expectedApps, apps)
			assert.Equal(t, tc.expectedGroups, groups)
		})
	}
}

func TestMarathonScheduler_Deployed(t *testing.T) {
	f := newFakeMarathon(t)
	s := f.scheduler(t)

	deployed, err := s.Deployed(context.Background(), &Workload{ID: "/test-root-apps-instances-1-10", Shape: ShapeInstances, Apps: 1, InstancesPerApp: 10, Target: 10})
	require.NoError(t, err)
	assert.Equal(t, 7, deployed)

	deployed, err = s.Deployed(context.Background(), &Workload{ID: "/test-root-apps-count-3-1", Shape: ShapeCount, Apps: 3, InstancesPerApp: 1, Target: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, deployed)
}

func TestMarathonScheduler_DeleteAllTwice(t *testing.T) {
	f := newFakeMarathon(t)
	s := f.scheduler(t)
	require.NoError(t, s.Submit(context.Background(), &Workload{ID: "/a", Shape: ShapeInstances, Apps: 1, InstancesPerApp: 1, Target: 1}))

	require.NoError(t, s.DeleteAll(context.Background()))
	assert.Empty(t, f.apps)
	require.NoError(t, s.DeleteAll(context.Background()))
	assert.Empty(t, f.apps)
}
