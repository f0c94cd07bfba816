package scaletest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario(t *testing.T) {
	tests := map[string]struct {
		name      string
		expected  Scenario
		magnitude int
	}{
		"instances": {
			name:      "test_root_apps_instances_1_25000",
			expected:  Scenario{Name: "test_root_apps_instances_1_25000", Instance: "root", Shape: ShapeInstances, Apps: 1, InstancesPerApp: 25000},
			magnitude: 25000,
		},
		"count": {
			name:      "test_root_apps_count_1000_1",
			expected:  Scenario{Name: "test_root_apps_count_1000_1", Instance: "root", Shape: ShapeCount, Apps: 1000, InstancesPerApp: 1},
			magnitude: 1000,
		},
		"group on nested marathon": {
			name:      "test_mom1_apps_group_10_1",
			expected:  Scenario{Name: "test_mom1_apps_group_10_1", Instance: "mom1", Shape: ShapeGroup, Apps: 10, InstancesPerApp: 1},
			magnitude: 10,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			scenario, err := ParseScenario(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, scenario)
			assert.Equal(t, tc.magnitude, scenario.Magnitude())
		})
	}
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":                      "",
		"missing separator":          "test_root_apps_count_10_1test_root_apps_count_100_1",
		"unknown shape":              "test_root_apps_pods_1_1",
		"upper case instance":        "test_Root_apps_count_1_1",
		"instance with comma":        "test_root, mom_apps_count_1_1",
		"zero magnitude":             "test_root_apps_instances_1_0",
		"not a number":               "test_root_apps_count_ten_1",
		"several apps in instance":   "test_root_apps_instances_2_10",
		"several instances in count": "test_root_apps_count_10_2",
		"wrong prefix":               "run_root_apps_count_1_1",
	}
	for name, scenario := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScenario(scenario)
			assert.Error(t, err)
		})
	}
}

func TestDefaultScenarios(t *testing.T) {
	names := DefaultScenarios("root")
	require.Len(t, names, 20)
	assert.Equal(t, "test_root_apps_instances_1_1", names[0])
	assert.Equal(t, "test_root_apps_instances_1_25000", names[7])
	assert.Equal(t, "test_root_apps_count_10_1", names[9])
	assert.Equal(t, "test_root_apps_count_100_1", names[10])
	assert.Equal(t, "test_root_apps_group_1000_1", names[19])

	previous := map[Shape]int{}
	for _, name := range names {
		scenario, err := ParseScenario(name)
		require.NoError(t, err)
		assert.Greater(t, scenario.Magnitude(), previous[scenario.Shape], name)
		previous[scenario.Shape] = scenario.Magnitude()
	}
}

func TestReadScenarioFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- test_root_apps_count_1_1\n- test_root_apps_count_10_1\n"), 0o644))

	names, err := ReadScenarioFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"test_root_apps_count_1_1", "test_root_apps_count_10_1"}, names)

	require.NoError(t, os.WriteFile(path, []byte("- test_root_apps_count_1_1\n- bogus\n"), 0o644))
	_, err = ReadScenarioFile(path)
	assert.Error(t, err)
}
