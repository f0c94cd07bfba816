package momee

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesosphere/marathon-scaletest/internal/common/scaleerrors"
)

func TestCases(t *testing.T) {
	tests := map[string]struct {
		includeStrict bool
		expected      []string
	}{
		"default": {
			includeStrict: false,
			expected: []string{
				"mom_ee_permissive_1.4", "mom_ee_disabled_1.4",
				"mom_ee_permissive_1.3", "mom_ee_disabled_1.3",
			},
		},
		"with strict": {
			includeStrict: true,
			expected: []string{
				"mom_ee_strict_1.4", "mom_ee_permissive_1.4", "mom_ee_disabled_1.4",
				"mom_ee_strict_1.3", "mom_ee_permissive_1.3", "mom_ee_disabled_1.3",
			},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var names []string
			for _, c := range Cases(tc.includeStrict) {
				names = append(names, c.String())
			}
			assert.Equal(t, tc.expected, names)
		})
	}
}

func TestImage(t *testing.T) {
	image, err := Image("1.4")
	require.NoError(t, err)
	assert.Equal(t, "mesosphere/marathon-dcos-ee:1.4.1_1.9.7", image)

	image, err = Image("1.3")
	require.NoError(t, err)
	assert.Equal(t, "mesosphere/marathon-dcos-ee:1.3.10_1.1.5", image)

	_, err = Image("1.5")
	var invalid *scaleerrors.ErrInvalidArgument
	assert.ErrorAs(t, err, &invalid)
}

func validConfig(t *testing.T) *Config {
	config := DefaultConfig()
	config.WorkDir = t.TempDir()
	config.DockerUser = "jenkins"
	config.DockerPassword = "secret"
	config.Timeout = time.Second
	config.PollInterval = time.Millisecond
	return config
}

func TestConfig_Validate(t *testing.T) {
	tests := map[string]struct {
		modify func(c *Config)
		valid  bool
	}{
		"valid":                 {func(c *Config) {}, true},
		"no docker user":        {func(c *Config) { c.DockerUser = "" }, false},
		"no docker password":    {func(c *Config) { c.DockerPassword = "" }, false},
		"no work dir":           {func(c *Config) { c.WorkDir = "" }, false},
		"no ssh user":           {func(c *Config) { c.Ssh.User = "" }, false},
		"zero timeout":          {func(c *Config) { c.Timeout = 0 }, false},
		"poll exceeds timeout":  {func(c *Config) { c.PollInterval = time.Minute }, false},
		"zero poll interval":    {func(c *Config) { c.PollInterval = 0 }, false},
		"fixture dir is option": {func(c *Config) { c.FixtureDir = "testdata" }, true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			config := validConfig(t)
			tc.modify(config)
			err := config.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				var invalid *scaleerrors.ErrInvalidArgument
				assert.ErrorAs(t, err, &invalid)
			}
		})
	}
}
