package scaletest

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/mesosphere/marathon-scaletest/internal/common/scaleerrors"
)

// Shape is the dimension a scale test grows along.
type Shape string

const (
	// One app with many instances.
	ShapeInstances Shape = "instances"
	// Many apps with one instance each, created one by one.
	ShapeCount Shape = "count"
	// Many apps with one instance each, created at once as a single group.
	ShapeGroup Shape = "group"
)

var instancePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidInstance returns true for Marathon instance labels made of lower case letters, digits and dashes.
func ValidInstance(instance string) bool {
	return instancePattern.MatchString(instance)
}

// Shapes lists all shapes in the order they're reported.
var Shapes = []Shape{ShapeInstances, ShapeCount, ShapeGroup}

func (s Shape) Valid() bool {
	switch s {
	case ShapeInstances, ShapeCount, ShapeGroup:
		return true
	}
	return false
}

// Scenario is a parsed scenario name of the form test_<instance>_apps_<shape>_<apps>_<instances>,
// e.g., test_root_apps_instances_1_25000 deploys one app with 25000 instances to the root Marathon.
type Scenario struct {
	Name            string
	Instance        string
	Shape           Shape
	Apps            int
	InstancesPerApp int
}

// Magnitude is the number the scenario scales: instances for ShapeInstances and apps otherwise.
func (s Scenario) Magnitude() int {
	if s.Shape == ShapeInstances {
		return s.InstancesPerApp
	}
	return s.Apps
}

// NumInstances is the total number of instances the scenario deploys.
func (s Scenario) NumInstances() int {
	return s.Apps * s.InstancesPerApp
}

// Key identifies the instance and shape of the scenario, e.g., "root_instances".
func (s Scenario) Key() string {
	return ShapeKey(s.Instance, s.Shape)
}

func ShapeKey(instance string, shape Shape) string {
	return fmt.Sprintf("%s_%s", instance, shape)
}

func ScenarioName(instance string, shape Shape, apps int, instancesPerApp int) string {
	return fmt.Sprintf("test_%s_apps_%s_%d_%d", instance, shape, apps, instancesPerApp)
}

func ParseScenario(name string) (Scenario, error) {
	invalid := func(message string) error {
		return errors.WithStack(&scaleerrors.ErrInvalidArgument{
			Name:    "scenario",
			Value:   name,
			Message: message,
		})
	}

	parts := strings.Split(name, "_")
	if len(parts) != 6 || parts[0] != "test" || parts[2] != "apps" {
		return Scenario{}, invalid("expected test_<instance>_apps_<shape>_<apps>_<instances>")
	}
	if !ValidInstance(parts[1]) {
		return Scenario{}, invalid("instance may only contain lower case letters, digits and dashes")
	}
	shape := Shape(parts[3])
	if !shape.Valid() {
		return Scenario{}, invalid(fmt.Sprintf("unknown shape %q", parts[3]))
	}
	apps, err := strconv.Atoi(parts[4])
	if err != nil || apps <= 0 {
		return Scenario{}, invalid("number of apps must be a positive integer")
	}
	instancesPerApp, err := strconv.Atoi(parts[5])
	if err != nil || instancesPerApp <= 0 {
		return Scenario{}, invalid("number of instances must be a positive integer")
	}
	if shape == ShapeInstances && apps != 1 {
		return Scenario{}, invalid("instances scenarios deploy a single app")
	}
	if shape != ShapeInstances && instancesPerApp != 1 {
		return Scenario{}, invalid("count and group scenarios deploy single-instance apps")
	}
	return Scenario{
		Name:            name,
		Instance:        parts[1],
		Shape:           shape,
		Apps:            apps,
		InstancesPerApp: instancesPerApp,
	}, nil
}

// DefaultScenarios returns the standard scenarios for instance, smallest to largest within each shape.
func DefaultScenarios(instance string) []string {
	scales := []struct {
		shape      Shape
		magnitudes []int
	}{
		{ShapeInstances, []int{1, 10, 100, 500, 1000, 5000, 10000, 25000}},
		{ShapeCount, []int{1, 10, 100, 500, 1000, 5000, 10000, 25000}},
		{ShapeGroup, []int{1, 10, 100, 1000}},
	}
	var names []string
	for _, scale := range scales {
		for _, magnitude := range scale.magnitudes {
			if scale.shape == ShapeInstances {
				names = append(names, ScenarioName(instance, scale.shape, 1, magnitude))
			} else {
				names = append(names, ScenarioName(instance, scale.shape, magnitude, 1))
			}
		}
	}
	return names
}

// ReadScenarioFile reads a yaml list of scenario names.
func ReadScenarioFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var names []string
	if err := yaml.UnmarshalStrict(data, &names); err != nil {
		return nil, errors.WithMessagef(err, "error reading scenarios from %s", path)
	}
	if err := CheckScenarios(names, ""); err != nil {
		return nil, err
	}
	return names, nil
}

// CheckScenarios parses every name and, unless instance is empty, requires it to target instance.
func CheckScenarios(names []string, instance string) error {
	for _, name := range names {
		scenario, err := ParseScenario(name)
		if err != nil {
			return err
		}
		if instance != "" && scenario.Instance != instance {
			return errors.WithStack(&scaleerrors.ErrInvalidArgument{
				Name:    "scenario",
				Value:   name,
				Message: fmt.Sprintf("targets marathon %s, but this run tests %s", scenario.Instance, instance),
			})
		}
	}
	return nil
}
