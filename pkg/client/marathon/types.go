package marathon

import "strings"

// App is the subset of a Marathon app definition used by the scale and system tests.
// Status fields (tasksRunning etc.) are only populated by Marathon in responses.
type App struct {
	ID              string                 `json:"id"`
	Cmd             string                 `json:"cmd,omitempty"`
	Args            []string               `json:"args,omitempty"`
	Cpus            float64                `json:"cpus"`
	Mem             float64                `json:"mem"`
	Disk            float64                `json:"disk"`
	Instances       int                    `json:"instances"`
	User            string                 `json:"user,omitempty"`
	Container       *Container             `json:"container,omitempty"`
	Env             map[string]interface{} `json:"env,omitempty"`
	Secrets         map[string]Secret      `json:"secrets,omitempty"`
	Labels          map[string]string      `json:"labels,omitempty"`
	Fetch           []Fetch                `json:"fetch,omitempty"`
	Constraints     [][]string             `json:"constraints,omitempty"`
	HealthChecks    []HealthCheck          `json:"healthChecks,omitempty"`
	PortDefinitions []PortDefinition       `json:"portDefinitions,omitempty"`
	BackoffFactor   float64                `json:"backoffFactor,omitempty"`
	BackoffSeconds  float64                `json:"backoffSeconds,omitempty"`

	TasksRunning    int            `json:"tasksRunning,omitempty"`
	TasksStaged     int            `json:"tasksStaged,omitempty"`
	TasksHealthy    int            `json:"tasksHealthy,omitempty"`
	TasksUnhealthy  int            `json:"tasksUnhealthy,omitempty"`
	Deployments     []DeploymentId `json:"deployments,omitempty"`
	Tasks           []*Task        `json:"tasks,omitempty"`
	LastTaskFailure *TaskFailure   `json:"lastTaskFailure,omitempty"`
}

type Container struct {
	Type    string   `json:"type"`
	Docker  *Docker  `json:"docker,omitempty"`
	Volumes []Volume `json:"volumes,omitempty"`
}

type Docker struct {
	Image          string `json:"image"`
	Network        string `json:"network,omitempty"`
	ForcePullImage bool   `json:"forcePullImage,omitempty"`
}

type Volume struct {
	ContainerPath string `json:"containerPath"`
	HostPath      string `json:"hostPath,omitempty"`
	Mode          string `json:"mode"`
}

// Secret refers to a secret stored in the DC/OS secret store.
type Secret struct {
	Source string `json:"source"`
}

type Fetch struct {
	Uri        string `json:"uri"`
	Extract    bool   `json:"extract,omitempty"`
	Executable bool   `json:"executable,omitempty"`
	Cache      bool   `json:"cache,omitempty"`
}

type HealthCheck struct {
	Protocol               string `json:"protocol"`
	Path                   string `json:"path,omitempty"`
	PortIndex              int    `json:"portIndex"`
	GracePeriodSeconds     int    `json:"gracePeriodSeconds,omitempty"`
	IntervalSeconds        int    `json:"intervalSeconds,omitempty"`
	TimeoutSeconds         int    `json:"timeoutSeconds,omitempty"`
	MaxConsecutiveFailures int    `json:"maxConsecutiveFailures,omitempty"`
}

type PortDefinition struct {
	Port     int               `json:"port"`
	Protocol string            `json:"protocol,omitempty"`
	Name     string            `json:"name,omitempty"`
	Labels   map[string]string `json:"labels,omitempty"`
}

type DeploymentId struct {
	ID string `json:"id"`
}

type Task struct {
	ID        string `json:"id"`
	AppID     string `json:"appId"`
	Host      string `json:"host"`
	State     string `json:"state,omitempty"`
	StartedAt string `json:"startedAt,omitempty"`
}

type TaskFailure struct {
	AppID     string `json:"appId"`
	Host      string `json:"host"`
	Message   string `json:"message"`
	State     string `json:"state"`
	Timestamp string `json:"timestamp"`
}

// Group is a Marathon group. Apps and sub-groups are embedded when fetched with GetGroup.
type Group struct {
	ID     string   `json:"id"`
	Apps   []*App   `json:"apps,omitempty"`
	Groups []*Group `json:"groups,omitempty"`
}

// AllApps returns the apps of g and of all groups nested under it.
func (g *Group) AllApps() []*App {
	apps := append([]*App{}, g.Apps...)
	for _, sub := range g.Groups {
		apps = append(apps, sub.AllApps()...)
	}
	return apps
}

type Deployment struct {
	ID           string   `json:"id"`
	Version      string   `json:"version"`
	AffectedApps []string `json:"affectedApps"`
	CurrentStep  int      `json:"currentStep"`
	TotalSteps   int      `json:"totalSteps"`
}

// DeploymentResult is returned by Marathon for operations that start a deployment.
type DeploymentResult struct {
	Version      string `json:"version"`
	DeploymentId string `json:"deploymentId"`
}

type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	FrameworkId string `json:"frameworkId"`
	Leader      string `json:"leader"`
}

// NormalizeId returns id as an absolute Marathon path, e.g., "foo" becomes "/foo".
func NormalizeId(id string) string {
	return "/" + strings.Trim(id, "/")
}
