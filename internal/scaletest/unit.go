package scaletest

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	// The unit could not be started because an external API failed. Unlike a failure, it
	// says nothing about whether the scheduler copes with the unit's scale.
	StatusAborted Status = "aborted"
)

func (s Status) Terminal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusSkipped || s == StatusAborted
}

// UnitEvent records a status transition of a unit.
type UnitEvent struct {
	Status Status
	Time   time.Time
}

// Unit is a single scale test.
// Units move from pending to running and from there to passed or failed, or directly from pending
// to skipped or aborted.
type Unit struct {
	Scenario
	Status Status
	// Why the unit was skipped or failed.
	Reason error
	// Time from submitting the workload until the unit passed or failed.
	DeployTime time.Duration
	// Largest magnitude seen deployed while the unit was running.
	Observed int
	Events   []UnitEvent

	clock     clock.PassiveClock
	submitted time.Time
}

func NewUnit(scenario Scenario, clock clock.PassiveClock) *Unit {
	u := &Unit{
		Scenario: scenario,
		Status:   StatusPending,
		clock:    clock,
	}
	u.Events = append(u.Events, UnitEvent{Status: StatusPending, Time: clock.Now()})
	return u
}

// Start marks the workload as submitted. Deploy time is measured from here.
func (u *Unit) Start() error {
	return u.StartAt(u.clock.Now())
}

// StartAt marks the workload as submitted at the given time.
func (u *Unit) StartAt(submitted time.Time) error {
	if err := u.transitionAt(StatusPending, StatusRunning, submitted); err != nil {
		return err
	}
	u.submitted = submitted
	return nil
}

func (u *Unit) Pass() error {
	if err := u.transition(StatusRunning, StatusPassed); err != nil {
		return err
	}
	u.DeployTime = u.Events[len(u.Events)-1].Time.Sub(u.submitted)
	return nil
}

func (u *Unit) Fail(reason error) error {
	if err := u.transition(StatusRunning, StatusFailed); err != nil {
		return err
	}
	u.Reason = reason
	u.DeployTime = u.Events[len(u.Events)-1].Time.Sub(u.submitted)
	return nil
}

func (u *Unit) Skip(reason error) error {
	if err := u.transition(StatusPending, StatusSkipped); err != nil {
		return err
	}
	u.Reason = reason
	return nil
}

// Observe records the currently deployed magnitude.
func (u *Unit) Observe(deployed int) {
	if deployed > u.Observed {
		u.Observed = deployed
	}
}

// Abort ends a unit that was never submitted without counting it as failed.
func (u *Unit) Abort(reason error) error {
	if err := u.transition(StatusPending, StatusAborted); err != nil {
		return err
	}
	u.Reason = reason
	return nil
}

func (u *Unit) transition(from Status, to Status) error {
	return u.transitionAt(from, to, u.clock.Now())
}

func (u *Unit) transitionAt(from Status, to Status, at time.Time) error {
	if u.Status != from {
		return errors.Errorf("unit %s cannot move from %s to %s", u.Name, u.Status, to)
	}
	u.Status = to
	u.Events = append(u.Events, UnitEvent{Status: to, Time: at})
	return nil
}

// Workload returns the definition of what the unit deploys.
func (u *Unit) Workload() *Workload {
	return &Workload{
		ID:              workloadId(u.Scenario),
		Shape:           u.Shape,
		Apps:            u.Apps,
		InstancesPerApp: u.InstancesPerApp,
		Target:          u.Magnitude(),
	}
}

func (u *Unit) String() string {
	s := fmt.Sprintf("%s: %s", u.Name, u.Status)
	switch u.Status {
	case StatusPassed:
		s += fmt.Sprintf(" in %s", u.DeployTime)
	case StatusFailed:
		s += fmt.Sprintf(" after %s (%d of %d deployed)", u.DeployTime, u.Observed, u.Magnitude())
	}
	if u.Reason != nil {
		s += fmt.Sprintf("; %s", u.Reason)
	}
	return s
}
