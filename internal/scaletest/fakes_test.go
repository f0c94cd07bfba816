package scaletest

import (
	"context"
	"sync"
	"testing"
	"time"

	clocktesting "k8s.io/utils/clock/testing"
)

var testStart = time.Date(2022, 10, 1, 12, 0, 0, 0, time.UTC)

// fakeScheduler deploys each workload progressively: progress returns the magnitude deployed at the n-th poll.
// Every poll advances the clock by step.
type fakeScheduler struct {
	clock     *clocktesting.FakeClock
	step      time.Duration
	progress  func(workload *Workload, poll int) int
	submitErr error
	// Errors returned when submitting particular workloads, by workload ID.
	failSubmit map[string]error
	// Optional. A non-nil result is returned instead of the deployed magnitude.
	pollErr func(workload *Workload, poll int) error

	mu          sync.Mutex
	submitted   []string
	polls       map[string]int
	live        map[string]bool
	deleteCalls int
}

func newFakeScheduler(clock *clocktesting.FakeClock) *fakeScheduler {
	return &fakeScheduler{
		clock: clock,
		step:  time.Second,
		progress: func(workload *Workload, poll int) int {
			if poll < 2 {
				return workload.Target / 2
			}
			return workload.Target
		},
		polls: make(map[string]int),
		live:  make(map[string]bool),
	}
}

func (s *fakeScheduler) Submit(_ context.Context, workload *Workload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitErr != nil {
		return s.submitErr
	}
	if err := s.failSubmit[workload.ID]; err != nil {
		return err
	}
	s.submitted = append(s.submitted, workload.ID)
	s.live[workload.ID] = true
	return nil
}

func (s *fakeScheduler) Deployed(_ context.Context, workload *Workload) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[workload.ID]++
	s.clock.Step(s.step)
	if s.pollErr != nil {
		if err := s.pollErr(workload, s.polls[workload.ID]); err != nil {
			return 0, err
		}
	}
	return s.progress(workload, s.polls[workload.ID]), nil
}

func (s *fakeScheduler) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	s.live = make(map[string]bool)
	return nil
}

func (s *fakeScheduler) Submitted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.submitted...)
}

func (s *fakeScheduler) NumLive() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

type fakeProber struct {
	available Resources
	err       error
	// If set, AvailableResources returns err only on this call, counting from 1.
	failOnCall int

	mu    sync.Mutex
	calls int
}

func (p *fakeProber) AvailableResources(context.Context) (Resources, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failOnCall != 0 && p.calls != p.failOnCall {
		return p.available, nil
	}
	return p.available, p.err
}

func (p *fakeProber) DeployedAppCount(context.Context) (int, error) {
	return 0, p.err
}

func testConfig(t *testing.T) *Config {
	config := DefaultConfig()
	config.PollInterval = time.Millisecond
	config.Timeout = TimeoutConfig{
		Min:     100 * time.Millisecond,
		Max:     100 * time.Millisecond,
		Cleanup: time.Second,
	}
	config.Output.Dir = t.TempDir()
	return config
}

func plentyOfResources() *fakeProber {
	return &fakeProber{available: Resources{Cpus: 1000, Mem: 1000000, Disk: 1000000}}
}
