package momee

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jstemmer/go-junit-report/v2/junit"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

type Status string

const (
	Passed  Status = "passed"
	Failed  Status = "failed"
	Skipped Status = "skipped"
)

type Result struct {
	Case     Case
	Status   Status
	Err      error
	Duration time.Duration
}

// Installation is implemented by Installer.
type Installation interface {
	Supported(ctx context.Context) (bool, error)
	Ensure(ctx context.Context, version string, mode SecurityMode) error
	SimpleSleepApp(ctx context.Context) error
	Teardown(ctx context.Context) error
}

// Suite installs the nested Marathon once per case and runs a sleep app on each installation.
type Suite struct {
	Out   io.Writer
	Clock clock.PassiveClock

	installation Installation
	config       *Config
}

func NewSuite(config *Config, installation Installation) *Suite {
	return &Suite{
		Out:          os.Stdout,
		Clock:        clock.RealClock{},
		installation: installation,
		config:       config,
	}
}

// Run runs all cases and tears the installation down afterwards. All cases are skipped on clusters
// older than MinimumDcosVersion. The returned error is non-nil if any case failed.
func (s *Suite) Run(ctx context.Context, cases []Case) (results []*Result, err error) {
	supported, err := s.installation.Supported(ctx)
	if err != nil {
		return nil, err
	}
	if !supported {
		for _, c := range cases {
			results = append(results, &Result{
				Case:   c,
				Status: Skipped,
				Err:    errors.Errorf("requires DC/OS %s or newer", MinimumDcosVersion),
			})
		}
		s.report(results)
		return results, nil
	}

	defer func() {
		if teardownErr := s.installation.Teardown(context.Background()); teardownErr != nil {
			log.WithError(teardownErr).Errorf("error tearing down %s", Name)
		}
		s.report(results)
	}()

	failed := 0
	for _, c := range cases {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		result := s.runCase(ctx, c)
		if result.Status == Failed {
			failed++
		}
		results = append(results, result)
	}
	if failed > 0 {
		return results, errors.Errorf("%d of %d case(s) failed", failed, len(cases))
	}
	return results, nil
}

func (s *Suite) runCase(ctx context.Context, c Case) *Result {
	fmt.Fprintf(s.Out, "=== RUN %s\n", c)
	start := s.Clock.Now()
	err := s.installation.Ensure(ctx, c.Version, c.Mode)
	if err == nil {
		err = s.installation.SimpleSleepApp(ctx)
	}
	result := &Result{Case: c, Status: Passed, Err: err, Duration: s.Clock.Since(start)}
	if err != nil {
		result.Status = Failed
		log.WithError(err).Errorf("%s failed", c)
	}
	fmt.Fprintf(s.Out, "--- %s: %s (%s)\n", result.Status, c, result.Duration)
	return result
}

func (s *Suite) report(results []*Result) {
	table := tablewriter.NewWriter(s.Out)
	table.SetHeader([]string{"Case", "Status", "Duration", "Error"})
	for _, r := range results {
		message := ""
		if r.Err != nil {
			message = r.Err.Error()
		}
		table.Append([]string{r.Case.String(), string(r.Status), r.Duration.String(), message})
	}
	table.Render()

	if s.config.JunitFile != "" {
		if err := writeJunit(s.config.JunitFile, results, s.Clock.Now()); err != nil {
			log.WithError(err).Error("error writing junit report")
		}
	}
}

func writeJunit(path string, results []*Result, timestamp time.Time) error {
	suite := junit.Testsuite{Name: Name}
	suite.SetTimestamp(timestamp)
	for _, r := range results {
		tc := junit.Testcase{
			Name:      r.Case.String(),
			Classname: Name,
			Time:      fmt.Sprintf("%.3f", r.Duration.Seconds()),
		}
		switch r.Status {
		case Failed:
			tc.Failure = &junit.Result{Message: "Failed", Data: r.Err.Error()}
		case Skipped:
			tc.Skipped = &junit.Result{Message: r.Err.Error()}
		}
		suite.AddTestcase(tc)
	}
	suites := junit.Testsuites{}
	suites.AddSuite(suite)

	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	return errors.WithStack(suites.WriteXML(f))
}
