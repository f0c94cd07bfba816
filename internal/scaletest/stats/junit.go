package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/jstemmer/go-junit-report/v2/junit"
	"github.com/pkg/errors"
)

// WriteJUnit writes entries as a junit report with one test suite per series.
func WriteJUnit(out io.Writer, entries []Entry, timestamp time.Time) error {
	var order []Key
	suites := make(map[Key]*junit.Testsuite)
	durations := make(map[Key]time.Duration)
	for _, entry := range entries {
		key := entry.Key()
		suite, ok := suites[key]
		if !ok {
			suite = &junit.Testsuite{
				Name: fmt.Sprintf("%s.%s", entry.Instance, entry.Shape),
				ID:   len(order),
			}
			suite.SetTimestamp(timestamp.UTC())
			suites[key] = suite
			order = append(order, key)
		}
		testcase := junit.Testcase{
			Name:      entry.Name,
			Classname: suite.Name,
			Time:      seconds(entry.DeployTime),
			Status:    entry.Status,
		}
		switch entry.Status {
		case "skipped":
			testcase.Skipped = &junit.Result{Message: entry.Reason}
		case "failed":
			testcase.Failure = &junit.Result{Message: entry.Reason, Type: "failure", Data: entry.Reason}
		case "aborted":
			testcase.Error = &junit.Result{Message: entry.Reason, Type: "error", Data: entry.Reason}
		}
		suite.AddTestcase(testcase)
		durations[key] += entry.DeployTime
	}

	report := &junit.Testsuites{Name: "marathon-scaletest"}
	var total time.Duration
	for _, key := range order {
		suite := suites[key]
		suite.Time = seconds(durations[key])
		total += durations[key]
		report.AddSuite(*suite)
	}
	report.Time = seconds(total)
	return errors.WithStack(report.WriteXML(out))
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
