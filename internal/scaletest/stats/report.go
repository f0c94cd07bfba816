// Package stats reduces the units of a scale test run into per-shape series and writes them out.
package stats

import (
	"time"

	gostats "github.com/montanaflynn/stats"
)

// Entry is a finished unit as seen by the stats collector.
type Entry struct {
	Name       string
	Instance   string
	Shape      string
	Magnitude  int
	Status     string
	DeployTime time.Duration
	Observed   int
	Reason     string
}

func (e *Entry) Key() Key {
	return Key{Instance: e.Instance, Shape: e.Shape}
}

// Key identifies a series: one Marathon instance and one shape.
type Key struct {
	Instance string
	Shape    string
}

// Series holds, in run order, the target magnitude and deploy time of every unit of one shape.
type Series struct {
	Key
	Targets []int
	// Deploy times in seconds. Skipped and aborted units contribute 0.
	DeployTimes []float64
	Observed    []int
	Statuses    []string
}

// Statistics over the deploy times of the passed units of a series, in seconds.
type Statistics struct {
	Count             int     `json:"count"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	Average           float64 `json:"average"`
	Median            float64 `json:"median"`
	Variance          float64 `json:"variance"`
	StandardDeviation float64 `json:"standardDeviation"`
}

// Statistics returns nil if no unit of the series passed.
func (s *Series) Statistics() *Statistics {
	var passed gostats.Float64Data
	for i, status := range s.Statuses {
		if status == "passed" {
			passed = append(passed, s.DeployTimes[i])
		}
	}
	if len(passed) == 0 {
		return nil
	}
	result := &Statistics{Count: len(passed)}
	result.Min, _ = gostats.Min(passed)
	result.Max, _ = gostats.Max(passed)
	result.Average, _ = gostats.Mean(passed)
	result.Median, _ = gostats.Median(passed)
	if len(passed) > 1 {
		result.Variance, _ = gostats.SampleVariance(passed)
		result.StandardDeviation, _ = gostats.StandardDeviationSample(passed)
	}
	return result
}

// MaxObserved returns the largest magnitude deployed by any unit of the series.
func (s *Series) MaxObserved() int {
	m := 0
	for _, observed := range s.Observed {
		if observed > m {
			m = observed
		}
	}
	return m
}

// Report is derived from a run log and not modified afterwards.
type Report struct {
	Series   []*Series
	Metadata map[string]interface{}
}

// Get returns the series for key, or nil if there is none.
func (r *Report) Get(key Key) *Series {
	for _, s := range r.Series {
		if s.Key == key {
			return s
		}
	}
	return nil
}

// Collect groups entries by key. Series for the keys in standard are always present and come first,
// in the order given; other series follow in the order their first entry appears.
func Collect(entries []Entry, standard []Key, metadata map[string]interface{}) *Report {
	report := &Report{Metadata: make(map[string]interface{})}
	for k, v := range metadata {
		report.Metadata[k] = v
	}
	for _, key := range standard {
		if report.Get(key) == nil {
			report.Series = append(report.Series, &Series{Key: key})
		}
	}
	for _, entry := range entries {
		series := report.Get(entry.Key())
		if series == nil {
			series = &Series{Key: entry.Key()}
			report.Series = append(report.Series, series)
		}
		series.Targets = append(series.Targets, entry.Magnitude)
		series.DeployTimes = append(series.DeployTimes, entry.DeployTime.Seconds())
		series.Observed = append(series.Observed, entry.Observed)
		series.Statuses = append(series.Statuses, entry.Status)
	}
	return report
}
