package scaletest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/mesosphere/marathon-scaletest/internal/common/scaleerrors"
	"github.com/mesosphere/marathon-scaletest/internal/scaletest/stats"
)

// Orchestrator runs scale tests one after the other against a single scheduler.
// Units of a shape are expected to be run smallest first: once one fails, all later units of
// the same shape and instance are skipped.
type Orchestrator struct {
	// Out is used to write per-unit results and the final report.
	Out io.Writer
	// Clock used to measure deploy times.
	Clock clock.PassiveClock
	// Optional. Receives the outcome of every unit.
	Metrics *Metrics

	config    *Config
	scheduler Scheduler
	prober    Prober
	memory    *FailureMemory
	runLog    *RunLog
	baseline  Resources
}

func NewOrchestrator(config *Config, scheduler Scheduler, prober Prober) *Orchestrator {
	return &Orchestrator{
		Out:       os.Stdout,
		Clock:     clock.RealClock{},
		config:    config,
		scheduler: scheduler,
		prober:    prober,
		memory:    NewFailureMemory(),
		runLog:    &RunLog{},
	}
}

func (o *Orchestrator) FailureMemory() *FailureMemory {
	return o.memory
}

func (o *Orchestrator) RunLog() *RunLog {
	return o.runLog
}

// Setup removes all apps and records the resources available before any unit runs.
func (o *Orchestrator) Setup(ctx context.Context) error {
	if err := o.scheduler.DeleteAll(ctx); err != nil {
		return errors.WithMessage(err, "error removing apps before the run")
	}
	available, err := o.prober.AvailableResources(ctx)
	if err != nil {
		return errors.WithMessage(err, "error probing available resources")
	}
	numApps, err := o.prober.DeployedAppCount(ctx)
	if err != nil {
		return errors.WithMessage(err, "error counting deployed apps")
	}
	o.baseline = available
	if o.Metrics != nil {
		o.Metrics.ReportAvailable(available)
	}
	_, _ = fmt.Fprintf(o.Out, "testing %s marathon\n", o.config.Instance)
	_, _ = fmt.Fprintf(o.Out, "available resources: %s, deployed apps: %d\n", available, numApps)
	return nil
}

// Run runs the scenario called name and appends the resulting unit to the run log.
// A skipped unit is not an error. A failed or aborted unit is returned together with the reason.
// Only failed units are recorded in the failure memory.
func (o *Orchestrator) Run(ctx context.Context, name string) (*Unit, error) {
	scenario, err := ParseScenario(name)
	if err != nil {
		return nil, err
	}
	unit := NewUnit(scenario, o.Clock)
	o.runLog.Append(unit)
	logger := log.WithField("scenario", name)

	err = o.run(ctx, unit)
	if unit.Status == StatusFailed {
		o.memory.RecordFailure(unit.Key())
	}
	if o.Metrics != nil {
		o.Metrics.ReportUnit(unit)
	}
	_, _ = fmt.Fprintln(o.Out, unit)
	if err != nil {
		logger.WithError(err).Warnf("scale test %s", unit.Status)
	}
	return unit, err
}

func (o *Orchestrator) run(ctx context.Context, unit *Unit) error {
	available, err := o.prober.AvailableResources(ctx)
	if err != nil {
		return o.abort(unit, errors.WithMessage(err, "error probing available resources"))
	}
	need := ScaleTestResources(unit.Scenario, o.config.App.PerInstance())
	usable := available.Scale(o.config.ResourceHeadroom)
	if need.Exceeds(usable) {
		return unit.Skip(errors.WithStack(&scaleerrors.ErrResourceExhausted{
			Required:  need.String(),
			Available: usable.String(),
		}))
	}
	if o.memory.HasPriorFailure(unit.Key()) {
		return unit.Skip(errors.WithStack(&scaleerrors.ErrPriorFailure{
			Instance: unit.Instance,
			Shape:    string(unit.Shape),
		}))
	}

	workload := unit.Workload()
	submitted := o.Clock.Now()
	if err := o.scheduler.Submit(ctx, workload); err != nil {
		return o.abort(unit, errors.WithMessagef(err, "error submitting %s", workload.ID))
	}
	if err := unit.StartAt(submitted); err != nil {
		return err
	}
	if err := o.waitForDeployment(ctx, unit, workload); err != nil {
		if failErr := unit.Fail(err); failErr != nil {
			return failErr
		}
		return err
	}
	return unit.Pass()
}

func (o *Orchestrator) abort(unit *Unit, reason error) error {
	if err := unit.Abort(reason); err != nil {
		return err
	}
	return reason
}

// waitForDeployment polls the scheduler until the workload is fully deployed or the deployment timeout expires.
// Errors reaching the scheduler API are retried at the next poll.
func (o *Orchestrator) waitForDeployment(ctx context.Context, unit *Unit, workload *Workload) error {
	timeout := o.config.Timeout.DeploymentTimeout(unit.NumInstances())
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(o.config.PollInterval)
	defer ticker.Stop()
	for {
		deployed, err := o.scheduler.Deployed(ctx, workload)
		switch {
		case err == nil:
			unit.Observe(deployed)
			if deployed >= workload.Target {
				return nil
			}
			log.WithField("scenario", unit.Name).Debugf("%d of %d deployed", deployed, workload.Target)
		case ctx.Err() != nil:
		case scaleerrors.IsExternalAPI(err) || scaleerrors.IsNotFound(err):
			log.WithField("scenario", unit.Name).WithError(err).Warn("error getting deployment status; retrying")
		default:
			return errors.WithMessagef(err, "error getting deployment status of %s", workload.ID)
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return errors.WithStack(&scaleerrors.ErrDeploymentTimeout{
					Name:     workload.ID,
					Timeout:  timeout,
					Target:   workload.Target,
					Observed: unit.Observed,
				})
			}
			return errors.WithStack(ctx.Err())
		case <-ticker.C:
		}
	}
}

// RunAll sets up the cluster, runs the scenarios in order and tears down afterwards.
// Teardown runs however the run ends. The returned error aggregates unit failures and teardown errors.
func (o *Orchestrator) RunAll(ctx context.Context, names []string) (result error) {
	defer func() {
		if err := o.Teardown(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}()

	if err := o.Setup(ctx); err != nil {
		return err
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, errors.WithMessage(err, "run interrupted"))
			return result
		}
		if _, err := o.Run(ctx, name); err != nil {
			result = multierror.Append(result, errors.WithMessagef(err, "scenario %s", name))
		}
	}
	return result
}

// Teardown writes the report of all units run so far and removes all apps.
// It may be called any number of times. If ctx is already cancelled, a fresh context bounded by
// the cleanup timeout is used.
func (o *Orchestrator) Teardown(ctx context.Context) error {
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), o.config.Timeout.Cleanup)
		defer cancel()
	}

	var result *multierror.Error
	if err := o.report(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := o.Cleanup(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// Cleanup removes all apps and waits for the removal to complete.
func (o *Orchestrator) Cleanup(ctx context.Context) error {
	if err := o.scheduler.DeleteAll(ctx); err != nil {
		return errors.WithMessage(err, "error removing apps")
	}
	return nil
}

func (o *Orchestrator) report(ctx context.Context) error {
	entries := o.Entries()
	report := stats.Collect(entries, o.standardKeys(), o.metadata(ctx))

	_, _ = fmt.Fprintf(o.Out, "\n======= SUMMARY =======\n")
	stats.PrintEntries(o.Out, entries)
	stats.PrintStatistics(o.Out, report)

	var result *multierror.Error
	output := o.config.Output
	if err := os.MkdirAll(output.Dir, 0o755); err != nil {
		return errors.WithStack(err)
	}
	csvPath := filepath.Join(output.Dir, output.CsvFile)
	metadataPath := filepath.Join(output.Dir, output.MetadataFile)
	if err := stats.ExportFiles(report, csvPath, metadataPath, o.Out); err != nil {
		result = multierror.Append(result, err)
	}
	if output.JunitFile != "" {
		if err := o.writeJUnit(filepath.Join(output.Dir, output.JunitFile), entries); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if o.Metrics != nil && o.config.Metrics.PushgatewayUrl != "" {
		if err := o.Metrics.Push(ctx, o.config.Metrics.PushgatewayUrl, o.config.Metrics.Job, o.config.Instance); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (o *Orchestrator) writeJUnit(path string, entries []stats.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	return stats.WriteJUnit(f, entries, o.Clock.Now())
}

// Entries converts the run log for the stats package.
func (o *Orchestrator) Entries() []stats.Entry {
	units := o.runLog.Units()
	entries := make([]stats.Entry, 0, len(units))
	for _, unit := range units {
		entry := stats.Entry{
			Name:       unit.Name,
			Instance:   unit.Instance,
			Shape:      string(unit.Shape),
			Magnitude:  unit.Magnitude(),
			Status:     string(unit.Status),
			DeployTime: unit.DeployTime,
			Observed:   unit.Observed,
		}
		if unit.Reason != nil {
			entry.Reason = unit.Reason.Error()
		}
		entries = append(entries, entry)
	}
	return entries
}

func (o *Orchestrator) standardKeys() []stats.Key {
	keys := make([]stats.Key, len(Shapes))
	for i, shape := range Shapes {
		keys[i] = stats.Key{Instance: o.config.Instance, Shape: string(shape)}
	}
	return keys
}

// metadata describes the run. Available resources are probed again and fall back to the baseline.
func (o *Orchestrator) metadata(ctx context.Context) map[string]interface{} {
	available, err := o.prober.AvailableResources(ctx)
	if err != nil {
		log.WithError(err).Warn("error probing available resources; reporting the baseline instead")
		available = o.baseline
	}
	return map[string]interface{}{
		"marathon": o.config.Instance,
		"cpus":     available.Cpus,
		"mem":      available.Mem,
	}
}
