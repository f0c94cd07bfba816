// Package command runs local processes and the dcos CLI, capturing their output.
package command

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success returns true if the process exited with code 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Runner runs commands. Implementations must not return an error for a non-zero exit code;
// errors are reserved for processes that could not be started at all.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// ExecRunner runs commands as local processes.
type ExecRunner struct {
	// Optional directory to run commands in.
	Dir string
	// Optional extra environment variables, in KEY=VALUE form.
	Env []string
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	log.Infof("Running: %s %s", name, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	} else if err != nil {
		return nil, errors.WithStack(err)
	}

	log.WithFields(log.Fields{
		"command":  name,
		"exitCode": result.ExitCode,
	}).Debugf("stdout: %s stderr: %s", result.Stdout, result.Stderr)
	return result, nil
}

// Dcos runs the dcos CLI with the provided arguments using runner.
func Dcos(ctx context.Context, runner Runner, args ...string) (*Result, error) {
	return runner.Run(ctx, "dcos", args...)
}
