// Package scaleerrors contains the errors returned while driving scale tests.
//
// Errors that cause a scale test to be skipped (ErrResourceExhausted, ErrPriorFailure) are
// distinguished from errors that cause it to fail (ErrDeploymentTimeout, ErrExternalAPI).
// Callers should use IsSkip and IsFailure rather than comparing error types directly, since
// errors are usually wrapped using github.com/pkg/errors.
package scaleerrors

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ErrResourceExhausted indicates the cluster does not have enough free capacity for a test.
type ErrResourceExhausted struct {
	// Human-readable description of what was needed, e.g., "cpus=25.00 mem=25000.00 disk=0.00"
	Required string
	// Human-readable description of the capacity the requirement was compared against
	Available string
}

func (err *ErrResourceExhausted) Error() string {
	return fmt.Sprintf("insufficient resources: need %s, have %s", err.Required, err.Available)
}

// ErrPriorFailure indicates a smaller test of the same shape already failed on the same instance.
type ErrPriorFailure struct {
	Instance string
	Shape    string
}

func (err *ErrPriorFailure) Error() string {
	return fmt.Sprintf("smaller scale failed: a previous %s test on marathon %s failed", err.Shape, err.Instance)
}

// ErrDeploymentTimeout indicates a workload did not reach its target before the timeout.
type ErrDeploymentTimeout struct {
	Name     string
	Timeout  time.Duration
	Target   int
	Observed int
}

func (err *ErrDeploymentTimeout) Error() string {
	return fmt.Sprintf(
		"deployment of %s timed out after %s with %d of %d deployed",
		err.Name, err.Timeout, err.Observed, err.Target,
	)
}

// ErrExternalAPI wraps a failure reported by Marathon, Mesos, DC/OS or any other external system.
type ErrExternalAPI struct {
	// The system that failed, e.g., "marathon"
	System string
	// The operation that failed, e.g., "POST /v2/apps"
	Operation string
	// HTTP status code, or process exit code, if one is available
	Code    int
	Message string
}

func (err *ErrExternalAPI) Error() (s string) {
	s = fmt.Sprintf("%s: %s failed", err.System, err.Operation)
	if err.Code != 0 {
		s = s + fmt.Sprintf(" with code %d", err.Code)
	}
	if err.Message != "" {
		s = s + fmt.Sprintf("; %s", err.Message)
	}
	return
}

// ErrNotFound is a generic error to be returned whenever some resource isn't found.
// Type and Message are optional and are omitted from the error message if not provided.
type ErrNotFound struct {
	Type    string
	Value   string
	Message string
}

func (err *ErrNotFound) Error() (s string) {
	if err.Type != "" {
		s = fmt.Sprintf("resource %q of type %q does not exist", err.Value, err.Type)
	} else {
		s = fmt.Sprintf("resource %q does not exist", err.Value)
	}
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	} else {
		return s
	}
}

// ErrInvalidArgument is a generic error to be returned on invalid argument.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "scenario"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message to include with the error message, e.g., explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %q is invalid for field %q", err.Value, err.Name)
	} else {
		return fmt.Sprintf("value %q is invalid for field %q; %s", err.Value, err.Name, err.Message)
	}
}

// IsSkip returns true if err means a scale test should be skipped rather than failed.
func IsSkip(err error) bool {
	{
		var e *ErrResourceExhausted
		if errors.As(err, &e) {
			return true
		}
	}
	{
		var e *ErrPriorFailure
		if errors.As(err, &e) {
			return true
		}
	}
	return false
}

// IsFailure returns true if err is non-nil and does not indicate a skip.
func IsFailure(err error) bool {
	return err != nil && !IsSkip(err)
}

// IsTimeout returns true if err is, or wraps, an ErrDeploymentTimeout.
func IsTimeout(err error) bool {
	var e *ErrDeploymentTimeout
	return errors.As(err, &e)
}

// IsExternalAPI returns true if err is, or wraps, an ErrExternalAPI.
func IsExternalAPI(err error) bool {
	var e *ErrExternalAPI
	return errors.As(err, &e)
}

// IsNotFound returns true if err is, or wraps, an ErrNotFound.
func IsNotFound(err error) bool {
	var e *ErrNotFound
	return errors.As(err, &e)
}
