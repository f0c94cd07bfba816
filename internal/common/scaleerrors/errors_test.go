package scaleerrors

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	tests := map[string]struct {
		err       error
		isSkip    bool
		isFailure bool
		isTimeout bool
	}{
		"nil":                           {nil, false, false, false},
		"ErrResourceExhausted":          {&ErrResourceExhausted{}, true, false, false},
		"ErrPriorFailure":               {&ErrPriorFailure{}, true, false, false},
		"ErrDeploymentTimeout":          {&ErrDeploymentTimeout{}, false, true, true},
		"ErrExternalAPI":                {&ErrExternalAPI{}, false, true, false},
		"pkg.Error => ErrPriorFailure":   {errors.WithMessage(&ErrPriorFailure{}, "foo"), true, false, false},
		"pkg.Error => ErrDeploymentTimeout": {
			errors.WithStack(&ErrDeploymentTimeout{}), false, true, true,
		},
		"pkg.Error": {errors.New("foo"), false, true, false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.isSkip, IsSkip(tc.err))
			assert.Equal(t, tc.isFailure, IsFailure(tc.err))
			assert.Equal(t, tc.isTimeout, IsTimeout(tc.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := map[string]struct {
		err  error
		want string
	}{
		"resource exhausted": {
			&ErrResourceExhausted{Required: "cpus=10.00", Available: "cpus=4.00"},
			"insufficient resources: need cpus=10.00, have cpus=4.00",
		},
		"prior failure": {
			&ErrPriorFailure{Instance: "root", Shape: "count"},
			"smaller scale failed: a previous count test on marathon root failed",
		},
		"timeout": {
			&ErrDeploymentTimeout{Name: "test_root_apps_instances_1_10", Timeout: time.Minute, Target: 10, Observed: 3},
			"deployment of test_root_apps_instances_1_10 timed out after 1m0s with 3 of 10 deployed",
		},
		"external api with code": {
			&ErrExternalAPI{System: "marathon", Operation: "POST /v2/apps", Code: 409, Message: "conflict"},
			"marathon: POST /v2/apps failed with code 409; conflict",
		},
		"external api without code": {
			&ErrExternalAPI{System: "mesos", Operation: "GET /mesos/state-summary"},
			"mesos: GET /mesos/state-summary failed",
		},
		"not found": {
			&ErrNotFound{Type: "app", Value: "/foo"},
			`resource "/foo" of type "app" does not exist`,
		},
		"invalid argument": {
			&ErrInvalidArgument{Name: "scenario", Value: "bad", Message: "unknown shape"},
			`value "bad" is invalid for field "scenario"; unknown shape`,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(errors.WithStack(&ErrNotFound{Value: "x"})))
	assert.False(t, IsNotFound(errors.New("x")))
}

func TestIsExternalAPI(t *testing.T) {
	assert.True(t, IsExternalAPI(errors.WithMessage(&ErrExternalAPI{System: "mesos"}, "probing")))
	assert.False(t, IsExternalAPI(errors.WithStack(&ErrDeploymentTimeout{})))
}
