package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_CapturesOutput(t *testing.T) {
	runner := &ExecRunner{}
	result, err := runner.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "err\n", result.Stderr)
	assert.Equal(t, 0, result.ExitCode)
	assert.True(t, result.Success())
}

func TestExecRunner_NonZeroExitIsNotAnError(t *testing.T) {
	runner := &ExecRunner{}
	result, err := runner.Run(context.Background(), "sh", "-c", "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.False(t, result.Success())
}

func TestExecRunner_Env(t *testing.T) {
	runner := &ExecRunner{Env: []string{"SCALETEST_CMD_TEST=hello"}}
	result, err := runner.Run(context.Background(), "sh", "-c", "printf %s \"$SCALETEST_CMD_TEST\"")
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Stdout)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	runner := &ExecRunner{}
	_, err := runner.Run(context.Background(), "definitely-not-a-real-binary-xyz")
	assert.Error(t, err)
}
