package errors

import (
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineErrorError(t *testing.T) {
	testCases := []struct {
		name     string
		err      *PipelineError
		expected string
	}{
		{
			name:     "stage exit",
			err:      NewStageExitError("pandoc-crossref html", 2),
			expected: "[ERR_STAGE_FAILED] command:pandoc-crossref html exited with code 2",
		},
		{
			name:     "signal termination",
			err:      NewSignalError("mermaid-filter", "SIGKILL"),
			expected: "[ERR_STAGE_SIGNALED] command:mermaid-filter terminated by signal SIGKILL",
		},
		{
			name:     "config error",
			err:      NewConfigError(ErrCodeMissingOutputFile, "outputFile is required"),
			expected: "[ERR_MISSING_OUTPUT_FILE] outputFile is required",
		},
		{
			name:     "cause appended",
			err:      NewIOError(ErrCodeCopyFailed, "copy failed", fmt.Errorf("disk full")),
			expected: "[ERR_COPY_FAILED] copy failed: disk full",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestPipelineErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := NewSpawnError("pandoc", cause)

	assert.Equal(t, cause, goerrors.Unwrap(err))
	assert.True(t, goerrors.Is(err, cause))
}

func TestPipelineErrorIs(t *testing.T) {
	a := NewStageExitError("pandoc", 1)
	b := NewStageExitError("mermaid-filter", 42)
	c := NewSignalError("pandoc", "SIGTERM")

	assert.True(t, goerrors.Is(a, b))
	assert.False(t, goerrors.Is(a, c))
}

func TestClassifiers(t *testing.T) {
	stage := NewStageExitError("pandoc", 1)
	signal := NewSignalError("pandoc", "SIGINT")
	config := NewConfigError(ErrCodeMergeConflict, "shape mismatch")
	plain := fmt.Errorf("plain")

	assert.True(t, IsStageError(stage))
	assert.True(t, IsStageError(signal))
	assert.False(t, IsStageError(config))
	assert.False(t, IsStageError(plain))

	assert.True(t, IsSignalError(signal))
	assert.False(t, IsSignalError(stage))

	assert.True(t, IsConfigError(config))
	assert.False(t, IsConfigError(stage))

	assert.True(t, IsRecoverable(stage))
	assert.False(t, IsRecoverable(config))
	assert.False(t, IsRecoverable(plain))
}

func TestClassifiersSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("run failed: %w", NewStageExitError("pandoc", 3))

	assert.True(t, IsStageError(wrapped))
	assert.Equal(t, 3, ExitStatus(wrapped))
}

func TestExitStatus(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil is success", err: nil, expected: 0},
		{name: "stage exit code propagates", err: NewStageExitError("pandoc", 2), expected: 2},
		{name: "signal collapses to one", err: NewSignalError("pandoc", "SIGKILL"), expected: 1},
		{name: "config collapses to one", err: NewConfigError(ErrCodeInvalidOption, "bad"), expected: 1},
		{name: "plain error collapses to one", err: fmt.Errorf("boom"), expected: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExitStatus(tc.err))
		})
	}
}

func TestWithContext(t *testing.T) {
	err := NewConfigError(ErrCodeInvalidOption, "bad watchWait").
		WithContext("watchWait", -5)

	require.NotNil(t, err.Context)
	assert.Equal(t, -5, err.Context["watchWait"])
}
