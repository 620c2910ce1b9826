package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeConfig ErrorType = "config"
	ErrorTypeStage  ErrorType = "stage"
	ErrorTypeSignal ErrorType = "signal"
	ErrorTypeCopy   ErrorType = "copy"
	ErrorTypeIO     ErrorType = "io"
	ErrorTypeWatch  ErrorType = "watch"
)

// PipelineError is a structured error type with context. Stage failures
// carry the offending command plus its exit code or terminating signal so
// that callers can map them onto a process exit status.
type PipelineError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Command     string
	ExitCode    int
	Signal      string
	Recoverable bool
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Command != "" {
		parts = append(parts, "command:"+e.Command)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *PipelineError) Is(target error) bool {
	var t *PipelineError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *PipelineError) WithContext(key string, value interface{}) *PipelineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithCommand records the command a failure belongs to.
func (e *PipelineError) WithCommand(command string) *PipelineError {
	e.Command = command

	return e
}

// Error creation functions

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *PipelineError {
	return &PipelineError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewConfigErrorWithCause creates a configuration error wrapping a cause.
func NewConfigErrorWithCause(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewStageExitError creates an error for a stage that exited nonzero.
func NewStageExitError(command string, exitCode int) *PipelineError {
	return &PipelineError{
		Type:        ErrorTypeStage,
		Code:        ErrCodeStageFailed,
		Message:     fmt.Sprintf("exited with code %d", exitCode),
		Command:     command,
		ExitCode:    exitCode,
		Recoverable: true,
	}
}

// NewSignalError creates an error for a stage terminated by a signal. The
// signal name is the canonical constant name, for example SIGKILL.
func NewSignalError(command, signal string) *PipelineError {
	return &PipelineError{
		Type:        ErrorTypeSignal,
		Code:        ErrCodeStageSignaled,
		Message:     "terminated by signal " + signal,
		Command:     command,
		Signal:      signal,
		Recoverable: true,
	}
}

// NewSpawnError creates an error for a stage that could not be started.
func NewSpawnError(command string, cause error) *PipelineError {
	return &PipelineError{
		Type:        ErrorTypeStage,
		Code:        ErrCodeStageSpawn,
		Message:     "failed to start",
		Cause:       cause,
		Command:     command,
		Recoverable: false,
	}
}

// NewCopyError creates a resource copy error.
func NewCopyError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:        ErrorTypeCopy,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewWatchError creates a watch mode error.
func NewWatchError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:        ErrorTypeWatch,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// Error classification utilities

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type == ErrorTypeConfig
	}

	return false
}

// IsStageError checks if an error came from a pipeline stage, whether it
// exited nonzero, was signaled, or never started.
func IsStageError(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type == ErrorTypeStage || pe.Type == ErrorTypeSignal
	}

	return false
}

// IsSignalError checks if an error records a signal termination.
func IsSignalError(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type == ErrorTypeSignal
	}

	return false
}

// IsRecoverable checks if an error is recoverable. Watch mode keeps running
// after recoverable run failures and stops on everything else.
func IsRecoverable(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Recoverable
	}

	return false
}

// ExitStatus maps an error onto a process exit status. A failed stage
// contributes its own exit code, anything else collapses to 1, and nil
// means success.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}

	var pe *PipelineError
	if errors.As(err, &pe) && pe.Type == ErrorTypeStage && pe.ExitCode != 0 {
		return pe.ExitCode
	}

	return 1
}

// Common error codes.
const (
	ErrCodeOptionsFileNotFound = "ERR_OPTIONS_FILE_NOT_FOUND"
	ErrCodeOptionsFileParse    = "ERR_OPTIONS_FILE_PARSE"
	ErrCodeOptionsFileShape    = "ERR_OPTIONS_FILE_SHAPE"
	ErrCodeMergeConflict       = "ERR_MERGE_CONFLICT"
	ErrCodeMissingInputFiles   = "ERR_MISSING_INPUT_FILES"
	ErrCodeMissingOutputFile   = "ERR_MISSING_OUTPUT_FILE"
	ErrCodeInvalidOption       = "ERR_INVALID_OPTION"
	ErrCodeStageFailed         = "ERR_STAGE_FAILED"
	ErrCodeStageSignaled       = "ERR_STAGE_SIGNALED"
	ErrCodeStageSpawn          = "ERR_STAGE_SPAWN"
	ErrCodeCopySelf            = "ERR_COPY_SELF"
	ErrCodeCopyFailed          = "ERR_COPY_FAILED"
	ErrCodeSandboxConfig       = "ERR_SANDBOX_CONFIG"
	ErrCodeAssetMaterialize    = "ERR_ASSET_MATERIALIZE"
	ErrCodeOutputDir           = "ERR_OUTPUT_DIR"
	ErrCodeWatchSetup          = "ERR_WATCH_SETUP"
)
