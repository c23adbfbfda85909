package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// AppError is the unified engine error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// ExitCode is the process exit code the controller reports for this error.
	ExitCode int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable and exit code detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		ExitCode:  ExitCodeFor(code),
		Retryable: IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// ConfigInvalid creates a new AppError for a malformed pipeline or engine configuration.
func ConfigInvalid(reason string) *AppError {
	return &AppError{
		Code: ErrCodeConfigInvalid, Message: reason,
		ExitCode: ExitConfig, Retryable: false,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeConfigInvalid, Message: message,
		ExitCode: ExitConfig, Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeConfigInvalid, Message: fmt.Sprintf("Missing required field: %s", field),
		ExitCode: ExitConfig, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// CycleDetected creates a new AppError naming the stages participating in a
// dependency cycle.
func CycleDetected(stages []string) *AppError {
	return &AppError{
		Code:     ErrCodeCycleDetected,
		Message:  fmt.Sprintf("Dependency cycle involving stages: %s", strings.Join(stages, ", ")),
		ExitCode: ExitConfig, Retryable: false,
		Details: map[string]any{"stages": stages},
	}
}

// StepFailed creates a new AppError for an external command that returned an
// unexpected exit code.
func StepFailed(stage, step string, exitCode int) *AppError {
	return &AppError{
		Code:     ErrCodeStepFailed,
		Message:  fmt.Sprintf("Step %q in stage %q exited with code %d", step, stage, exitCode),
		ExitCode: ExitRunFailed, Retryable: true,
		Details: map[string]any{"stage": stage, "step": step, "exit_code": exitCode},
	}
}

// RunFailed creates a new AppError summarizing a failed pipeline run.
func RunFailed(stages []string) *AppError {
	return &AppError{
		Code:     ErrCodeStepFailed,
		Message:  fmt.Sprintf("Run failed; failing stages: %s", strings.Join(stages, ", ")),
		ExitCode: ExitRunFailed, Retryable: false,
		Details: map[string]any{"stages": stages},
	}
}

// Timeout creates a new AppError for a step that exceeded its timeout.
func Timeout(stage, step string) *AppError {
	return &AppError{
		Code:     ErrCodeTimeout,
		Message:  fmt.Sprintf("Step %q in stage %q timed out", step, stage),
		ExitCode: ExitRunFailed, Retryable: true,
		Details: map[string]any{"stage": stage, "step": step},
	}
}

// Canceled creates a new AppError for execution canceled before completion.
func Canceled(stage string) *AppError {
	return &AppError{
		Code:     ErrCodeCanceled,
		Message:  fmt.Sprintf("Stage %q was canceled", stage),
		ExitCode: ExitRunFailed, Retryable: false,
		Details: map[string]any{"stage": stage},
	}
}

// ArtifactConflict creates a new AppError for a duplicate artifact publish.
func ArtifactConflict(name, stage string) *AppError {
	return &AppError{
		Code:     ErrCodeArtifactConflict,
		Message:  fmt.Sprintf("Artifact %q was already published; names are write-once", name),
		ExitCode: ExitRunFailed, Retryable: false,
		Details: map[string]any{"artifact": name, "stage": stage},
	}
}

// ArtifactPublishFailed creates a new AppError for a declared output that
// could not be copied into the store.
func ArtifactPublishFailed(name, src string) *AppError {
	return &AppError{
		Code:     ErrCodeArtifactPublishFailed,
		Message:  fmt.Sprintf("Artifact %q could not be published from %s", name, src),
		ExitCode: ExitRunFailed, Retryable: false,
		Details: map[string]any{"artifact": name, "source": src},
	}
}

// ArtifactNotFound creates a new AppError for a missing artifact.
func ArtifactNotFound(name string) *AppError {
	return &AppError{
		Code:     ErrCodeArtifactNotFound,
		Message:  fmt.Sprintf("Artifact %q was never successfully published", name),
		ExitCode: ExitRunFailed, Retryable: false,
		Details: map[string]any{"artifact": name},
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		ExitCode: ExitConfig, Retryable: false, Details: details,
	}
}

// Internal creates a new AppError for an unexpected engine error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected engine error occurred.",
		ExitCode: ExitInternal, Retryable: false, Cause: cause,
	}
}

// --- Inspection helpers ---

// Code extracts the ErrorCode from an error chain. Returns ErrCodeInternal
// for non-AppError errors and "" for nil.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// ExitCode extracts the process exit code from an error chain.
// Returns ExitOK for nil and ExitInternal for non-AppError errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.ExitCode
	}
	return ExitInternal
}

// IsCode reports whether any error in the chain carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}
