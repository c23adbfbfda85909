package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors (fatal, surfaced before any stage runs)
const (
	// ErrCodeConfigInvalid indicates a malformed pipeline or engine configuration.
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ErrCodeCycleDetected indicates the stage dependency graph contains a cycle.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"
)

// Execution errors (stage-local)
const (
	// ErrCodeStepFailed indicates an external command returned an unexpected exit code.
	ErrCodeStepFailed ErrorCode = "STEP_FAILED"
	// ErrCodeTimeout indicates a step exceeded its timeout.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeCanceled indicates execution was canceled before completion.
	ErrCodeCanceled ErrorCode = "CANCELED"
)

// Artifact errors
const (
	// ErrCodeArtifactConflict indicates a duplicate publish under one artifact name.
	ErrCodeArtifactConflict ErrorCode = "ARTIFACT_CONFLICT"
	// ErrCodeArtifactNotFound indicates a referenced artifact was never successfully published.
	ErrCodeArtifactNotFound ErrorCode = "ARTIFACT_NOT_FOUND"
	// ErrCodeArtifactPublishFailed indicates a producer's declared output could not
	// be copied into the store.
	ErrCodeArtifactPublishFailed ErrorCode = "ARTIFACT_PUBLISH_FAILED"
)

// Internal errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates an unexpected engine error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Process exit codes reported by the controller. Configuration problems are
// distinguished from stage execution failures so callers can tell a rejected
// pipeline apart from a pipeline that ran and failed.
const (
	ExitOK        = 0
	ExitRunFailed = 1
	ExitConfig    = 2
	ExitInternal  = 3
)

var exitCodes = map[ErrorCode]int{
	ErrCodeConfigInvalid:         ExitConfig,
	ErrCodeCycleDetected:         ExitConfig,
	ErrCodeStepFailed:            ExitRunFailed,
	ErrCodeTimeout:               ExitRunFailed,
	ErrCodeCanceled:              ExitRunFailed,
	ErrCodeArtifactConflict:      ExitRunFailed,
	ErrCodeArtifactNotFound:      ExitRunFailed,
	ErrCodeArtifactPublishFailed: ExitRunFailed,
	ErrCodeNotFound:              ExitConfig,
	ErrCodeInternal:              ExitInternal,
}

// ExitCodeFor returns the process exit code associated with an error code.
func ExitCodeFor(code ErrorCode) int {
	if ec, ok := exitCodes[code]; ok {
		return ec
	}
	return ExitInternal
}

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:    true,
	ErrCodeStepFailed: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
// Retry policy itself belongs to the step definition, not the engine.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
