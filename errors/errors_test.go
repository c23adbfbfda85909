package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.ExitCode != ExitConfig {
		t.Errorf("expected exit code %d, got %d", ExitConfig, err.ExitCode)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out")
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_CycleDetected(t *testing.T) {
	err := CycleDetected([]string{"build", "deploy"})
	if err.Code != ErrCodeCycleDetected {
		t.Errorf("expected CYCLE_DETECTED, got %s", err.Code)
	}
	if err.ExitCode != ExitConfig {
		t.Errorf("expected exit code %d, got %d", ExitConfig, err.ExitCode)
	}
	if !strings.Contains(err.Message, "build") || !strings.Contains(err.Message, "deploy") {
		t.Errorf("expected cycle members in message, got %q", err.Message)
	}
}

func TestAppError_StepFailed(t *testing.T) {
	err := StepFailed("trivy", "scan-image", 1)
	if err.Code != ErrCodeStepFailed {
		t.Errorf("expected STEP_FAILED, got %s", err.Code)
	}
	if err.ExitCode != ExitRunFailed {
		t.Errorf("expected exit code %d, got %d", ExitRunFailed, err.ExitCode)
	}
	if err.Details["stage"] != "trivy" || err.Details["step"] != "scan-image" {
		t.Errorf("unexpected details: %v", err.Details)
	}
	if err.Details["exit_code"] != 1 {
		t.Errorf("expected exit_code=1, got %v", err.Details["exit_code"])
	}
}

func TestAppError_ArtifactConflict(t *testing.T) {
	err := ArtifactConflict("app-package", "build")
	if err.Code != ErrCodeArtifactConflict {
		t.Errorf("expected ARTIFACT_CONFLICT, got %s", err.Code)
	}
	if err.Details["artifact"] != "app-package" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestAppError_ArtifactNotFound(t *testing.T) {
	err := ArtifactNotFound("scan-report")
	if err.Code != ErrCodeArtifactNotFound {
		t.Errorf("expected ARTIFACT_NOT_FOUND, got %s", err.Code)
	}
	if err.Retryable {
		t.Error("ArtifactNotFound should not be retryable")
	}
}

func TestAppError_Internal_Success(t *testing.T) {
	cause := fmt.Errorf("worker panicked")
	err := Internal(cause)
	if err.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", err.Code)
	}
	if err.ExitCode != ExitInternal {
		t.Errorf("expected exit code %d, got %d", ExitInternal, err.ExitCode)
	}
	if err.Cause != cause {
		t.Error("expected cause to be set")
	}
}

func TestAppError_Error_WithCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := ConfigInvalid("bad pipeline").WithCause(cause)
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to match the cause")
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := ConfigInvalid("bad pipeline").WithDetail("file", "pipeline.yml")
	if err.Details["file"] != "pipeline.yml" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestCode_Extraction(t *testing.T) {
	if Code(nil) != "" {
		t.Error("expected empty code for nil")
	}
	wrapped := fmt.Errorf("wrapped: %w", CycleDetected([]string{"a", "b"}))
	if Code(wrapped) != ErrCodeCycleDetected {
		t.Errorf("expected CYCLE_DETECTED, got %s", Code(wrapped))
	}
	if Code(fmt.Errorf("plain")) != ErrCodeInternal {
		t.Error("expected INTERNAL_ERROR for plain errors")
	}
}

func TestExitCode_Extraction(t *testing.T) {
	if ExitCode(nil) != ExitOK {
		t.Error("expected ExitOK for nil")
	}
	if ExitCode(ConfigInvalid("bad")) != ExitConfig {
		t.Error("expected ExitConfig for config errors")
	}
	if ExitCode(StepFailed("build", "compile", 2)) != ExitRunFailed {
		t.Error("expected ExitRunFailed for step failures")
	}
	if ExitCode(fmt.Errorf("plain")) != ExitInternal {
		t.Error("expected ExitInternal for plain errors")
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", ArtifactNotFound("x"))
	if !IsCode(err, ErrCodeArtifactNotFound) {
		t.Error("expected IsCode to match through wrapping")
	}
	if IsCode(err, ErrCodeArtifactConflict) {
		t.Error("expected IsCode to reject a different code")
	}
}
