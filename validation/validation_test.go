package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/stageflow/errors"
)

func TestValidator_NoErrors(t *testing.T) {
	v := New().Required("name", "build").Min("workers", 2, 1)
	if v.HasErrors() {
		t.Fatalf("unexpected errors: %v", v.Errors())
	}
	if err := v.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidator_Required(t *testing.T) {
	v := New().Required("name", "  ")
	if !v.HasErrors() {
		t.Fatal("expected error for blank value")
	}
	appErr := v.Validate()
	if appErr.Code != errors.ErrCodeConfigInvalid {
		t.Errorf("expected CONFIG_INVALID, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "name") {
		t.Errorf("expected field name in message, got %q", appErr.Message)
	}
}

func TestValidator_OneOf(t *testing.T) {
	v := New().OneOf("condition", "sometimes", []string{"succeeded", "always"})
	if !v.HasErrors() {
		t.Fatal("expected error for invalid value")
	}

	v = New().OneOf("condition", "always", []string{"succeeded", "always"})
	if v.HasErrors() {
		t.Fatal("expected no error for allowed value")
	}
}

func TestValidator_Unique(t *testing.T) {
	v := New().Unique("stages", []string{"build", "scan", "build"})
	if !v.HasErrors() {
		t.Fatal("expected error for duplicate stage id")
	}
	if !strings.Contains(v.Errors()[0].Message, "build") {
		t.Errorf("expected duplicate name in message, got %q", v.Errors()[0].Message)
	}
}

func TestValidator_KnownRef(t *testing.T) {
	known := map[string]bool{"build": true}
	v := New().KnownRef("depends_on", "missing", known)
	if !v.HasErrors() {
		t.Fatal("expected error for unknown reference")
	}

	v = New().KnownRef("depends_on", "build", known)
	if v.HasErrors() {
		t.Fatal("expected no error for known reference")
	}
}

func TestValidator_MinMax(t *testing.T) {
	v := New().Min("workers", 0, 1).Max("workers", 100, 64)
	if len(v.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(v.Errors()))
	}
}

type testStage struct {
	ID        string `yaml:"id" validate:"required"`
	Condition string `yaml:"condition" validate:"omitempty,oneof=succeeded always"`
}

func TestStructValidate_Success(t *testing.T) {
	if err := Validate(testStage{ID: "build", Condition: "always"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStructValidate_RequiredField(t *testing.T) {
	err := Validate(testStage{Condition: "succeeded"})
	if err == nil {
		t.Fatal("expected error for missing id")
	}
	if !strings.Contains(err.Error(), "id") {
		t.Errorf("expected yaml field name in message, got %q", err.Error())
	}
}

func TestStructValidate_OneOf(t *testing.T) {
	err := Validate(testStage{ID: "build", Condition: "never"})
	if err == nil {
		t.Fatal("expected error for invalid condition")
	}
	if !strings.Contains(err.Error(), "succeeded") {
		t.Errorf("expected allowed values in message, got %q", err.Error())
	}
}
