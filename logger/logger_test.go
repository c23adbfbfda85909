package logger

import (
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected level info, got %s", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected format console, got %s", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected output stderr, got %s", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Level: "info", Format: "json"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg = Config{Level: "loud", Format: "json"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid level")
	}

	cfg = Config{Level: "info", Format: "xml"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid format")
	}
}

func TestNew_InvalidLevelFallsBack(t *testing.T) {
	cfg := &Config{Level: "bogus", Format: "json", Output: "stderr"}
	l := New(cfg)
	if l == nil {
		t.Fatal("expected logger")
	}
}

func TestFields_Pairs(t *testing.T) {
	m := Fields("stage", "build", "exit_code", 0)
	if m["stage"] != "build" {
		t.Errorf("expected stage=build, got %v", m["stage"])
	}
	if m["exit_code"] != 0 {
		t.Errorf("expected exit_code=0, got %v", m["exit_code"])
	}
}

func TestFields_OddPairsIgnored(t *testing.T) {
	m := Fields("stage", "build", "dangling")
	if len(m) != 1 {
		t.Errorf("expected 1 field, got %d", len(m))
	}
}

func TestDurationFields(t *testing.T) {
	m := DurationFields("build", 1500*time.Millisecond)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500, got %v", m[FieldDuration])
	}
	if m[FieldStage] != "build" {
		t.Errorf("expected build, got %v", m[FieldStage])
	}
}

func TestWithHelpers_DoNotPanic(t *testing.T) {
	l := Nop()
	l.WithComponent("engine").WithRun("run-1").WithStage("build").Info("ok")
	l.WithFields(Fields("step", "compile")).Debug("ok")
}
