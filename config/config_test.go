package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	var cfg Config
	if err := Load(&cfg, WithConfigFile(filepath.Join(t.TempDir(), "missing.yml"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workers != 2 {
		t.Errorf("expected default workers 2, got %d", cfg.Workers)
	}
	if cfg.StepTimeout != 30*time.Minute {
		t.Errorf("expected default step timeout 30m, got %s", cfg.StepTimeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "stageflow.yml", `
workers: 4
fail_fast: true
step_timeout: 5m
logging:
  level: debug
  format: json
`)

	var cfg Config
	if err := Load(&cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected workers 4, got %d", cfg.Workers)
	}
	if !cfg.FailFast {
		t.Error("expected fail_fast true")
	}
	if cfg.StepTimeout != 5*time.Minute {
		t.Errorf("expected 5m, got %s", cfg.StepTimeout)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "stageflow.yml", "workers: 4\n")

	t.Setenv("STAGEFLOW_WORKERS", "8")
	t.Setenv("STAGEFLOW_LOGGING_LEVEL", "debug")

	var cfg Config
	if err := Load(&cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workers != 8 {
		t.Errorf("expected env override workers 8, got %d", cfg.Workers)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected env override level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "STAGEFLOW_KEEP_ARTIFACTS=true\n")
	t.Cleanup(func() { os.Unsetenv("STAGEFLOW_KEEP_ARTIFACTS") })

	var cfg Config
	err := Load(&cfg,
		WithConfigFile(filepath.Join(dir, "missing.yml")),
		WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.KeepArtifacts {
		t.Error("expected keep_artifacts from .env file")
	}
}

func TestLoad_InvalidWorkers(t *testing.T) {
	path := writeFile(t, t.TempDir(), "stageflow.yml", "workers: 100\n")

	var cfg Config
	if err := Load(&cfg, WithConfigFile(path)); err == nil {
		t.Fatal("expected validation error for workers out of range")
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("logging_no_color")
	want := map[string]bool{
		"logging_no_color": false,
		"logging.no_color": false,
	}
	for _, v := range variants {
		if _, ok := want[v]; ok {
			want[v] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("expected variant %q in %v", k, variants)
		}
	}
}
