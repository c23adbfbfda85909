package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/stageflow/errors"
)

const basicPipeline = `
name: demo
variables:
  image: registry.example.com/demo
stages:
  - id: build
    steps:
      - name: compile
        maven:
          goals: [clean, package]
          skip_tests: true
        produces:
          - name: app-jar
            path: target/app.jar
  - id: package
    depends_on: [build]
    steps:
      - name: image
        docker_build:
          image: ${image}
          tag: "1.0"
        consumes:
          - name: app-jar
`

func TestParseBasic(t *testing.T) {
	p, err := Parse([]byte(basicPipeline), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Name != "demo" {
		t.Errorf("expected name demo, got %q", p.Name)
	}
	if len(p.Stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(p.Stages))
	}

	pkg, ok := p.StageByID("package")
	if !ok {
		t.Fatal("stage package not found")
	}
	if pkg.Steps[0].DockerBuild.Image != "registry.example.com/demo" {
		t.Errorf("variable not interpolated: %q", pkg.Steps[0].DockerBuild.Image)
	}
}

func TestParseVariableOverride(t *testing.T) {
	p, err := Parse([]byte(basicPipeline), map[string]string{"image": "other/app"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	pkg, _ := p.StageByID("package")
	if got := pkg.Steps[0].DockerBuild.Image; got != "other/app" {
		t.Errorf("override not applied, got %q", got)
	}
}

func TestParseUndefinedVariable(t *testing.T) {
	doc := `
name: demo
stages:
  - id: build
    steps:
      - name: compile
        script: echo ${missing}
`
	_, err := Parse([]byte(doc), nil)
	if err == nil {
		t.Fatal("expected error for undefined variable")
	}
	if !errors.IsCode(err, errors.ErrCodeConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID, got %v", errors.Code(err))
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Errorf("error should name the variable: %v", err)
	}
}

func TestParseEscapedVariable(t *testing.T) {
	doc := `
name: demo
stages:
  - id: build
    steps:
      - name: compile
        script: echo $${HOME}
`
	p, err := Parse([]byte(doc), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := p.Stages[0].Steps[0].Script; got != "echo ${HOME}" {
		t.Errorf("escape not preserved, got %q", got)
	}
}

func TestParseUnknownField(t *testing.T) {
	doc := `
name: demo
stages:
  - id: build
    steps:
      - name: compile
        script: echo hi
    retries: 3
`
	_, err := Parse([]byte(doc), nil)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !errors.IsCode(err, errors.ErrCodeConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID, got %v", errors.Code(err))
	}
}

func TestParseMissingName(t *testing.T) {
	doc := `
stages:
  - id: build
    steps:
      - name: compile
        script: echo hi
`
	_, err := Parse([]byte(doc), nil)
	if err == nil {
		t.Fatal("expected error for missing name")
	}
	if !errors.IsCode(err, errors.ErrCodeConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID, got %v", errors.Code(err))
	}
}

func TestParseEmptyStages(t *testing.T) {
	doc := `
name: demo
stages: []
`
	if _, err := Parse([]byte(doc), nil); err == nil {
		t.Fatal("expected error for empty stages")
	}
}

func TestParseStepTimeout(t *testing.T) {
	doc := `
name: demo
stages:
  - id: build
    steps:
      - name: compile
        script: sleep 10
        timeout: 90s
`
	p, err := Parse([]byte(doc), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := p.Stages[0].Steps[0].Timeout.StdDuration(); got != 90*time.Second {
		t.Errorf("expected 90s timeout, got %v", got)
	}
}

func TestParseBadDuration(t *testing.T) {
	doc := `
name: demo
stages:
  - id: build
    steps:
      - name: compile
        script: echo hi
        timeout: soon
`
	if _, err := Parse([]byte(doc), nil); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yml")
	if err := os.WriteFile(path, []byte(basicPipeline), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Name != "demo" {
		t.Errorf("expected name demo, got %q", p.Name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"), nil)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if got := errors.ExitCode(err); got != errors.ExitConfig {
		t.Errorf("expected exit code %d, got %d", errors.ExitConfig, got)
	}
}
