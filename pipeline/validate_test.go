package pipeline

import (
	"strings"
	"testing"

	"github.com/kbukum/stageflow/errors"
)

func validStage(id string) Stage {
	return Stage{ID: id, Steps: []Step{{Name: "noop", Script: "true"}}}
}

func TestValidateDuplicateStageIDs(t *testing.T) {
	p := &Pipeline{Name: "dup", Stages: []Stage{validStage("build"), validStage("build")}}
	err := ValidatePipeline(p)
	if err == nil {
		t.Fatal("expected error for duplicate stage IDs")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error should mention the duplicate: %v", err)
	}
}

func TestValidateSelfDependency(t *testing.T) {
	s := validStage("build")
	s.DependsOn = []string{"build"}
	p := &Pipeline{Name: "self", Stages: []Stage{s}}
	if err := ValidatePipeline(p); err == nil {
		t.Fatal("expected error for self dependency")
	}
}

func TestValidateUnknownDependency(t *testing.T) {
	s := validStage("build")
	s.DependsOn = []string{"ghost"}
	p := &Pipeline{Name: "ref", Stages: []Stage{s}}
	err := ValidatePipeline(p)
	if err == nil {
		t.Fatal("expected error for unknown dependency")
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("error should name the unknown stage: %v", err)
	}
}

func TestValidateBadStageID(t *testing.T) {
	p := &Pipeline{Name: "bad", Stages: []Stage{validStage("9lives")}}
	if err := ValidatePipeline(p); err == nil {
		t.Fatal("expected error for identifier starting with a digit")
	}
}

func TestValidateDuplicateArtifact(t *testing.T) {
	a := validStage("a")
	a.Steps[0].Produces = []Produce{{Name: "report", Path: "out/report"}}
	b := validStage("b")
	b.Steps[0].Produces = []Produce{{Name: "report", Path: "other/report"}}
	p := &Pipeline{Name: "arts", Stages: []Stage{a, b}}

	err := ValidatePipeline(p)
	if err == nil {
		t.Fatal("expected error for duplicate artifact name")
	}
	if !strings.Contains(err.Error(), "report") {
		t.Errorf("error should name the artifact: %v", err)
	}
}

func TestValidateConsumeWithoutProducer(t *testing.T) {
	s := validStage("build")
	s.Steps[0].Consumes = []Consume{{Name: "phantom"}}
	p := &Pipeline{Name: "consume", Stages: []Stage{s}}

	err := ValidatePipeline(p)
	if err == nil {
		t.Fatal("expected error for unproduced artifact")
	}
	if !strings.Contains(err.Error(), "phantom") {
		t.Errorf("error should name the artifact: %v", err)
	}
}

func TestValidateConsumeFromNonDependency(t *testing.T) {
	a := validStage("a")
	a.Steps[0].Produces = []Produce{{Name: "jar", Path: "target/app.jar"}}
	b := validStage("b")
	b.Steps[0].Consumes = []Consume{{Name: "jar"}}
	p := &Pipeline{Name: "flow", Stages: []Stage{a, b}}

	if err := ValidatePipeline(p); err == nil {
		t.Fatal("expected error when consumer does not depend on producer")
	}

	b.DependsOn = []string{"a"}
	p = &Pipeline{Name: "flow", Stages: []Stage{a, b}}
	if err := ValidatePipeline(p); err != nil {
		t.Fatalf("expected valid pipeline with dependency, got %v", err)
	}
}

func TestValidateConsumeFromTransitiveDependency(t *testing.T) {
	a := validStage("a")
	a.Steps[0].Produces = []Produce{{Name: "jar", Path: "target/app.jar"}}
	b := validStage("b")
	b.DependsOn = []string{"a"}
	c := validStage("c")
	c.DependsOn = []string{"b"}
	c.Steps[0].Consumes = []Consume{{Name: "jar"}}
	p := &Pipeline{Name: "chain", Stages: []Stage{a, b, c}}

	if err := ValidatePipeline(p); err != nil {
		t.Fatalf("transitive producer should be allowed, got %v", err)
	}
}

func TestValidateCycleExitCode(t *testing.T) {
	a := validStage("a")
	a.DependsOn = []string{"b"}
	b := validStage("b")
	b.DependsOn = []string{"a"}
	p := &Pipeline{Name: "cycle", Stages: []Stage{a, b}}

	err := ValidatePipeline(p)
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !errors.IsCode(err, errors.ErrCodeCycleDetected) {
		t.Errorf("expected CYCLE_DETECTED, got %v", errors.Code(err))
	}
}

func TestValidateInvalidCondition(t *testing.T) {
	s := validStage("build")
	s.Condition = "on_failure"
	p := &Pipeline{Name: "cond", Stages: []Stage{s}}
	if err := ValidatePipeline(p); err == nil {
		t.Fatal("expected error for unknown condition")
	}
}
