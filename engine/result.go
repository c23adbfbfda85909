package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Run is the record of one pipeline execution.
type Run struct {
	// ID is the unique run identifier.
	ID string
	// Pipeline is the executed pipeline's name.
	Pipeline string
	// Status is Succeeded only when every stage is Succeeded or Skipped with
	// no failures.
	Status Status
	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time
	// Stages holds per-stage results keyed by stage ID.
	Stages map[string]*StageResult
}

// StageResult is the record of one stage execution.
type StageResult struct {
	ID         string
	Status     Status
	StartedAt  time.Time
	FinishedAt time.Time
	// Steps are the executed steps in declaration order. Empty for skipped
	// stages.
	Steps []*StepResult
	// Reason explains a Skipped status.
	Reason string
}

// StepResult is the record of one step execution.
type StepResult struct {
	Name   string
	Status Status
	// ExitCode is the command's exit code. -1 when the command never ran to
	// completion.
	ExitCode int
	// ExpectedExit is the exit code the step declared as success.
	ExpectedExit int
	Stdout       []byte
	Stderr       []byte
	Duration     time.Duration
	// Err holds the failure when the command could not run at all (start
	// failure, timeout, cancellation).
	Err error
}

func newRun(pipelineName string, stageIDs []string) *Run {
	r := &Run{
		ID:        uuid.NewString(),
		Pipeline:  pipelineName,
		Status:    StatusRunning,
		StartedAt: time.Now(),
		Stages:    make(map[string]*StageResult, len(stageIDs)),
	}
	for _, id := range stageIDs {
		r.Stages[id] = &StageResult{ID: id, Status: StatusPending}
	}
	return r
}

// Duration returns the total wall-clock run time.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FailedStages returns the IDs of failed stages, sorted.
func (r *Run) FailedStages() []string {
	var out []string
	for id, s := range r.Stages {
		if s.Status == StatusFailed {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// StagesByStatus returns stage IDs with the given status, sorted.
func (r *Run) StagesByStatus(status Status) []string {
	var out []string
	for id, s := range r.Stages {
		if s.Status == status {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (sr *StageResult) finish(status Status) {
	sr.Status = status
	sr.FinishedAt = time.Now()
}
