package engine

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kbukum/stageflow/errors"
	"github.com/kbukum/stageflow/logger"
	"github.com/kbukum/stageflow/observability"
	"github.com/kbukum/stageflow/pipeline"
	"github.com/kbukum/stageflow/proc"
)

// runStage executes the stage's steps in declared order. Artifacts staged by
// the steps are committed only when the whole stage succeeds; a failed stage
// discards them but keeps the names consumed.
func (e *Engine) runStage(ctx context.Context, stage *pipeline.Stage, sr *StageResult, log *logger.Logger) {
	// The run may have been canceled while this stage was queued behind the
	// worker semaphore. A stage that never started a step is skipped, not
	// failed.
	if ctx.Err() != nil {
		sr.Reason = "run canceled"
		sr.finish(StatusSkipped)
		log.Info("stage skipped", logger.Fields(
			logger.FieldStage, stage.ID,
			"reason", sr.Reason,
		))
		return
	}

	slog := log.WithStage(stage.ID)
	sr.Status = StatusRunning
	sr.StartedAt = time.Now()

	ctx, span := observability.StartSpan(ctx, observability.SpanStage)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrStage, stage.ID)

	slog.Info("stage started")

	failed := false
	for i := range stage.Steps {
		step := &stage.Steps[i]
		res := e.runStep(ctx, stage, step, slog)
		sr.Steps = append(sr.Steps, res)
		if res.Status == StatusFailed {
			failed = true
			if !step.ContinueOnError {
				break
			}
		}
	}

	if failed {
		e.store.Discard(stage.ID)
		sr.finish(StatusFailed)
	} else {
		e.store.Commit(stage.ID)
		sr.finish(StatusSucceeded)
	}

	observability.SetSpanAttribute(ctx, observability.AttrStatus, string(sr.Status))
	slog.Info("stage finished", logger.Fields(
		logger.FieldStatus, string(sr.Status),
		logger.FieldDuration, sr.FinishedAt.Sub(sr.StartedAt).Milliseconds(),
	))
}

// runStep expands and executes one step command.
func (e *Engine) runStep(ctx context.Context, stage *pipeline.Stage, step *pipeline.Step, slog *logger.Logger) *StepResult {
	res := &StepResult{
		Name:         step.Name,
		Status:       StatusRunning,
		ExitCode:     -1,
		ExpectedExit: step.ExpectedExit,
	}
	fail := func(err error) *StepResult {
		res.Err = err
		res.Status = StatusFailed
		slog.Error("step failed", logger.Fields(
			logger.FieldStep, step.Name,
			logger.FieldError, err.Error(),
			logger.FieldExitCode, res.ExitCode,
		))
		observability.SetSpanError(ctx, err)
		return res
	}

	inv, err := step.Invocation()
	if err != nil {
		return fail(errors.ConfigInvalid(err.Error()))
	}

	env, err := e.stepEnv(step)
	if err != nil {
		return fail(err)
	}

	timeout := step.Timeout.StdDuration()
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stepCtx, span := observability.StartSpan(stepCtx, observability.SpanStep)
	defer span.End()
	observability.SetSpanAttribute(stepCtx, observability.AttrStep, step.Name)

	slog.Debug("step started", logger.Fields(
		logger.FieldStep, step.Name,
		"binary", inv.Binary,
	))

	cmd := proc.Command{
		Binary: inv.Binary,
		Args:   inv.Args,
		Dir:    step.WorkingDir,
		Env:    env,
	}

	var result *proc.Result
	if step.Retry != nil {
		policy := proc.RetryPolicy{
			Attempts:    step.Retry.Attempts,
			Interval:    step.Retry.Interval.StdDuration(),
			MaxInterval: step.Retry.MaxInterval.StdDuration(),
		}
		result, err = proc.RunWithRetry(stepCtx, cmd, policy, step.ExpectedExit)
	} else {
		result, err = proc.Run(stepCtx, cmd)
	}

	if result != nil {
		res.Stdout = result.Stdout
		res.Stderr = result.Stderr
		res.ExitCode = result.ExitCode
		res.Duration = result.Duration
		observability.SetSpanAttribute(stepCtx, observability.AttrExitCode, res.ExitCode)
	}

	if err != nil {
		switch {
		case stepCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil:
			return fail(errors.Timeout(stage.ID, step.Name))
		case ctx.Err() != nil:
			return fail(errors.Canceled(stage.ID))
		default:
			return fail(errors.Internal(err).WithDetail("step", step.Name))
		}
	}

	if res.ExitCode != step.ExpectedExit {
		return fail(errors.StepFailed(stage.ID, step.Name, res.ExitCode))
	}

	for _, prod := range step.Produces {
		src := prod.Path
		if !filepath.IsAbs(src) && step.WorkingDir != "" {
			src = filepath.Join(step.WorkingDir, prod.Path)
		}
		if err := e.store.Publish(prod.Name, stage.ID, src); err != nil {
			return fail(err)
		}
		slog.Debug("artifact staged", logger.Fields(
			logger.FieldStep, step.Name,
			logger.FieldArtifact, prod.Name,
		))
	}

	res.Status = StatusSucceeded
	slog.Info("step succeeded", logger.Fields(
		logger.FieldStep, step.Name,
		logger.FieldDuration, res.Duration.Milliseconds(),
	))
	return res
}

// stepEnv builds the extra environment for a step: declared env entries plus
// one variable per consumed artifact pointing at its materialized path.
func (e *Engine) stepEnv(step *pipeline.Step) ([]string, error) {
	var env []string

	keys := make([]string, 0, len(step.Env))
	for k := range step.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+step.Env[k])
	}

	for _, c := range step.Consumes {
		entry, err := e.store.Fetch(c.Name)
		if err != nil {
			return nil, err
		}
		name := c.Env
		if name == "" {
			name = artifactEnvName(c.Name)
		}
		env = append(env, name+"="+entry.Path)
	}
	return env, nil
}

// artifactEnvName maps an artifact name to its default environment variable,
// e.g. "app-jar" becomes ARTIFACT_APP_JAR.
func artifactEnvName(name string) string {
	var b strings.Builder
	b.WriteString("ARTIFACT_")
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
