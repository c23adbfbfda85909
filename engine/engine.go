package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/stageflow/artifact"
	"github.com/kbukum/stageflow/logger"
	"github.com/kbukum/stageflow/observability"
	"github.com/kbukum/stageflow/pipeline"
)

// Options configures an Engine.
type Options struct {
	// Workers caps the number of stages executing in parallel. Default 2.
	Workers int
	// FailFast cancels in-flight stages as soon as one fails. Without it,
	// already-running stages finish and only dependents are skipped.
	FailFast bool
	// DefaultTimeout bounds steps that declare no timeout. Default 30m.
	DefaultTimeout time.Duration
	// Store receives published artifacts. Required.
	Store *artifact.Store
	// Logger defaults to the global logger.
	Logger *logger.Logger
}

// Engine schedules a pipeline's stages level by level and runs their steps.
type Engine struct {
	workers        int
	failFast       bool
	defaultTimeout time.Duration
	store          *artifact.Store
	log            *logger.Logger
}

// New creates an engine from options.
func New(opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 30 * time.Minute
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Engine{
		workers:        opts.Workers,
		failFast:       opts.FailFast,
		defaultTimeout: opts.DefaultTimeout,
		store:          opts.Store,
		log:            log.WithComponent("engine"),
	}
}

// Execute runs the pipeline to completion and returns the run record. An
// error is returned only for configuration problems (for example a
// dependency cycle); a run in which stages failed returns a Run with status
// Failed and a nil error.
func (e *Engine) Execute(ctx context.Context, p *pipeline.Pipeline) (*Run, error) {
	if e.store == nil {
		return nil, fmt.Errorf("engine: artifact store is required")
	}

	levels, err := p.Levels()
	if err != nil {
		return nil, err
	}

	run := newRun(p.Name, p.StageIDs())
	log := e.log.WithRun(run.ID)

	ctx, span := observability.StartSpan(ctx, observability.SpanRun)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRunID, run.ID)
	observability.SetSpanAttribute(ctx, observability.AttrPipeline, p.Name)

	log.Info("run started", logger.Fields(
		logger.FieldPipeline, p.Name,
		logger.FieldWorkers, e.workers,
	))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, e.workers)

	for _, level := range levels {
		var wg sync.WaitGroup
		for _, id := range level {
			stage, _ := p.StageByID(id)
			sr := run.Stages[id]

			if reason, skip := e.shouldSkip(runCtx, stage, run); skip {
				sr.Reason = reason
				sr.finish(StatusSkipped)
				log.Info("stage skipped", logger.Fields(
					logger.FieldStage, id,
					"reason", reason,
				))
				continue
			}

			wg.Add(1)
			go func(stage *pipeline.Stage, sr *StageResult) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				e.runStage(runCtx, stage, sr, log)
				if sr.Status == StatusFailed && e.failFast {
					cancel()
				}
			}(stage, sr)
		}
		wg.Wait()
	}

	run.FinishedAt = time.Now()
	if len(run.FailedStages()) > 0 {
		run.Status = StatusFailed
	} else {
		run.Status = StatusSucceeded
	}

	observability.SetSpanAttribute(ctx, observability.AttrStatus, string(run.Status))
	log.Info("run finished", logger.Fields(
		logger.FieldStatus, string(run.Status),
		logger.FieldDuration, run.Duration().Milliseconds(),
	))
	return run, nil
}

// shouldSkip evaluates the stage condition against dependency outcomes. All
// dependencies are terminal by the time this runs; levels complete in order.
func (e *Engine) shouldSkip(ctx context.Context, stage *pipeline.Stage, run *Run) (string, bool) {
	if ctx.Err() != nil {
		return "run canceled", true
	}

	cond := stage.EffectiveCondition()
	for _, dep := range stage.DependsOn {
		status := run.Stages[dep].Status
		if cond == pipeline.CondSucceeded && status != StatusSucceeded {
			return fmt.Sprintf("dependency %q %s", dep, status), true
		}
	}
	return "", false
}
