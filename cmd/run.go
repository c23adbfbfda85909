package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/stageflow/artifact"
	"github.com/kbukum/stageflow/config"
	"github.com/kbukum/stageflow/engine"
	"github.com/kbukum/stageflow/errors"
	"github.com/kbukum/stageflow/logger"
	"github.com/kbukum/stageflow/observability"
	"github.com/kbukum/stageflow/pipeline"
	"github.com/kbukum/stageflow/version"
)

var (
	runWorkers       int
	runFailFast      bool
	runArtifactDir   string
	runKeepArtifacts bool
	runTimeout       time.Duration
	runVars          []string
	runEnvFile       string
)

var runCmd = &cobra.Command{
	Use:   "run <pipeline file>",
	Short: "Execute a pipeline definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "max stages running in parallel")
	runCmd.Flags().BoolVar(&runFailFast, "fail-fast", false, "cancel running stages after the first failure")
	runCmd.Flags().StringVar(&runArtifactDir, "artifact-dir", "", "directory for run artifacts (default: temporary)")
	runCmd.Flags().BoolVar(&runKeepArtifacts, "keep-artifacts", false, "keep the artifact directory after the run")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "default per-step timeout")
	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "pipeline variable override (name=value, repeatable)")
	runCmd.Flags().StringVar(&runEnvFile, "env", "", "path to .env file")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger.Init(cfg.Logging)
	log := logger.WithComponent("cli")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Endpoint != "" {
		tp, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName:    "stageflow",
			ServiceVersion: version.Get().Short(),
			Endpoint:       cfg.Tracing.Endpoint,
			Insecure:       cfg.Tracing.Insecure,
			SampleRate:     cfg.Tracing.SampleRate,
		})
		if err != nil {
			log.Warn("tracing disabled", logger.Fields(logger.FieldError, err.Error()))
		} else {
			defer tp.Shutdown(context.Background()) //nolint:errcheck // flushing on exit
		}
	}

	overrides, err := parseVarFlags(runVars)
	if err != nil {
		return err
	}

	p, err := pipeline.Load(args[0], overrides)
	if err != nil {
		return err
	}

	store, err := artifact.NewStore(cfg.ArtifactDir, cfg.KeepArtifacts)
	if err != nil {
		return errors.ConfigInvalid("creating artifact store").WithCause(err)
	}
	defer store.Close() //nolint:errcheck // best-effort cleanup

	eng := engine.New(engine.Options{
		Workers:        cfg.Workers,
		FailFast:       cfg.FailFast,
		DefaultTimeout: cfg.StepTimeout,
		Store:          store,
		Logger:         logger.GetGlobalLogger(),
	})

	run, err := eng.Execute(ctx, p)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), p, run)

	if cfg.KeepArtifacts {
		fmt.Fprintf(cmd.OutOrStdout(), "Artifacts kept in %s\n", store.Dir())
	}

	if run.Status == engine.StatusFailed {
		return errors.RunFailed(run.FailedStages())
	}
	return nil
}

// loadConfig loads engine configuration and applies flag overrides on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var opts []config.LoaderOption
	if cfgFile != "" {
		opts = append(opts, config.WithConfigFile(cfgFile))
	}
	if runEnvFile != "" {
		opts = append(opts, config.WithEnvFile(runEnvFile))
	}

	cfg := &config.Config{}
	if err := config.Load(cfg, opts...); err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}

	if cmd.Flags().Changed("workers") {
		cfg.Workers = runWorkers
	}
	if cmd.Flags().Changed("fail-fast") {
		cfg.FailFast = runFailFast
	}
	if cmd.Flags().Changed("artifact-dir") {
		cfg.ArtifactDir = runArtifactDir
	}
	if cmd.Flags().Changed("keep-artifacts") {
		cfg.KeepArtifacts = runKeepArtifacts
	}
	if cmd.Flags().Changed("timeout") {
		cfg.StepTimeout = runTimeout
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}
	return cfg, nil
}

// parseVarFlags parses repeated name=value variable overrides.
func parseVarFlags(vars []string) (map[string]string, error) {
	if len(vars) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(vars))
	for _, v := range vars {
		name, value, ok := strings.Cut(v, "=")
		if !ok || name == "" {
			return nil, errors.ConfigInvalid(fmt.Sprintf("invalid --var %q, expected name=value", v))
		}
		out[name] = value
	}
	return out, nil
}

func printSummary(w io.Writer, p *pipeline.Pipeline, run *engine.Run) {
	fmt.Fprintf(w, "\nPipeline %s: %s (%s)\n", run.Pipeline, run.Status, run.Duration().Round(time.Millisecond))

	width := 0
	for _, id := range p.StageIDs() {
		if len(id) > width {
			width = len(id)
		}
	}

	for _, id := range p.StageIDs() {
		sr := run.Stages[id]
		line := fmt.Sprintf("  %-*s  %-9s", width, id, sr.Status)
		switch {
		case sr.Status == engine.StatusSkipped && sr.Reason != "":
			line += "  (" + sr.Reason + ")"
		case !sr.StartedAt.IsZero() && !sr.FinishedAt.IsZero():
			line += "  " + sr.FinishedAt.Sub(sr.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintln(w, line)

		for _, step := range sr.Steps {
			if step.Status != engine.StatusFailed {
				continue
			}
			if step.Err != nil {
				fmt.Fprintf(w, "    step %s: %v\n", step.Name, step.Err)
			}
			if len(step.Stderr) > 0 {
				fmt.Fprintf(w, "    stderr: %s\n", strings.TrimSpace(string(step.Stderr)))
			}
		}
	}
}
