package config

import (
	"fmt"
	"time"

	"github.com/kbukum/stageflow/logger"
)

// TracingConfig configures OTLP trace export. Tracing is disabled
// unless an endpoint is set.
type TracingConfig struct {
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// Config contains all engine settings.
type Config struct {
	// Workers bounds how many stages may run concurrently (the agent capacity).
	Workers int `yaml:"workers" mapstructure:"workers"`
	// FailFast requests best-effort cancellation of running stages after the
	// first failure.
	FailFast bool `yaml:"fail_fast" mapstructure:"fail_fast"`
	// ArtifactDir is where run artifacts are materialized. Empty means a
	// temporary directory removed at the end of the run.
	ArtifactDir string `yaml:"artifact_dir" mapstructure:"artifact_dir"`
	// KeepArtifacts disables artifact garbage collection at run end.
	KeepArtifacts bool `yaml:"keep_artifacts" mapstructure:"keep_artifacts"`
	// StepTimeout is the default per-step timeout when the step declares none.
	StepTimeout time.Duration `yaml:"step_timeout" mapstructure:"step_timeout"`

	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.StepTimeout <= 0 {
		c.StepTimeout = 30 * time.Minute
	}
	if c.Tracing.SampleRate <= 0 {
		c.Tracing.SampleRate = 1.0
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Workers < 1 || c.Workers > 64 {
		return fmt.Errorf("config.workers must be between 1 and 64 (got: %d)", c.Workers)
	}
	if c.StepTimeout < time.Second {
		return fmt.Errorf("config.step_timeout must be at least 1s (got: %s)", c.StepTimeout)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("config.tracing.sample_rate must be between 0 and 1 (got: %g)", c.Tracing.SampleRate)
	}
	return nil
}
