package pipeline

import (
	"fmt"
	"time"

	"go.yaml.in/yaml/v3"
)

// Pipeline is a declarative stage graph loaded from YAML.
type Pipeline struct {
	// Name is the pipeline identifier.
	Name string `yaml:"name" validate:"required"`
	// Variables are interpolated into the document as ${name} before parsing.
	Variables map[string]string `yaml:"variables,omitempty"`
	// Stages are the units of work. Order in the file is not execution
	// order; only depends_on establishes ordering.
	Stages []Stage `yaml:"stages" validate:"required,min=1,dive"`
}

// Stage conditions.
const (
	// CondSucceeded runs the stage only if every dependency succeeded (default).
	CondSucceeded = "succeeded"
	// CondAlways runs the stage once its dependencies are terminal, regardless
	// of their outcome.
	CondAlways = "always"
)

// Stage is a named unit of pipeline work with explicit dependencies.
type Stage struct {
	// ID is the unique stage identifier.
	ID string `yaml:"id" validate:"required"`
	// DependsOn lists stage IDs that must be terminal before this stage starts.
	DependsOn []string `yaml:"depends_on,omitempty"`
	// Condition decides whether the stage runs once its dependencies are
	// terminal: "succeeded" (default) or "always".
	Condition string `yaml:"condition,omitempty" validate:"omitempty,oneof=succeeded always"`
	// Steps run strictly in declared order.
	Steps []Step `yaml:"steps" validate:"required,min=1,dive"`
}

// EffectiveCondition returns the stage condition, defaulting to CondSucceeded.
func (s *Stage) EffectiveCondition() string {
	if s.Condition == "" {
		return CondSucceeded
	}
	return s.Condition
}

// Step is a single external command execution within a stage. Exactly one
// kind field must be set; each kind carries its own enumerated options and
// expands to a concrete command invocation at load time.
type Step struct {
	// Name identifies the step within its stage.
	Name string `yaml:"name" validate:"required"`
	// WorkingDir is the directory the command runs in.
	WorkingDir string `yaml:"working_dir,omitempty"`
	// Env adds environment variable overrides (merged over the engine's).
	Env map[string]string `yaml:"env,omitempty"`
	// ExpectedExit is the exit code treated as success. Default 0.
	ExpectedExit int `yaml:"expected_exit,omitempty"`
	// Timeout bounds the command. Zero means the engine default.
	Timeout Duration `yaml:"timeout,omitempty"`
	// ContinueOnError keeps the stage running past a failure of this step.
	// The stage still ends Failed.
	ContinueOnError bool `yaml:"continue_on_error,omitempty"`
	// Retry re-runs the command on unexpected exit codes. The engine itself
	// never retries; this is the step's own policy.
	Retry *Retry `yaml:"retry,omitempty"`
	// Produces declares artifact outputs published when the stage succeeds.
	Produces []Produce `yaml:"produces,omitempty" validate:"dive"`
	// Consumes declares artifacts this step reads from earlier stages.
	Consumes []Consume `yaml:"consumes,omitempty" validate:"dive"`

	// Step kinds; exactly one must be set.
	Run         *RunStep         `yaml:"run,omitempty"`
	Script      string           `yaml:"script,omitempty"`
	Maven       *MavenStep       `yaml:"maven,omitempty"`
	SonarScan   *SonarScanStep   `yaml:"sonar_scan,omitempty"`
	DockerBuild *DockerBuildStep `yaml:"docker_build,omitempty"`
	DockerPush  *DockerPushStep  `yaml:"docker_push,omitempty"`
	TrivyScan   *TrivyScanStep   `yaml:"trivy_scan,omitempty"`
	SSHDeploy   *SSHDeployStep   `yaml:"ssh_deploy,omitempty"`
}

// Retry declares a step-level retry policy.
type Retry struct {
	// Attempts is the total number of attempts, including the first.
	Attempts int `yaml:"attempts" validate:"gte=1,lte=10"`
	// Interval is the initial backoff interval.
	Interval Duration `yaml:"interval,omitempty"`
	// MaxInterval caps the backoff interval.
	MaxInterval Duration `yaml:"max_interval,omitempty"`
}

// Produce declares an artifact output: path is resolved relative to the
// step's working directory after the step succeeds.
type Produce struct {
	Name string `yaml:"name" validate:"required"`
	Path string `yaml:"path" validate:"required"`
}

// Consume declares an artifact input. The materialized path is exposed to
// the step through the named environment variable (default ARTIFACT_<NAME>).
type Consume struct {
	Name string `yaml:"name" validate:"required"`
	Env  string `yaml:"env,omitempty"`
}

// Duration wraps time.Duration with YAML string parsing ("90s", "5m").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"90s\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// StdDuration returns the wrapped time.Duration.
func (d Duration) StdDuration() time.Duration { return time.Duration(d) }

// Stage lookup helpers used by the engine.

// StageByID returns the stage with the given ID.
func (p *Pipeline) StageByID(id string) (*Stage, bool) {
	for i := range p.Stages {
		if p.Stages[i].ID == id {
			return &p.Stages[i], true
		}
	}
	return nil, false
}

// StageIDs returns stage identifiers in declaration order.
func (p *Pipeline) StageIDs() []string {
	ids := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		ids[i] = s.ID
	}
	return ids
}
