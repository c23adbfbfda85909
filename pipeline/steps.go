package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Invocation is the concrete command a step expands to. The engine merges in
// working directory, environment and timeout before execution.
type Invocation struct {
	Binary string
	Args   []string
}

// RunStep invokes a binary with explicit arguments.
type RunStep struct {
	Binary string   `yaml:"binary" validate:"required"`
	Args   []string `yaml:"args,omitempty"`
}

// MavenStep runs a Maven build.
type MavenStep struct {
	// Goals are the Maven goals ("clean", "package", ...).
	Goals []string `yaml:"goals" validate:"required,min=1"`
	// Pom selects an alternate POM file.
	Pom string `yaml:"pom,omitempty"`
	// Profiles activates build profiles.
	Profiles []string `yaml:"profiles,omitempty"`
	// SkipTests adds -DskipTests.
	SkipTests bool `yaml:"skip_tests,omitempty"`
	// Options are extra command-line options passed verbatim.
	Options []string `yaml:"options,omitempty"`
}

// SonarScanStep runs a SonarQube analysis through the Maven plugin. The
// quality gate verdict is consumed as the command's exit code only.
type SonarScanStep struct {
	HostURL    string `yaml:"host_url" validate:"required"`
	ProjectKey string `yaml:"project_key" validate:"required"`
	// Properties are extra -Dsonar.* analysis properties.
	Properties map[string]string `yaml:"properties,omitempty"`
}

// DockerBuildStep builds a container image.
type DockerBuildStep struct {
	Image      string            `yaml:"image" validate:"required"`
	Tag        string            `yaml:"tag,omitempty"`
	Dockerfile string            `yaml:"dockerfile,omitempty"`
	Context    string            `yaml:"context,omitempty"`
	BuildArgs  map[string]string `yaml:"build_args,omitempty"`
}

// DockerPushStep pushes a previously built image.
type DockerPushStep struct {
	Image string `yaml:"image" validate:"required"`
	Tag   string `yaml:"tag,omitempty"`
}

// TrivyScanStep scans a container image for vulnerabilities. FailOn maps to
// trivy's --exit-code so findings fail the step.
type TrivyScanStep struct {
	Image string `yaml:"image" validate:"required"`
	Tag   string `yaml:"tag,omitempty"`
	// Severity filters findings (e.g. [HIGH, CRITICAL]).
	Severity []string `yaml:"severity,omitempty"`
	// FailOn is the exit code trivy reports when findings remain. Default 1.
	FailOn int `yaml:"fail_on,omitempty"`
	// Format selects the report format (table, json, sarif).
	Format string `yaml:"format,omitempty" validate:"omitempty,oneof=table json sarif"`
	// Output writes the report to a file, typically declared as a produced
	// artifact on the same step.
	Output string `yaml:"output,omitempty"`
}

// SSHDeployStep runs a remote script over SSH.
type SSHDeployStep struct {
	Host string `yaml:"host" validate:"required"`
	User string `yaml:"user,omitempty"`
	Port int    `yaml:"port,omitempty" validate:"omitempty,gte=1,lte=65535"`
	// IdentityFile selects the private key passed to ssh -i.
	IdentityFile string `yaml:"identity_file,omitempty"`
	// Script is the remote command line.
	Script string `yaml:"script" validate:"required"`
}

// stepKindNames lists all kind names in a fixed order so diagnostics are
// deterministic.
var stepKindNames = []string{
	"run", "script", "maven", "sonar_scan", "docker_build", "docker_push", "trivy_scan", "ssh_deploy",
}

func (s *Step) kindsSet() []string {
	var kinds []string
	if s.Run != nil {
		kinds = append(kinds, "run")
	}
	if s.Script != "" {
		kinds = append(kinds, "script")
	}
	if s.Maven != nil {
		kinds = append(kinds, "maven")
	}
	if s.SonarScan != nil {
		kinds = append(kinds, "sonar_scan")
	}
	if s.DockerBuild != nil {
		kinds = append(kinds, "docker_build")
	}
	if s.DockerPush != nil {
		kinds = append(kinds, "docker_push")
	}
	if s.TrivyScan != nil {
		kinds = append(kinds, "trivy_scan")
	}
	if s.SSHDeploy != nil {
		kinds = append(kinds, "ssh_deploy")
	}
	return kinds
}

// Kind returns the step's kind name, or "" when none or several are set.
func (s *Step) Kind() string {
	kinds := s.kindsSet()
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// Invocation expands the step into its concrete command.
func (s *Step) Invocation() (Invocation, error) {
	switch s.Kind() {
	case "run":
		return Invocation{Binary: s.Run.Binary, Args: s.Run.Args}, nil

	case "script":
		return Invocation{Binary: "sh", Args: []string{"-c", s.Script}}, nil

	case "maven":
		args := []string{"-B"}
		if s.Maven.Pom != "" {
			args = append(args, "-f", s.Maven.Pom)
		}
		if len(s.Maven.Profiles) > 0 {
			args = append(args, "-P", strings.Join(s.Maven.Profiles, ","))
		}
		if s.Maven.SkipTests {
			args = append(args, "-DskipTests")
		}
		args = append(args, s.Maven.Options...)
		args = append(args, s.Maven.Goals...)
		return Invocation{Binary: "mvn", Args: args}, nil

	case "sonar_scan":
		args := []string{"-B", "sonar:sonar",
			"-Dsonar.host.url=" + s.SonarScan.HostURL,
			"-Dsonar.projectKey=" + s.SonarScan.ProjectKey,
		}
		for _, k := range sortedKeys(s.SonarScan.Properties) {
			args = append(args, fmt.Sprintf("-Dsonar.%s=%s", k, s.SonarScan.Properties[k]))
		}
		return Invocation{Binary: "mvn", Args: args}, nil

	case "docker_build":
		ref := imageRef(s.DockerBuild.Image, s.DockerBuild.Tag)
		args := []string{"build", "-t", ref}
		if s.DockerBuild.Dockerfile != "" {
			args = append(args, "-f", s.DockerBuild.Dockerfile)
		}
		for _, k := range sortedKeys(s.DockerBuild.BuildArgs) {
			args = append(args, "--build-arg", k+"="+s.DockerBuild.BuildArgs[k])
		}
		buildContext := s.DockerBuild.Context
		if buildContext == "" {
			buildContext = "."
		}
		args = append(args, buildContext)
		return Invocation{Binary: "docker", Args: args}, nil

	case "docker_push":
		return Invocation{Binary: "docker", Args: []string{"push", imageRef(s.DockerPush.Image, s.DockerPush.Tag)}}, nil

	case "trivy_scan":
		failOn := s.TrivyScan.FailOn
		if failOn == 0 {
			failOn = 1
		}
		args := []string{"image", "--exit-code", strconv.Itoa(failOn)}
		if len(s.TrivyScan.Severity) > 0 {
			args = append(args, "--severity", strings.Join(s.TrivyScan.Severity, ","))
		}
		if s.TrivyScan.Format != "" {
			args = append(args, "--format", s.TrivyScan.Format)
		}
		if s.TrivyScan.Output != "" {
			args = append(args, "--output", s.TrivyScan.Output)
		}
		args = append(args, imageRef(s.TrivyScan.Image, s.TrivyScan.Tag))
		return Invocation{Binary: "trivy", Args: args}, nil

	case "ssh_deploy":
		args := []string{"-o", "BatchMode=yes"}
		if s.SSHDeploy.Port != 0 {
			args = append(args, "-p", strconv.Itoa(s.SSHDeploy.Port))
		}
		if s.SSHDeploy.IdentityFile != "" {
			args = append(args, "-i", s.SSHDeploy.IdentityFile)
		}
		target := s.SSHDeploy.Host
		if s.SSHDeploy.User != "" {
			target = s.SSHDeploy.User + "@" + target
		}
		args = append(args, target, s.SSHDeploy.Script)
		return Invocation{Binary: "ssh", Args: args}, nil
	}

	return Invocation{}, fmt.Errorf("step %q: exactly one of %s must be set (got: %s)",
		s.Name, strings.Join(stepKindNames, ", "), strings.Join(s.kindsSet(), ", "))
}

func imageRef(image, tag string) string {
	if tag == "" {
		return image
	}
	return image + ":" + tag
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
