package pipeline

import (
	"fmt"
	"strings"

	"github.com/kbukum/stageflow/validation"
)

const stageIDPattern = `^[a-zA-Z][a-zA-Z0-9_-]*$`

// ValidatePipeline runs struct-tag validation and the semantic checks the
// schema cannot express: identifier uniqueness, dependency references, step
// kind exclusivity and artifact flow consistency.
func ValidatePipeline(p *Pipeline) error {
	if err := validation.Validate(p); err != nil {
		return err
	}

	v := validation.New()

	known := make(map[string]bool, len(p.Stages))
	for _, s := range p.Stages {
		known[s.ID] = true
	}
	v.Unique("stages", p.StageIDs())

	// producedBy maps artifact name to the producing stage.
	producedBy := make(map[string]string)

	for si := range p.Stages {
		s := &p.Stages[si]
		stageField := fmt.Sprintf("stages[%s]", s.ID)

		v.Pattern(stageField+".id", s.ID, stageIDPattern)

		for _, dep := range s.DependsOn {
			v.KnownRef(stageField+".depends_on", dep, known)
			v.Custom(dep != s.ID, stageField+".depends_on", "stage depends on itself")
		}
		v.Unique(stageField+".depends_on", s.DependsOn)

		for ti := range s.Steps {
			step := &s.Steps[ti]
			stepField := fmt.Sprintf("%s.steps[%s]", stageField, step.Name)

			kinds := step.kindsSet()
			switch len(kinds) {
			case 1:
			case 0:
				v.AddError(stepField, "must set one of: "+strings.Join(stepKindNames, ", "))
			default:
				v.AddError(stepField, "sets multiple kinds: "+strings.Join(kinds, ", "))
			}

			for _, prod := range step.Produces {
				if prev, dup := producedBy[prod.Name]; dup {
					v.AddError(stepField+".produces", fmt.Sprintf("artifact %q already produced by stage %q", prod.Name, prev))
					continue
				}
				producedBy[prod.Name] = s.ID
			}
		}
	}

	// Consumed artifacts must come from a stage the consumer transitively
	// depends on, so they are committed before the consumer starts.
	reachable := transitiveDeps(p)
	for si := range p.Stages {
		s := &p.Stages[si]
		for ti := range s.Steps {
			step := &s.Steps[ti]
			stepField := fmt.Sprintf("stages[%s].steps[%s]", s.ID, step.Name)
			for _, c := range step.Consumes {
				producer, ok := producedBy[c.Name]
				if !ok {
					v.AddError(stepField+".consumes", fmt.Sprintf("artifact %q is never produced", c.Name))
					continue
				}
				if !reachable[s.ID][producer] {
					v.AddError(stepField+".consumes",
						fmt.Sprintf("artifact %q is produced by stage %q, which is not a dependency of stage %q", c.Name, producer, s.ID))
				}
			}
		}
	}

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}

	// Reject cycles at load time so running never starts on a bad graph.
	if _, err := p.Levels(); err != nil {
		return err
	}
	return nil
}

// transitiveDeps returns, per stage, the set of stages reachable through
// depends_on edges.
func transitiveDeps(p *Pipeline) map[string]map[string]bool {
	direct := make(map[string][]string, len(p.Stages))
	for _, s := range p.Stages {
		direct[s.ID] = s.DependsOn
	}

	result := make(map[string]map[string]bool, len(p.Stages))

	var visit func(id string, seen map[string]bool)
	visit = func(id string, seen map[string]bool) {
		for _, dep := range direct[id] {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			visit(dep, seen)
		}
	}

	for _, s := range p.Stages {
		seen := make(map[string]bool)
		visit(s.ID, seen)
		result[s.ID] = seen
	}
	return result
}
