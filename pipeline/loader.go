package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/stageflow/errors"
)

// Load reads, interpolates and validates a pipeline definition from a file.
// Overrides take precedence over the document's variables block.
func Load(path string, overrides map[string]string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("reading pipeline file %s", path)).WithCause(err)
	}
	p, err := Parse(data, overrides)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Parse builds a validated pipeline from raw YAML. Parsing runs in phases:
// variables are extracted and interpolated into the document, the expanded
// document is checked against the JSON schema, then strictly decoded and
// semantically validated.
func Parse(data []byte, overrides map[string]string) (*Pipeline, error) {
	vars, err := extractVariables(data)
	if err != nil {
		return nil, err
	}
	for k, v := range overrides {
		vars[k] = v
	}

	expanded, err := interpolate(data, vars)
	if err != nil {
		return nil, errors.ConfigInvalid("interpolating pipeline variables").WithCause(err)
	}

	violations, err := validateSchema(expanded)
	if err != nil {
		return nil, errors.ConfigInvalid("checking pipeline structure").WithCause(err)
	}
	if len(violations) > 0 {
		return nil, errors.ConfigInvalid("pipeline definition is invalid").
			WithDetail("violations", violations)
	}

	var p Pipeline
	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, errors.ConfigInvalid("parsing pipeline definition").WithCause(err)
	}
	p.Variables = vars

	if err := ValidatePipeline(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// extractVariables decodes only the variables block so interpolation can run
// before the full document is parsed.
func extractVariables(data []byte) (map[string]string, error) {
	var head struct {
		Variables map[string]string `yaml:"variables"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, errors.ConfigInvalid("parsing pipeline definition").WithCause(err)
	}
	if head.Variables == nil {
		head.Variables = make(map[string]string)
	}
	return head.Variables, nil
}

// interpolate substitutes ${name} references with variable values. $${name}
// escapes to a literal ${name}. Referencing an undefined variable fails.
func interpolate(data []byte, vars map[string]string) ([]byte, error) {
	s := string(data)
	var out strings.Builder
	out.Grow(len(s))

	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], "$${") {
			out.WriteString("${")
			i += 3
			continue
		}
		if strings.HasPrefix(s[i:], "${") {
			end := strings.Index(s[i:], "}")
			if end < 0 {
				return nil, fmt.Errorf("unterminated variable reference at offset %d", i)
			}
			name := s[i+2 : i+end]
			val, ok := vars[name]
			if !ok {
				return nil, fmt.Errorf("undefined variable %q", name)
			}
			out.WriteString(val)
			i += end + 1
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return []byte(out.String()), nil
}
