package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/stageflow/pipeline"
)

var validateVars []string

var validateCmd = &cobra.Command{
	Use:   "validate <pipeline file>",
	Short: "Validate a pipeline definition without running it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringArrayVar(&validateVars, "var", nil, "pipeline variable override (name=value, repeatable)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	overrides, err := parseVarFlags(validateVars)
	if err != nil {
		return err
	}

	p, err := pipeline.Load(args[0], overrides)
	if err != nil {
		return err
	}

	levels, err := p.Levels()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Pipeline %s is valid: %d stages\n", p.Name, len(p.Stages))
	for i, level := range levels {
		fmt.Fprintf(out, "  level %d: %s\n", i+1, strings.Join(level, ", "))
	}
	return nil
}
