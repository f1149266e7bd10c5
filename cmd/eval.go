package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/competency-advisor/internal/services"
)

// evalFile accepts either a bare list of cases or {cases: [...]}.
type evalFile struct {
	Cases []services.EvalCase `yaml:"cases"`
}

func loadEvalCases(path string) ([]services.EvalCase, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []services.EvalCase
	if err := yaml.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var f evalFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f.Cases, nil
}

var evalCmd = &cobra.Command{
	Use:   "eval <questions.yaml>",
	Short: "Score advisor answers for a question set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := loadEvalCases(args[0])
		if err != nil {
			return err
		}
		if len(cases) == 0 {
			return fmt.Errorf("%s: no cases", args[0])
		}
		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Services.Eval.Evaluate(cmd.Context(), cases)
		if err != nil {
			return err
		}
		return printJSON(cmd, report)
	},
}
