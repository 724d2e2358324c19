package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tendril-lang/tendril/pkg/tendril"
)

var editPlanArg string

func init() {
	editCmd.Flags().StringVar(&editPlanArg, "plan", "", `JSON object mapping variable name to its new value, e.g. '{"x":42,"$0":null}' (required)`)
	_ = editCmd.MarkFlagRequired("plan")
}

var editCmd = &cobra.Command{
	Use:   "edit <pattern> <subject>",
	Short: "Replace every occurrence of named variables with new values",
	Long: `Match pattern against subject at the root, then for every variable named
in --plan, splice its new value into every position that variable occurred
at. "$0" targets the whole match.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readArgOrFile(args[0])
		if err != nil {
			return err
		}
		prog := compileOrExit(source)

		subj, err := loadSubject(args[1])
		if err != nil {
			return fmt.Errorf("reading subject: %w", err)
		}

		var rawPlan map[string]json.RawMessage
		if err := json.Unmarshal([]byte(editPlanArg), &rawPlan); err != nil {
			return fmt.Errorf("parsing --plan: %w", err)
		}
		plan := make(map[string]tendril.Value, len(rawPlan))
		for name, raw := range rawPlan {
			v, err := tendril.FromJSON(raw)
			if err != nil {
				return fmt.Errorf("parsing --plan[%q]: %w", name, err)
			}
			plan[name] = v
		}

		out, ok, err := prog.EditAll(subj, func(map[string]tendril.Value) map[string]tendril.Value {
			return plan
		}, tendril.Options{StepBudget: matchBudget, MaxSolutions: matchMaxSolutions})
		if !ok {
			fmt.Println("no match")
			return errNoMatch
		}
		if err != nil {
			return err
		}
		printValue(out)
		return nil
	},
}
