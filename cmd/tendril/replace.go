package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tendril-lang/tendril/pkg/tendril"
)

var replaceWith string

func init() {
	replaceCmd.Flags().StringVar(&replaceWith, "with", "", "replacement value, as a JSON literal (required)")
	_ = replaceCmd.MarkFlagRequired("with")
}

var replaceCmd = &cobra.Command{
	Use:   "replace <pattern> <subject>",
	Short: "Replace the whole matched value with a literal",
	Long:  "Match pattern against subject at the root and, on success, substitute the value given by --with, ignoring its bindings.",
	Args:  cobra.ExactArgs(2),
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

		repl, err := tendril.FromJSON([]byte(replaceWith))
		if err != nil {
			return fmt.Errorf("parsing --with: %w", err)
		}

		out, ok := prog.ReplaceAll(subj, func(map[string]tendril.Value) tendril.Value {
			return repl
		}, tendril.Options{StepBudget: matchBudget, MaxSolutions: matchMaxSolutions})
		if !ok {
			fmt.Println("no match")
			return errNoMatch
		}
		printValue(out)
		return nil
	},
}
