package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tendril-lang/tendril/internal/utils"
	"github.com/tendril-lang/tendril/pkg/tendril"
)

var errNoMatch = errors.New("no match")

var compileDir string

func init() {
	compileCmd.Flags().StringVar(&compileDir, "dir", "", "recursively compile every .td file under this directory instead of a single pattern")
}

var compileCmd = &cobra.Command{
	Use:   "compile [pattern]",
	Short: "Compile a pattern and report diagnostics",
	Long:  "Lex, parse, and validate a pattern, printing a success message or the full diagnostic list. With --dir, compiles every .td file under a directory and reports which ones fail.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if compileDir != "" {
			return compileDirectory(compileDir)
		}
		if len(args) != 1 {
			return fmt.Errorf("compile requires a pattern argument or --dir")
		}
		source, err := readArgOrFile(args[0])
		if err != nil {
			return err
		}
		_ = compileOrExit(source)
		successf("pattern compiles cleanly")
		return nil
	},
}

func compileDirectory(dir string) error {
	files, err := utils.FindPatternFiles(dir)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", dir, err)
	}
	failed := 0
	for _, path := range files {
		source, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if _, diags := tendril.Compile(string(source)); len(diags) > 0 {
			failed++
			fmt.Printf("%s:\n", path)
			reportDiagnostics(diags)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pattern file(s) failed to compile", failed, len(files))
	}
	successf("%d pattern file(s) compile cleanly", len(files))
	return nil
}

var (
	matchBudget       int
	matchMaxSolutions int
	matchAll          bool
)

func init() {
	for _, c := range []*cobra.Command{matchCmd, findCmd} {
		c.Flags().IntVar(&matchBudget, "step-budget", 0, "cap engine work (0 = unbounded)")
		c.Flags().IntVar(&matchMaxSolutions, "max-solutions", 0, "cap materialized solutions (0 = engine default)")
	}
	matchCmd.Flags().BoolVar(&matchAll, "all", false, "print every solution, not just the first")
}

var matchCmd = &cobra.Command{
	Use:   "match <pattern> <subject>",
	Short: "Match a pattern against a subject value",
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
		opts := tendril.Options{StepBudget: matchBudget, MaxSolutions: matchMaxSolutions}

		if !matchAll {
			sol, ok := prog.First(subj, opts)
			if !ok {
				if !jsonOut {
					fmt.Println("no match")
				}
				return errNoMatch
			}
			printBindings(sol.Bindings)
			return nil
		}

		sols := prog.Solutions(subj, opts)
		if len(sols) == 0 {
			if !jsonOut {
				fmt.Println("no match")
			}
			return errNoMatch
		}
		for _, s := range sols {
			printBindings(s.Bindings)
		}
		return nil
	},
}
