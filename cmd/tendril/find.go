package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tendril-lang/tendril/pkg/tendril"
)

var (
	findMaxResults  int
	findOverlapping bool
)

func init() {
	findCmd.Flags().IntVar(&findMaxResults, "max-results", 0, "cap total matches reported (0 = unbounded)")
	findCmd.Flags().BoolVar(&findOverlapping, "overlapping", false, "also report matches nested inside an already-found match")
}

var findCmd = &cobra.Command{
	Use:   "find <pattern> <subject>",
	Short: "Find every position where a pattern matches within a subject",
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

		found := prog.Find(subj, tendril.FindOptions{
			Options:     tendril.Options{StepBudget: matchBudget, MaxSolutions: matchMaxSolutions},
			MaxResults:  findMaxResults,
			Overlapping: findOverlapping,
		})

		if jsonOut {
			type result struct {
				Path     string                 `json:"path"`
				Value    interface{}            `json:"value"`
				Bindings map[string]interface{} `json:"bindings"`
			}
			out := make([]result, len(found))
			for i, f := range found {
				bindings := map[string]interface{}{}
				for k, v := range f.Solution.Bindings {
					bindings[k] = tendril.ToJSON(v)
				}
				out[i] = result{Path: tendril.PathString(f), Value: tendril.ToJSON(f.Value), Bindings: bindings}
			}
			enc, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(enc))
			return nil
		}

		if len(found) == 0 {
			fmt.Println("no matches")
			return nil
		}
		for _, f := range found {
			fmt.Printf("%s:\n", tendril.PathString(f))
			printBindings(f.Solution.Bindings)
		}
		successf("%d match(es)", len(found))
		return nil
	},
}
