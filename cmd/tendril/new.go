package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	strcase "github.com/tendril-lang/tendril/internal/util/strings"
)

var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Scaffold a new pattern file interactively",
	Long:  "Walk through a short wizard and write a starter .td pattern file.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		if name == "" {
			if err := survey.AskOne(&survey.Input{
				Message: "Pattern file name (without .td):",
				Default: "pattern",
			}, &name); err != nil {
				return err
			}
		}
		if strings.ContainsAny(name, "/\\") || strings.HasPrefix(name, ".") {
			return fmt.Errorf("invalid pattern name: %s", name)
		}
		name = strcase.ToSnakeCase(name)

		var shape string
		if err := survey.AskOne(&survey.Select{
			Message: "What does the subject's root look like?",
			Options: []string{"object", "array", "scalar"},
			Default: "object",
		}, &shape); err != nil {
			return err
		}

		var wantGuard bool
		if err := survey.AskOne(&survey.Confirm{
			Message: "Include a guard expression example?",
			Default: false,
		}, &wantGuard); err != nil {
			return err
		}

		body := scaffoldBody(shape, wantGuard)
		path := name + ".td"
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && filepath.Dir(path) != "." {
			return err
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}

		successf("created %s", path)
		fmt.Println("Try it:")
		fmt.Printf("  tendril match %s <subject.json>\n", path)
		return nil
	},
}

func scaffoldBody(shape string, wantGuard bool) string {
	var b strings.Builder
	switch shape {
	case "array":
		if wantGuard {
			b.WriteString("[($first where $first > 0) ...]\n")
		} else {
			b.WriteString("[$first ...]\n")
		}
	case "scalar":
		if wantGuard {
			b.WriteString("($n where $n > 0)\n")
		} else {
			b.WriteString("$n\n")
		}
	default:
		if wantGuard {
			b.WriteString("({\n  id: $id\n  status: $status\n} where $status != \"deleted\")\n")
		} else {
			b.WriteString("{\n  id: $id\n  %\n}\n")
		}
	}
	return b.String()
}
