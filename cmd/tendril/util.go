package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	ui "github.com/tendril-lang/tendril/internal/cliui"
	"github.com/tendril-lang/tendril/pkg/tendril"
)

// readArgOrFile treats arg as literal text unless it names an existing file,
// in which case its contents are used instead — lets `tendril match pat.td
// data.json` and `tendril match '{x:1}' data.json` both work.
func readArgOrFile(arg string) (string, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		b, err := os.ReadFile(arg)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return arg, nil
}

func readStdin() (string, error) {
	b, err := io.ReadAll(os.Stdin)
	return string(b), err
}

func compileOrExit(source string) *tendril.Program {
	prog, diags := tendril.Compile(source)
	if len(diags) > 0 {
		reportDiagnostics(diags)
		os.Exit(1)
	}
	return prog
}

func reportDiagnostics(diags tendril.Diagnostics) {
	if jsonOut {
		out, _ := diags.ToJSON()
		fmt.Fprintln(os.Stderr, out)
		return
	}
	for _, d := range diags {
		ui.WriteError(os.Stderr, ui.ErrorOptions{
			Level:   ui.ErrorLevelError,
			Context: string(d.Category),
			Problem: d.Format(),
			NoColor: noColor,
		})
	}
}

func loadSubject(arg string) (tendril.Value, error) {
	text, err := readArgOrFile(arg)
	if err != nil {
		return tendril.Value{}, err
	}
	return tendril.FromJSON([]byte(text))
}

func printValue(v tendril.Value) {
	b, err := json.MarshalIndent(tendril.ToJSON(v), "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(string(b))
}

func printBindings(b map[string]tendril.Value) {
	if jsonOut {
		out := map[string]interface{}{}
		for k, v := range b {
			out[k] = tendril.ToJSON(v)
		}
		enc, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(enc))
		return
	}
	if len(b) == 0 {
		fmt.Println(ui.FormatSuccess("matched (no bindings)", noColor))
		return
	}
	kv := ui.NewKeyValueTable(os.Stdout, noColor)
	for name, v := range b {
		enc, _ := json.Marshal(tendril.ToJSON(v))
		kv.AddRow(name, string(enc))
	}
	kv.Render()
}

func successf(format string, args ...interface{}) {
	if jsonOut {
		return
	}
	fmt.Println(ui.FormatSuccess(fmt.Sprintf(format, args...), noColor))
}

func colorize(c *color.Color, s string) string {
	if noColor {
		return s
	}
	return c.Sprint(s)
}
