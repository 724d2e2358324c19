// Package tendril is the embeddable API for compiling and running Tendril
// patterns: Compile turns source text into a reusable Program; Program's
// methods run it against subject values. This is the single entry point
// external callers (the CLI, the registry service, the LSP server) use —
// none of them touch internal/pattern/* directly.
package tendril

import (
	"strconv"

	"github.com/tendril-lang/tendril/internal/pattern/ast"
	"github.com/tendril-lang/tendril/internal/pattern/edit"
	"github.com/tendril-lang/tendril/internal/pattern/lexer"
	"github.com/tendril-lang/tendril/internal/pattern/match"
	"github.com/tendril-lang/tendril/internal/pattern/parser"
	"github.com/tendril-lang/tendril/internal/pattern/perr"
	"github.com/tendril-lang/tendril/internal/pattern/scan"
	"github.com/tendril-lang/tendril/internal/pattern/validate"
	"github.com/tendril-lang/tendril/internal/pattern/value"
)

// Value is the semi-structured value type patterns match against; re-exported
// so callers never need to import an internal package to build a subject.
type Value = value.Value

// Diagnostic is a structured compile error or warning (source span, category,
// severity); re-exported from the internal errors package.
type Diagnostic = perr.Diagnostic

// Diagnostics is a list of Diagnostic, satisfying error when non-empty.
type Diagnostics = perr.List

// Solution is one match result: the bindings produced for every named
// variable/bucket, the occurrence sites used by Program.EditAll, and the
// replacement-marker site used by Program.ReplaceMarker.
type Solution = match.Solution

// Found is one match discovered by Program.Find, tagged with its position.
type Found = scan.Found

// Options tunes a single match/find run: StepBudget guards against runaway
// patterns, MaxSolutions bounds how much of a large solution space gets
// materialized. MaxResults lives on FindOptions.
type Options struct {
	StepBudget   int
	MaxSolutions int
}

// Program is a compiled, validated pattern ready to run against values.
type Program struct {
	ast *ast.Program
	src string
}

// Compile lexes, parses, and validates source, returning a ready-to-run
// Program or the full list of diagnostics found along the way.
func Compile(source string) (*Program, Diagnostics) {
	tokens, lexErrs := lexer.New(source).ScanTokens()
	var diags perr.List
	for _, le := range lexErrs {
		diags = append(diags, perr.TokenError(le.Message, ast.Span{
			StartLine: le.Line, StartCol: le.Column,
			EndLine: le.Line, EndCol: le.Column,
		}))
	}
	if len(diags) > 0 {
		return nil, diags
	}

	prog, parseErrs := parser.Parse(tokens)
	if len(parseErrs) > 0 {
		return nil, parseErrs
	}

	validated, validateErrs := validate.Validate(prog)
	if len(validateErrs) > 0 {
		return nil, validateErrs
	}

	return &Program{ast: validated, src: source}, nil
}

// MustCompile compiles source and panics on any diagnostic, for tests and
// package-level pattern literals.
func MustCompile(source string) *Program {
	p, diags := Compile(source)
	if len(diags) > 0 {
		panic(diags.Error())
	}
	return p
}

// Source returns the pattern text the Program was compiled from.
func (p *Program) Source() string { return p.src }

func toMatchOptions(o Options) match.Options {
	return match.Options{StepBudget: o.StepBudget, MaxSolutions: o.MaxSolutions}
}

// Matches reports whether the pattern matches subject at all.
func (p *Program) Matches(subject Value, opts Options) bool {
	return match.Matches(p.ast, subject, toMatchOptions(opts))
}

// First returns the first solution, if any.
func (p *Program) First(subject Value, opts Options) (Solution, bool) {
	return match.First(p.ast, subject, toMatchOptions(opts))
}

// Solutions returns every solution for matching the pattern against subject
// at the root, up to Options.MaxSolutions.
func (p *Program) Solutions(subject Value, opts Options) []Solution {
	it := match.Solve(p.ast, subject, toMatchOptions(opts))
	var out []Solution
	for {
		s, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, s)
	}
	return out
}

// FindOptions tunes Program.Find in addition to the base match Options.
type FindOptions struct {
	Options
	MaxResults  int
	Overlapping bool
}

// Find enumerates every position within root where the pattern matches
//.
func (p *Program) Find(root Value, opts FindOptions) []Found {
	return scan.Find(p.ast, root, scan.Options{
		StepBudget:          opts.StepBudget,
		MaxSolutionsPerSite: opts.MaxSolutions,
		MaxResults:          opts.MaxResults,
		Overlapping:         opts.Overlapping,
	})
}

// PathString renders a Found's position as a dotted/bracketed path string
// (e.g. "users[2].name"), for human-readable output.
func PathString(f Found) string {
	var b []byte
	for i, step := range f.Path {
		switch step.Kind {
		case match.StepKey:
			if i > 0 {
				b = append(b, '.')
			}
			b = append(b, step.Key...)
		case match.StepIndex:
			b = append(b, '[')
			b = append(b, []byte(strconv.Itoa(step.Index))...)
			b = append(b, ']')
		}
	}
	if len(b) == 0 {
		return "$"
	}
	return string(b)
}

// ReplaceAll computes fn(bindings) against the first root-level solution and
// returns the replaced value; ok is false if the pattern didn't match.
func (p *Program) ReplaceAll(root Value, fn func(map[string]Value) Value, opts Options) (Value, bool) {
	sol, ok := p.First(root, opts)
	if !ok {
		return root, false
	}
	return edit.ReplaceAll(root, sol, edit.ReplaceFn(fn)), true
}

// EditAll matches, then applies planFn's per-variable replacement plan
// against every recorded occurrence of each named variable; ok is false if
// the pattern didn't match. Splicing a non-array value into an array-slice
// (@name) binding's occurrence is a hard error, returned as err.
func (p *Program) EditAll(root Value, planFn func(map[string]Value) map[string]Value, opts Options) (out Value, ok bool, err error) {
	sol, ok := p.First(root, opts)
	if !ok {
		return root, false, nil
	}
	out, err = edit.EditAll(root, sol, edit.PlanFn(planFn))
	return out, true, err
}

// ReplaceMarker matches, then applies fn only at the pattern's `>> P <<`
// replacement-marker site. Returns an error if the pattern has no marker.
func (p *Program) ReplaceMarker(root Value, fn func(map[string]Value) Value, opts Options) (Value, bool, error) {
	sol, ok := p.First(root, opts)
	if !ok {
		return root, false, nil
	}
	out, err := edit.ReplaceMarker(root, sol, edit.ReplaceFn(fn))
	return out, true, err
}
