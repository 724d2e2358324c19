// Package perr provides structured diagnostics for the pattern compiler:
// lexical, syntax, validation, and guard-expression errors, formatted for
// both terminal output and JSON consumption by the LSP server and registry
// API.
package perr

import (
	"encoding/json"
	"fmt"

	"github.com/tendril-lang/tendril/internal/pattern/ast"
)

// Category distinguishes which pipeline stage raised the diagnostic.
type Category string

const (
	CategoryToken    Category = "token"
	CategoryParse    Category = "parse"
	CategoryValidate Category = "validate"
	CategoryGuard    Category = "guard"
	CategoryMatch    Category = "match"
)

// Severity indicates whether a diagnostic blocks compilation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a single structured error or warning with a source span.
type Diagnostic struct {
	Category Category      `json:"category"`
	Severity Severity      `json:"severity"`
	Message  string        `json:"message"`
	Span     ast.Span      `json:"span"`
	Expected string        `json:"expected,omitempty"`
	Actual   string        `json:"actual,omitempty"`
}

func (d *Diagnostic) Error() string { return d.Format() }

// Format renders a one-line, human-readable diagnostic for terminal output.
// Color is applied by the CLI layer (internal/cliui), not here, so this
// package stays usable headlessly from the LSP server and registry API.
func (d *Diagnostic) Format() string {
	loc := fmt.Sprintf("%d:%d", d.Span.StartLine, d.Span.StartCol)
	if d.Expected != "" {
		return fmt.Sprintf("%s: %s (expected %s, got %s) at %s", d.Category, d.Message, d.Expected, d.Actual, loc)
	}
	return fmt.Sprintf("%s: %s at %s", d.Category, d.Message, loc)
}

// ToJSON renders the diagnostic as indented JSON.
func (d *Diagnostic) ToJSON() (string, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func TokenError(msg string, span ast.Span) *Diagnostic {
	return &Diagnostic{Category: CategoryToken, Severity: SeverityError, Message: msg, Span: span}
}

func ParseError(msg string, span ast.Span) *Diagnostic {
	return &Diagnostic{Category: CategoryParse, Severity: SeverityError, Message: msg, Span: span}
}

func ParseErrorExpected(expected, actual string, span ast.Span) *Diagnostic {
	return &Diagnostic{
		Category: CategoryParse, Severity: SeverityError,
		Message:  fmt.Sprintf("expected %s, found %s", expected, actual),
		Span:     span, Expected: expected, Actual: actual,
	}
}

func ValidateError(msg string, span ast.Span) *Diagnostic {
	return &Diagnostic{Category: CategoryValidate, Severity: SeverityError, Message: msg, Span: span}
}

func GuardError(msg string, span ast.Span) *Diagnostic {
	return &Diagnostic{Category: CategoryGuard, Severity: SeverityError, Message: msg, Span: span}
}

func MatchError(msg string, span ast.Span) *Diagnostic {
	return &Diagnostic{Category: CategoryMatch, Severity: SeverityError, Message: msg, Span: span}
}

// List aggregates diagnostics from one compile pass.
type List []*Diagnostic

func (l List) Error() string {
	if len(l) == 0 {
		return "no errors"
	}
	s := l[0].Format()
	if len(l) > 1 {
		s += fmt.Sprintf(" (+%d more)", len(l)-1)
	}
	return s
}

// HasErrors reports whether any entry is severity error (not just warning).
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (l List) ToJSON() (string, error) {
	b, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
