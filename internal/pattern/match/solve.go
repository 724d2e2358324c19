package match

import (
	"github.com/tendril-lang/tendril/internal/pattern/ast"
	"github.com/tendril-lang/tendril/internal/pattern/value"
)

// Solution is one fully-bound result of matching a program against a value:
// the scalar/group bindings plus each poured bucket's contents (under its
// name, unless a variable already uses that name), every recorded occurrence site (consumed by
// the edit driver), and the replacement-marker site if the pattern used one.
type Solution struct {
	Bindings    map[string]value.Value
	Occurrences map[string][]Occurrence
	ReplSite    *ReplSite
}

// Options configures one Solve call.
type Options struct {
	// StepBudget caps total engine work; <=0 means unbounded.
	StepBudget int
	// MaxSolutions caps how many solutions Solve will ever materialize,
	// guarding memory on patterns with combinatorial solution counts; <=0
	// selects a conservative built-in default. The iterator is otherwise
	// "pull" from the caller's perspective (Next() decides how much of the
	// already-computed stream to consume), a simplification of a fully
	// incremental suspension model.
	MaxSolutions int
}

const defaultMaxSolutions = 10000

// Solve matches program against subject at the root, returning a Solution
// iterator. An empty stream (Next()'s second return immediately false)
// means no match.
func Solve(program *ast.Program, subject value.Value, opts Options) *Iterator {
	env := NewEnv(opts.StepBudget)
	max := opts.MaxSolutions
	if max <= 0 {
		max = defaultMaxSolutions
	}
	it := &Iterator{}
	Node(program.Root, subject, nil, env, func() bool {
		it.solutions = append(it.solutions, snapshot(env))
		return len(it.solutions) < max
	})
	return it
}

func snapshot(env *Env) Solution {
	bindings := env.Bindings()
	for name, b := range env.buckets {
		if _, taken := bindings[name]; !taken {
			bindings[name] = env.BucketValue(name, b.sigil)
		}
	}
	return Solution{
		Bindings:    bindings,
		Occurrences: env.Occurrences(),
		ReplSite:    env.ReplSite(),
	}
}

// Iterator is a pull-driven stream of Solutions: the caller
// decides how many to consume by calling Next(); an abandoned Iterator
// needs no explicit close.
type Iterator struct {
	solutions []Solution
	pos       int
}

// Next returns the next solution, or ok=false once the stream is exhausted.
func (it *Iterator) Next() (Solution, bool) {
	if it.pos >= len(it.solutions) {
		return Solution{}, false
	}
	s := it.solutions[it.pos]
	it.pos++
	return s, true
}

// Matches reports whether the program matches subject at all, short-circuiting
// after the first solution.
func Matches(program *ast.Program, subject value.Value, opts Options) bool {
	env := NewEnv(opts.StepBudget)
	found := false
	Node(program.Root, subject, nil, env, func() bool {
		found = true
		return false
	})
	return found
}

// First returns the first solution, if any.
func First(program *ast.Program, subject value.Value, opts Options) (Solution, bool) {
	env := NewEnv(opts.StepBudget)
	var sol Solution
	found := false
	Node(program.Root, subject, nil, env, func() bool {
		sol = snapshot(env)
		found = true
		return false
	})
	return sol, found
}
