// Package match executes a validated pattern AST against a value tree,
// producing a lazy stream of solutions. The engine is a single-threaded,
// backtracking interpreter: every choice point records a journal mark and
// rolls back to it on failure — no goroutines, no copy-on-write snapshots of
// the whole environment, just an undo log.
package match

import (
	"github.com/tendril-lang/tendril/internal/pattern/ast"
	"github.com/tendril-lang/tendril/internal/pattern/value"
)

// StepKind distinguishes a path segment into a value tree.
type StepKind int

const (
	StepKey StepKind = iota
	StepIndex
)

// PathStep is one hop in a root-relative path: either an object key or an
// array index.
type PathStep struct {
	Kind  StepKind
	Key   string
	Index int
}

// Path is a root-relative chain of steps into the matched value, used by
// the edit driver to locate every place a bound variable occurred.
type Path []PathStep

// OccKind distinguishes how an occurrence should be spliced during editing.
type OccKind int

const (
	OccScalar      OccKind = iota // replace the value at Path
	OccArraySplice                // splice a sequence into the array at Path[len-1].Index, length Len
	OccObjectKeys                 // splice an object's residual keys at Path (object itself)
)

// Occurrence records one position where a bound variable's value was found,
// for the edit driver's per-binding replacement mode.
type Occurrence struct {
	Path Path
	Kind OccKind
	Len  int // element count consumed, for OccArraySplice
}

// bucketEntry is one (key, value) pushed into a named bucket; Key is empty
// for array buckets.
type bucketEntry struct {
	key   string
	value value.Value
}

type bucketState struct {
	sigil   ast.Sigil
	entries []bucketEntry
	seen    map[string]value.Value // object-bucket dedup: key -> value already poured
}

// coverageFrame tracks which subject keys have been claimed by assertions
// while matching one Object node; pushed/popped around each Object match.
type coverageFrame struct {
	covered map[string]bool
}

type undoFn func()

// Env is the mutable match-time state: bindings, occurrences, bucket
// accumulation, and the active coverage-frame stack. Every mutation is
// journaled so a choice point can roll back in O(changes-since-snapshot).
type Env struct {
	bindings map[string]value.Value
	occs     map[string][]Occurrence
	buckets  map[string]*bucketState
	coverage []*coverageFrame

	journal []undoFn

	steps      int
	stepBudget int // <=0 means unbounded

	replSite *ReplSite
}

// ReplSite records where a `>> P <<` replacement marker matched, for the
// edit driver's replacement-marker mode.
type ReplSite struct {
	Path  Path
	Value value.Value
}

// SetReplSite records the current replacement-marker match site, journaled
// so backtracking out of it restores whatever (possibly nil) site preceded it.
func (e *Env) SetReplSite(p Path, v value.Value) {
	prev := e.replSite
	e.replSite = &ReplSite{Path: append(Path(nil), p...), Value: v}
	e.record(func() { e.replSite = prev })
}

// ReplSite returns the most recently recorded replacement site, or nil if
// the pattern contains no replacement marker.
func (e *Env) ReplSite() *ReplSite { return e.replSite }

// NewEnv creates an empty environment with the given step budget (<=0 for
// unbounded).
func NewEnv(stepBudget int) *Env {
	return &Env{
		bindings:   map[string]value.Value{},
		occs:       map[string][]Occurrence{},
		buckets:    map[string]*bucketState{},
		stepBudget: stepBudget,
	}
}

// Mark is an opaque snapshot id; Rollback(m) undoes everything recorded
// since the matching Mark() call.
type Mark int

// Mark returns a snapshot of the current journal position.
func (e *Env) Mark() Mark { return Mark(len(e.journal)) }

// Rollback undoes every journaled mutation recorded since m, in reverse order.
func (e *Env) Rollback(m Mark) {
	for i := len(e.journal) - 1; i >= int(m); i-- {
		e.journal[i]()
	}
	e.journal = e.journal[:m]
}

func (e *Env) record(undo undoFn) {
	e.journal = append(e.journal, undo)
}

// Step charges one unit of the step budget, returning false once the budget
// is exhausted.
func (e *Env) Step() bool {
	if e.stepBudget <= 0 {
		return true
	}
	e.steps++
	return e.steps <= e.stepBudget
}

// Lookup satisfies guard.Bindings, letting a Guard node evaluate its
// expression against the current scalar bindings.
func (e *Env) Lookup(name string) (value.Value, bool) {
	v, ok := e.bindings[name]
	return v, ok
}

// Bind records a new binding for name, or returns false if name is already
// bound to a structurally unequal value.
// A successful bind (new or consistent) journals an occurrence and, for new
// bindings, an undo that removes it.
func (e *Env) Bind(name string, v value.Value, at Path, kind OccKind, spliceLen int) bool {
	if existing, ok := e.bindings[name]; ok {
		if !value.Equal(existing, v) {
			return false
		}
	} else {
		e.bindings[name] = v
		e.record(func() { delete(e.bindings, name) })
	}
	e.addOccurrence(name, at, kind, spliceLen)
	return true
}

func (e *Env) addOccurrence(name string, at Path, kind OccKind, spliceLen int) {
	e.occs[name] = append(e.occs[name], Occurrence{Path: at, Kind: kind, Len: spliceLen})
	idx := len(e.occs[name]) - 1
	e.record(func() {
		e.occs[name] = e.occs[name][:idx]
	})
}

// Bindings returns a snapshot copy of the current scalar/group bindings.
func (e *Env) Bindings() map[string]value.Value {
	out := make(map[string]value.Value, len(e.bindings))
	for k, v := range e.bindings {
		out[k] = v
	}
	return out
}

// Occurrences returns the accumulated occurrence sites for every bound
// variable, keyed by name, as of now.
func (e *Env) Occurrences() map[string][]Occurrence {
	out := make(map[string][]Occurrence, len(e.occs))
	for k, v := range e.occs {
		cp := append([]Occurrence(nil), v...)
		out[k] = cp
	}
	return out
}

// PushCoverage starts a new coverage frame for an Object match in progress.
func (e *Env) PushCoverage() {
	e.coverage = append(e.coverage, &coverageFrame{covered: map[string]bool{}})
}

// PopCoverage discards the innermost coverage frame once an Object match
// (successful or not) is done with it.
func (e *Env) PopCoverage() {
	e.coverage = e.coverage[:len(e.coverage)-1]
}

// Cover marks key as claimed within the innermost coverage frame, journaled
// so backtracking un-claims it.
func (e *Env) Cover(key string) {
	frame := e.coverage[len(e.coverage)-1]
	if frame.covered[key] {
		return
	}
	frame.covered[key] = true
	e.record(func() { delete(frame.covered, key) })
}

// Covered reports the innermost coverage frame's claimed-key set.
func (e *Env) Covered() map[string]bool {
	return e.coverage[len(e.coverage)-1].covered
}

// Pour pushes a (key, value) pair into an object bucket or a value into an
// array bucket (key=="" for array buckets). Returns false on an object
// bucket's duplicate-key-differing-value conflict.
func (e *Env) Pour(name string, sigil ast.Sigil, key string, v value.Value) bool {
	b, ok := e.buckets[name]
	if !ok {
		b = &bucketState{sigil: sigil, seen: map[string]value.Value{}}
		e.buckets[name] = b
		e.record(func() { delete(e.buckets, name) })
	}
	if sigil == ast.SigilObject {
		if prev, dup := b.seen[key]; dup {
			return value.Equal(prev, v)
		}
		b.seen[key] = v
	}
	b.entries = append(b.entries, bucketEntry{key: key, value: v})
	idx := len(b.entries) - 1
	e.record(func() {
		b.entries = b.entries[:idx]
		if sigil == ast.SigilObject {
			delete(b.seen, key)
		}
	})
	return true
}

// BucketValue materializes a bucket's current contents as a Value: an
// Array for array buckets, an Object for object buckets. A never-poured
// bucket materializes as an empty collection of its declared sigil.
func (e *Env) BucketValue(name string, sigil ast.Sigil) value.Value {
	b, ok := e.buckets[name]
	if !ok {
		if sigil == ast.SigilArray {
			return value.Array(nil)
		}
		return value.Obj(value.EmptyObject())
	}
	if b.sigil == ast.SigilArray {
		items := make([]value.Value, len(b.entries))
		for i, en := range b.entries {
			items[i] = en.value
		}
		return value.Array(items)
	}
	keys := make([]string, 0, len(b.entries))
	vals := make(map[string]value.Value, len(b.entries))
	for _, en := range b.entries {
		if _, ok := vals[en.key]; !ok {
			keys = append(keys, en.key)
		}
		vals[en.key] = en.value
	}
	return value.Obj(value.NewObject(keys, vals))
}
