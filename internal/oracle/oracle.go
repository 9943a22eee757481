// Package oracle is the thin contract over a decision procedure for
// quantifier-free linear integer arithmetic. Validity queries use push/pop
// disciplined scopes so temporary assumptions never leak between candidates.
package oracle

import "synthctl/internal/ast"

// Model is a counterexample: an assignment of every scalar free variable
// mentioned in the query that witnesses it.
type Model struct {
	Ints  map[string]int64
	Bools map[string]bool
}

func NewModel() *Model {
	return &Model{Ints: map[string]int64{}, Bools: map[string]bool{}}
}

// Oracle is the contract every synthesis component reasons against. Scope
// management follows push/pop so that a real SMT backend could replace
// BoundedOracle without changing any call site.
type Oracle interface {
	// Push adds assumptions to the current scope.
	Push(assumptions ...ast.Expr)

	// Pop discards the assumptions added by the most recent Push.
	Pop()

	// Valid reports whether the conjunction of all assumptions currently in
	// scope implies phi. A timeout/unknown result is conservatively mapped
	// to false.
	Valid(phi ast.Expr) bool

	// Equiv is Valid(a = b).
	Equiv(a, b ast.Expr) bool

	// EquivForPruning is like Equiv, but an unknown result is conservatively
	// mapped to true — callers use it only to decide whether two candidates
	// may be treated as interchangeable during pruning, where a false
	// positive merely costs a missed optimization rather than unsoundness.
	EquivForPruning(a, b ast.Expr) bool

	// CounterExample searches for an assignment, consistent with the
	// assumptions currently in scope, that satisfies phi. Three outcomes:
	// a non-nil model witnesses phi (unsat is false); (nil, true) means phi
	// is unsatisfiable under the current scope, i.e. its negation is valid;
	// (nil, false) means unknown — the procedure gave up or the formula
	// falls outside its fragment — and the caller must apply its documented
	// conservative mapping rather than treat the result as decided.
	CounterExample(phi ast.Expr) (model *Model, unsat bool)
}

// Scope pushes assumptions, runs f, and pops unconditionally — the
// disciplined pattern every validity query in the toolchain follows.
func Scope(o Oracle, assumptions []ast.Expr, f func()) {
	o.Push(assumptions...)
	defer o.Pop()
	f()
}
