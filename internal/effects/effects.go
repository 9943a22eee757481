// Package effects tracks, for an expression or a derived query, which state
// variables it depends on. The sketcher consults it to decide whether a
// promoted sub-expression needs its own re-synthesizable sub-query, or can
// be inlined because it never touches abstract state.
package effects

import (
	"github.com/hashicorp/go-set/v3"
	"synthctl/internal/ast"
	"synthctl/internal/rewrite"
)

// StateVars returns the subset of an expression's free variables that name
// a declared state variable.
func StateVars(e ast.Expr, stateVarNames *set.Set[string]) *set.Set[string] {
	fv := rewrite.FreeVars(e)
	return fv.Intersect(stateVarNames).(*set.Set[string])
}

// IsStateless reports whether e has no dependency on any state variable —
// the condition under which make_subgoal may inline the expression instead
// of promoting it to its own query.
func IsStateless(e ast.Expr, stateVarNames *set.Set[string]) bool {
	return StateVars(e, stateVarNames).Empty()
}

// StmtStateVars is the statement-level analog of StateVars, used when
// deciding whether an emitted update-sketch body touches abstract state at
// all (e.g. to skip generating a no-op re-synthesis pass).
func StmtStateVars(s ast.Stmt, stateVarNames *set.Set[string]) *set.Set[string] {
	fv := rewrite.FreeVarsStmt(s)
	return fv.Intersect(stateVarNames).(*set.Set[string])
}
