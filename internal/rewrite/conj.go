package rewrite

import "synthctl/internal/ast"

// BreakConj flattens a right- or left-nested conjunction into its leaves.
// A non-And expression is returned as a single-element slice.
func BreakConj(e ast.Expr) []ast.Expr {
	b, ok := e.(*ast.Bin)
	if !ok || b.Op != ast.OpAnd {
		return []ast.Expr{e}
	}
	return append(BreakConj(b.A), BreakConj(b.B)...)
}

// BreakDisj flattens a nested disjunction into its leaves.
func BreakDisj(e ast.Expr) []ast.Expr {
	b, ok := e.(*ast.Bin)
	if !ok || b.Op != ast.OpOr {
		return []ast.Expr{e}
	}
	return append(BreakDisj(b.A), BreakDisj(b.B)...)
}

// MkAnd folds clauses into a single conjunction, short-circuiting the empty
// and singleton cases onto a bare `true` literal / the clause itself.
func MkAnd(clauses ...ast.Expr) ast.Expr {
	if len(clauses) == 0 {
		return &ast.Literal{Value: true, T: ast.BoolType{}}
	}
	out := clauses[0]
	for _, c := range clauses[1:] {
		out = &ast.Bin{Op: ast.OpAnd, A: out, B: c, T: ast.BoolType{}}
	}
	return out
}

// MkOr folds clauses into a single disjunction, short-circuiting the empty
// and singleton cases onto a bare `false` literal / the clause itself.
func MkOr(clauses ...ast.Expr) ast.Expr {
	if len(clauses) == 0 {
		return &ast.Literal{Value: false, T: ast.BoolType{}}
	}
	out := clauses[0]
	for _, c := range clauses[1:] {
		out = &ast.Bin{Op: ast.OpOr, A: out, B: c, T: ast.BoolType{}}
	}
	return out
}
