package rewrite

import (
	"testing"

	"github.com/hashicorp/go-set/v3"
	"github.com/stretchr/testify/require"

	"synthctl/internal/ast"
)

// TestAlphaEquivalentIgnoresBoundVariableNames checks that two lambdas
// differing only in their bound argument's name are alpha-equivalent.
func TestAlphaEquivalentIgnoresBoundVariableNames(t *testing.T) {
	bagT := ast.BagType{Elem: ast.IntType{}}
	x := &ast.Var{Name: "x", T: ast.IntType{}}
	y := &ast.Var{Name: "y", T: ast.IntType{}}
	e1 := &ast.Map{Bag: &ast.Var{Name: "xs", T: bagT}, F: &ast.Lambda{Arg: x, Body: x}, T: bagT}
	e2 := &ast.Map{Bag: &ast.Var{Name: "xs", T: bagT}, F: &ast.Lambda{Arg: y, Body: y}, T: bagT}

	require.True(t, AlphaEquivalent(e1, e2))
}

// TestAlphaEquivalentDistinguishesDifferentBodies checks the negative case:
// two lambdas with structurally different bodies are not alpha-equivalent
// even with matching argument names.
func TestAlphaEquivalentDistinguishesDifferentBodies(t *testing.T) {
	bagT := ast.BagType{Elem: ast.IntType{}}
	x := &ast.Var{Name: "x", T: ast.IntType{}}
	one := &ast.Literal{Value: int64(1), T: ast.IntType{}}
	e1 := &ast.Map{Bag: &ast.Var{Name: "xs", T: bagT}, F: &ast.Lambda{Arg: x, Body: x}, T: bagT}
	e2 := &ast.Map{Bag: &ast.Var{Name: "xs", T: bagT}, F: &ast.Lambda{Arg: x, Body: &ast.Bin{Op: ast.OpAdd, A: x, B: one, T: ast.IntType{}}}, T: bagT}

	require.False(t, AlphaEquivalent(e1, e2))
}

// TestAlphaEquivalentLambdaMatchesExportedAlphaEquivalent checks that the
// *ast.Lambda-specific wrapper agrees with AlphaEquivalent on the bodies it
// wraps — heap.heapFunc relies on this to short-circuit merging two heaps'
// key functions when they already coincide up to renaming.
func TestAlphaEquivalentLambdaMatchesExportedAlphaEquivalent(t *testing.T) {
	x := &ast.Var{Name: "x", T: ast.IntType{}}
	y := &ast.Var{Name: "y", T: ast.IntType{}}
	f1 := &ast.Lambda{Arg: x, Body: x}
	f2 := &ast.Lambda{Arg: y, Body: y}

	require.True(t, AlphaEquivalentLambda(f1, f2))
	require.True(t, AlphaEquivalent(f1.Apply(x), f2.Apply(x)))
}

// TestRewriteAppliesVisitorBottomUp checks that Rewrite visits children
// before parents by having the visitor fold integer literal additions, which
// only works if the operands have already been folded by the time the outer
// Bin is visited.
func TestRewriteAppliesVisitorBottomUp(t *testing.T) {
	one := &ast.Literal{Value: int64(1), T: ast.IntType{}}
	two := &ast.Literal{Value: int64(2), T: ast.IntType{}}
	inner := &ast.Bin{Op: ast.OpAdd, A: one, B: two, T: ast.IntType{}}
	outer := &ast.Bin{Op: ast.OpAdd, A: inner, B: one, T: ast.IntType{}}

	fold := func(e ast.Expr) ast.Expr {
		b, ok := e.(*ast.Bin)
		if !ok || b.Op != ast.OpAdd {
			return e
		}
		a, aOk := b.A.(*ast.Literal)
		bb, bOk := b.B.(*ast.Literal)
		if !aOk || !bOk {
			return e
		}
		return &ast.Literal{Value: a.Value.(int64) + bb.Value.(int64), T: ast.IntType{}}
	}

	got := Rewrite(outer, fold)
	lit, ok := got.(*ast.Literal)
	require.True(t, ok, "expected both additions folded bottom-up, got %s", got)
	require.Equal(t, int64(4), lit.Value)
}

// TestRewriteStmtRewritesEveryNestedExpression checks that RewriteStmt walks
// into a CallStmt's arguments and a ForEach's bag/body.
func TestRewriteStmtRewritesEveryNestedExpression(t *testing.T) {
	bagT := ast.BagType{Elem: ast.IntType{}}
	xs := &ast.Var{Name: "xs", T: bagT}
	x := &ast.Var{Name: "x", T: ast.IntType{}}
	replaceXWithZero := func(e ast.Expr) ast.Expr {
		if v, ok := e.(*ast.Var); ok && v.Name == "x" {
			return &ast.Literal{Value: int64(0), T: ast.IntType{}}
		}
		return e
	}

	s := &ast.ForEach{Var: x, Bag: xs, Body: &ast.CallStmt{Target: xs, Func: ast.FuncAdd, Args: []ast.Expr{x}}}
	got := RewriteStmt(s, replaceXWithZero).(*ast.ForEach)
	call := got.Body.(*ast.CallStmt)
	lit, ok := call.Args[0].(*ast.Literal)
	require.True(t, ok)
	require.Equal(t, int64(0), lit.Value)
}

// TestSubstReplacesFreeOccurrencesOnly checks that Subst replaces a free
// variable in the top-level expression but leaves a same-named lambda-bound
// occurrence alone.
func TestSubstReplacesFreeOccurrencesOnly(t *testing.T) {
	bagT := ast.BagType{Elem: ast.IntType{}}
	x := &ast.Var{Name: "x", T: ast.IntType{}}
	xs := &ast.Var{Name: "xs", T: bagT}
	replacement := &ast.Literal{Value: int64(7), T: ast.IntType{}}

	free := x
	got := Subst(free, map[string]ast.Expr{"x": replacement})
	require.Equal(t, replacement, got)

	bound := &ast.Map{Bag: xs, F: &ast.Lambda{Arg: x, Body: x}, T: bagT}
	gotBound := Subst(bound, map[string]ast.Expr{"x": replacement}).(*ast.Map)
	require.Same(t, x, gotBound.F.Body)
}

// TestFreeVarsFindsOnlyUnboundNames checks that FreeVars reports a Map's
// source bag but not its lambda-bound argument.
func TestFreeVarsFindsOnlyUnboundNames(t *testing.T) {
	bagT := ast.BagType{Elem: ast.IntType{}}
	x := &ast.Var{Name: "x", T: ast.IntType{}}
	xs := &ast.Var{Name: "xs", T: bagT}
	e := &ast.Map{Bag: xs, F: &ast.Lambda{Arg: x, Body: x}, T: bagT}

	fv := FreeVars(e)
	require.True(t, fv.Contains("xs"))
	require.False(t, fv.Contains("x"))
}

// TestFreeVarsStmtCollectsAcrossNestedStatements checks FreeVarsStmt picks up
// free variables from both a ForEach's bag and its CallStmt body.
func TestFreeVarsStmtCollectsAcrossNestedStatements(t *testing.T) {
	bagT := ast.BagType{Elem: ast.IntType{}}
	xs := &ast.Var{Name: "xs", T: bagT}
	ys := &ast.Var{Name: "ys", T: bagT}
	x := &ast.Var{Name: "x", T: ast.IntType{}}
	s := &ast.ForEach{Var: x, Bag: xs, Body: &ast.CallStmt{Target: ys, Func: ast.FuncAdd, Args: []ast.Expr{x}}}

	fv := FreeVarsStmt(s)
	require.True(t, fv.Contains("xs"))
	require.True(t, fv.Contains("ys"))
	require.False(t, fv.Contains("x"))
}

// TestFreshVarAvoidsGivenNames checks that FreshVar never returns a name
// already present in avoid.
func TestFreshVarAvoidsGivenNames(t *testing.T) {
	avoid := set.New[string](2)
	avoid.Insert("_x")
	avoid.Insert("_x1")

	v := FreshVar(ast.IntType{}, avoid)
	require.False(t, avoid.Contains(v.Name))
	require.Equal(t, ast.IntType{}, v.T)
}

// TestFreshNameProducesDistinctNamesAcrossCalls checks that two successive
// FreshName calls with the same prefix never collide — the sketcher relies
// on this to give every sub-query and fresh variable a distinct name.
func TestFreshNameProducesDistinctNamesAcrossCalls(t *testing.T) {
	a := FreshName("query")
	b := FreshName("query")
	require.NotEqual(t, a, b)
}

// TestBreakConjFlattensNestedAnd checks BreakConj flattens a right-nested
// conjunction into its leaves in left-to-right order.
func TestBreakConjFlattensNestedAnd(t *testing.T) {
	a := &ast.Var{Name: "a", T: ast.BoolType{}}
	b := &ast.Var{Name: "b", T: ast.BoolType{}}
	c := &ast.Var{Name: "c", T: ast.BoolType{}}
	e := &ast.Bin{Op: ast.OpAnd, A: a, B: &ast.Bin{Op: ast.OpAnd, A: b, B: c, T: ast.BoolType{}}, T: ast.BoolType{}}

	leaves := BreakConj(e)
	require.Equal(t, []ast.Expr{a, b, c}, leaves)
}

// TestBreakConjOnNonAndReturnsSingleton checks the base case: a non-And
// expression is returned as its own one-element slice.
func TestBreakConjOnNonAndReturnsSingleton(t *testing.T) {
	a := &ast.Var{Name: "a", T: ast.BoolType{}}
	require.Equal(t, []ast.Expr{a}, BreakConj(a))
}

// TestMkAndRoundTripsThroughBreakConj checks that MkAnd of several clauses,
// broken back apart by BreakConj, reproduces the original clauses.
func TestMkAndRoundTripsThroughBreakConj(t *testing.T) {
	a := &ast.Var{Name: "a", T: ast.BoolType{}}
	b := &ast.Var{Name: "b", T: ast.BoolType{}}
	c := &ast.Var{Name: "c", T: ast.BoolType{}}

	got := MkAnd(a, b, c)
	require.Equal(t, []ast.Expr{a, b, c}, BreakConj(got))
}

// TestEnumerateFragmentsIncludesRootAndLeaves checks that EnumerateFragments
// yields the root (empty path) plus every Bin operand, and that each
// fragment's Rebuild closure reconstructs the original tree when fed back
// its own Expr unchanged.
func TestEnumerateFragmentsIncludesRootAndLeaves(t *testing.T) {
	a := &ast.Literal{Value: int64(1), T: ast.IntType{}}
	b := &ast.Literal{Value: int64(2), T: ast.IntType{}}
	e := &ast.Bin{Op: ast.OpAdd, A: a, B: b, T: ast.IntType{}}

	frags := EnumerateFragments(e)
	require.Len(t, frags, 3)
	require.Empty(t, frags[0].Path)
	require.Same(t, e, frags[0].Expr)

	for _, f := range frags {
		rebuilt := f.Rebuild(f.Expr)
		require.Equal(t, e.String(), rebuilt.String())
	}
}

// TestEnumerateFragmentsRebuildSubstitutesAtPosition checks that replacing a
// non-root fragment actually changes the rebuilt tree at that position only.
func TestEnumerateFragmentsRebuildSubstitutesAtPosition(t *testing.T) {
	a := &ast.Literal{Value: int64(1), T: ast.IntType{}}
	b := &ast.Literal{Value: int64(2), T: ast.IntType{}}
	e := &ast.Bin{Op: ast.OpAdd, A: a, B: b, T: ast.IntType{}}

	frags := EnumerateFragments(e)
	var aFrag *Fragment
	for i := range frags {
		if frags[i].Expr == ast.Expr(a) {
			aFrag = &frags[i]
		}
	}
	require.NotNil(t, aFrag)

	nine := &ast.Literal{Value: int64(9), T: ast.IntType{}}
	replaced := aFrag.Rebuild(nine).(*ast.Bin)
	require.Same(t, nine, replaced.A)
	require.Same(t, b, replaced.B)
}
