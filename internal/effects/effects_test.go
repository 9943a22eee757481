package effects

import (
	"testing"

	"github.com/hashicorp/go-set/v3"
	"github.com/stretchr/testify/require"

	"synthctl/internal/ast"
)

func stateVarSet(names ...string) *set.Set[string] {
	sv := set.New[string](len(names))
	for _, n := range names {
		sv.Insert(n)
	}
	return sv
}

func TestStateVarsIntersectsFreeVariablesWithDeclaredState(t *testing.T) {
	bagT := ast.BagType{Elem: ast.IntType{}}
	xs := &ast.Var{Name: "xs", T: bagT}
	k := &ast.Var{Name: "k", T: ast.IntType{}}
	e := &ast.In{X: k, Bag: xs, T: ast.BoolType{}}

	got := StateVars(e, stateVarSet("xs", "ys"))
	require.True(t, got.Contains("xs"))
	require.False(t, got.Contains("k"))
	require.False(t, got.Contains("ys"))
}

func TestIsStatelessIgnoresLambdaBoundNames(t *testing.T) {
	bagT := ast.BagType{Elem: ast.IntType{}}
	arg := &ast.Var{Name: "xs", T: ast.IntType{}}
	// The lambda binder shadows the state variable's name; the expression
	// never reads actual state.
	e := &ast.Map{
		Bag: &ast.EmptyBag{T: bagT},
		F:   &ast.Lambda{Arg: arg, Body: arg},
		T:   bagT,
	}
	require.True(t, IsStateless(e, stateVarSet("xs")))

	reads := &ast.Unary{Op: ast.OpLength, A: &ast.Var{Name: "xs", T: bagT}, T: ast.IntType{}}
	require.False(t, IsStateless(reads, stateVarSet("xs")))
}

func TestStmtStateVarsSeesThroughLoops(t *testing.T) {
	bagT := ast.BagType{Elem: ast.IntType{}}
	xs := &ast.Var{Name: "xs", T: bagT}
	v := &ast.Var{Name: "v", T: ast.IntType{}}
	s := &ast.ForEach{Var: v, Bag: xs, Body: &ast.CallStmt{Target: xs, Func: ast.FuncAdd, Args: []ast.Expr{v}}}

	got := StmtStateVars(s, stateVarSet("xs"))
	require.True(t, got.Contains("xs"))
	require.False(t, got.Contains("v"))
}
