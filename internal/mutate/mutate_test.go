package mutate

import (
	"testing"

	"github.com/stretchr/testify/require"
	"synthctl/internal/ast"
	"synthctl/internal/config"
	"synthctl/internal/eval"
	"synthctl/internal/extension"
)

func newMutator() *Mutator {
	return New(extension.NewRegistry(), config.Default())
}

// TestMutateBagAddSoundness checks mutation soundness for a bag counter:
// mutate(Length(xs), add(x)) = Length(xs) + 1.
func TestMutateBagAddSoundness(t *testing.T) {
	m := newMutator()
	bagT := ast.BagType{Elem: ast.IntType{}}
	xs := &ast.Var{Name: "xs", T: bagT}
	x := &ast.Var{Name: "x", T: ast.IntType{}}
	e := &ast.Unary{Op: ast.OpLength, A: xs, T: ast.IntType{}}
	op := &ast.CallStmt{Target: xs, Func: ast.FuncAdd, Args: []ast.Expr{x}}

	got := m.Mutate(e, op)

	env := eval.NewEnv()
	env.Vars["xs"] = eval.NewBag(int64(1), int64(2))
	env.Vars["x"] = int64(9)
	require.Equal(t, int64(3), eval.Eval(got, env))
}

// TestMutateHandleAliasing checks aliasing soundness: after h1.val := 5,
// mutating an expression mentioning h2.val evaluates to 5 whenever h2==h1.
func TestMutateHandleAliasing(t *testing.T) {
	m := newMutator()
	ht := ast.HandleType{Value: ast.IntType{}}
	h1 := &ast.Var{Name: "h1", T: ht}
	h2 := &ast.Var{Name: "h2", T: ht}
	e := &ast.Bin{
		Op: ast.OpAdd,
		A:  &ast.GetField{Of: h1, Field: "val", T: ast.IntType{}},
		B:  &ast.GetField{Of: h2, Field: "val", T: ast.IntType{}},
		T:  ast.IntType{},
	}
	op := &ast.Assign{Lval: &ast.GetField{Of: h1, Field: "val", T: ast.IntType{}}, Rhs: &ast.Literal{Value: int64(5), T: ast.IntType{}}}

	got := m.Mutate(e, op)

	env := eval.NewEnv()
	env.Handles["h"] = int64(2)
	aliasedEnv := env.WithVar("h1", &eval.Handle{ID: "h"}).WithVar("h2", &eval.Handle{ID: "h"})
	require.Equal(t, int64(10), eval.Eval(got, aliasedEnv))
}

func TestMutateRecordFieldAssign(t *testing.T) {
	m := newMutator()
	rt := ast.RecordType{Fields: []ast.RecordField{{Name: "f", Type: ast.IntType{}}, {Name: "g", Type: ast.IntType{}}}}
	r := &ast.Var{Name: "r", T: rt}
	e := &ast.GetField{Of: r, Field: "f", T: ast.IntType{}}
	op := &ast.Assign{Lval: &ast.GetField{Of: r, Field: "f", T: ast.IntType{}}, Rhs: &ast.Literal{Value: int64(7), T: ast.IntType{}}}

	got := m.Mutate(e, op)
	env := eval.NewEnv()
	env.Vars["r"] = &eval.Record{Fields: map[string]eval.Value{"f": int64(1), "g": int64(2)}}
	require.Equal(t, int64(7), eval.Eval(got, env))
}

func TestMutateSeqAppliesRightmostFirst(t *testing.T) {
	m := newMutator()
	x := &ast.Var{Name: "x", T: ast.IntType{}}
	seq := &ast.Seq{
		S1: &ast.Assign{Lval: x, Rhs: &ast.Literal{Value: int64(1), T: ast.IntType{}}},
		S2: &ast.Assign{Lval: x, Rhs: &ast.Bin{Op: ast.OpAdd, A: x, B: &ast.Literal{Value: int64(1), T: ast.IntType{}}, T: ast.IntType{}}},
	}
	got := m.Mutate(x, seq)
	env := eval.NewEnv()
	env.Vars["x"] = int64(100)
	require.Equal(t, int64(2), eval.Eval(got, env))
}

func TestFixWithAlteredValueIsTotal(t *testing.T) {
	e := &ast.Literal{Value: int64(4), T: ast.IntType{}}
	got := FixWithAlteredValue(e, func(ast.Expr) bool { return true })
	require.Same(t, e, got)
}

// TestFixWithAlteredValueRewritesHandleReads checks the elimination rewrite
// observationally: a read through the altered handle sees the overridden
// value, while a plain handle read still sees the stored one.
func TestFixWithAlteredValueRewritesHandleReads(t *testing.T) {
	ht := ast.HandleType{Value: ast.IntType{}}
	h := &ast.Var{Name: "h", T: ht}
	altered := &ast.WithAlteredValue{Handle: h, NewValue: &ast.Literal{Value: int64(9), T: ast.IntType{}}, T: ht}
	e := &ast.Bin{
		Op: ast.OpAdd,
		A:  &ast.GetField{Of: altered, Field: "val", T: ast.IntType{}},
		B:  &ast.GetField{Of: h, Field: "val", T: ast.IntType{}},
		T:  ast.IntType{},
	}

	got := FixWithAlteredValue(e, func(ast.Expr) bool { return true })

	env := eval.NewEnv()
	env.Handles["c"] = int64(2)
	withH := env.WithVar("h", &eval.Handle{ID: "c"})
	require.Equal(t, int64(11), eval.Eval(got, withH))
}

// TestImplicitHandleAssumptionHoldsUnderAliasing evaluates the quantified
// premise over a bag holding the same handle twice: the two occurrences
// share an identity, so they must observe the same value and the premise
// holds.
func TestImplicitHandleAssumptionHoldsUnderAliasing(t *testing.T) {
	ht := ast.HandleType{Value: ast.IntType{}}
	bagT := ast.BagType{Elem: ht}
	hs := &ast.Var{Name: "hs", T: bagT}
	assumption := ImplicitHandleAssumption(hs, ht)

	env := eval.NewEnv()
	env.Handles["c"] = int64(7)
	withBag := env.WithVar("hs", eval.NewBag(&eval.Handle{ID: "c"}, &eval.Handle{ID: "c"}))
	require.Equal(t, true, eval.Eval(assumption, withBag))
}

func TestFixMapIsIdentity(t *testing.T) {
	bagT := ast.BagType{Elem: ast.IntType{}}
	x := &ast.Var{Name: "x", T: ast.IntType{}}
	m := &ast.Map{Bag: &ast.Var{Name: "xs", T: bagT}, F: &ast.Lambda{Arg: x, Body: x}, T: bagT}
	require.Same(t, ast.Expr(m), fixMap(m))
}

func TestReachableHandlesByType(t *testing.T) {
	ht := ast.HandleType{Value: ast.IntType{}}
	rt := ast.RecordType{Fields: []ast.RecordField{{Name: "h", Type: ht}}}
	root := &ast.Var{Name: "r", T: rt}
	bags := ReachableHandlesByType(root)
	require.Contains(t, bags, ht.String())
}
