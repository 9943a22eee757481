package eval

import (
	"testing"

	"github.com/stretchr/testify/require"
	"synthctl/internal/ast"
)

func TestEvalArithmeticAndBagOps(t *testing.T) {
	env := NewEnv()
	e := &ast.Bin{Op: ast.OpAdd, A: &ast.Literal{Value: int64(2), T: ast.IntType{}}, B: &ast.Literal{Value: int64(3), T: ast.IntType{}}, T: ast.IntType{}}
	require.Equal(t, int64(5), Eval(e, env))

	bagT := ast.BagType{Elem: ast.IntType{}}
	sum := &ast.Unary{Op: ast.OpSum, A: &ast.Bin{
		Op: ast.OpAdd,
		A:  &ast.Singleton{Elem: &ast.Literal{Value: int64(1), T: ast.IntType{}}, T: bagT},
		B:  &ast.Singleton{Elem: &ast.Literal{Value: int64(4), T: ast.IntType{}}, T: bagT},
		T:  bagT,
	}, T: ast.IntType{}}
	require.Equal(t, int64(5), Eval(sum, env))
}

func TestEvalHandleAliasingThroughEnv(t *testing.T) {
	env := NewEnv()
	env.Handles["h1"] = int64(5)
	h := &ast.Var{Name: "x", T: ast.HandleType{Value: ast.IntType{}}}
	valEnv := env.WithVar("x", &Handle{ID: "h1"})
	get := &ast.GetField{Of: h, Field: "val", T: ast.IntType{}}
	require.Equal(t, int64(5), Eval(get, valEnv))
}

func TestEvalHeapPeekOrdering(t *testing.T) {
	env := NewEnv()
	bagT := ast.BagType{Elem: ast.IntType{}}
	var bag ast.Expr = &ast.EmptyBag{T: bagT}
	for _, v := range []int64{5, 1, 3} {
		bag = &ast.Bin{Op: ast.OpAdd, A: bag, B: &ast.Singleton{Elem: &ast.Literal{Value: v, T: ast.IntType{}}, T: bagT}, T: bagT}
	}
	idArg := &ast.Var{Name: "v", T: ast.IntType{}}
	idLambda := &ast.Lambda{Arg: idArg, Body: idArg}
	heap := &ast.MakeMinHeap{Bag: bag, KeyF: idLambda, T: ast.MinHeapType{Elem: ast.IntType{}, Key: ast.IntType{}}}

	peek := &ast.HeapPeek{Heap: heap, N: &ast.Literal{Value: int64(3), T: ast.IntType{}}, T: ast.IntType{}}
	require.Equal(t, int64(1), Eval(peek, env))

	peek2 := &ast.HeapPeek2{Heap: heap, N: &ast.Literal{Value: int64(3), T: ast.IntType{}}, T: ast.IntType{}}
	require.Equal(t, int64(3), Eval(peek2, env))
}

func TestMapGetDefaultForAbsentKey(t *testing.T) {
	env := NewEnv()
	mt := ast.MapType{Key: ast.IntType{}, Val: ast.IntType{}}
	m := &ast.EmptyMap{T: mt}
	get := &ast.MapGet{Map: m, Key: &ast.Literal{Value: int64(9), T: ast.IntType{}}, T: ast.IntType{}}
	require.Equal(t, int64(0), Eval(get, env))
}
