package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqual_SameShapeDifferentPointers(t *testing.T) {
	a := &Bin{Op: OpAdd, A: &Var{Name: "x", T: IntType{}}, B: &Literal{Value: int64(1), T: IntType{}}, T: IntType{}}
	b := &Bin{Op: OpAdd, A: &Var{Name: "x", T: IntType{}}, B: &Literal{Value: int64(1), T: IntType{}}, T: IntType{}}
	require.True(t, Equal(a, b))
}

func TestEqual_DifferentVarNamesNotEqual(t *testing.T) {
	a := &Var{Name: "x", T: IntType{}}
	b := &Var{Name: "y", T: IntType{}}
	require.False(t, Equal(a, b))
}

func TestEqual_LambdaBinderRenamingIgnored(t *testing.T) {
	// \x -> x + 1  and  \y -> y + 1  are structurally equal once binders
	// are reconciled (this is NOT full alpha-equivalence of deep capture
	// scenarios -- see rewrite.AlphaEquivalent for that).
	l1 := &Lambda{Arg: &Var{Name: "x", T: IntType{}}, Body: &Bin{Op: OpAdd, A: &Var{Name: "x", T: IntType{}}, B: &Literal{Value: int64(1), T: IntType{}}, T: IntType{}}}
	l2 := &Lambda{Arg: &Var{Name: "y", T: IntType{}}, Body: &Bin{Op: OpAdd, A: &Var{Name: "y", T: IntType{}}, B: &Literal{Value: int64(1), T: IntType{}}, T: IntType{}}}
	require.True(t, lambdaEqual(l1, l2))
}

func TestTypesEqual(t *testing.T) {
	require.True(t, TypesEqual(BagType{Elem: IntType{}}, BagType{Elem: IntType{}}))
	require.False(t, TypesEqual(BagType{Elem: IntType{}}, SetType{Elem: IntType{}}))
	require.True(t, TypesEqual(
		RecordType{Fields: []RecordField{{Name: "f", Type: IntType{}}}},
		RecordType{Fields: []RecordField{{Name: "f", Type: IntType{}}}}))
}

func TestSeqAllDropsNoOps(t *testing.T) {
	x := &Var{Name: "x", T: IntType{}}
	s := SeqAll(NoOp{}, &Assign{Lval: x, Rhs: x}, NoOp{})
	_, ok := s.(*Assign)
	require.True(t, ok, "SeqAll should elide NoOp siblings, got %T", s)
}
