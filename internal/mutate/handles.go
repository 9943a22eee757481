package mutate

import (
	"github.com/hashicorp/go-set/v3"
	"synthctl/internal/ast"
)

// ReachableHandlesByType computes, for each handle type T reachable from
// root's type, a bag expression enumerating every T-valued handle reachable
// from root. The bag expression reaches through records, tuples, bags, sets
// and lists; it does not descend into a handle's own value, or into maps.
// This feeds the universally-quantified implicit assumption that equal
// handles have equal values, appended to every query mentioning handles.
func ReachableHandlesByType(root ast.Expr) map[string]ast.Expr {
	seen := set.New[string](4)
	types := map[string]ast.Type{}
	collectHandleTypes(root.Type(), seen, types)

	out := map[string]ast.Expr{}
	for key, t := range types {
		ht := t.(ast.HandleType)
		bagT := ast.BagType{Elem: ht}
		out[key] = reachFrom(root, ht, bagT)
	}
	return out
}

// reachFrom builds the bag of all ht-typed handles reachable from e,
// recursing structurally by e's type. Other shapes (maps, heaps, a handle's
// own value) contribute the empty bag — a reachability analysis is
// necessarily an over-approximation bounded by declared types, never a
// fatal error.
func reachFrom(e ast.Expr, ht ast.HandleType, bagT ast.BagType) ast.Expr {
	t := e.Type()
	if eht, ok := t.(ast.HandleType); ok {
		if ast.TypesEqual(eht, ht) {
			return &ast.Singleton{Elem: e, T: bagT}
		}
		return &ast.EmptyBag{T: bagT}
	}
	switch tt := t.(type) {
	case ast.BagType:
		return reachFromCollection(e, tt.Elem, ht, bagT)
	case ast.SetType:
		return reachFromCollection(e, tt.Elem, ht, bagT)
	case ast.ListType:
		return reachFromCollection(e, tt.Elem, ht, bagT)
	case ast.TupleType:
		acc := ast.Expr(&ast.EmptyBag{T: bagT})
		for i, et := range tt.Elems {
			sub := reachFrom(&ast.TupleGet{Of: e, Index: i, T: et}, ht, bagT)
			acc = &ast.Bin{Op: ast.OpAdd, A: acc, B: sub, T: bagT}
		}
		return acc
	case ast.RecordType:
		acc := ast.Expr(&ast.EmptyBag{T: bagT})
		for _, f := range tt.Fields {
			sub := reachFrom(&ast.GetField{Of: e, Field: f.Name, T: f.Type}, ht, bagT)
			acc = &ast.Bin{Op: ast.OpAdd, A: acc, B: sub, T: bagT}
		}
		return acc
	default:
		return &ast.EmptyBag{T: bagT}
	}
}

// reachFromCollection maps over a Bag/Set/List-typed e, recursing into each
// element via a fresh lambda binder, then flattens.
func reachFromCollection(e ast.Expr, elemT ast.Type, ht ast.HandleType, bagT ast.BagType) ast.Expr {
	arg := &ast.Var{Name: "_h", T: elemT}
	body := reachFrom(arg, ht, bagT)
	if _, ok := body.(*ast.EmptyBag); ok {
		return &ast.EmptyBag{T: bagT}
	}
	return &ast.FlatMap{Bag: e, F: &ast.Lambda{Arg: arg, Body: body}, T: bagT}
}

// ImplicitHandleAssumption builds the universally-quantified assumption
// that any two reachable handles of the same type and identity have the
// same value: for a bag of handles `hs`, this is expressed pointwise as
// `All(Map(hs, λh1. All(Map(hs, λh2. (h1 != h2) or (h1.val == h2.val)))))`,
// which the oracle only ever needs in its ground, instantiated form once
// concrete handle variables are known — query-time instantiation is the
// caller's responsibility (see sketch/enumerate).
func ImplicitHandleAssumption(hs ast.Expr, ht ast.HandleType) ast.Expr {
	h1 := &ast.Var{Name: "_h1", T: ht}
	h2 := &ast.Var{Name: "_h2", T: ht}
	inner := &ast.Bin{
		Op: ast.OpOr,
		A:  &ast.Unary{Op: ast.OpNot, A: &ast.Bin{Op: ast.OpEq, A: h1, B: h2, T: ast.BoolType{}}, T: ast.BoolType{}},
		B: &ast.Bin{Op: ast.OpEq,
			A: &ast.GetField{Of: h1, Field: "val", T: ht.Value},
			B: &ast.GetField{Of: h2, Field: "val", T: ht.Value},
			T: ast.BoolType{}},
		T: ast.BoolType{},
	}
	innerAll := &ast.Unary{Op: ast.OpAll, A: &ast.Map{
		Bag: hs, F: &ast.Lambda{Arg: h2, Body: inner}, T: ast.BagType{Elem: ast.BoolType{}},
	}, T: ast.BoolType{}}
	outer := &ast.Unary{Op: ast.OpAll, A: &ast.Map{
		Bag: hs, F: &ast.Lambda{Arg: h1, Body: innerAll}, T: ast.BagType{Elem: ast.BoolType{}},
	}, T: ast.BoolType{}}
	return outer
}
