// Package heap implements the priority-queue extension type: MinHeap(E, K)
// and MaxHeap(E, K), a derived view over a bag of elements ordered by a key
// function, plus the array-backed representation codegen lowers it to.
package heap

import (
	"fmt"

	"synthctl/internal/ast"
	"synthctl/internal/rewrite"
)

// isMin reports whether t orders by least key first.
func isMin(t ast.Type) bool {
	switch t.(type) {
	case ast.MinHeapType:
		return true
	case ast.MaxHeapType:
		return false
	default:
		panic(fmt.Sprintf("heap.isMin: not a heap type: %T", t))
	}
}

func elemKeyTypes(t ast.Type) (elem, key ast.Type) {
	switch tt := t.(type) {
	case ast.MinHeapType:
		return tt.Elem, tt.Key
	case ast.MaxHeapType:
		return tt.Elem, tt.Key
	default:
		panic(fmt.Sprintf("heap.elemKeyTypes: not a heap type: %T", t))
	}
}

// pairType is the (elem, key) tuple a heap encodes as: Bag((E, K)).
func pairType(t ast.Type) ast.TupleType {
	elem, key := elemKeyTypes(t)
	return ast.TupleType{Elems: []ast.Type{elem, key}}
}

// nth builds the lambda that projects the i-th component of a value of
// tuple type tt.
func nth(tt ast.TupleType, i int) *ast.Lambda {
	x := &ast.Var{Name: "_x", T: tt}
	return &ast.Lambda{Arg: x, Body: &ast.TupleGet{Of: x, Index: i, T: tt.Elems[i]}}
}

// heapFunc returns the key lambda an already-constructed heap expression was
// built with, so that mutation and codegen can re-apply it to elements that
// were not present when the heap literal was written down. concretize maps
// a state-variable name back to its declared initializer, for the case
// where e is a bare Var.
func heapFunc(e ast.Expr, concretize map[string]ast.Expr) *ast.Lambda {
	switch n := e.(type) {
	case *ast.MakeMinHeap:
		return n.KeyF
	case *ast.MakeMaxHeap:
		return n.KeyF
	case *ast.Var:
		if concretize != nil {
			if ee, ok := concretize[n.Name]; ok {
				return heapFunc(ee, concretize)
			}
		}
	case *ast.If:
		f1 := heapFunc(n.Then, concretize)
		f2 := heapFunc(n.Else, concretize)
		if rewrite.AlphaEquivalentLambda(f1, f2) {
			return f1
		}
		if ast.TypesEqual(f1.Arg.T, f2.Arg.T) {
			v := &ast.Var{Name: "_hf", T: f1.Arg.T}
			return &ast.Lambda{Arg: v, Body: &ast.If{
				Cond: n.Cond,
				Then: f1.Apply(v),
				Else: f2.Apply(v),
				T:    f1.Body.Type(),
			}}
		}
	}
	panic(fmt.Sprintf("heap.heapFunc: cannot recover a key function from %T", e))
}

// makeHeap builds a MakeMinHeap/MakeMaxHeap literal of type t over bag,
// ordered by keyF — the constructor MutateCall rebuilds a heap's new
// symbolic value through after diffing its elements bag.
func makeHeap(t ast.Type, bag ast.Expr, keyF *ast.Lambda) ast.Expr {
	if isMin(t) {
		return &ast.MakeMinHeap{Bag: bag, KeyF: keyF, T: t}
	}
	return &ast.MakeMaxHeap{Bag: bag, KeyF: keyF, T: t}
}

// DefaultValue builds the empty heap literal for t — MakeMin/MaxHeap over
// an empty bag, with a key function that never needs to run since the bag
// is always empty.
func DefaultValue(t ast.Type, elemDefault func(ast.Type) ast.Expr) ast.Expr {
	elem, key := elemKeyTypes(t)
	x := &ast.Var{Name: "_x", T: elem}
	keyF := &ast.Lambda{Arg: x, Body: elemDefault(key)}
	if isMin(t) {
		return &ast.MakeMinHeap{Bag: &ast.EmptyBag{T: ast.BagType{Elem: elem}}, KeyF: keyF, T: t}
	}
	return &ast.MakeMaxHeap{Bag: &ast.EmptyBag{T: ast.BagType{Elem: elem}}, KeyF: keyF, T: t}
}

// EncodingType is the symbolic representation a heap reasons over: a bag of
// (elem, key) pairs. Order is not part of the encoding — HeapPeek/HeapPeek2
// pick the extremum out explicitly via ArgMin/ArgMax.
func EncodingType(t ast.Type) ast.Type {
	return ast.BagType{Elem: pairType(t)}
}

// Encode lowers a heap-typed expression into its encoding type: a bag of
// (elem, key) pairs for MakeMinHeap/MakeMaxHeap/HeapElems, and a plain
// elem-typed ArgMin/ArgMax expression (over the bag's own key function) for
// HeapPeek/HeapPeek2.
func Encode(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.MakeMinHeap:
		return encodeMake(n.Bag, n.KeyF, n.T)
	case *ast.MakeMaxHeap:
		return encodeMake(n.Bag, n.KeyF, n.T)
	case *ast.HeapElems:
		ht := n.Heap.Type()
		tt := pairType(ht)
		elemT, _ := elemKeyTypes(ht)
		return &ast.Map{Bag: Encode(n.Heap), F: nth(tt, 0), T: ast.BagType{Elem: elemT}}
	case *ast.HeapPeek:
		return peekEncode(n.Heap, 0)
	case *ast.HeapPeek2:
		return peekEncode(n.Heap, 1)
	default:
		panic(fmt.Sprintf("heap.Encode: unsupported heap expression %T", e))
	}
}

func encodeMake(bag ast.Expr, keyF *ast.Lambda, t ast.Type) ast.Expr {
	tt := pairType(t)
	x := keyF.Arg
	pairF := &ast.Lambda{Arg: x, Body: &ast.Tuple{Elems: []ast.Expr{x, keyF.Body}, T: tt}}
	return &ast.Map{Bag: bag, F: pairF, T: ast.BagType{Elem: tt}}
}

// peekEncode implements EHeapPeek/EHeapPeek2: the minimum (skip=0) or
// second-minimum (skip=1) element by the heap's own key function, expressed
// directly as ArgMin/ArgMax over the elements bag rather than over the
// (elem, key) encoding — equivalent, and simpler to read back out.
func peekEncode(heap ast.Expr, skip int) ast.Expr {
	ht := heap.Type()
	elemT, _ := elemKeyTypes(ht)
	keyF := heapFunc(heap, nil)
	elemsT := ast.BagType{Elem: elemT}
	elems := ast.Expr(&ast.HeapElems{Heap: heap, T: elemsT})
	min := isMin(ht)
	best := pick(elems, elemT, keyF, min)
	if skip == 0 {
		return best
	}
	rest := &ast.Bin{Op: ast.OpSub, A: elems, B: &ast.Singleton{Elem: best, T: elemsT}, T: elemsT}
	return pick(rest, elemT, keyF, min)
}

func pick(bag ast.Expr, elemT ast.Type, keyF *ast.Lambda, min bool) ast.Expr {
	if min {
		return &ast.ArgMin{Bag: bag, KeyF: keyF, T: elemT}
	}
	return &ast.ArgMax{Bag: bag, KeyF: keyF, T: elemT}
}
