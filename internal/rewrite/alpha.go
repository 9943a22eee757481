package rewrite

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"synthctl/internal/ast"
)

// alphaMemo caches AlphaEquivalent results keyed by a cheap structural
// fingerprint of the pair. It is a pure memoization layer, never consulted
// for correctness beyond "have we already computed this" — unlike the
// enumerator's cache/ecache, nothing relies on an entry
// staying resident, so an LRU is safe here.
var alphaMemo, _ = lru.New[[2]string, bool](4096)

// AlphaEquivalent reports whether e1 and e2 are equal up to renaming of
// lambda-bound variables.
func AlphaEquivalent(e1, e2 ast.Expr) bool {
	key := [2]string{e1.String(), e2.String()}
	if v, ok := alphaMemo.Get(key); ok {
		return v
	}
	result := alphaEq(e1, e2, map[string]string{})
	alphaMemo.Add(key, result)
	return result
}

// alphaEq walks both trees together, tracking a renaming of e2's bound
// variables back onto e1's (ren maps e2-side names to e1-side names).
func alphaEq(a, b ast.Expr, ren map[string]string) bool {
	switch x := a.(type) {
	case *ast.Var:
		y, ok := b.(*ast.Var)
		if !ok {
			return false
		}
		if mapped, bound := ren[y.Name]; bound {
			return mapped == x.Name
		}
		return x.Name == y.Name
	case *ast.Literal:
		y, ok := b.(*ast.Literal)
		return ok && x.Value == y.Value
	case *ast.Bin:
		y, ok := b.(*ast.Bin)
		return ok && x.Op == y.Op && alphaEq(x.A, y.A, ren) && alphaEq(x.B, y.B, ren)
	case *ast.Unary:
		y, ok := b.(*ast.Unary)
		return ok && x.Op == y.Op && alphaEq(x.A, y.A, ren)
	case *ast.If:
		y, ok := b.(*ast.If)
		return ok && alphaEq(x.Cond, y.Cond, ren) && alphaEq(x.Then, y.Then, ren) && alphaEq(x.Else, y.Else, ren)
	case *ast.GetField:
		y, ok := b.(*ast.GetField)
		return ok && x.Field == y.Field && alphaEq(x.Of, y.Of, ren)
	case *ast.MakeRecord:
		y, ok := b.(*ast.MakeRecord)
		if !ok || len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if x.Fields[i].Name != y.Fields[i].Name || !alphaEq(x.Fields[i].Value, y.Fields[i].Value, ren) {
				return false
			}
		}
		return true
	case *ast.TupleGet:
		y, ok := b.(*ast.TupleGet)
		return ok && x.Index == y.Index && alphaEq(x.Of, y.Of, ren)
	case *ast.Tuple:
		y, ok := b.(*ast.Tuple)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !alphaEq(x.Elems[i], y.Elems[i], ren) {
				return false
			}
		}
		return true
	case *ast.Singleton:
		y, ok := b.(*ast.Singleton)
		return ok && alphaEq(x.Elem, y.Elem, ren)
	case *ast.EmptyBag:
		_, ok := b.(*ast.EmptyBag)
		return ok
	case *ast.EmptyMap:
		_, ok := b.(*ast.EmptyMap)
		return ok
	case *ast.Map:
		y, ok := b.(*ast.Map)
		return ok && alphaEq(x.Bag, y.Bag, ren) && alphaEqLambda(x.F, y.F, ren)
	case *ast.Filter:
		y, ok := b.(*ast.Filter)
		return ok && alphaEq(x.Bag, y.Bag, ren) && alphaEqLambda(x.F, y.F, ren)
	case *ast.FlatMap:
		y, ok := b.(*ast.FlatMap)
		return ok && alphaEq(x.Bag, y.Bag, ren) && alphaEqLambda(x.F, y.F, ren)
	case *ast.MakeMap:
		y, ok := b.(*ast.MakeMap)
		return ok && alphaEq(x.Bag, y.Bag, ren) && alphaEqLambda(x.KeyF, y.KeyF, ren) && alphaEqLambda(x.ValF, y.ValF, ren)
	case *ast.MapGet:
		y, ok := b.(*ast.MapGet)
		return ok && alphaEq(x.Map, y.Map, ren) && alphaEq(x.Key, y.Key, ren)
	case *ast.MapKeys:
		y, ok := b.(*ast.MapKeys)
		return ok && alphaEq(x.Map, y.Map, ren)
	case *ast.In:
		y, ok := b.(*ast.In)
		return ok && alphaEq(x.X, y.X, ren) && alphaEq(x.Bag, y.Bag, ren)
	case *ast.ArgMin:
		y, ok := b.(*ast.ArgMin)
		return ok && alphaEq(x.Bag, y.Bag, ren) && alphaEqLambda(x.KeyF, y.KeyF, ren)
	case *ast.ArgMax:
		y, ok := b.(*ast.ArgMax)
		return ok && alphaEq(x.Bag, y.Bag, ren) && alphaEqLambda(x.KeyF, y.KeyF, ren)
	case *ast.Call:
		y, ok := b.(*ast.Call)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !alphaEq(x.Args[i], y.Args[i], ren) {
				return false
			}
		}
		return true
	case *ast.WithAlteredValue:
		y, ok := b.(*ast.WithAlteredValue)
		return ok && alphaEq(x.Handle, y.Handle, ren) && alphaEq(x.NewValue, y.NewValue, ren)
	case *ast.MakeMinHeap:
		y, ok := b.(*ast.MakeMinHeap)
		return ok && alphaEq(x.Bag, y.Bag, ren) && alphaEqLambda(x.KeyF, y.KeyF, ren)
	case *ast.MakeMaxHeap:
		y, ok := b.(*ast.MakeMaxHeap)
		return ok && alphaEq(x.Bag, y.Bag, ren) && alphaEqLambda(x.KeyF, y.KeyF, ren)
	case *ast.HeapElems:
		y, ok := b.(*ast.HeapElems)
		return ok && alphaEq(x.Heap, y.Heap, ren)
	case *ast.HeapPeek:
		y, ok := b.(*ast.HeapPeek)
		return ok && alphaEq(x.Heap, y.Heap, ren) && alphaEq(x.N, y.N, ren)
	case *ast.HeapPeek2:
		y, ok := b.(*ast.HeapPeek2)
		return ok && alphaEq(x.Heap, y.Heap, ren) && alphaEq(x.N, y.N, ren)
	default:
		return false
	}
}

// AlphaEquivalentLambda reports whether a and b are equal up to renaming of
// their own bound argument — the Lambda counterpart of AlphaEquivalent, for
// callers (e.g. heap.heapFunc) that compare two key functions directly
// rather than two Exprs (*ast.Lambda carries no Type() and so cannot
// satisfy ast.Expr itself).
func AlphaEquivalentLambda(a, b *ast.Lambda) bool {
	return alphaEqLambda(a, b, map[string]string{})
}

func alphaEqLambda(a, b *ast.Lambda, ren map[string]string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	inner := make(map[string]string, len(ren)+1)
	for k, v := range ren {
		inner[k] = v
	}
	inner[b.Arg.Name] = a.Arg.Name
	return alphaEq(a.Body, b.Body, inner)
}
