package mutate

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"
	"synthctl/internal/ast"
)

// FixWithAlteredValue eliminates every WithAlteredValue node from e so that
// downstream components with no notion of "a handle whose value has been
// hypothetically overridden" can consume the result: each handle h:
// Handle(T) becomes the pair (h, h.val), field accesses h.val become
// tupleget(1), and WithAlteredValue(h, v') becomes (tupleget(h, 0), v').
//
// It first scans for any WithAlteredValue occurrence and returns e
// unchanged if none is found, rather than unconditionally rebuilding the
// tree.
//
// retypecheck re-validates (and, in a full implementation, re-derives) the
// Type annotations this pass leaves best-effort on rebuilt nodes; the
// typechecker is an external collaborator, so it is passed in rather than
// imported here. A false return is a programmer error and aborts synthesis.
func FixWithAlteredValue(e ast.Expr, retypecheck func(ast.Expr) bool) ast.Expr {
	if !containsWithAlteredValue(e) {
		return e
	}
	rewritten := tupleify(e, set.New[string](4))
	if !retypecheck(rewritten) {
		panic("mutate.FixWithAlteredValue: rewritten expression failed to re-typecheck")
	}
	return rewritten
}

func containsWithAlteredValue(e ast.Expr) bool {
	found := false
	var walk func(ast.Expr)
	var walkLambda func(*ast.Lambda)
	walk = func(n ast.Expr) {
		if found || n == nil {
			return
		}
		switch x := n.(type) {
		case *ast.WithAlteredValue:
			found = true
		case *ast.Var, *ast.Literal, *ast.EmptyBag, *ast.EmptyMap:
		case *ast.Bin:
			walk(x.A)
			walk(x.B)
		case *ast.Unary:
			walk(x.A)
		case *ast.If:
			walk(x.Cond)
			walk(x.Then)
			walk(x.Else)
		case *ast.GetField:
			walk(x.Of)
		case *ast.MakeRecord:
			for _, f := range x.Fields {
				walk(f.Value)
			}
		case *ast.TupleGet:
			walk(x.Of)
		case *ast.Tuple:
			for _, el := range x.Elems {
				walk(el)
			}
		case *ast.Singleton:
			walk(x.Elem)
		case *ast.Map:
			walk(x.Bag)
			walkLambda(x.F)
		case *ast.Filter:
			walk(x.Bag)
			walkLambda(x.F)
		case *ast.FlatMap:
			walk(x.Bag)
			walkLambda(x.F)
		case *ast.MakeMap:
			walk(x.Bag)
			walkLambda(x.KeyF)
			walkLambda(x.ValF)
		case *ast.MapGet:
			walk(x.Map)
			walk(x.Key)
		case *ast.MapKeys:
			walk(x.Map)
		case *ast.In:
			walk(x.X)
			walk(x.Bag)
		case *ast.ArgMin:
			walk(x.Bag)
			walkLambda(x.KeyF)
		case *ast.ArgMax:
			walk(x.Bag)
			walkLambda(x.KeyF)
		case *ast.Call:
			for _, a := range x.Args {
				walk(a)
			}
		case *ast.MakeMinHeap:
			walk(x.Bag)
			walkLambda(x.KeyF)
		case *ast.MakeMaxHeap:
			walk(x.Bag)
			walkLambda(x.KeyF)
		case *ast.HeapElems:
			walk(x.Heap)
		case *ast.HeapPeek:
			walk(x.Heap)
			walk(x.N)
		case *ast.HeapPeek2:
			walk(x.Heap)
			walk(x.N)
		default:
			panic(fmt.Sprintf("mutate.containsWithAlteredValue: unsupported expression node %T", n))
		}
	}
	walkLambda = func(l *ast.Lambda) {
		if l == nil {
			return
		}
		walk(l.Body)
	}
	walk(e)
	return found
}

func handleTupleType(ht ast.HandleType) ast.TupleType {
	return ast.TupleType{Elems: []ast.Type{ht, ht.Value}}
}

// tupleify is the structural rewrite described by FixWithAlteredValue's
// doc comment. skip holds the names of lambda-bound Handle-typed
// variables encountered so far — "free variables entering lambdas are
// tagged as do not rewrite" so a re-applied higher-order
// function keeps operating on a genuine handle, not a one-time override
// carrier tied to this particular outer occurrence.
func tupleify(e ast.Expr, skip *set.Set[string]) ast.Expr {
	sub := func(x ast.Expr) ast.Expr { return tupleify(x, skip) }
	switch n := e.(type) {
	case *ast.Var:
		ht, ok := n.T.(ast.HandleType)
		if !ok || skip.Contains(n.Name) {
			return n
		}
		return &ast.Tuple{Elems: []ast.Expr{n, &ast.GetField{Of: n, Field: "val", T: ht.Value}}, T: handleTupleType(ht)}
	case *ast.Literal, *ast.EmptyBag, *ast.EmptyMap:
		return n
	case *ast.Bin:
		return &ast.Bin{Op: n.Op, A: sub(n.A), B: sub(n.B), T: n.T}
	case *ast.Unary:
		return &ast.Unary{Op: n.Op, A: sub(n.A), T: n.T}
	case *ast.If:
		return &ast.If{Cond: sub(n.Cond), Then: sub(n.Then), Else: sub(n.Else), T: n.T}
	case *ast.GetField:
		if ht, ok := n.Of.Type().(ast.HandleType); ok && n.Field == "val" {
			if v, isVar := n.Of.(*ast.Var); isVar && skip.Contains(v.Name) {
				return &ast.GetField{Of: sub(n.Of), Field: "val", T: n.T}
			}
			return &ast.TupleGet{Of: sub(n.Of), Index: 1, T: ht.Value}
		}
		return &ast.GetField{Of: sub(n.Of), Field: n.Field, T: n.T}
	case *ast.MakeRecord:
		fields := make([]ast.RecordFieldValue, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = ast.RecordFieldValue{Name: f.Name, Value: sub(f.Value)}
		}
		return &ast.MakeRecord{Fields: fields, T: n.T}
	case *ast.TupleGet:
		return &ast.TupleGet{Of: sub(n.Of), Index: n.Index, T: n.T}
	case *ast.Tuple:
		elems := make([]ast.Expr, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = sub(el)
		}
		return &ast.Tuple{Elems: elems, T: n.T}
	case *ast.Singleton:
		return &ast.Singleton{Elem: sub(n.Elem), T: n.T}
	case *ast.Map:
		return &ast.Map{Bag: sub(n.Bag), F: tupleifyLambda(n.F, skip), T: n.T}
	case *ast.Filter:
		return &ast.Filter{Bag: sub(n.Bag), F: tupleifyLambda(n.F, skip), T: n.T}
	case *ast.FlatMap:
		return &ast.FlatMap{Bag: sub(n.Bag), F: tupleifyLambda(n.F, skip), T: n.T}
	case *ast.MakeMap:
		return &ast.MakeMap{Bag: sub(n.Bag), KeyF: tupleifyLambda(n.KeyF, skip), ValF: tupleifyLambda(n.ValF, skip), T: n.T}
	case *ast.MapGet:
		return &ast.MapGet{Map: sub(n.Map), Key: sub(n.Key), T: n.T}
	case *ast.MapKeys:
		return &ast.MapKeys{Map: sub(n.Map), T: n.T}
	case *ast.In:
		return &ast.In{X: sub(n.X), Bag: sub(n.Bag), T: n.T}
	case *ast.ArgMin:
		return &ast.ArgMin{Bag: sub(n.Bag), KeyF: tupleifyLambda(n.KeyF, skip), T: n.T}
	case *ast.ArgMax:
		return &ast.ArgMax{Bag: sub(n.Bag), KeyF: tupleifyLambda(n.KeyF, skip), T: n.T}
	case *ast.Call:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = sub(a)
		}
		return &ast.Call{Name: n.Name, Args: args, T: n.T}
	case *ast.WithAlteredValue:
		ht := n.Handle.Type().(ast.HandleType)
		rewrittenHandle := sub(n.Handle)
		return &ast.Tuple{
			Elems: []ast.Expr{&ast.TupleGet{Of: rewrittenHandle, Index: 0, T: ht}, sub(n.NewValue)},
			T:     handleTupleType(ht),
		}
	case *ast.MakeMinHeap:
		return &ast.MakeMinHeap{Bag: sub(n.Bag), KeyF: tupleifyLambda(n.KeyF, skip), T: n.T}
	case *ast.MakeMaxHeap:
		return &ast.MakeMaxHeap{Bag: sub(n.Bag), KeyF: tupleifyLambda(n.KeyF, skip), T: n.T}
	case *ast.HeapElems:
		return &ast.HeapElems{Heap: sub(n.Heap), T: n.T}
	case *ast.HeapPeek:
		return &ast.HeapPeek{Heap: sub(n.Heap), N: sub(n.N), T: n.T}
	case *ast.HeapPeek2:
		return &ast.HeapPeek2{Heap: sub(n.Heap), N: sub(n.N), T: n.T}
	default:
		panic(fmt.Sprintf("mutate.tupleify: unsupported expression node %T", e))
	}
}

func tupleifyLambda(l *ast.Lambda, skip *set.Set[string]) *ast.Lambda {
	inner := skip
	if _, ok := l.Arg.T.(ast.HandleType); ok {
		inner = set.New[string](8)
		inner.InsertSet(skip)
		inner.Insert(l.Arg.Name)
	}
	return &ast.Lambda{Arg: l.Arg, Body: tupleify(l.Body, inner)}
}
