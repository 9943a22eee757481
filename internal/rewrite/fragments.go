package rewrite

import "synthctl/internal/ast"

// Fragment is one sub-expression reachable from a root, together with a
// Rebuild closure that reconstructs the root with that sub-expression
// replaced, so a caller can substitute at any position without writing a
// bespoke zipper for each expression shape. The plan enumerator does not
// use it.
type Fragment struct {
	Path    []int
	Expr    ast.Expr
	Rebuild func(replacement ast.Expr) ast.Expr
}

// EnumerateFragments walks e and yields every sub-expression along with a
// closure that rebuilds e with that position replaced. The root itself is
// included (empty path) so callers can treat "replace everything" uniformly.
func EnumerateFragments(e ast.Expr) []Fragment {
	var out []Fragment
	var walk func(n ast.Expr, path []int, rebuild func(ast.Expr) ast.Expr)
	walk = func(n ast.Expr, path []int, rebuild func(ast.Expr) ast.Expr) {
		if n == nil {
			return
		}
		pathCopy := append([]int(nil), path...)
		out = append(out, Fragment{Path: pathCopy, Expr: n, Rebuild: rebuild})

		child := func(i int, get func() ast.Expr, set func(ast.Expr) ast.Expr) {
			walk(get(), append(path, i), func(r ast.Expr) ast.Expr { return rebuild(set(r)) })
		}

		switch x := n.(type) {
		case *ast.Var, *ast.Literal, *ast.EmptyBag, *ast.EmptyMap:
			// leaves
		case *ast.Bin:
			child(0, func() ast.Expr { return x.A }, func(r ast.Expr) ast.Expr { return &ast.Bin{Op: x.Op, A: r, B: x.B, T: x.T} })
			child(1, func() ast.Expr { return x.B }, func(r ast.Expr) ast.Expr { return &ast.Bin{Op: x.Op, A: x.A, B: r, T: x.T} })
		case *ast.Unary:
			child(0, func() ast.Expr { return x.A }, func(r ast.Expr) ast.Expr { return &ast.Unary{Op: x.Op, A: r, T: x.T} })
		case *ast.If:
			child(0, func() ast.Expr { return x.Cond }, func(r ast.Expr) ast.Expr { return &ast.If{Cond: r, Then: x.Then, Else: x.Else, T: x.T} })
			child(1, func() ast.Expr { return x.Then }, func(r ast.Expr) ast.Expr { return &ast.If{Cond: x.Cond, Then: r, Else: x.Else, T: x.T} })
			child(2, func() ast.Expr { return x.Else }, func(r ast.Expr) ast.Expr { return &ast.If{Cond: x.Cond, Then: x.Then, Else: r, T: x.T} })
		case *ast.GetField:
			child(0, func() ast.Expr { return x.Of }, func(r ast.Expr) ast.Expr { return &ast.GetField{Of: r, Field: x.Field, T: x.T} })
		case *ast.MakeRecord:
			for i, f := range x.Fields {
				i, f := i, f
				child(i, func() ast.Expr { return f.Value }, func(r ast.Expr) ast.Expr {
					fields := append([]ast.RecordFieldValue(nil), x.Fields...)
					fields[i] = ast.RecordFieldValue{Name: f.Name, Value: r}
					return &ast.MakeRecord{Fields: fields, T: x.T}
				})
			}
		case *ast.TupleGet:
			child(0, func() ast.Expr { return x.Of }, func(r ast.Expr) ast.Expr { return &ast.TupleGet{Of: r, Index: x.Index, T: x.T} })
		case *ast.Tuple:
			for i, el := range x.Elems {
				i, el := i, el
				child(i, func() ast.Expr { return el }, func(r ast.Expr) ast.Expr {
					elems := append([]ast.Expr(nil), x.Elems...)
					elems[i] = r
					return &ast.Tuple{Elems: elems, T: x.T}
				})
			}
		case *ast.Singleton:
			child(0, func() ast.Expr { return x.Elem }, func(r ast.Expr) ast.Expr { return &ast.Singleton{Elem: r, T: x.T} })
		case *ast.Map:
			child(0, func() ast.Expr { return x.Bag }, func(r ast.Expr) ast.Expr { return &ast.Map{Bag: r, F: x.F, T: x.T} })
		case *ast.Filter:
			child(0, func() ast.Expr { return x.Bag }, func(r ast.Expr) ast.Expr { return &ast.Filter{Bag: r, F: x.F, T: x.T} })
		case *ast.FlatMap:
			child(0, func() ast.Expr { return x.Bag }, func(r ast.Expr) ast.Expr { return &ast.FlatMap{Bag: r, F: x.F, T: x.T} })
		case *ast.MakeMap:
			child(0, func() ast.Expr { return x.Bag }, func(r ast.Expr) ast.Expr { return &ast.MakeMap{Bag: r, KeyF: x.KeyF, ValF: x.ValF, T: x.T} })
		case *ast.MapGet:
			child(0, func() ast.Expr { return x.Map }, func(r ast.Expr) ast.Expr { return &ast.MapGet{Map: r, Key: x.Key, T: x.T} })
			child(1, func() ast.Expr { return x.Key }, func(r ast.Expr) ast.Expr { return &ast.MapGet{Map: x.Map, Key: r, T: x.T} })
		case *ast.MapKeys:
			child(0, func() ast.Expr { return x.Map }, func(r ast.Expr) ast.Expr { return &ast.MapKeys{Map: r, T: x.T} })
		case *ast.In:
			child(0, func() ast.Expr { return x.X }, func(r ast.Expr) ast.Expr { return &ast.In{X: r, Bag: x.Bag, T: x.T} })
			child(1, func() ast.Expr { return x.Bag }, func(r ast.Expr) ast.Expr { return &ast.In{X: x.X, Bag: r, T: x.T} })
		case *ast.ArgMin:
			child(0, func() ast.Expr { return x.Bag }, func(r ast.Expr) ast.Expr { return &ast.ArgMin{Bag: r, KeyF: x.KeyF, T: x.T} })
		case *ast.ArgMax:
			child(0, func() ast.Expr { return x.Bag }, func(r ast.Expr) ast.Expr { return &ast.ArgMax{Bag: r, KeyF: x.KeyF, T: x.T} })
		case *ast.Call:
			for i, a := range x.Args {
				i, a := i, a
				child(i, func() ast.Expr { return a }, func(r ast.Expr) ast.Expr {
					args := append([]ast.Expr(nil), x.Args...)
					args[i] = r
					return &ast.Call{Name: x.Name, Args: args, T: x.T}
				})
			}
		case *ast.WithAlteredValue:
			child(0, func() ast.Expr { return x.Handle }, func(r ast.Expr) ast.Expr { return &ast.WithAlteredValue{Handle: r, NewValue: x.NewValue, T: x.T} })
			child(1, func() ast.Expr { return x.NewValue }, func(r ast.Expr) ast.Expr { return &ast.WithAlteredValue{Handle: x.Handle, NewValue: r, T: x.T} })
		case *ast.MakeMinHeap:
			child(0, func() ast.Expr { return x.Bag }, func(r ast.Expr) ast.Expr { return &ast.MakeMinHeap{Bag: r, KeyF: x.KeyF, T: x.T} })
		case *ast.MakeMaxHeap:
			child(0, func() ast.Expr { return x.Bag }, func(r ast.Expr) ast.Expr { return &ast.MakeMaxHeap{Bag: r, KeyF: x.KeyF, T: x.T} })
		case *ast.HeapElems:
			child(0, func() ast.Expr { return x.Heap }, func(r ast.Expr) ast.Expr { return &ast.HeapElems{Heap: r, T: x.T} })
		case *ast.HeapPeek:
			child(0, func() ast.Expr { return x.Heap }, func(r ast.Expr) ast.Expr { return &ast.HeapPeek{Heap: r, N: x.N, T: x.T} })
			child(1, func() ast.Expr { return x.N }, func(r ast.Expr) ast.Expr { return &ast.HeapPeek{Heap: x.Heap, N: r, T: x.T} })
		case *ast.HeapPeek2:
			child(0, func() ast.Expr { return x.Heap }, func(r ast.Expr) ast.Expr { return &ast.HeapPeek2{Heap: r, N: x.N, T: x.T} })
			child(1, func() ast.Expr { return x.N }, func(r ast.Expr) ast.Expr { return &ast.HeapPeek2{Heap: x.Heap, N: r, T: x.T} })
		default:
			panic("rewrite.EnumerateFragments: unsupported expression node")
		}
	}
	walk(e, nil, func(r ast.Expr) ast.Expr { return r })
	return out
}
