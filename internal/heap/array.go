package heap

import (
	"synthctl/internal/ast"
)

// heapSizeSuffix names the separate length variable the array-backed
// representation keeps alongside the Array(E) itself.
const heapSizeSuffix = "_size"

func sizeVar(stateName string) *ast.Var {
	return &ast.Var{Name: stateName + heapSizeSuffix, T: ast.IntType{}}
}

func arrayVar(stateName string, elemT ast.Type) *ast.Var {
	return &ast.Var{Name: stateName, T: ast.ArrayType{Elem: elemT}}
}

// parentIndex and the child-index helpers are the binary-heap index
// arithmetic: children of i are (2i+1, 2i+2); parent is (i-1) >> 1.
// Integer division by two has no direct Bin op in the expression model, so
// parent-index is expressed as a named call the eventual code printer
// resolves the same way it would resolve ArrayGet/ArrayLen — a codegen
// intrinsic, not a re-synthesizable sub-query.
func parentIndex(i ast.Expr) ast.Expr {
	return &ast.Call{Name: "__heap_parent_index", Args: []ast.Expr{i}, T: ast.IntType{}}
}

func leftChild(i ast.Expr) ast.Expr {
	two := &ast.Literal{Value: int64(2), T: ast.IntType{}}
	one := &ast.Literal{Value: int64(1), T: ast.IntType{}}
	return &ast.Bin{Op: ast.OpAdd, A: &ast.Bin{Op: ast.OpMul, A: two, B: i, T: ast.IntType{}}, B: one, T: ast.IntType{}}
}

func rightChild(i ast.Expr) ast.Expr {
	two := &ast.Literal{Value: int64(2), T: ast.IntType{}}
	return &ast.Bin{Op: ast.OpAdd, A: &ast.Bin{Op: ast.OpMul, A: two, B: i, T: ast.IntType{}}, B: &ast.Literal{Value: int64(2), T: ast.IntType{}}, T: ast.IntType{}}
}

// orderHolds builds `ordering(key(a[i]), key(a[j]))`: ≤ for a min-heap, ≥
// for a max-heap (expressed as Le with operands swapped, since the model has
// no native ≥).
func orderHolds(arr *ast.Var, i, j ast.Expr, keyF *ast.Lambda, min bool, elemT ast.Type) ast.Expr {
	ki := keyF.Apply(&ast.ArrayGet{Array: arr, Index: i, T: elemT})
	kj := keyF.Apply(&ast.ArrayGet{Array: arr, Index: j, T: elemT})
	if min {
		return &ast.Bin{Op: ast.OpLe, A: ki, B: kj, T: ast.BoolType{}}
	}
	return &ast.Bin{Op: ast.OpLe, A: kj, B: ki, T: ast.BoolType{}}
}

func notExpr(e ast.Expr) ast.Expr {
	return &ast.Unary{Op: ast.OpNot, A: e, T: ast.BoolType{}}
}

// implementStmt recursively lowers every heap-level CallStmt (add_all,
// remove_all, update) reachable inside s into array-backed code, leaving
// every other statement shape structurally unchanged. This is the codegen counterpart to
// Handler.MutateInPlace, which only goes as far as the algebraic
// add_all/remove_all/update calls.
func implementStmt(s ast.Stmt, concretize map[string]ast.Expr) ast.Stmt {
	switch n := s.(type) {
	case ast.NoOp:
		return n
	case *ast.Assign, *ast.Decl, *ast.Swap, *ast.EscapeBlock, *ast.ArrayAlloc, *ast.EnsureCapacity:
		return s
	case *ast.Seq:
		return &ast.Seq{S1: implementStmt(n.S1, concretize), S2: implementStmt(n.S2, concretize)}
	case *ast.IfStmt:
		return &ast.IfStmt{Cond: n.Cond, Then: implementStmt(n.Then, concretize), Else: implementStmt(n.Else, concretize)}
	case *ast.ForEach:
		return &ast.ForEach{Var: n.Var, Bag: n.Bag, Body: implementStmt(n.Body, concretize)}
	case *ast.While:
		return &ast.While{Cond: n.Cond, Body: implementStmt(n.Body, concretize)}
	case *ast.EscapableBlock:
		return &ast.EscapableBlock{Label: n.Label, Body: implementStmt(n.Body, concretize)}
	case *ast.Switch:
		cases := make([]ast.SwitchCase, len(n.Cases))
		for i, c := range n.Cases {
			cases[i] = ast.SwitchCase{Value: c.Value, Body: implementStmt(c.Body, concretize)}
		}
		return &ast.Switch{Scrutinee: n.Scrutinee, Cases: cases, Default: implementStmt(n.Default, concretize)}
	case *ast.CallStmt:
		if v, ok := n.Target.(*ast.Var); ok && isHeapType(v.T) {
			return implementHeapCall(v, n, concretize)
		}
		return n
	default:
		return s
	}
}

func isHeapType(t ast.Type) bool {
	switch t.(type) {
	case ast.MinHeapType, ast.MaxHeapType:
		return true
	default:
		return false
	}
}

func implementHeapCall(target *ast.Var, c *ast.CallStmt, concretize map[string]ast.Expr) ast.Stmt {
	elemT, _ := elemKeyTypes(target.T)
	arr := arrayVar(target.Name, elemT)
	sz := sizeVar(target.Name)
	keyF := heapFunc(target, concretize)
	min := isMin(target.T)

	switch c.Func {
	case ast.FuncAddAll:
		count, newElems := c.Args[0], c.Args[1]
		v := &ast.Var{Name: "_heap_add", T: elemT}
		numNew := &ast.Unary{Op: ast.OpLength, A: newElems, T: ast.IntType{}}
		return ast.SeqAll(
			&ast.EnsureCapacity{Array: arr, Size: &ast.Bin{Op: ast.OpAdd, A: count, B: numNew, T: ast.IntType{}}},
			&ast.ForEach{Var: v, Bag: newElems, Body: ast.SeqAll(
				&ast.Assign{Lval: &ast.ArrayGet{Array: arr, Index: sz, T: elemT}, Rhs: v},
				siftUp(arr, sz, keyF, min, elemT),
				&ast.Assign{Lval: sz, Rhs: &ast.Bin{Op: ast.OpAdd, A: sz, B: one(), T: ast.IntType{}}},
			)},
		)
	case ast.FuncRemoveAll:
		toRemove := c.Args[1]
		v := &ast.Var{Name: "_heap_del", T: elemT}
		return &ast.ForEach{Var: v, Bag: toRemove, Body: removeOne(arr, sz, v, keyF, min, elemT)}
	case ast.FuncUpdate:
		// The element's own value has already been mutated by the time this
		// statement runs (the update call is emitted after the aliasing-aware
		// mutator has rewritten v's underlying handle), so keyF(arr[i])
		// already reflects the new key — the explicit newKey argument is
		// documentation, not an input codegen needs here.
		elem := c.Args[0]
		idx := &ast.Var{Name: "_heap_upd_i", T: ast.IntType{}}
		return ast.SeqAll(
			&ast.Decl{Name: idx.Name, Rhs: &ast.ArrayIndexOf{Array: arr, Value: elem}},
			siftFrom(arr, sz, idx, keyF, min, elemT),
		)
	default:
		panic("heap.implementHeapCall: unsupported call on heap-typed target: " + c.Func.String())
	}
}

func one() ast.Expr  { return &ast.Literal{Value: int64(1), T: ast.IntType{}} }
func zero() ast.Expr { return &ast.Literal{Value: int64(0), T: ast.IntType{}} }

// siftUp is add_all's per-element fixup: while i > 0 and the parent/child
// order is violated, swap with the parent and continue from there.
func siftUp(arr, sz *ast.Var, keyF *ast.Lambda, min bool, elemT ast.Type) ast.Stmt {
	i := &ast.Var{Name: "_heap_siftup_i", T: ast.IntType{}}
	parent := parentIndex(i)
	cond := &ast.Bin{
		Op: ast.OpAnd,
		A:  &ast.Bin{Op: ast.OpLt, A: zero(), B: i, T: ast.BoolType{}},
		B:  notExpr(orderHolds(arr, parent, i, keyF, min, elemT)),
		T:  ast.BoolType{},
	}
	return ast.SeqAll(
		&ast.Decl{Name: i.Name, Rhs: sz},
		&ast.While{Cond: cond, Body: ast.SeqAll(
			&ast.Swap{A: &ast.ArrayGet{Array: arr, Index: i, T: elemT}, B: &ast.ArrayGet{Array: arr, Index: parent, T: elemT}},
			&ast.Assign{Lval: i, Rhs: parent},
		)},
	)
}

// removeOne is remove_all's per-element fixup: locate x, swap it to the
// last occupied slot, shrink size, then sift down from its old index within
// the new bound.
func removeOne(arr, sz *ast.Var, x ast.Expr, keyF *ast.Lambda, min bool, elemT ast.Type) ast.Stmt {
	idx := &ast.Var{Name: "_heap_rm_i", T: ast.IntType{}}
	last := &ast.Bin{Op: ast.OpSub, A: sz, B: one(), T: ast.IntType{}}
	return ast.SeqAll(
		&ast.Decl{Name: idx.Name, Rhs: &ast.ArrayIndexOf{Array: arr, Value: x}},
		&ast.Swap{A: &ast.ArrayGet{Array: arr, Index: idx, T: elemT}, B: &ast.ArrayGet{Array: arr, Index: last, T: elemT}},
		&ast.Assign{Lval: sz, Rhs: last},
		siftFrom(arr, sz, idx, keyF, min, elemT),
	)
}

// siftFrom descends from index i (a mutable local, already declared by the
// caller) while a child violates the heap order, picking the better of the
// two children each step, and stopping as soon as the order holds or no
// child remains within bound sz.
func siftFrom(arr, sz *ast.Var, i *ast.Var, keyF *ast.Lambda, min bool, elemT ast.Type) ast.Stmt {
	const label = "heap_siftdown"
	left, right := leftChild(i), rightChild(i)
	leftInBounds := &ast.Bin{Op: ast.OpLt, A: left, B: sz, T: ast.BoolType{}}
	rightInBounds := &ast.Bin{Op: ast.OpLt, A: right, B: sz, T: ast.BoolType{}}
	leftBetter := notExpr(orderHolds(arr, right, left, keyF, min, elemT))

	descendInto := func(child ast.Expr) ast.Stmt {
		violated := notExpr(orderHolds(arr, i, child, keyF, min, elemT))
		return &ast.IfStmt{
			Cond: violated,
			Then: ast.SeqAll(
				&ast.Swap{A: &ast.ArrayGet{Array: arr, Index: i, T: elemT}, B: &ast.ArrayGet{Array: arr, Index: child, T: elemT}},
				&ast.Assign{Lval: i, Rhs: child},
			),
			Else: &ast.EscapeBlock{Label: label},
		}
	}

	body := &ast.IfStmt{
		Cond: rightInBounds,
		Then: &ast.IfStmt{
			Cond: leftBetter,
			Then: descendInto(left),
			Else: descendInto(right),
		},
		Else: &ast.IfStmt{
			Cond: leftInBounds,
			Then: descendInto(left),
			Else: &ast.EscapeBlock{Label: label},
		},
	}

	return &ast.EscapableBlock{Label: label, Body: &ast.While{Cond: &ast.Literal{Value: true, T: ast.BoolType{}}, Body: body}}
}
