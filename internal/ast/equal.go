package ast

// Equal reports structural equality of two expressions, including free
// variable names. Two lambdas whose binders differ are compared by renaming
// the second binder to the first (lambdaEqual); this is not capture-aware
// alpha-equivalence, which is internal/rewrite.AlphaEquivalent's job.
// rewrite.AlphaEquivalent has its own traversal and does not call Equal.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *Var:
		y, ok := b.(*Var)
		return ok && x.Name == y.Name && TypesEqual(x.T, y.T)
	case *Literal:
		y, ok := b.(*Literal)
		return ok && x.Value == y.Value && TypesEqual(x.T, y.T)
	case *Bin:
		y, ok := b.(*Bin)
		return ok && x.Op == y.Op && Equal(x.A, y.A) && Equal(x.B, y.B)
	case *Unary:
		y, ok := b.(*Unary)
		return ok && x.Op == y.Op && Equal(x.A, y.A)
	case *If:
		y, ok := b.(*If)
		return ok && Equal(x.Cond, y.Cond) && Equal(x.Then, y.Then) && Equal(x.Else, y.Else)
	case *GetField:
		y, ok := b.(*GetField)
		return ok && x.Field == y.Field && Equal(x.Of, y.Of)
	case *MakeRecord:
		y, ok := b.(*MakeRecord)
		if !ok || len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if x.Fields[i].Name != y.Fields[i].Name || !Equal(x.Fields[i].Value, y.Fields[i].Value) {
				return false
			}
		}
		return true
	case *TupleGet:
		y, ok := b.(*TupleGet)
		return ok && x.Index == y.Index && Equal(x.Of, y.Of)
	case *Tuple:
		y, ok := b.(*Tuple)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !Equal(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case *Singleton:
		y, ok := b.(*Singleton)
		return ok && Equal(x.Elem, y.Elem)
	case *EmptyBag:
		_, ok := b.(*EmptyBag)
		return ok && TypesEqual(x.T, b.Type())
	case *EmptyMap:
		_, ok := b.(*EmptyMap)
		return ok && TypesEqual(x.T, b.Type())
	case *Map:
		y, ok := b.(*Map)
		return ok && Equal(x.Bag, y.Bag) && lambdaEqual(x.F, y.F)
	case *Filter:
		y, ok := b.(*Filter)
		return ok && Equal(x.Bag, y.Bag) && lambdaEqual(x.F, y.F)
	case *FlatMap:
		y, ok := b.(*FlatMap)
		return ok && Equal(x.Bag, y.Bag) && lambdaEqual(x.F, y.F)
	case *MakeMap:
		y, ok := b.(*MakeMap)
		return ok && Equal(x.Bag, y.Bag) && lambdaEqual(x.KeyF, y.KeyF) && lambdaEqual(x.ValF, y.ValF)
	case *MapGet:
		y, ok := b.(*MapGet)
		return ok && Equal(x.Map, y.Map) && Equal(x.Key, y.Key)
	case *MapKeys:
		y, ok := b.(*MapKeys)
		return ok && Equal(x.Map, y.Map)
	case *In:
		y, ok := b.(*In)
		return ok && Equal(x.X, y.X) && Equal(x.Bag, y.Bag)
	case *ArgMin:
		y, ok := b.(*ArgMin)
		return ok && Equal(x.Bag, y.Bag) && lambdaEqual(x.KeyF, y.KeyF)
	case *ArgMax:
		y, ok := b.(*ArgMax)
		return ok && Equal(x.Bag, y.Bag) && lambdaEqual(x.KeyF, y.KeyF)
	case *Call:
		y, ok := b.(*Call)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *WithAlteredValue:
		y, ok := b.(*WithAlteredValue)
		return ok && Equal(x.Handle, y.Handle) && Equal(x.NewValue, y.NewValue)
	case *MakeMinHeap:
		y, ok := b.(*MakeMinHeap)
		return ok && Equal(x.Bag, y.Bag) && lambdaEqual(x.KeyF, y.KeyF)
	case *MakeMaxHeap:
		y, ok := b.(*MakeMaxHeap)
		return ok && Equal(x.Bag, y.Bag) && lambdaEqual(x.KeyF, y.KeyF)
	case *HeapElems:
		y, ok := b.(*HeapElems)
		return ok && Equal(x.Heap, y.Heap)
	case *HeapPeek:
		y, ok := b.(*HeapPeek)
		return ok && Equal(x.Heap, y.Heap) && Equal(x.N, y.N)
	case *HeapPeek2:
		y, ok := b.(*HeapPeek2)
		return ok && Equal(x.Heap, y.Heap) && Equal(x.N, y.N)
	default:
		return false
	}
}

func lambdaEqual(a, b *Lambda) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Arg.Name == b.Arg.Name {
		return Equal(a.Body, b.Body)
	}
	// Binders differ textually; rename b's binder to a's before comparing.
	renamed := substituteVar(b.Body, b.Arg.Name, &Var{Name: a.Arg.Name, T: a.Arg.T})
	return Equal(a.Body, renamed)
}
