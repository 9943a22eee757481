package heap

import (
	"fmt"

	"synthctl/internal/ast"
	"synthctl/internal/extension"
	"synthctl/internal/mutate"
	"synthctl/internal/types"
)

// Handler implements extension.Handler for MinHeapType/MaxHeapType. It
// threads a mutate.Mutator through so MutateInPlace can compute the
// symbolic new value of the derived heap expression before sketching its
// incremental maintenance, rather than re-deriving mutation here.
// Concretize maps a state-variable name back to its declared initializer,
// needed because MutateCall/MutateInPlace are always handed a bare
// state-variable reference (the call's Target, or the mutator's old value)
// rather than the heap literal itself, and only the literal carries the key
// function.
type Handler struct {
	Mutator    *mutate.Mutator
	Concretize map[string]ast.Expr
}

func New(m *mutate.Mutator, concretize map[string]ast.Expr) *Handler {
	return &Handler{Mutator: m, Concretize: concretize}
}

var _ extension.Handler = (*Handler)(nil)

func (h *Handler) OwnedTypes() []ast.Type {
	return []ast.Type{ast.MinHeapType{}, ast.MaxHeapType{}}
}

func (h *Handler) DefaultValue(t ast.Type, recurse func(ast.Type) ast.Expr) ast.Expr {
	return DefaultValue(t, recurse)
}

// CheckWF rejects a HeapPeek/HeapPeek2 whose n argument isn't provably the
// heap's current element count, via a validity oracle the caller supplies.
func CheckWF(e ast.Expr, valid func(ast.Expr) bool) error {
	var heapArg, n ast.Expr
	switch x := e.(type) {
	case *ast.HeapPeek:
		heapArg, n = x.Heap, x.N
	case *ast.HeapPeek2:
		heapArg, n = x.Heap, x.N
	default:
		return nil
	}
	elemT, _ := elemKeyTypes(heapArg.Type())
	elemsLen := &ast.Unary{Op: ast.OpLength, A: &ast.HeapElems{Heap: heapArg, T: ast.BagType{Elem: elemT}}, T: ast.IntType{}}
	if !valid(&ast.Bin{Op: ast.OpEq, A: n, B: elemsLen, T: ast.BoolType{}}) {
		return fmt.Errorf("heap.CheckWF: peek's n argument does not provably equal the heap's element count")
	}
	return nil
}

// CheckWF satisfies extension.Handler with an always-pass stub: well-
// formedness here needs an oracle, which the twelve-method contract (§6)
// does not thread through CheckWF(e) alone. Callers that can supply a
// validity oracle should call the package-level CheckWF function above
// directly instead of going through the registry for this particular check.
func (h *Handler) CheckWF(e ast.Expr) error {
	return nil
}

func (h *Handler) Typecheck(e ast.Expr, typecheck func(ast.Expr) ast.Expr, reportErr func(error)) ast.Expr {
	switch n := e.(type) {
	case *ast.MakeMinHeap:
		bag := typecheck(n.Bag)
		bagT, ok := bag.Type().(ast.BagType)
		if !ok {
			reportErr(fmt.Errorf("heap.Typecheck: MakeMinHeap's source is not a Bag"))
			return e
		}
		n.KeyF.Arg.T = bagT.Elem
		body := typecheck(n.KeyF.Body)
		return &ast.MakeMinHeap{Bag: bag, KeyF: &ast.Lambda{Arg: n.KeyF.Arg, Body: body}, T: ast.MinHeapType{Elem: bagT.Elem, Key: body.Type()}}
	case *ast.MakeMaxHeap:
		bag := typecheck(n.Bag)
		bagT, ok := bag.Type().(ast.BagType)
		if !ok {
			reportErr(fmt.Errorf("heap.Typecheck: MakeMaxHeap's source is not a Bag"))
			return e
		}
		n.KeyF.Arg.T = bagT.Elem
		body := typecheck(n.KeyF.Body)
		return &ast.MakeMaxHeap{Bag: bag, KeyF: &ast.Lambda{Arg: n.KeyF.Arg, Body: body}, T: ast.MaxHeapType{Elem: bagT.Elem, Key: body.Type()}}
	case *ast.HeapElems:
		heapExpr := typecheck(n.Heap)
		elemT, _ := elemKeyTypes(heapExpr.Type())
		return &ast.HeapElems{Heap: heapExpr, T: ast.BagType{Elem: elemT}}
	case *ast.HeapPeek:
		heapExpr := typecheck(n.Heap)
		nExpr := typecheck(n.N)
		elemT, _ := elemKeyTypes(heapExpr.Type())
		return &ast.HeapPeek{Heap: heapExpr, N: nExpr, T: elemT}
	case *ast.HeapPeek2:
		heapExpr := typecheck(n.Heap)
		nExpr := typecheck(n.N)
		elemT, _ := elemKeyTypes(heapExpr.Type())
		return &ast.HeapPeek2{Heap: heapExpr, N: nExpr, T: elemT}
	default:
		reportErr(fmt.Errorf("heap.Typecheck: unsupported expression %T", e))
		return e
	}
}

// StorageSize counts every tracked (elem, key) pair, via k on the elements
// bag.
func (h *Handler) StorageSize(e ast.Expr, k int) int {
	return k
}

func (h *Handler) EncodingType(t ast.Type) ast.Type {
	return EncodingType(t)
}

func (h *Handler) Encode(e ast.Expr) ast.Expr {
	return Encode(e)
}

// MutateCall computes the new symbolic value of a heap-typed CallStmt's
// target: it rebuilds the MakeMinHeap/MakeMaxHeap literal over the elements
// bag diffed by the update method's (count, elems) arguments, reusing the
// heap's own key function via heapFunc rather than re-deriving it. This is
// the heap-specific half of mutate.Mutator.Mutate's CallStmt case; the add_all/remove_all
// desugarCall handles for a plain Bag target doesn't apply here since a
// heap isn't itself something +/- can be applied to.
func (h *Handler) MutateCall(s *ast.CallStmt) ast.Expr {
	t := s.Target.Type()
	elemT, _ := elemKeyTypes(t)
	bagT := ast.BagType{Elem: elemT}
	oldElems := &ast.HeapElems{Heap: s.Target, T: bagT}
	keyF := heapFunc(s.Target, h.Concretize)
	elems := s.Args[len(s.Args)-1]

	switch s.Func {
	case ast.FuncAddAll:
		return makeHeap(t, &ast.Bin{Op: ast.OpAdd, A: oldElems, B: elems, T: bagT}, keyF)
	case ast.FuncRemoveAll:
		return makeHeap(t, &ast.Bin{Op: ast.OpSub, A: oldElems, B: elems, T: bagT}, keyF)
	default:
		panic(fmt.Sprintf("heap.MutateCall: %s is not a supported heap update method", s.Func))
	}
}

// MutateInPlace produces the code that keeps lval (an array-backed heap
// state variable) synchronized with the abstract value old as op executes:
// compute the new symbolic value, diff the elements bag for additions and
// removals, then diff each surviving element's key to find what needs an
// in-place priority update.
func (h *Handler) MutateInPlace(lval, old ast.Expr, op ast.Stmt, assumptions []ast.Expr, makeSubgoal extension.MakeSubgoal) ast.Stmt {
	newVal := h.Mutator.Mutate(old, op)

	elemT, _ := elemKeyTypes(lval.Type())
	bagT := ast.BagType{Elem: elemT}
	oldElems := &ast.HeapElems{Heap: old, T: bagT}
	newElems := &ast.HeapElems{Heap: newVal, T: bagT}

	initialCount := makeSubgoal(&ast.Unary{Op: ast.OpLength, A: oldElems, T: ast.IntType{}}, nil, "")
	toAdd := makeSubgoal(&ast.Bin{Op: ast.OpSub, A: newElems, B: oldElems, T: bagT}, nil, "additions to "+lval.String())
	toDelSpec := &ast.Bin{Op: ast.OpSub, A: oldElems, B: newElems, T: bagT}
	removedCount := makeSubgoal(&ast.Unary{Op: ast.OpLength, A: toDelSpec, T: ast.IntType{}}, nil, "")
	toDel := makeSubgoal(toDelSpec, nil, "deletions from "+lval.String())

	f1 := heapFunc(old, h.Concretize)
	f2 := heapFunc(newVal, h.Concretize)
	v := &ast.Var{Name: "_hv", T: elemT}
	oldVKey := f1.Apply(v)
	newVKey := f2.Apply(v)
	modSpec := &ast.Filter{
		Bag: oldElems,
		F: &ast.Lambda{Arg: v, Body: &ast.Bin{
			Op: ast.OpAnd,
			A:  &ast.In{X: v, Bag: newElems, T: ast.BoolType{}},
			B:  &ast.Unary{Op: ast.OpNot, A: &ast.Bin{Op: ast.OpEq, A: newVKey, B: oldVKey, T: ast.BoolType{}}, T: ast.BoolType{}},
			T:  ast.BoolType{},
		}},
		T: bagT,
	}
	modified := makeSubgoal(modSpec, nil, "")

	return ast.SeqAll(
		&ast.CallStmt{Target: lval, Func: ast.FuncRemoveAll, Args: []ast.Expr{initialCount, toDel}},
		&ast.CallStmt{Target: lval, Func: ast.FuncAddAll, Args: []ast.Expr{&ast.Bin{Op: ast.OpSub, A: initialCount, B: removedCount, T: ast.IntType{}}, toAdd}},
		&ast.ForEach{Var: v, Bag: modified, Body: &ast.CallStmt{
			Target: lval,
			Func:   ast.FuncUpdate,
			Args:   []ast.Expr{v, makeSubgoal(newVKey, []ast.Expr{&ast.In{X: v, Bag: modSpec, T: ast.BoolType{}}}, "")},
		}},
	)
}

func (h *Handler) RepType(t ast.Type) ast.Type {
	elem, _ := elemKeyTypes(t)
	return ast.ArrayType{Elem: elem}
}

// Codegen lowers a heap-valued expression into concrete array-backed code.
// Three shapes are handled: HeapElems over a MakeMinHeap/MakeMaxHeap
// literal, and HeapPeek/HeapPeek2 over a bare heap state variable. Any other
// shape, including a bare MakeMinHeap/MakeMaxHeap literal, panics
// (ImplementStmt, via array.go's implementStmt, is the codegen path that
// actually allocates and mutates the backing array).
func (h *Handler) Codegen(e ast.Expr, concretize map[string]ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.HeapElems:
		switch h := n.Heap.(type) {
		case *ast.MakeMinHeap:
			return h.Bag
		case *ast.MakeMaxHeap:
			return h.Bag
		default:
			panic(fmt.Sprintf("heap.Codegen: HeapElems over %T requires statement-level lowering via ImplementStmt", n.Heap))
		}
	case *ast.HeapPeek:
		elemT, _ := elemKeyTypes(n.Heap.Type())
		arr := backingArray(n.Heap, concretize)
		return &ast.ArrayGet{Array: arr, Index: zero(), T: elemT}
	case *ast.HeapPeek2:
		return peek2Codegen(n.Heap, n.N, concretize)
	default:
		panic(fmt.Sprintf("heap.Codegen: %T requires statement-level lowering via ImplementStmt", e))
	}
}

// backingArray resolves the Array(E) variable a heap-typed expression is
// represented by. Only a bare state-variable reference has one; anything
// else (a literal, an If over handles, ...) must already have been resolved
// down to its state variable by the caller before Codegen is reached — the
// same contract RepType/MutateInPlace document.
func backingArray(e ast.Expr, concretize map[string]ast.Expr) *ast.Var {
	v, ok := e.(*ast.Var)
	if !ok {
		panic(fmt.Sprintf("heap.Codegen: cannot resolve a backing array for %T; resolve to a state variable first", e))
	}
	elemT, _ := elemKeyTypes(v.T)
	return arrayVar(v.Name, elemT)
}

// peek2Codegen lowers HeapPeek2: for n in {0, 1} the default element
// value; for n = 2, a[1]; otherwise the better of a[1]/a[2] under the
// heap's key.
func peek2Codegen(heapExpr, nExpr ast.Expr, concretize map[string]ast.Expr) ast.Expr {
	elemT, _ := elemKeyTypes(heapExpr.Type())
	arr := backingArray(heapExpr, concretize)
	keyF := heapFunc(heapExpr, concretize)
	min := isMin(heapExpr.Type())

	a1 := &ast.ArrayGet{Array: arr, Index: &ast.Literal{Value: int64(1), T: ast.IntType{}}, T: elemT}
	a2 := &ast.ArrayGet{Array: arr, Index: &ast.Literal{Value: int64(2), T: ast.IntType{}}, T: elemT}
	bagT := ast.BagType{Elem: elemT}
	pairBag := &ast.Bin{Op: ast.OpAdd, A: &ast.Singleton{Elem: a1, T: bagT}, B: &ast.Singleton{Elem: a2, T: bagT}, T: bagT}
	fallback := pick(pairBag, elemT, keyF, min)

	nLe1 := &ast.Bin{Op: ast.OpLe, A: nExpr, B: &ast.Literal{Value: int64(1), T: ast.IntType{}}, T: ast.BoolType{}}
	nEq2 := &ast.Bin{Op: ast.OpEq, A: nExpr, B: &ast.Literal{Value: int64(2), T: ast.IntType{}}, T: ast.BoolType{}}
	return &ast.If{
		Cond: nLe1,
		Then: types.DefaultValue(elemT),
		Else: &ast.If{Cond: nEq2, Then: a1, Else: fallback, T: elemT},
		T:    elemT,
	}
}

func (h *Handler) ImplementStmt(s ast.Stmt, concretize map[string]ast.Expr) ast.Stmt {
	return implementStmt(s, concretize)
}
