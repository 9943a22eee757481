package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"synthctl/internal/ast"
	"synthctl/internal/config"
	"synthctl/internal/eval"
	"synthctl/internal/extension"
	"synthctl/internal/mutate"
	"synthctl/internal/rewrite"
)

func intLit(v int64) *ast.Literal { return &ast.Literal{Value: v, T: ast.IntType{}} }

func identityKeyF(elemT ast.Type) *ast.Lambda {
	x := &ast.Var{Name: "_x", T: elemT}
	return &ast.Lambda{Arg: x, Body: x}
}

func minHeapOf(elemT ast.Type, keyF *ast.Lambda, values ...int64) (ast.Expr, ast.MinHeapType) {
	bagT := ast.BagType{Elem: elemT}
	heapT := ast.MinHeapType{Elem: elemT, Key: elemT}
	var bag ast.Expr = &ast.EmptyBag{T: bagT}
	for _, v := range values {
		bag = &ast.Bin{Op: ast.OpAdd, A: bag, B: &ast.Singleton{Elem: intLit(v), T: bagT}, T: bagT}
	}
	return &ast.MakeMinHeap{Bag: bag, KeyF: keyF, T: heapT}, heapT
}

// TestDefaultValueBuildsEmptyHeapLiteral checks that DefaultValue yields an
// empty-bag MakeMinHeap/MakeMaxHeap depending on t's orientation.
func TestDefaultValueBuildsEmptyHeapLiteral(t *testing.T) {
	elemT := ast.IntType{}
	minT := ast.MinHeapType{Elem: elemT, Key: elemT}
	got := DefaultValue(minT, func(ast.Type) ast.Expr { return intLit(0) })
	mk, ok := got.(*ast.MakeMinHeap)
	require.True(t, ok)
	_, ok = mk.Bag.(*ast.EmptyBag)
	require.True(t, ok)

	maxT := ast.MaxHeapType{Elem: elemT, Key: elemT}
	gotMax := DefaultValue(maxT, func(ast.Type) ast.Expr { return intLit(0) })
	_, ok = gotMax.(*ast.MakeMaxHeap)
	require.True(t, ok)
}

// TestEncodingTypeIsBagOfPairs checks that a heap's encoding type is a bag
// of (elem, key) tuples.
func TestEncodingTypeIsBagOfPairs(t *testing.T) {
	elemT, keyT := ast.IntType{}, ast.IntType{}
	minT := ast.MinHeapType{Elem: elemT, Key: keyT}
	got := EncodingType(minT)
	bagT, ok := got.(ast.BagType)
	require.True(t, ok)
	tt, ok := bagT.Elem.(ast.TupleType)
	require.True(t, ok)
	require.Equal(t, elemT, tt.Elems[0])
	require.Equal(t, keyT, tt.Elems[1])
}

// TestEncodeMakeHeapProducesPairBag checks Encode's MakeMinHeap case: the
// result maps each element to (elem, key(elem)).
func TestEncodeMakeHeapProducesPairBag(t *testing.T) {
	elemT := ast.IntType{}
	heapExpr, _ := minHeapOf(elemT, identityKeyF(elemT), 3, 1, 2)
	encoded := Encode(heapExpr)
	m, ok := encoded.(*ast.Map)
	require.True(t, ok)
	require.Same(t, heapExpr.(*ast.MakeMinHeap).Bag, m.Bag)

	env := eval.NewEnv()
	got := eval.Eval(encoded, env).(*eval.Bag)
	require.Len(t, got.Elems, 3)
	pair := got.Elems[0].([]eval.Value)
	require.Equal(t, pair[0], pair[1]) // identity key
}

// TestHeapFuncRecoversKeyFromMakeMinHeap checks the direct literal case of
// heapFunc.
func TestHeapFuncRecoversKeyFromMakeMinHeap(t *testing.T) {
	elemT := ast.IntType{}
	keyF := identityKeyF(elemT)
	heapExpr, _ := minHeapOf(elemT, keyF, 1, 2)
	got := heapFunc(heapExpr, nil)
	require.Same(t, keyF, got)
}

// TestHeapFuncRecoversKeyThroughConcretization checks the Var + concretize
// map branch: a bare state variable resolves through its declared
// initializer.
func TestHeapFuncRecoversKeyThroughConcretization(t *testing.T) {
	elemT := ast.IntType{}
	keyF := identityKeyF(elemT)
	heapExpr, heapT := minHeapOf(elemT, keyF, 1, 2)
	v := &ast.Var{Name: "heap", T: heapT}

	got := heapFunc(v, map[string]ast.Expr{"heap": heapExpr})
	require.Same(t, keyF, got)
}

// TestHeapFuncIfUsesAlphaEquivalentFastPath checks that heapFunc's *ast.If
// case recognizes two alpha-equivalent (but not pointer-identical) key
// functions on either branch and returns one of them directly rather than
// building a merged If-lambda.
func TestHeapFuncIfUsesAlphaEquivalentFastPath(t *testing.T) {
	elemT := ast.IntType{}
	thenHeap, heapT := minHeapOf(elemT, identityKeyF(elemT), 1)
	elseHeap, _ := minHeapOf(elemT, identityKeyF(elemT), 2)
	cond := &ast.Var{Name: "c", T: ast.BoolType{}}
	ifExpr := &ast.If{Cond: cond, Then: thenHeap, Else: elseHeap, T: heapT}

	require.True(t, rewrite.AlphaEquivalentLambda(heapFunc(thenHeap, nil), heapFunc(elseHeap, nil)))
	got := heapFunc(ifExpr, nil)
	_, isIf := got.Body.(*ast.If)
	require.False(t, isIf, "alpha-equivalent branches should short-circuit to one shared key function, not a merged If")
}

// TestHeapFuncIfMergesDistinctKeyFunctions checks the fallback path: two key
// functions that are not alpha-equivalent are merged into a single lambda
// that dispatches on the original condition.
func TestHeapFuncIfMergesDistinctKeyFunctions(t *testing.T) {
	elemT := ast.IntType{}
	negKeyArg := &ast.Var{Name: "_x", T: elemT}
	negKeyF := &ast.Lambda{Arg: negKeyArg, Body: &ast.Unary{Op: ast.OpNeg, A: negKeyArg, T: elemT}}
	thenHeap, heapT := minHeapOf(elemT, identityKeyF(elemT), 1)
	elseHeap := &ast.MakeMinHeap{Bag: thenHeap.(*ast.MakeMinHeap).Bag, KeyF: negKeyF, T: heapT}
	cond := &ast.Var{Name: "c", T: ast.BoolType{}}
	ifExpr := &ast.If{Cond: cond, Then: thenHeap, Else: elseHeap, T: heapT}

	got := heapFunc(ifExpr, nil)
	ifBody, ok := got.Body.(*ast.If)
	require.True(t, ok)
	require.Same(t, cond, ifBody.Cond)
}

func newHeapHandler(concretize map[string]ast.Expr) (*Handler, *extension.Registry, *mutate.Mutator) {
	reg := extension.NewRegistry()
	mu := mutate.New(reg, config.Default())
	h := New(mu, concretize)
	reg.Register(h)
	return h, reg, mu
}

// TestMutateCallAddAllRebuildsHeapOverUnionedElements checks Handler.MutateCall
// for add_all: the new heap's elements are the old elements plus the added
// bag, kept under the same key function.
func TestMutateCallAddAllRebuildsHeapOverUnionedElements(t *testing.T) {
	elemT := ast.IntType{}
	heapExpr, heapT := minHeapOf(elemT, identityKeyF(elemT), 1, 2)
	heapVar := &ast.Var{Name: "heap", T: heapT}
	h, _, _ := newHeapHandler(map[string]ast.Expr{"heap": heapExpr})
	bagT := ast.BagType{Elem: elemT}
	toAdd := &ast.Singleton{Elem: intLit(9), T: bagT}
	call := &ast.CallStmt{Target: heapVar, Func: ast.FuncAddAll, Args: []ast.Expr{intLit(2), toAdd}}

	got := h.MutateCall(call)
	mk, ok := got.(*ast.MakeMinHeap)
	require.True(t, ok)
	bin, ok := mk.Bag.(*ast.Bin)
	require.True(t, ok)
	require.Equal(t, ast.OpAdd, bin.Op)

	env := eval.NewEnv()
	env.Vars["heap"] = eval.Eval(heapExpr, env)
	gotElems := eval.Eval(&ast.HeapElems{Heap: got, T: bagT}, env).(*eval.Bag)
	require.Len(t, gotElems.Elems, 3)
}

// TestMutateCallRemoveAllRebuildsHeapOverDiffedElements mirrors the add_all
// case for remove_all.
func TestMutateCallRemoveAllRebuildsHeapOverDiffedElements(t *testing.T) {
	elemT := ast.IntType{}
	heapExpr, heapT := minHeapOf(elemT, identityKeyF(elemT), 1, 2, 3)
	heapVar := &ast.Var{Name: "heap", T: heapT}
	h, _, _ := newHeapHandler(map[string]ast.Expr{"heap": heapExpr})
	bagT := ast.BagType{Elem: elemT}
	toDel := &ast.Singleton{Elem: intLit(2), T: bagT}
	call := &ast.CallStmt{Target: heapVar, Func: ast.FuncRemoveAll, Args: []ast.Expr{intLit(3), toDel}}

	got := h.MutateCall(call)
	env := eval.NewEnv()
	env.Vars["heap"] = eval.Eval(heapExpr, env)
	gotElems := eval.Eval(&ast.HeapElems{Heap: got, T: bagT}, env).(*eval.Bag)
	require.Len(t, gotElems.Elems, 2)
}

// TestMutatorMutateDelegatesCallStmtToHeapHandler checks that
// mutate.Mutator.Mutate's *ast.CallStmt case consults the registry and
// delegates to Handler.MutateCall instead of the generic desugarCall path:
// mutating HeapPeek(heap, n) through a remove_all call must reflect the
// remaining minimum.
func TestMutatorMutateDelegatesCallStmtToHeapHandler(t *testing.T) {
	elemT := ast.IntType{}
	heapExpr, heapT := minHeapOf(elemT, identityKeyF(elemT), 3, 1, 2)
	heapVar := &ast.Var{Name: "heap", T: heapT}
	_, _, mu := newHeapHandler(map[string]ast.Expr{"heap": heapExpr})
	bagT := ast.BagType{Elem: elemT}
	toDel := &ast.Singleton{Elem: intLit(1), T: bagT}
	call := &ast.CallStmt{Target: heapVar, Func: ast.FuncRemoveAll, Args: []ast.Expr{intLit(3), toDel}}

	min := &ast.HeapPeek{Heap: heapVar, N: intLit(2), T: elemT}
	newMin := mu.Mutate(min, call)

	env := eval.NewEnv()
	env.Vars["heap"] = eval.Eval(heapExpr, env)
	require.Equal(t, int64(2), eval.Eval(newMin, env))
}

// TestMutateInPlaceEmitsRemoveAddUpdateSequence checks Handler.MutateInPlace's
// statement shape: remove_all, then add_all, then a ForEach/update loop for
// elements whose key changed in place.
func TestMutateInPlaceEmitsRemoveAddUpdateSequence(t *testing.T) {
	elemT := ast.IntType{}
	heapExpr, heapT := minHeapOf(elemT, identityKeyF(elemT), 3, 1, 2)
	heapVar := &ast.Var{Name: "heap", T: heapT}
	h, _, _ := newHeapHandler(map[string]ast.Expr{"heap": heapExpr})
	bagT := ast.BagType{Elem: elemT}
	toDel := &ast.Singleton{Elem: intLit(1), T: bagT}
	call := &ast.CallStmt{Target: heapVar, Func: ast.FuncRemoveAll, Args: []ast.Expr{intLit(3), toDel}}

	var subgoals []*ast.Query
	makeSubgoal := func(expr ast.Expr, extra []ast.Expr, doc string) ast.Expr {
		name := rewrite.FreshName("q")
		subgoals = append(subgoals, &ast.Query{Name: name, Ret: expr})
		return &ast.Call{Name: name, T: expr.Type()}
	}

	stmt := h.MutateInPlace(heapVar, heapVar, call, nil, makeSubgoal)
	seq, ok := stmt.(*ast.Seq)
	require.True(t, ok)
	inner, ok := seq.S1.(*ast.Seq)
	require.True(t, ok)
	removeCall, ok := inner.S1.(*ast.CallStmt)
	require.True(t, ok)
	require.Equal(t, ast.FuncRemoveAll, removeCall.Func)
	addCall, ok := inner.S2.(*ast.CallStmt)
	require.True(t, ok)
	require.Equal(t, ast.FuncAddAll, addCall.Func)
	updateLoop, ok := seq.S2.(*ast.ForEach)
	require.True(t, ok)
	updateCall, ok := updateLoop.Body.(*ast.CallStmt)
	require.True(t, ok)
	require.Equal(t, ast.FuncUpdate, updateCall.Func)
	require.NotEmpty(t, subgoals)
}

// arrayState is a tiny slice-backed stand-in for the array-plus-size
// representation array.go's siftUp/siftFrom statements describe, large
// enough to drive them against known heap sequences without pulling in a
// full statement interpreter the repo otherwise has no use for (eval only
// ever evaluates expressions, never statements — the array codegen is meant
// to be read by a later lowering pass, not interpreted directly).
type arrayState struct {
	elems []int64
	size  int64
}

func (s *arrayState) get(i int64) int64    { return s.elems[i] }
func (s *arrayState) set(i int64, v int64) { s.elems[i] = v }
func (s *arrayState) swap(i, j int64)      { s.elems[i], s.elems[j] = s.elems[j], s.elems[i] }

func parent(i int64) int64 { return (i - 1) >> 1 }

// runSiftUp replays siftUp's documented algorithm directly
// against s, starting from the just-appended last slot — the same
// parent/child arithmetic and swap-while-violated loop implementHeapCall's
// FuncAddAll case lowers to.
func runSiftUp(s *arrayState, min bool) {
	i := s.size
	for i > 0 {
		p := parent(i)
		holds := s.get(p) <= s.get(i)
		if !min {
			holds = s.get(i) <= s.get(p)
		}
		if holds {
			break
		}
		s.swap(i, p)
		i = p
	}
}

// runSiftFrom replays siftFrom/removeOne's descent from index
// i while a child violates heap order.
func runSiftFrom(s *arrayState, i int64, min bool) {
	order := func(a, b int64) bool {
		if min {
			return a <= b
		}
		return b <= a
	}
	for {
		left, right := 2*i+1, 2*i+2
		var child int64
		switch {
		case right < s.size:
			if order(s.get(right), s.get(left)) {
				child = right
			} else {
				child = left
			}
		case left < s.size:
			child = left
		default:
			return
		}
		if order(s.get(i), s.get(child)) {
			return
		}
		s.swap(i, child)
		i = child
	}
}

func checkHeapOrder(t *testing.T, s *arrayState, min bool) {
	t.Helper()
	for i := int64(0); i < s.size; i++ {
		for _, c := range []int64{2*i + 1, 2*i + 2} {
			if c >= s.size {
				continue
			}
			if min {
				require.LessOrEqual(t, s.get(i), s.get(c))
			} else {
				require.GreaterOrEqual(t, s.get(i), s.get(c))
			}
		}
	}
}

// TestSiftUpMaintainsMinHeapOrderAcrossInserts checks that repeatedly
// appending then sifting up — array.go's FuncAddAll per-element fixup —
// leaves the min-heap invariant holding after every insert.
func TestSiftUpMaintainsMinHeapOrderAcrossInserts(t *testing.T) {
	s := &arrayState{elems: make([]int64, 8)}
	for _, v := range []int64{5, 3, 8, 1, 9, 2, 7} {
		s.set(s.size, v)
		runSiftUp(s, true)
		s.size++
		checkHeapOrder(t, s, true)
	}
}

// TestSiftUpMaintainsMaxHeapOrderAcrossInserts mirrors the min-heap case for
// a max-heap.
func TestSiftUpMaintainsMaxHeapOrderAcrossInserts(t *testing.T) {
	s := &arrayState{elems: make([]int64, 8)}
	for _, v := range []int64{5, 3, 8, 1, 9, 2, 7} {
		s.set(s.size, v)
		runSiftUp(s, false)
		s.size++
		checkHeapOrder(t, s, false)
	}
}

// TestSiftFromRestoresOrderAfterRemoval checks removeOne's pattern: delete
// the minimum (always at index 0), swap in the last element, shrink, then
// sift down — the invariant holds again afterward, and the value promoted
// to the root is the smallest of what remains.
func TestSiftFromRestoresOrderAfterRemoval(t *testing.T) {
	s := &arrayState{elems: make([]int64, 8)}
	for _, v := range []int64{5, 3, 8, 1, 9, 2, 7} {
		s.set(s.size, v)
		runSiftUp(s, true)
		s.size++
	}

	removed := s.get(0)
	require.Equal(t, int64(1), removed)

	s.size--
	s.set(0, s.get(s.size))
	runSiftFrom(s, 0, true)
	checkHeapOrder(t, s, true)
	require.Equal(t, int64(2), s.get(0))
}

// TestImplementHeapCallAddAllProducesEnsureCapacityThenSiftingForEach checks
// implementHeapCall's FuncAddAll shape: capacity is ensured up front, and
// each new element is written to the next slot, sifted up, then counted.
func TestImplementHeapCallAddAllProducesEnsureCapacityThenSiftingForEach(t *testing.T) {
	elemT := ast.IntType{}
	heapT := ast.MinHeapType{Elem: elemT, Key: elemT}
	target := &ast.Var{Name: "h", T: heapT}
	bagT := ast.BagType{Elem: elemT}
	initial := &ast.MakeMinHeap{Bag: &ast.EmptyBag{T: bagT}, KeyF: identityKeyF(elemT), T: heapT}
	concretize := map[string]ast.Expr{"h": initial}
	added := &ast.Singleton{Elem: intLit(9), T: bagT}
	call := &ast.CallStmt{Target: target, Func: ast.FuncAddAll, Args: []ast.Expr{intLit(0), added}}

	lowered := implementHeapCall(target, call, concretize)
	seq, ok := lowered.(*ast.Seq)
	require.True(t, ok)
	_, ok = seq.S1.(*ast.EnsureCapacity)
	require.True(t, ok)
	loop, ok := seq.S2.(*ast.ForEach)
	require.True(t, ok)
	require.Same(t, added, loop.Bag)
}

// TestImplementHeapCallRemoveAllProducesPerElementForEach checks
// implementHeapCall's FuncRemoveAll shape: one ForEach over the removed
// elements, each locating and excising its own index.
func TestImplementHeapCallRemoveAllProducesPerElementForEach(t *testing.T) {
	elemT := ast.IntType{}
	heapT := ast.MinHeapType{Elem: elemT, Key: elemT}
	target := &ast.Var{Name: "h", T: heapT}
	bagT := ast.BagType{Elem: elemT}
	initial := &ast.MakeMinHeap{Bag: &ast.EmptyBag{T: bagT}, KeyF: identityKeyF(elemT), T: heapT}
	concretize := map[string]ast.Expr{"h": initial}
	toDel := &ast.Singleton{Elem: intLit(2), T: bagT}
	call := &ast.CallStmt{Target: target, Func: ast.FuncRemoveAll, Args: []ast.Expr{intLit(3), toDel}}

	lowered := implementHeapCall(target, call, concretize)
	loop, ok := lowered.(*ast.ForEach)
	require.True(t, ok)
	require.Same(t, toDel, loop.Bag)
	_, ok = loop.Body.(*ast.Seq)
	require.True(t, ok)
}

// TestImplementStmtRoutesOnlyHeapTypedCallStmts checks implementStmt's
// dispatch: a CallStmt on a heap-typed variable is lowered through
// implementHeapCall, while every other statement shape (including a
// CallStmt on a non-heap target) passes through unchanged.
func TestImplementStmtRoutesOnlyHeapTypedCallStmts(t *testing.T) {
	elemT := ast.IntType{}
	heapT := ast.MinHeapType{Elem: elemT, Key: elemT}
	heapVar := &ast.Var{Name: "h", T: heapT}
	bagT := ast.BagType{Elem: elemT}
	initial := &ast.MakeMinHeap{Bag: &ast.EmptyBag{T: bagT}, KeyF: identityKeyF(elemT), T: heapT}
	concretize := map[string]ast.Expr{"h": initial}
	added := &ast.Singleton{Elem: intLit(1), T: bagT}
	heapCall := &ast.CallStmt{Target: heapVar, Func: ast.FuncAddAll, Args: []ast.Expr{intLit(0), added}}

	lowered := implementStmt(heapCall, concretize)
	_, ok := lowered.(*ast.Seq)
	require.True(t, ok, "heap-typed CallStmt should lower via implementHeapCall")

	bagVar := &ast.Var{Name: "xs", T: bagT}
	plainCall := &ast.CallStmt{Target: bagVar, Func: ast.FuncAdd, Args: []ast.Expr{intLit(1)}}
	require.Same(t, ast.Stmt(plainCall), implementStmt(plainCall, nil))
}
