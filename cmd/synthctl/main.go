package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/hashicorp/go-set/v3"

	"synthctl/internal/ast"
	"synthctl/internal/config"
	"synthctl/internal/enumerate"
	"synthctl/internal/errors"
	"synthctl/internal/eval"
	"synthctl/internal/extension"
	"synthctl/internal/heap"
	"synthctl/internal/mutate"
	"synthctl/internal/oracle"
	"synthctl/internal/sketch"
)

// synthctl is a thin driver: it owns no parser, printer, or option/flag
// system of its own. It wires one concrete Spec (built in Go here, in
// place of a front end reading a file) through the
// mutator, the sketcher, and the heap extension handler, then hands a
// derived plan-search query to the enumerator and reports its lazy
// (kind, payload) sequence the way a real driver would.
func main() {
	reporter := errors.NewErrorReporter("synthctl")
	var diag errors.Diagnostics

	demos := []struct {
		query string
		run   func() error
	}{
		{"bag-counter", runBagCounter},
		{"heap-delete-min", runHeapDeleteMin},
		{"plan-search", runPlanSearch},
	}
	for _, d := range demos {
		if err := d.run(); err != nil {
			diag.Add(&errors.CompilerError{
				Level:    errors.Error,
				Code:     errors.ErrorUnsupportedConstruct,
				Message:  err.Error(),
				Location: errors.Location{Query: d.query},
			})
		}
	}

	if diag.ErrorOrNil() != nil {
		diag.Each(func(ce errors.CompilerError) { fmt.Print(reporter.FormatError(ce)) })
		os.Exit(1)
	}

	color.Green("synthctl: all demo syntheses completed")
}

// runBagCounter keeps a derived bag counter in sync: `Length(xs)` is
// mutated symbolically across `add(x)` and then sketched into imperative
// maintenance code.
func runBagCounter() error {
	color.Cyan("== bag counter ==")

	reg := extension.NewRegistry()
	mu := mutate.New(reg, config.Default())

	bagT := ast.BagType{Elem: ast.IntType{}}
	xs := &ast.Var{Name: "xs", T: bagT}
	x := &ast.Var{Name: "x", T: ast.IntType{}}
	e := &ast.Unary{Op: ast.OpLength, A: xs, T: ast.IntType{}}
	op := &ast.CallStmt{Target: xs, Func: ast.FuncAdd, Args: []ast.Expr{x}}

	newE := mu.Mutate(e, op)
	fmt.Printf("  mutate(%s, %s) = %s\n", e, op, newE)

	env := eval.NewEnv()
	env.Vars["xs"] = eval.NewBag(int64(1), int64(2))
	env.Vars["x"] = int64(9)
	got := eval.Eval(newE, env)
	fmt.Printf("  eval under {xs={1,2}, x=9} = %v\n", got)
	if got.(int64) != 3 {
		return fmt.Errorf("mutation soundness violated: expected 3, got %v", got)
	}

	opts := config.Default()
	opts.UpdateNumbersWithDeltas = true
	stateVars := set.New[string](1)
	stateVars.Insert("xs")
	sk := sketch.New(oracle.NewBoundedOracle(4, 5000), opts, stateVars, reg)
	n := &ast.Var{Name: "n", T: ast.IntType{}}
	stmt, subgoals := sk.SketchUpdate(n, e, newE, op, nil)
	fmt.Printf("  sketch_update(n, %s, %s) = %s\n", e, newE, stmt)
	for _, q := range subgoals {
		fmt.Printf("    sub-query %s: %s\n", q.Name, q.Ret)
	}
	return nil
}

// runHeapDeleteMin exercises delete-min end to end: mutate a derived
// min-heap through a remove_all, sketch its incremental maintenance via the
// registered heap.Handler, and lower the result into the array-backed
// sift-down statement tree that restores the heap invariant — the same
// Mutate/SketchUpdate/MutateInPlace/ImplementStmt pipeline runBagCounter
// exercises for the bag case, asserted against the reference evaluator
// rather than only printed.
func runHeapDeleteMin() error {
	color.Cyan("== heap delete-min ==")

	elemT := ast.IntType{}
	keyArg := &ast.Var{Name: "_x", T: elemT}
	keyF := &ast.Lambda{Arg: keyArg, Body: keyArg}
	heapT := ast.MinHeapType{Elem: elemT, Key: elemT}

	initial := []int64{1, 3, 2, 7, 5, 4}
	bagT := ast.BagType{Elem: elemT}
	var initialBag ast.Expr = &ast.EmptyBag{T: bagT}
	for _, v := range initial {
		initialBag = &ast.Bin{Op: ast.OpAdd, A: initialBag, B: &ast.Singleton{Elem: &ast.Literal{Value: v, T: elemT}, T: bagT}, T: bagT}
	}
	initialHeap := &ast.MakeMinHeap{Bag: initialBag, KeyF: keyF, T: heapT}

	reg := extension.NewRegistry()
	mu := mutate.New(reg, config.Default())
	h := heap.New(mu, map[string]ast.Expr{"heap": initialHeap})
	reg.Register(h)

	env := eval.NewEnv()
	env.Vars["heap"] = eval.Eval(initialHeap, env)

	oldHeap := &ast.Var{Name: "heap", T: heapT}
	toDel := &ast.Singleton{Elem: &ast.Literal{Value: int64(1), T: elemT}, T: bagT}
	removeStmt := &ast.CallStmt{
		Target: oldHeap,
		Func:   ast.FuncRemoveAll,
		Args:   []ast.Expr{&ast.Literal{Value: int64(len(initial)), T: ast.IntType{}}, toDel},
	}

	newHeap := mu.Mutate(oldHeap, removeStmt)
	fmt.Printf("  mutate(heap, %s) = %s\n", removeStmt, newHeap)

	remaining := &ast.HeapPeek{Heap: newHeap, N: &ast.Literal{Value: int64(len(initial) - 1), T: ast.IntType{}}, T: elemT}
	got := eval.Eval(remaining, env)
	fmt.Printf("  min of %v after removing {1} = %v\n", initial, got)
	if got.(int64) != 2 {
		return fmt.Errorf("mutation soundness violated: expected 2, got %v", got)
	}

	opts := config.Default()
	stateVars := set.New[string](1)
	stateVars.Insert("heap")
	sk := sketch.New(oracle.NewBoundedOracle(4, 5000), opts, stateVars, reg)
	stmt, subgoals := sk.SketchUpdate(oldHeap, oldHeap, newHeap, removeStmt, nil)
	fmt.Printf("  sketch_update(heap, heap, %s) = %s\n", newHeap, stmt)
	for _, q := range subgoals {
		fmt.Printf("    sub-query %s: %s\n", q.Name, q.Ret)
	}

	concretize := map[string]ast.Expr{"heap": initialHeap}
	implemented := h.ImplementStmt(stmt, concretize)
	fmt.Printf("  initial array: %v\n", initial)
	fmt.Printf("  lowers to:\n    %s\n", implemented)
	return nil
}

// runPlanSearch searches for an indexed access plan, enumerating plans for
// `Filter(xs, λx. x.f == k)` until the search certifies a HashLookup plan
// equivalent to the naive scan, printing each counterexample and valid plan
// as it is produced.
func runPlanSearch() error {
	color.Cyan("== plan enumeration ==")

	elemType := ast.RecordType{Fields: []ast.RecordField{{Name: "f", Type: ast.IntType{}}}}
	ev := &ast.Var{Name: "e", T: elemType}
	k := &ast.Var{Name: "k", T: ast.IntType{}}
	target := enumerate.Target{
		ElemVar:  ev,
		ElemType: elemType,
		Vars:     []ast.Arg{{Name: "k", Type: ast.IntType{}}},
		Formula: &ast.Bin{
			Op: ast.OpEq,
			A:  &ast.GetField{Of: ev, Field: "f", T: ast.IntType{}},
			B:  k,
			T:  ast.BoolType{},
		},
	}

	o := oracle.NewBoundedOracle(3, 20000)
	opts := config.Default()
	opts.MaxRoundsWithoutProgress = 2
	opts.MinSizeBeforeStopping = 2

	en := enumerate.New(o, opts, target, nil)

	round := 0
	foundHashLookup := false
	en.Enumerate(func(r enumerate.Result) bool {
		round++
		switch r.Kind {
		case enumerate.ResultCounterExample:
			fmt.Printf("  [round %d] counterexample: %+v\n", round, r.CounterExample)
		case enumerate.ResultValidPlan:
			fmt.Printf("  [round %d] valid plan (cost %.4f): %s\n", round, r.Cost, r.Plan)
			if _, ok := r.Plan.(*enumerate.HashLookup); ok {
				foundHashLookup = true
			}
		case enumerate.ResultStop:
			fmt.Printf("  [round %d] stop\n", round)
		}
		return true
	})
	if !foundHashLookup {
		return fmt.Errorf("plan search never certified a HashLookup plan")
	}
	return nil
}
