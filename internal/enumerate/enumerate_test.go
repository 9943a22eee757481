package enumerate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"synthctl/internal/ast"
	"synthctl/internal/config"
	"synthctl/internal/eval"
	"synthctl/internal/oracle"
)

func intField(name string) ast.RecordField { return ast.RecordField{Name: name, Type: ast.IntType{}} }

func elemVar(t ast.Type) *ast.Var { return &ast.Var{Name: "e", T: t} }

func getField(v *ast.Var, f string) *ast.GetField {
	return &ast.GetField{Of: v, Field: f, T: ast.IntType{}}
}

// runToStop runs the enumerator to completion and collects every result up
// to and including ResultStop. A single Enumerate call suffices: Enumerate
// itself restarts its passes whenever a new counterexample is added.
func runToStop(t *testing.T, en *Enumerator) []Result {
	t.Helper()
	var results []Result
	en.Enumerate(func(r Result) bool {
		results = append(results, r)
		return r.Kind != ResultStop
	})
	return results
}

func TestEnumerateFindsHashLookupForEquality(t *testing.T) {
	elemType := ast.RecordType{Fields: []ast.RecordField{intField("id"), intField("val")}}
	ev := elemVar(elemType)
	target := Target{
		ElemVar:  ev,
		ElemType: elemType,
		Vars:     []ast.Arg{{Name: "k", Type: ast.IntType{}}},
		Formula: &ast.Bin{
			Op: ast.OpEq,
			A:  getField(ev, "id"),
			B:  &ast.Var{Name: "k", T: ast.IntType{}},
			T:  ast.BoolType{},
		},
	}

	o := oracle.NewBoundedOracle(3, 20000)
	opts := config.Default()
	opts.MaxRoundsWithoutProgress = 2
	opts.MinSizeBeforeStopping = 2

	en := New(o, opts, target, nil)
	results := runToStop(t, en)

	require.NotEmpty(t, results)
	require.Equal(t, ResultValidPlan, results[0].Kind)

	foundHashLookup := false
	for _, r := range results {
		if r.Kind != ResultValidPlan {
			continue
		}
		if _, ok := r.Plan.(*HashLookup); ok {
			foundHashLookup = true
		}
	}
	require.True(t, foundHashLookup, "expected a HashLookup plan among the validated results")
}

func TestEnumerateValidPlanCostsNeverIncreaseAndRunTerminates(t *testing.T) {
	elemType := ast.RecordType{Fields: []ast.RecordField{intField("id")}}
	ev := elemVar(elemType)
	target := Target{
		ElemVar:  ev,
		ElemType: elemType,
		Vars:     []ast.Arg{{Name: "lo", Type: ast.IntType{}}},
		Formula: &ast.Bin{
			Op: ast.OpLt,
			A:  &ast.Var{Name: "lo", T: ast.IntType{}},
			B:  getField(ev, "id"),
			T:  ast.BoolType{},
		},
	}

	o := oracle.NewBoundedOracle(2, 20000)
	opts := config.Default()
	opts.MaxRoundsWithoutProgress = 2
	opts.MinSizeBeforeStopping = 2

	en := New(o, opts, target, nil)
	results := runToStop(t, en)

	require.NotEmpty(t, results)
	require.Equal(t, ResultStop, results[len(results)-1].Kind)

	best := results[0].Cost
	for _, r := range results {
		if r.Kind != ResultValidPlan {
			continue
		}
		require.LessOrEqual(t, r.Cost, best, "a later ResultValidPlan must never cost more than an earlier one")
		best = r.Cost
	}
}

// testEnumerator builds an Enumerator with a handful of examples already
// accumulated, so vectorOf actually distinguishes predicates instead of
// every candidate trivially sharing the empty vector.
func testEnumerator(t *testing.T) *Enumerator {
	t.Helper()
	ev := elemVar(ast.RecordType{})
	en := New(oracle.NewBoundedOracle(2, 1000), config.Default(), Target{ElemVar: ev, ElemType: ast.RecordType{}}, nil)
	en.examples = []Example{
		{Vars: map[string]eval.Value{"x": int64(1), "y": int64(1), "z": int64(2)}},
		{Vars: map[string]eval.Value{"x": int64(1), "y": int64(2), "z": int64(1)}},
		{Vars: map[string]eval.Value{"x": int64(2), "y": int64(1), "z": int64(1)}},
	}
	return en
}

func TestStupidRejectsNestedFilter(t *testing.T) {
	en := testEnumerator(t)
	inner := &Filter{Plan: &AllWhere{Pred: PredTrue{}}, Pred: &PredCompare{Left: VarTerm("x", ast.IntType{}), Right: VarTerm("y", ast.IntType{}), Op: OpEq}}
	outer := &Filter{Plan: inner, Pred: &PredCompare{Left: VarTerm("x", ast.IntType{}), Right: VarTerm("z", ast.IntType{}), Op: OpEq}}
	require.True(t, en.stupid(outer))
}

func TestStupidKeepsCanonicalOrderingOfCommutativePair(t *testing.T) {
	en := testEnumerator(t)
	a := &AllWhere{Pred: &PredCompare{Left: VarTerm("x", ast.IntType{}), Right: VarTerm("y", ast.IntType{}), Op: OpEq}}
	b := &AllWhere{Pred: &PredCompare{Left: VarTerm("x", ast.IntType{}), Right: VarTerm("z", ast.IntType{}), Op: OpEq}}

	var lo, hi Plan = a, b
	if !LessPlan(lo, hi) {
		lo, hi = b, a
	}
	require.False(t, en.stupid(&Intersect{A: lo, B: hi}))
	require.True(t, en.stupid(&Intersect{A: hi, B: lo}))
}

func TestDefaultCostModelOrdersAccessPatterns(t *testing.T) {
	base := &AllWhere{Pred: PredTrue{}}
	scan := DefaultCostModel(base)
	filtered := DefaultCostModel(&Filter{Plan: base, Pred: PredTrue{}})
	hashed := DefaultCostModel(&HashLookup{Plan: base, Expr: PredTrue{}})
	binSearch := DefaultCostModel(&BinarySearch{Plan: base, Expr: PredTrue{}})

	require.Less(t, hashed, binSearch)
	require.Less(t, binSearch, scan)
	require.Less(t, scan, filtered)
}

// TestNewExampleSeparatesFalsePlanFromTarget checks the counterexample
// mechanism at its smallest: with zero accumulated examples every candidate
// shares the empty output vector, so AllWhere(False) matches any target;
// one example on which the target holds is enough to separate them.
func TestNewExampleSeparatesFalsePlanFromTarget(t *testing.T) {
	ev := elemVar(ast.RecordType{})
	target := Target{
		ElemVar:  ev,
		ElemType: ast.RecordType{},
		Formula:  &ast.Literal{Value: true, T: ast.BoolType{}},
	}
	en := New(oracle.NewBoundedOracle(2, 1000), config.Default(), target, nil)
	falsePlan := &AllWhere{Pred: PredFalse{}}

	require.Equal(t, en.targetVector(), en.vectorOf(falsePlan.ToPredicate()))

	en.examples = append(en.examples, Example{Vars: map[string]eval.Value{}})
	en.resetCaches()
	require.NotEqual(t, en.targetVector(), en.vectorOf(falsePlan.ToPredicate()))
}

func TestTermComponentsGroupsTransitively(t *testing.T) {
	a := FieldTerm("id", ast.IntType{})
	b := VarTerm("k", ast.IntType{})
	c := VarTerm("j", ast.IntType{})
	groups := termComponents([][2]Term{{a, b}, {b, c}})
	require.Len(t, groups, 1)
	require.Len(t, groups[0], 3)
}
