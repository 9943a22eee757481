// Package sketch produces imperative update code and sub-queries for a
// derived state expression, recursive by type: given a state expression's
// old and new symbolic values, it emits the statement that brings the
// stored value up to date, factoring anything state-dependent out into a
// freshly named sub-query for the enumerator to solve.
package sketch

import (
	"sort"

	"github.com/hashicorp/go-set/v3"
	"synthctl/internal/ast"
	"synthctl/internal/config"
	"synthctl/internal/effects"
	"synthctl/internal/extension"
	"synthctl/internal/mutate"
	"synthctl/internal/oracle"
	"synthctl/internal/rewrite"
)

// Sketcher threads config.Options and an Oracle through every sketch
// operation instead of reading package-level option flags. Registry
// resolves the extension handler (heap) that owns lval's type, when one is
// registered.
type Sketcher struct {
	Oracle    oracle.Oracle
	Options   config.Options
	StateVars *set.Set[string]
	Registry  *extension.Registry
}

func New(o oracle.Oracle, opts config.Options, stateVars *set.Set[string], reg *extension.Registry) *Sketcher {
	return &Sketcher{Oracle: o, Options: opts, StateVars: stateVars, Registry: reg}
}

// SketchUpdate produces the statement that updates lval from old to new,
// plus the sub-queries it factored out, dispatching on lval's type. op is
// the triggering statement old was mutated by, used only to route a
// heap-typed lval to its extension handler's MutateInPlace; callers
// sketching a value with no single triggering statement (e.g. a
// recursed-into tuple/record field) pass nil.
func (sk *Sketcher) SketchUpdate(lval, old, newVal ast.Expr, op ast.Stmt, assumptions []ast.Expr) (ast.Stmt, []*ast.Query) {
	var subgoals []*ast.Query
	makeSubgoal := func(expr ast.Expr, extra []ast.Expr, doc string) ast.Expr {
		return sk.makeSubgoal(&subgoals, assumptions, expr, extra, doc)
	}

	var equivalent bool
	oracle.Scope(sk.Oracle, assumptions, func() {
		equivalent = sk.Oracle.Valid(&ast.Bin{Op: ast.OpEq, A: old, B: newVal, T: ast.BoolType{}})
	})
	if equivalent {
		return ast.NoOp{}, nil
	}

	stmt := sk.dispatch(lval, old, newVal, op, assumptions, makeSubgoal, &subgoals)
	return stmt, subgoals
}

func (sk *Sketcher) dispatch(lval, old, newVal ast.Expr, op ast.Stmt, assumptions []ast.Expr, makeSubgoal func(ast.Expr, []ast.Expr, string) ast.Expr, subgoals *[]*ast.Query) ast.Stmt {
	t := lval.Type()
	switch tt := t.(type) {
	case ast.MinHeapType, ast.MaxHeapType:
		if sk.Registry != nil && op != nil {
			if h := sk.Registry.Lookup(t); h != nil {
				return h.MutateInPlace(lval, old, op, assumptions, makeSubgoal)
			}
		}
		return &ast.Assign{Lval: lval, Rhs: makeSubgoal(newVal, nil, "new value for "+lval.String())}
	case ast.BagType, ast.SetType:
		return sk.sketchBag(lval, old, newVal, t, makeSubgoal)
	case ast.IntType:
		if sk.Options.UpdateNumbersWithDeltas {
			delta := makeSubgoal(&ast.Bin{Op: ast.OpSub, A: newVal, B: old, T: t}, nil, "delta for "+lval.String())
			return &ast.Assign{Lval: lval, Rhs: &ast.Bin{Op: ast.OpAdd, A: lval, B: delta, T: t}}
		}
		return &ast.Assign{Lval: lval, Rhs: makeSubgoal(newVal, nil, "new value for "+lval.String())}
	case ast.TupleType:
		var stmts []ast.Stmt
		for i, et := range tt.Elems {
			get := func(v ast.Expr) ast.Expr { return &ast.TupleGet{Of: v, Index: i, T: et} }
			s, sgs := sk.recurse(get(lval), get(old), get(newVal), assumptions)
			*subgoals = append(*subgoals, sgs...)
			stmts = append(stmts, s)
		}
		return ast.SeqAll(stmts...)
	case ast.RecordType:
		var stmts []ast.Stmt
		for _, f := range tt.Fields {
			get := func(v ast.Expr) ast.Expr { return &ast.GetField{Of: v, Field: f.Name, T: f.Type} }
			s, sgs := sk.recurse(get(lval), get(old), get(newVal), assumptions)
			*subgoals = append(*subgoals, sgs...)
			stmts = append(stmts, s)
		}
		return ast.SeqAll(stmts...)
	case ast.MapType:
		return sk.sketchMap(lval, old, newVal, tt, assumptions, makeSubgoal, subgoals)
	default:
		return &ast.Assign{Lval: lval, Rhs: makeSubgoal(newVal, nil, "new value for "+lval.String())}
	}
}

// recurse sketches a nested field/element with no single triggering
// statement of its own — op is nil, so a heap nested inside a tuple/record/
// map falls back to whole-value resynthesis rather than MutateInPlace.
func (sk *Sketcher) recurse(lval, old, newVal ast.Expr, assumptions []ast.Expr) (ast.Stmt, []*ast.Query) {
	return sk.SketchUpdate(lval, old, newVal, nil, assumptions)
}

// sketchBag is the Bag/Set T case: two sub-queries (additions, deletions)
// and two ForEach loops that remove then add.
func (sk *Sketcher) sketchBag(lval, old, newVal ast.Expr, t ast.Type, makeSubgoal func(ast.Expr, []ast.Expr, string) ast.Expr) ast.Stmt {
	toAdd := makeSubgoal(&ast.Bin{Op: ast.OpSub, A: newVal, B: old, T: t}, nil, "additions to "+lval.String())
	toDel := makeSubgoal(&ast.Bin{Op: ast.OpSub, A: old, B: newVal, T: t}, nil, "deletions from "+lval.String())
	elemT := elemType(t)
	v := rewrite.FreshVar(elemT, set.New[string](0))
	return ast.SeqAll(
		&ast.ForEach{Var: v, Bag: toDel, Body: &ast.CallStmt{Target: lval, Func: ast.FuncRemove, Args: []ast.Expr{v}}},
		&ast.ForEach{Var: v, Bag: toAdd, Body: &ast.CallStmt{Target: lval, Func: ast.FuncAdd, Args: []ast.Expr{v}}},
	)
}

func elemType(t ast.Type) ast.Type {
	switch tt := t.(type) {
	case ast.BagType:
		return tt.Elem
	case ast.SetType:
		return tt.Elem
	default:
		panic("sketch.elemType: not a Bag/Set type")
	}
}

// sketchMap is the Map(K, V) case: a deletion loop over keys that left, then
// an enter/modify loop that recurses into each new-or-modified key's value.
func (sk *Sketcher) sketchMap(lval, old, newVal ast.Expr, mt ast.MapType, assumptions []ast.Expr, makeSubgoal func(ast.Expr, []ast.Expr, string) ast.Expr, subgoals *[]*ast.Query) ast.Stmt {
	keyBag := ast.BagType{Elem: mt.Key}
	k := rewrite.FreshVar(mt.Key, set.New[string](0))
	v := rewrite.FreshVar(mt.Val, set.New[string](0))

	oldKeys := &ast.MapKeys{Map: old, T: keyBag}
	newKeys := &ast.MapKeys{Map: newVal, T: keyBag}

	deletedKeys := makeSubgoal(&ast.Bin{Op: ast.OpSub, A: oldKeys, B: newKeys, T: keyBag}, nil, "keys removed from "+lval.String())
	s1 := &ast.ForEach{Var: k, Bag: deletedKeys, Body: &ast.CallStmt{Target: lval, Func: ast.FuncMapDel, Args: []ast.Expr{k}}}

	oldAtK := ValueAt(old, k)
	newAtK := ValueAt(newVal, k)
	notInOld := &ast.Unary{Op: ast.OpNot, A: &ast.In{X: k, Bag: oldKeys, T: ast.BoolType{}}, T: ast.BoolType{}}
	changed := &ast.Unary{Op: ast.OpNot, A: &ast.Bin{Op: ast.OpEq, A: oldAtK, B: newAtK, T: ast.BoolType{}}, T: ast.BoolType{}}
	pred := &ast.Lambda{Arg: k, Body: &ast.Bin{Op: ast.OpOr, A: notInOld, B: changed, T: ast.BoolType{}}}
	newOrModified := &ast.Filter{Bag: newKeys, F: pred, T: keyBag}

	inSet := &ast.In{X: k, Bag: newOrModified, T: ast.BoolType{}}
	vIsOld := &ast.Bin{Op: ast.OpEq, A: v, B: oldAtK, T: ast.BoolType{}}
	updateValue, sgs := sk.recurse(v, oldAtK, newAtK, append(append([]ast.Expr{}, assumptions...), inSet, vIsOld))
	*subgoals = append(*subgoals, sgs...)

	// v is declared bound to the key's old value, the recursed sketch then
	// updates v in place (Assign/ForEach/Seq over v), and map_update stores
	// whatever v ends up holding.
	namedSubgoal := makeSubgoal(newOrModified, nil, "new or modified keys from "+lval.String())
	body := ast.SeqAll(
		&ast.Decl{Name: v.Name, Rhs: oldAtK},
		updateValue,
		&ast.CallStmt{Target: lval, Func: ast.FuncMapUpdate, Args: []ast.Expr{k, v}},
	)
	s2 := &ast.ForEach{Var: k, Bag: namedSubgoal, Body: body}
	return &ast.Seq{S1: s1, S2: s2}
}

// makeSubgoal names expr with a fresh query, promotes its free non-context
// variables to parameters, attaches assumptions — the caller's, plus the
// handle-aliasing premise for every handle type expr can reach — and
// returns a Call node referencing it; unless skip-stateless-synthesis is
// set and expr has no state-variable dependency, in which case expr is
// inlined.
func (sk *Sketcher) makeSubgoal(subgoals *[]*ast.Query, assumptions []ast.Expr, expr ast.Expr, extra []ast.Expr, doc string) ast.Expr {
	if sk.Options.SkipStatelessSynthesis && effects.IsStateless(expr, sk.StateVars) {
		return expr
	}
	name := rewrite.FreshName("query")
	fv := rewrite.FreeVarTypes(expr)
	names := make([]string, 0, len(fv))
	for n := range fv {
		if sk.StateVars.Contains(n) {
			continue
		}
		names = append(names, n)
	}
	// Sorted so two runs over the same expression emit the same parameter
	// list; map iteration order would not.
	sort.Strings(names)
	var args []ast.Arg
	var callArgs []ast.Expr
	for _, n := range names {
		args = append(args, ast.Arg{Name: n, Type: fv[n]})
		callArgs = append(callArgs, &ast.Var{Name: n, T: fv[n]})
	}
	assume := append(append([]ast.Expr{}, assumptions...), extra...)
	assume = append(assume, handleAssumptions(expr)...)
	q := &ast.Query{
		Name:        name,
		Vis:         ast.Internal,
		Args:        args,
		Assumptions: assume,
		Ret:         expr,
		Docstring:   doc,
	}
	*subgoals = append(*subgoals, q)
	return &ast.Call{Name: name, Args: callArgs, T: expr.Type()}
}

// handleAssumptions instantiates, for every handle type reachable from expr
// or one of its free variables, the premise that two equal handles always
// observe the same value, quantified over the bag of handles reachable from
// that root. Every emitted sub-query that mentions handles carries these
// premises, so the oracle can never certify a plan whose correctness
// depends on two aliased handles holding different values.
func handleAssumptions(expr ast.Expr) []ast.Expr {
	roots := []ast.Expr{expr}
	fv := rewrite.FreeVarTypes(expr)
	names := make([]string, 0, len(fv))
	for n := range fv {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if fv[n] == nil {
			continue
		}
		roots = append(roots, &ast.Var{Name: n, T: fv[n]})
	}

	var out []ast.Expr
	seen := map[string]bool{}
	for _, root := range roots {
		bags := mutate.ReachableHandlesByType(root)
		keys := make([]string, 0, len(bags))
		for k := range bags {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			bag := bags[k]
			ht := bag.Type().(ast.BagType).Elem.(ast.HandleType)
			a := mutate.ImplicitHandleAssumption(bag, ht)
			if key := a.String(); !seen[key] {
				seen[key] = true
				out = append(out, a)
			}
		}
	}
	return out
}
