package enumerate

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/go-set/v3"

	"synthctl/internal/ast"
	"synthctl/internal/config"
	"synthctl/internal/eval"
	"synthctl/internal/oracle"
)

// vecMemoSize bounds the structural-hash memo vectorOf keeps across a
// single example set; it is pure memoization (vectorOf recomputes cheaply
// on a miss), never the correctness-critical cache/ecache below, so an LRU
// eviction policy is safe here.
const vecMemoSize = 4096

// ResultKind labels one element of the lazy (kind, payload) sequence the
// enumerator produces.
type ResultKind int

const (
	ResultCounterExample ResultKind = iota
	ResultValidPlan
	ResultStop
)

func (k ResultKind) String() string {
	switch k {
	case ResultCounterExample:
		return "counterexample"
	case ResultValidPlan:
		return "validPlan"
	case ResultStop:
		return "stop"
	default:
		return "?result?"
	}
}

// Result is one value the enumerator hands back to its caller.
type Result struct {
	Kind           ResultKind
	Plan           Plan          // set when Kind == ResultValidPlan
	Cost           float64       // set when Kind == ResultValidPlan
	CounterExample *oracle.Model // set when Kind == ResultCounterExample
}

// Enumerator holds every piece of state a single synthesis pass threads
// through repeated rounds: the accumulated examples, the equivalence-class
// caches keyed by output vector, and the running best cost.
type Enumerator struct {
	Oracle oracle.Oracle
	Opts   config.Options
	Cost   CostModel

	target Target

	examples          []Example
	seenCounterExamps *set.Set[string]

	// cache/ecache are the equivalence-class caches: output vector to best
	// plan(s), and output vector to one representative predicate.
	// cacheOrder/ecacheOrder record insertion order explicitly since
	// plansOfSize/predsOfSize must iterate deterministically and Go map
	// iteration order is not stable.
	cache      map[OutputVector][]Plan
	cacheCost  map[OutputVector]float64
	cacheOrder []OutputVector

	ecache      map[OutputVector]Predicate
	ecacheOrder []OutputVector

	vecCache *lru.Cache[string, OutputVector]

	bestCost  float64
	bestPlans []Plan

	roundsWithoutProgress int
}

// New builds an Enumerator for target. cost defaults to DefaultCostModel
// when nil.
func New(o oracle.Oracle, opts config.Options, target Target, cost CostModel) *Enumerator {
	if cost == nil {
		cost = DefaultCostModel
	}
	en := &Enumerator{
		Oracle:            o,
		Opts:              opts,
		Cost:              cost,
		target:            target,
		seenCounterExamps: set.New[string](8),
	}
	en.resetCaches()
	return en
}

// resetCaches clears every output-vector-keyed structure without touching
// examples or bestCost/bestPlans. Candidates are regenerated by replaying the size-1
// seed and then the same size-by-size combination sweep against the grown
// example set — the shapes a given size can produce don't depend on
// examples, only which survive pruning does, so there is nothing else to
// preserve across a restart.
func (en *Enumerator) resetCaches() {
	en.cache = map[OutputVector][]Plan{}
	en.cacheCost = map[OutputVector]float64{}
	en.cacheOrder = nil
	en.ecache = map[OutputVector]Predicate{}
	en.ecacheOrder = nil
	en.vecCache, _ = lru.New[string, OutputVector](vecMemoSize)
}

// flattenFields rewrites every GetField(elemVar, f) leaf into a bare
// scalar Var named elemVar.Name+"."+f. The oracle only reasons over named
// scalar variables (internal/oracle.BoundedOracle rejects record-valued
// leaves outright), so a predicate's field projections have to be
// flattened into the oracle's variable namespace before any validity or
// counterexample query can be issued against it.
func flattenFields(e ast.Expr, elemVar *ast.Var) ast.Expr {
	switch n := e.(type) {
	case *ast.GetField:
		if v, ok := n.Of.(*ast.Var); ok && v.Name == elemVar.Name {
			return &ast.Var{Name: elemVar.Name + "." + n.Field, T: n.T}
		}
		panic("enumerate.flattenFields: GetField on an expression other than the element variable")
	case *ast.Var, *ast.Literal:
		return n
	case *ast.Bin:
		return &ast.Bin{Op: n.Op, A: flattenFields(n.A, elemVar), B: flattenFields(n.B, elemVar), T: n.T}
	case *ast.Unary:
		return &ast.Unary{Op: n.Op, A: flattenFields(n.A, elemVar), T: n.T}
	case *ast.If:
		return &ast.If{Cond: flattenFields(n.Cond, elemVar), Then: flattenFields(n.Then, elemVar), Else: flattenFields(n.Else, elemVar), T: n.T}
	default:
		panic(fmt.Sprintf("enumerate.flattenFields: unsupported formula shape %T", e))
	}
}

// evalPredicate evaluates pred at one example using the reference
// interpreter, with the element variable bound directly to the example's
// element (no flattening needed here — eval.Eval handles GetField on a
// *eval.Record natively).
func (en *Enumerator) evalPredicate(pred Predicate, ex Example) bool {
	env := eval.NewEnv()
	for k, v := range ex.Vars {
		env.Vars[k] = v
	}
	env.Vars[en.target.ElemVar.Name] = ex.Elem
	return eval.Eval(pred.Expr(en.target.ElemVar), env).(bool)
}

// vectorOf computes (and memoizes for the lifetime of the current example
// set) pred's output vector: one bit per accumulated example, in example
// order, so two predicates agreeing on every accumulated counterexample
// compare equal as strings.
func (en *Enumerator) vectorOf(pred Predicate) OutputVector {
	key := pred.String()
	if v, ok := en.vecCache.Get(key); ok {
		return v
	}
	buf := make([]byte, len(en.examples))
	for i, ex := range en.examples {
		if en.evalPredicate(pred, ex) {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	v := OutputVector(buf)
	en.vecCache.Add(key, v)
	return v
}

func (en *Enumerator) targetVector() OutputVector {
	return en.vectorOf(&PredRaw{E: en.target.Formula})
}

// stupid discards a plan before it ever reaches the cost/equivalence
// machinery if its
// shape or its output vector makes it a provably pointless wrapper around
// one of its own children.
func (en *Enumerator) stupid(p Plan) bool {
	switch n := p.(type) {
	case *AllWhere:
		return false
	case *Filter:
		if _, nested := n.Plan.(*Filter); nested {
			return true
		}
		if en.vectorOf(p.ToPredicate()) == en.vectorOf(n.Plan.ToPredicate()) {
			return true
		}
		return en.stupid(n.Plan)
	case *HashLookup:
		if en.vectorOf(p.ToPredicate()) == en.vectorOf(n.Plan.ToPredicate()) {
			return true
		}
		return en.stupid(n.Plan)
	case *BinarySearch:
		if en.vectorOf(p.ToPredicate()) == en.vectorOf(n.Plan.ToPredicate()) {
			return true
		}
		return en.stupid(n.Plan)
	case *Intersect:
		return en.stupidBinary(p, n.A, n.B)
	case *Union:
		return en.stupidBinary(p, n.A, n.B)
	case *Concat:
		return en.stupidBinary(p, n.A, n.B)
	default:
		panic(fmt.Sprintf("enumerate.stupid: unsupported plan %T", p))
	}
}

// stupidBinary covers Intersect/Union/Concat: either child matching the
// combined vector makes the combinator redundant, and only one
// orientation of a commutative pair under the canonical LessPlan order is
// kept.
func (en *Enumerator) stupidBinary(p Plan, a, b Plan) bool {
	v := en.vectorOf(p.ToPredicate())
	if en.vectorOf(a.ToPredicate()) == v || en.vectorOf(b.ToPredicate()) == v {
		return true
	}
	if !LessPlan(a, b) {
		return true
	}
	return en.stupid(a) || en.stupid(b)
}

// insertPlan applies the equivalence-class replacement rule: a fresh
// vector is always inserted; a cheaper plan replaces and evicts every plan
// currently filed under v; an equal-cost plan is retained alongside the
// existing ones, preserving ties for downstream consumers that must
// tolerate multiple best plans. Returns whether this counts as a
// productive insertion (new vector or a strictly better plan — a tie does
// not reset the no-progress counter).
func (en *Enumerator) insertPlan(p Plan, v OutputVector, cost float64) bool {
	cur, ok := en.cacheCost[v]
	switch {
	case !ok:
		en.cache[v] = []Plan{p}
		en.cacheCost[v] = cost
		en.cacheOrder = append(en.cacheOrder, v)
		return true
	case cost < cur:
		en.cache[v] = []Plan{p}
		en.cacheCost[v] = cost
		return true
	case cost == cur:
		en.cache[v] = append(en.cache[v], p)
		return false
	default:
		return false
	}
}

// insertPredicate keeps exactly one representative predicate per output
// vector in ecache, preferring the structurally smaller one.
func (en *Enumerator) insertPredicate(p Predicate, v OutputVector) bool {
	cur, ok := en.ecache[v]
	if !ok {
		en.ecache[v] = p
		en.ecacheOrder = append(en.ecacheOrder, v)
		return true
	}
	if p.Size() < cur.Size() {
		en.ecache[v] = p
		return true
	}
	return false
}

// evictAboveBestCost drops every cached plan whose cost can no longer beat
// bestCost, freeing memory the cost cap would reject anyway if it were
// regenerated.
func (en *Enumerator) evictAboveBestCost() {
	for v, c := range en.cacheCost {
		if c > en.bestCost {
			delete(en.cache, v)
			delete(en.cacheCost, v)
		}
	}
}

// plansOfSize and predsOfSize read back the surviving equivalence-class
// representatives of a given constructor-node size, in insertion order, for
// the next round's combination step.
func (en *Enumerator) plansOfSize(s int) []Plan {
	var out []Plan
	for _, v := range en.cacheOrder {
		for _, p := range en.cache[v] {
			if p.Size() == s {
				out = append(out, p)
			}
		}
	}
	return out
}

func (en *Enumerator) predsOfSize(s int) []Predicate {
	var out []Predicate
	for _, v := range en.ecacheOrder {
		if p, ok := en.ecache[v]; ok && p.Size() == s {
			out = append(out, p)
		}
	}
	return out
}

type outcome int

const (
	outcomeNone outcome = iota
	outcomeProductive
	outcomeRestart
)

// considerPredicate files a candidate predicate into ecache if it witnesses
// a new or smaller-representative output vector. Predicates are never
// themselves validity-tested against the target — only plans are — so
// there is no oracle call on this path.
func (en *Enumerator) considerPredicate(p Predicate) outcome {
	v := en.vectorOf(p)
	if en.insertPredicate(p, v) {
		return outcomeProductive
	}
	return outcomeNone
}

// considerPlan runs one candidate through the full pruning pipeline: the
// stupid() shape checks, the cost cap, the output-vector match against the
// target, and — when it matches — the oracle validity test.
func (en *Enumerator) considerPlan(p Plan, onResult func(Result) bool) (outcome, bool) {
	if en.stupid(p) {
		return outcomeNone, true
	}
	cost := en.Cost(p)
	if cost > en.bestCost {
		return outcomeNone, true
	}
	v := en.vectorOf(p.ToPredicate())
	if v != en.targetVector() {
		if en.insertPlan(p, v, cost) {
			return outcomeProductive, true
		}
		return outcomeNone, true
	}

	planExpr := flattenFields(p.ToPredicate().Expr(en.target.ElemVar), en.target.ElemVar)
	targetExpr := flattenFields(en.target.Formula, en.target.ElemVar)
	ne := &ast.Unary{
		Op: ast.OpNot,
		A:  &ast.Bin{Op: ast.OpEq, A: planExpr, B: targetExpr, T: ast.BoolType{}},
		T:  ast.BoolType{},
	}
	model, unsat := en.Oracle.CounterExample(ne)
	if unsat {
		return outcomeProductive, en.registerValid(p, cost, onResult)
	}
	if model == nil {
		// Unknown: validity conservatively maps to false. The candidate
		// stays in the equivalence-class cache like any other non-winner.
		if en.insertPlan(p, v, cost) {
			return outcomeProductive, true
		}
		return outcomeNone, true
	}

	key := modelKey(model)
	if en.seenCounterExamps.Contains(key) {
		panic("enumerate: oracle returned a previously seen counterexample")
	}
	en.seenCounterExamps.Insert(key)
	en.examples = append(en.examples, exampleFromModel(model, en.target))
	en.resetCaches()
	return outcomeRestart, onResult(Result{Kind: ResultCounterExample, CounterExample: model})
}

// registerValid updates bestCost/bestPlans for a newly validated plan and
// reports it to the caller.
func (en *Enumerator) registerValid(p Plan, cost float64, onResult func(Result) bool) bool {
	switch {
	case cost < en.bestCost:
		en.bestCost = cost
		en.bestPlans = []Plan{p}
		en.evictAboveBestCost()
	case cost == en.bestCost:
		en.bestPlans = append(en.bestPlans, p)
	}
	return onResult(Result{Kind: ResultValidPlan, Plan: p, Cost: cost})
}

// emitDumbestPlan yields Filter(AllWhere(True), target) unconditionally —
// it is definitionally equal to the target formula, so it needs no oracle
// call to certify, and it sets the initial bestCost every later candidate
// is capped against.
func (en *Enumerator) emitDumbestPlan(onResult func(Result) bool) bool {
	dumbest := &Filter{Plan: &AllWhere{Pred: PredTrue{}}, Pred: &PredRaw{E: en.target.Formula}}
	cost := en.Cost(dumbest)
	en.bestCost = cost
	en.bestPlans = []Plan{dumbest}
	return onResult(Result{Kind: ResultValidPlan, Plan: dumbest, Cost: cost})
}

// Enumerate drives the whole counterexample-guided search, calling
// onResult once per (kind, payload) pair in the lazy result sequence.
// onResult's return value lets the driver stop consuming at any point;
// when it returns false, Enumerate returns immediately with no background
// work left outstanding.
func (en *Enumerator) Enumerate(onResult func(Result) bool) {
	if !en.emitDumbestPlan(onResult) {
		return
	}
	for {
		restart, keepGoing := en.runPass(onResult)
		if !keepGoing || !restart {
			return
		}
	}
}

// runPass performs one full bottom-up sweep: seed size 1, then grow size by
// size combining existing plans/predicates, until either a counterexample
// forces a restart or the no-progress termination condition fires.
func (en *Enumerator) runPass(onResult func(Result) bool) (restart bool, keepGoing bool) {
	seeds := seedPredicates(en.target)
	for _, pred := range seeds {
		en.considerPredicate(pred)
	}
	for _, plan := range seedPlans(seeds) {
		o, kg := en.considerPlan(plan, onResult)
		if !kg {
			return false, false
		}
		if o == outcomeRestart {
			return true, true
		}
	}

	en.roundsWithoutProgress = 0
	for size := 2; ; size++ {
		roundProductive := false

		for s1 := 1; s1 <= size-2; s1++ {
			s2 := size - 1 - s1
			if s2 < 1 {
				continue
			}
			for _, p1 := range en.predsOfSize(s1) {
				for _, p2 := range en.predsOfSize(s2) {
					for _, cand := range []Predicate{&PredAnd{A: p1, B: p2}, &PredOr{A: p1, B: p2}} {
						if en.considerPredicate(cand) == outcomeProductive {
							roundProductive = true
						}
					}
				}
			}
		}

		for s1 := 1; s1 <= size-2; s1++ {
			s2 := size - 1 - s1
			if s2 < 1 {
				continue
			}
			for _, pl := range en.plansOfSize(s1) {
				for _, pr := range en.predsOfSize(s2) {
					for _, cand := range []Plan{
						&HashLookup{Plan: pl, Expr: pr},
						&BinarySearch{Plan: pl, Expr: pr},
						&Filter{Plan: pl, Pred: pr},
					} {
						o, kg := en.considerPlan(cand, onResult)
						if !kg {
							return false, false
						}
						if o == outcomeRestart {
							return true, true
						}
						if o == outcomeProductive {
							roundProductive = true
						}
					}
				}
				for _, pl2 := range en.plansOfSize(s2) {
					for _, cand := range []Plan{
						&Intersect{A: pl, B: pl2},
						&Union{A: pl, B: pl2},
						&Concat{A: pl, B: pl2},
					} {
						o, kg := en.considerPlan(cand, onResult)
						if !kg {
							return false, false
						}
						if o == outcomeRestart {
							return true, true
						}
						if o == outcomeProductive {
							roundProductive = true
						}
					}
				}
			}
		}

		if roundProductive {
			en.roundsWithoutProgress = 0
		} else if size > en.Opts.MinSizeBeforeStopping {
			en.roundsWithoutProgress++
		}
		if en.roundsWithoutProgress >= en.Opts.MaxRoundsWithoutProgress && size > en.Opts.MinSizeBeforeStopping {
			return false, onResult(Result{Kind: ResultStop})
		}
	}
}

// modelKey renders an oracle model into a canonical string, sorted by
// variable name, so repeated counterexamples can be detected regardless of
// map iteration order.
func modelKey(m *oracle.Model) string {
	intNames := make([]string, 0, len(m.Ints))
	for k := range m.Ints {
		intNames = append(intNames, k)
	}
	sort.Strings(intNames)
	boolNames := make([]string, 0, len(m.Bools))
	for k := range m.Bools {
		boolNames = append(boolNames, k)
	}
	sort.Strings(boolNames)

	var b strings.Builder
	for _, k := range intNames {
		fmt.Fprintf(&b, "%s=%d;", k, m.Ints[k])
	}
	for _, k := range boolNames {
		fmt.Fprintf(&b, "%s=%v;", k, m.Bools[k])
	}
	return b.String()
}

// exampleFromModel reconstructs the single element and variable bindings an
// oracle counterexample witnesses, undoing flattenFields: every
// ElemVar-field scalar becomes a record field, every other scalar a
// variable binding.
func exampleFromModel(m *oracle.Model, target Target) Example {
	fields := map[string]eval.Value{}
	for _, f := range target.ElemType.Fields {
		fields[f.Name] = valueFromModel(m, target.ElemVar.Name+"."+f.Name, f.Type)
	}
	vars := map[string]eval.Value{}
	for _, v := range target.Vars {
		vars[v.Name] = valueFromModel(m, v.Name, v.Type)
	}
	return Example{Elem: &eval.Record{Fields: fields}, Vars: vars, Sorted: m.Bools["_sorted"]}
}

func valueFromModel(m *oracle.Model, name string, t ast.Type) eval.Value {
	switch t.(type) {
	case ast.IntType:
		return m.Ints[name]
	case ast.BoolType:
		return m.Bools[name]
	default:
		panic(fmt.Sprintf("enumerate.valueFromModel: unsupported scalar type %s for %q", t, name))
	}
}
