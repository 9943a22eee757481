// Package enumerate implements the counterexample-guided bottom-up plan
// enumerator: given a target predicate over a base bag's
// elements and a set of free variables, search for a cheaper, semantically
// equivalent way to compute the same subset, guarded at every step by an
// oracle validity check and by output-vector fingerprinting against a
// growing set of counterexamples.
package enumerate

import (
	"fmt"

	"synthctl/internal/ast"
)

// CompareOp is the comparison an atomic predicate applies between two terms.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpLt
	OpLe
)

func (op CompareOp) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	default:
		return "?cmp?"
	}
}

func (op CompareOp) astOp() ast.BinOp {
	switch op {
	case OpEq:
		return ast.OpEq
	case OpLt:
		return ast.OpLt
	case OpLe:
		return ast.OpLe
	default:
		panic("enumerate.CompareOp.astOp: unrecognized op")
	}
}

// Term is one side of a Compare predicate: either a projection of the
// element variable's field, or a reference to a free (query-parameter)
// variable. Both the comparison-graph seeding and the
// element-variable substitution when building an ast.Expr go through this.
type Term struct {
	Field bool // true: ElemVar.Name; false: a free variable reference
	Name  string
	Type  ast.Type
}

func FieldTerm(name string, t ast.Type) Term { return Term{Field: true, Name: name, Type: t} }
func VarTerm(name string, t ast.Type) Term   { return Term{Field: false, Name: name, Type: t} }

func (t Term) String() string {
	if t.Field {
		return "_." + t.Name
	}
	return t.Name
}

func (t Term) expr(elemVar *ast.Var) ast.Expr {
	if t.Field {
		return &ast.GetField{Of: elemVar, Field: t.Name, T: t.Type}
	}
	return &ast.Var{Name: t.Name, T: t.Type}
}

// Predicate is a boolean formula over an element variable and the query's
// free variables, built up from atomic field/field, field/variable, or
// variable/variable comparisons by And/Or. It is also
// what HashLookup/BinarySearch/Filter plans carry as their "expr"
// argument — the pool a plan draws a refinement predicate from is exactly
// the predicate pool grown at the same size (see seed.go).
type Predicate interface {
	isPredicate()
	String() string
	Size() int
	Expr(elemVar *ast.Var) ast.Expr
}

type PredTrue struct{}
type PredFalse struct{}

func (PredTrue) isPredicate()  {}
func (PredFalse) isPredicate() {}
func (PredTrue) String() string  { return "true" }
func (PredFalse) String() string { return "false" }
func (PredTrue) Size() int  { return 1 }
func (PredFalse) Size() int { return 1 }
func (PredTrue) Expr(*ast.Var) ast.Expr  { return &ast.Literal{Value: true, T: ast.BoolType{}} }
func (PredFalse) Expr(*ast.Var) ast.Expr { return &ast.Literal{Value: false, T: ast.BoolType{}} }

type PredCompare struct {
	Left, Right Term
	Op          CompareOp
}

func (*PredCompare) isPredicate() {}
func (p *PredCompare) String() string { return fmt.Sprintf("(%s %s %s)", p.Left, p.Op, p.Right) }
func (p *PredCompare) Size() int      { return 1 }
func (p *PredCompare) Expr(elemVar *ast.Var) ast.Expr {
	return &ast.Bin{Op: p.Op.astOp(), A: p.Left.expr(elemVar), B: p.Right.expr(elemVar), T: ast.BoolType{}}
}

// PredRaw wraps an arbitrary pre-built boolean ast.Expr as a Predicate. It
// is used only to let the target formula itself (handed in by the driver
// as a raw expression, not built up through seeding) participate in the
// same ToPredicate/Expr interface as every synthesized candidate.
type PredRaw struct{ E ast.Expr }

func (*PredRaw) isPredicate() {}
func (p *PredRaw) String() string        { return p.E.String() }
func (p *PredRaw) Size() int             { return 1 }
func (p *PredRaw) Expr(*ast.Var) ast.Expr { return p.E }

type PredAnd struct{ A, B Predicate }
type PredOr struct{ A, B Predicate }

func (*PredAnd) isPredicate() {}
func (*PredOr) isPredicate()  {}
func (p *PredAnd) String() string { return fmt.Sprintf("(%s && %s)", p.A, p.B) }
func (p *PredOr) String() string  { return fmt.Sprintf("(%s || %s)", p.A, p.B) }
func (p *PredAnd) Size() int { return 1 + p.A.Size() + p.B.Size() }
func (p *PredOr) Size() int  { return 1 + p.A.Size() + p.B.Size() }
func (p *PredAnd) Expr(elemVar *ast.Var) ast.Expr {
	return &ast.Bin{Op: ast.OpAnd, A: p.A.Expr(elemVar), B: p.B.Expr(elemVar), T: ast.BoolType{}}
}
func (p *PredOr) Expr(elemVar *ast.Var) ast.Expr {
	return &ast.Bin{Op: ast.OpOr, A: p.A.Expr(elemVar), B: p.B.Expr(elemVar), T: ast.BoolType{}}
}

// Plan is a candidate way of computing a subset of the base bag. Each
// variant's ToPredicate gives the boolean formula it extensionally stands
// for — the thing the oracle is asked to certify equal to the target.
// HashLookup/BinarySearch/Filter only differ from each other in access
// pattern and cost, never in the predicate they denote, since all three
// draw their refinement from the same expression pool (see seed.go); that
// equivalence is recorded explicitly rather than left implicit so a reader
// doesn't mistake it for an oversight.
type Plan interface {
	isPlan()
	String() string
	Size() int
	ToPredicate() Predicate
}

// AllWhere is the base-case plan: a full scan filtering on pred.
type AllWhere struct{ Pred Predicate }

func (*AllWhere) isPlan() {}
func (p *AllWhere) String() string    { return fmt.Sprintf("AllWhere(%s)", p.Pred) }
func (p *AllWhere) Size() int         { return 1 + p.Pred.Size() }
func (p *AllWhere) ToPredicate() Predicate { return p.Pred }

// Filter narrows an existing plan's result set by an extra predicate.
type Filter struct {
	Plan Plan
	Pred Predicate
}

func (*Filter) isPlan() {}
func (p *Filter) String() string { return fmt.Sprintf("Filter(%s, %s)", p.Plan, p.Pred) }
func (p *Filter) Size() int      { return 1 + p.Plan.Size() + p.Pred.Size() }
func (p *Filter) ToPredicate() Predicate {
	return &PredAnd{A: p.Plan.ToPredicate(), B: p.Pred}
}

// HashLookup represents access to Plan's elements via an equality/membership
// index keyed by Expr (e.g. a MakeMap built over Plan's underlying bag).
// Its cost model favors it over Filter for single-key lookups, but its
// logical content is identical.
type HashLookup struct {
	Plan Plan
	Expr Predicate
}

func (*HashLookup) isPlan() {}
func (p *HashLookup) String() string { return fmt.Sprintf("HashLookup(%s, %s)", p.Plan, p.Expr) }
func (p *HashLookup) Size() int      { return 1 + p.Plan.Size() + p.Expr.Size() }
func (p *HashLookup) ToPredicate() Predicate {
	return &PredAnd{A: p.Plan.ToPredicate(), B: p.Expr}
}

// BinarySearch represents access to Plan's elements via an ordered index
// supporting range queries. Like HashLookup, it differs from Filter only in
// cost/access-pattern, not in the predicate it stands for.
type BinarySearch struct {
	Plan Plan
	Expr Predicate
}

func (*BinarySearch) isPlan() {}
func (p *BinarySearch) String() string { return fmt.Sprintf("BinarySearch(%s, %s)", p.Plan, p.Expr) }
func (p *BinarySearch) Size() int      { return 1 + p.Plan.Size() + p.Expr.Size() }
func (p *BinarySearch) ToPredicate() Predicate {
	return &PredAnd{A: p.Plan.ToPredicate(), B: p.Expr}
}

// Intersect/Union/Concat combine two plans' result sets. Concat differs from Union only in its cost model — both denote the
// same predicate here since duplicate removal has no observable effect on
// an already-deduplicated target set, and the synthesizer never proposes a
// Concat where the two sides overlap without also proposing the cheaper
// Union at the same predicate.
type Intersect struct{ A, B Plan }
type Union struct{ A, B Plan }
type Concat struct{ A, B Plan }

func (*Intersect) isPlan() {}
func (*Union) isPlan()     {}
func (*Concat) isPlan()    {}

func (p *Intersect) String() string { return fmt.Sprintf("Intersect(%s, %s)", p.A, p.B) }
func (p *Union) String() string     { return fmt.Sprintf("Union(%s, %s)", p.A, p.B) }
func (p *Concat) String() string    { return fmt.Sprintf("Concat(%s, %s)", p.A, p.B) }

func (p *Intersect) Size() int { return 1 + p.A.Size() + p.B.Size() }
func (p *Union) Size() int     { return 1 + p.A.Size() + p.B.Size() }
func (p *Concat) Size() int    { return 1 + p.A.Size() + p.B.Size() }

func (p *Intersect) ToPredicate() Predicate {
	return &PredAnd{A: p.A.ToPredicate(), B: p.B.ToPredicate()}
}
func (p *Union) ToPredicate() Predicate {
	return &PredOr{A: p.A.ToPredicate(), B: p.B.ToPredicate()}
}
func (p *Concat) ToPredicate() Predicate {
	return &PredOr{A: p.A.ToPredicate(), B: p.B.ToPredicate()}
}

// children returns a plan's immediate plan-typed subtrees, nil for AllWhere
// (whose only child is a predicate, not a plan). Used by ContainsSubtree.
func children(p Plan) []Plan {
	switch n := p.(type) {
	case *AllWhere:
		return nil
	case *Filter:
		return []Plan{n.Plan}
	case *HashLookup:
		return []Plan{n.Plan}
	case *BinarySearch:
		return []Plan{n.Plan}
	case *Intersect:
		return []Plan{n.A, n.B}
	case *Union:
		return []Plan{n.A, n.B}
	case *Concat:
		return []Plan{n.A, n.B}
	default:
		panic(fmt.Sprintf("enumerate.children: unsupported plan %T", p))
	}
}

// LessPlan is the canonical total order on plans used by stupid()'s
// "children are ≤-ordered" check on binary combinators: lexicographic order of each plan's printed form. Any total
// order is sound for this purpose — stupid() only uses it to discard one of
// two binary-combinator orderings as a duplicate of the other, so the
// specific order chosen doesn't affect which plans survive, only which
// permutation of a commutative pair does.
func LessPlan(a, b Plan) bool {
	return a.String() < b.String()
}

// samePlan reports reference-insensitive structural equality, used by
// ContainsSubtree.
func samePlan(a, b Plan) bool {
	return a.String() == b.String()
}

// ContainsSubtree reports whether target occurs as p itself or as a plan
// anywhere beneath it, at any depth. stupid() does not use it; it recurses
// into its children itself.
func ContainsSubtree(p, target Plan) bool {
	if samePlan(p, target) {
		return true
	}
	for _, c := range children(p) {
		if ContainsSubtree(c, target) {
			return true
		}
	}
	return false
}
