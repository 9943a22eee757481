package oracle

import (
	"synthctl/internal/ast"
	"synthctl/internal/eval"
)

// BoundedOracle decides quantifier-free linear arithmetic formulas by brute
// force over a bounded integer domain, standing in for an external SMT
// solver behind the same Oracle contract.
// It is sound within the chosen domain and complete for formulas whose
// variables all range over it; outside that domain (or when the search
// space is too large to exhaust) it reports unknown, which Valid and
// EquivForPruning map per their documented policy.
type BoundedOracle struct {
	bound    int64
	maxCombos int
	stack    [][]ast.Expr
}

// NewBoundedOracle builds an oracle that searches int variables over
// [-bound, bound] and gives up (reporting unknown) past maxCombos
// assignments tried.
func NewBoundedOracle(bound int64, maxCombos int) *BoundedOracle {
	return &BoundedOracle{bound: bound, maxCombos: maxCombos}
}

func (o *BoundedOracle) Push(assumptions ...ast.Expr) {
	o.stack = append(o.stack, assumptions)
}

func (o *BoundedOracle) Pop() {
	if len(o.stack) == 0 {
		panic("oracle.BoundedOracle: Pop without matching Push")
	}
	o.stack = o.stack[:len(o.stack)-1]
}

func (o *BoundedOracle) assumptions() []ast.Expr {
	var out []ast.Expr
	for _, layer := range o.stack {
		out = append(out, layer...)
	}
	return out
}

type decision int

const (
	decUnknown decision = iota
	decSAT
	decUNSAT
)

// decide searches for an assignment satisfying every assumption and phi.
func (o *BoundedOracle) decide(phi ast.Expr, extraAssumptions []ast.Expr) (decision, *Model) {
	assumptions := append(append([]ast.Expr(nil), o.assumptions()...), extraAssumptions...)

	vars := map[string]ast.Type{}
	ok := collectScalarVars(phi, vars)
	for _, a := range assumptions {
		ok = collectScalarVars(a, vars) && ok
	}
	if !ok {
		return decUnknown, nil
	}

	var intNames, boolNames []string
	for name, t := range vars {
		switch t.(type) {
		case ast.IntType:
			intNames = append(intNames, name)
		case ast.BoolType:
			boolNames = append(boolNames, name)
		default:
			return decUnknown, nil
		}
	}

	domainSize := 2*o.bound + 1
	combos := 1
	for range intNames {
		combos *= int(domainSize)
		if combos > o.maxCombos {
			return decUnknown, nil
		}
	}
	for range boolNames {
		combos *= 2
		if combos > o.maxCombos {
			return decUnknown, nil
		}
	}

	intVals := make([]int64, len(intNames))
	boolVals := make([]bool, len(boolNames))

	var search func(i, j int) (decision, *Model)
	search = func(i, j int) (decision, *Model) {
		if i < len(intNames) {
			for v := -o.bound; v <= o.bound; v++ {
				intVals[i] = v
				if d, m := search(i+1, j); d == decSAT {
					return d, m
				}
			}
			return decUNSAT, nil
		}
		if j < len(boolNames) {
			for _, v := range []bool{false, true} {
				boolVals[j] = v
				if d, m := search(i, j+1); d == decSAT {
					return d, m
				}
			}
			return decUNSAT, nil
		}
		env := eval.NewEnv()
		for k, name := range intNames {
			env.Vars[name] = intVals[k]
		}
		for k, name := range boolNames {
			env.Vars[name] = boolVals[k]
		}
		for _, a := range assumptions {
			if !eval.Eval(a, env).(bool) {
				return decUNSAT, nil
			}
		}
		if !eval.Eval(phi, env).(bool) {
			return decUNSAT, nil
		}
		m := NewModel()
		for k, name := range intNames {
			m.Ints[name] = intVals[k]
		}
		for k, name := range boolNames {
			m.Bools[name] = boolVals[k]
		}
		return decSAT, m
	}
	return search(0, 0)
}

func (o *BoundedOracle) CounterExample(phi ast.Expr) (*Model, bool) {
	switch d, m := o.decide(phi, nil); d {
	case decSAT:
		return m, false
	case decUNSAT:
		return nil, true
	default:
		return nil, false
	}
}

func (o *BoundedOracle) Valid(phi ast.Expr) bool {
	d, _ := o.decide(&ast.Unary{Op: ast.OpNot, A: phi, T: ast.BoolType{}}, nil)
	return d == decUNSAT
}

func (o *BoundedOracle) Equiv(a, b ast.Expr) bool {
	return o.Valid(&ast.Bin{Op: ast.OpEq, A: a, B: b, T: ast.BoolType{}})
}

func (o *BoundedOracle) EquivForPruning(a, b ast.Expr) bool {
	// Search for a witness of a != b. Finding one refutes equivalence;
	// proving there is none confirms it; unknown maps to true, since a
	// wrongly merged pair only costs a missed optimization.
	d, _ := o.decide(&ast.Unary{Op: ast.OpNot, A: &ast.Bin{Op: ast.OpEq, A: a, B: b, T: ast.BoolType{}}, T: ast.BoolType{}}, nil)
	return d != decSAT
}

// collectScalarVars walks a quantifier-free scalar formula, recording every
// Var's declared type into out. It returns false as soon as it sees a shape
// outside QF_LIA (bags, maps, handles, lambdas, heaps) — the bounded
// procedure refuses to guess at those rather than silently mistreating them
// as opaque scalars.
func collectScalarVars(e ast.Expr, out map[string]ast.Type) bool {
	switch n := e.(type) {
	case *ast.Var:
		out[n.Name] = n.T
		return true
	case *ast.Literal:
		return true
	case *ast.Bin:
		switch n.Op {
		case ast.OpAnd, ast.OpOr, ast.OpEq, ast.OpLt, ast.OpLe, ast.OpAdd, ast.OpSub, ast.OpMul:
			return collectScalarVars(n.A, out) && collectScalarVars(n.B, out)
		default:
			return false
		}
	case *ast.Unary:
		switch n.Op {
		case ast.OpNeg, ast.OpNot:
			return collectScalarVars(n.A, out)
		default:
			return false
		}
	case *ast.If:
		return collectScalarVars(n.Cond, out) && collectScalarVars(n.Then, out) && collectScalarVars(n.Else, out)
	default:
		return false
	}
}
