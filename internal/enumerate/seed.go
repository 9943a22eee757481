package enumerate

import "synthctl/internal/ast"

// Target is what the enumerator is handed: the element variable predicates
// are written in terms of, its record type (whose fields seed the
// comparison graph), the query's free (parameter) variables, and the
// boolean formula a plan must match, pre-converted to negation normal form.
type Target struct {
	ElemVar  *ast.Var
	ElemType ast.RecordType
	Vars     []ast.Arg
	Formula  ast.Expr
}

// extractTerm recognizes the two term shapes a Compare atom can mention:
// a field projection off the element variable, or a reference to a free
// variable. Anything else (a literal, a nested boolean, ...) is not a term.
func extractTerm(e ast.Expr, elemVar *ast.Var) (Term, bool) {
	switch n := e.(type) {
	case *ast.GetField:
		if v, ok := n.Of.(*ast.Var); ok && v.Name == elemVar.Name {
			return FieldTerm(n.Field, n.T), true
		}
	case *ast.Var:
		if n.Name != elemVar.Name {
			return VarTerm(n.Name, n.T), true
		}
	}
	return Term{}, false
}

// comparisonGraph walks formula collecting every directly-compared term
// pair it contains, recursing through the boolean connectives (And/Or/Not/
// If) a typechecked predicate can be built from. This is the "query's
// comparison graph" step-1 seeding draws from.
func comparisonGraph(formula ast.Expr, elemVar *ast.Var) [][2]Term {
	var pairs [][2]Term
	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		switch n := e.(type) {
		case *ast.Bin:
			switch n.Op {
			case ast.OpEq, ast.OpLt, ast.OpLe:
				ta, aok := extractTerm(n.A, elemVar)
				tb, bok := extractTerm(n.B, elemVar)
				if aok && bok {
					pairs = append(pairs, [2]Term{ta, tb})
				}
			case ast.OpAnd, ast.OpOr:
				walk(n.A)
				walk(n.B)
			}
		case *ast.Unary:
			if n.Op == ast.OpNot {
				walk(n.A)
			}
		case *ast.If:
			walk(n.Cond)
			walk(n.Then)
			walk(n.Else)
		}
	}
	walk(formula)
	return pairs
}

// termComponents groups every term mentioned in pairs into connected
// components under the comparison relation (ignoring which operator
// connected them — any comparison witnesses the two terms are worth
// relating). Returns one
// representative slice of terms per component, each deduplicated and in
// first-seen order.
func termComponents(pairs [][2]Term) [][]Term {
	parent := map[string]string{}
	byKey := map[string]Term{}
	var find func(string) string
	find = func(k string) string {
		if parent[k] == k {
			return k
		}
		parent[k] = find(parent[k])
		return parent[k]
	}
	union := func(a, b Term) {
		ka, kb := a.String(), b.String()
		if _, ok := parent[ka]; !ok {
			parent[ka] = ka
			byKey[ka] = a
		}
		if _, ok := parent[kb]; !ok {
			parent[kb] = kb
			byKey[kb] = b
		}
		ra, rb := find(ka), find(kb)
		if ra != rb {
			parent[ra] = rb
		}
	}
	var order []string
	for _, p := range pairs {
		if _, ok := parent[p[0].String()]; !ok {
			order = append(order, p[0].String())
		}
		if _, ok := parent[p[1].String()]; !ok {
			order = append(order, p[1].String())
		}
		union(p[0], p[1])
	}
	groups := map[string][]Term{}
	var groupOrder []string
	for _, k := range order {
		r := find(k)
		if _, seen := groups[r]; !seen {
			groupOrder = append(groupOrder, r)
		}
		groups[r] = append(groups[r], byKey[k])
	}
	out := make([][]Term, 0, len(groupOrder))
	for _, r := range groupOrder {
		out = append(out, groups[r])
	}
	return out
}

// seedPredicates returns every size-1 predicate: True, False, and
// Compare(a, op, b) for op in {==, <, <=} over every unordered pair of
// terms that share a comparison-graph component.
func seedPredicates(target Target) []Predicate {
	preds := []Predicate{PredTrue{}, PredFalse{}}
	components := termComponents(comparisonGraph(target.Formula, target.ElemVar))
	seen := map[string]bool{}
	for _, comp := range components {
		for i := 0; i < len(comp); i++ {
			for j := i + 1; j < len(comp); j++ {
				for _, op := range []CompareOp{OpEq, OpLt, OpLe} {
					p := &PredCompare{Left: comp[i], Right: comp[j], Op: op}
					if !seen[p.String()] {
						seen[p.String()] = true
						preds = append(preds, p)
					}
				}
			}
		}
	}
	return preds
}

// seedPlans wraps every size-1 predicate as an AllWhere plan.
func seedPlans(preds []Predicate) []Plan {
	plans := make([]Plan, len(preds))
	for i, p := range preds {
		plans[i] = &AllWhere{Pred: p}
	}
	return plans
}
