// Package rewrite implements the shared expression utilities:
// free-variable analysis, capture-avoiding substitution, alpha-equivalence,
// fresh-name generation, bottom-up rewriting, and fragment enumeration.
// The effects, mutate, sketch and heap packages build on these.
package rewrite

import (
	"github.com/hashicorp/go-set/v3"
	"synthctl/internal/ast"
)

// FreeVars returns the set of variable names that occur free in e, i.e. not
// bound by an enclosing Lambda.
func FreeVars(e ast.Expr) *set.Set[string] {
	fv := set.New[string](8)
	for name := range FreeVarTypes(e) {
		fv.Insert(name)
	}
	return fv
}

// FreeVarTypes returns every free variable of e together with its declared
// type. The sketcher uses this to promote a sub-query's free non-context
// variables to typed parameters.
func FreeVarTypes(e ast.Expr) map[string]ast.Type {
	out := map[string]ast.Type{}
	collectFreeVars(e, out)
	return out
}

func collectFreeVars(e ast.Expr, out map[string]ast.Type) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *ast.Var:
		if _, seen := out[n.Name]; !seen {
			out[n.Name] = n.T
		}
	case *ast.Literal, *ast.EmptyBag, *ast.EmptyMap:
		// no subexpressions
	case *ast.Bin:
		collectFreeVars(n.A, out)
		collectFreeVars(n.B, out)
	case *ast.Unary:
		collectFreeVars(n.A, out)
	case *ast.If:
		collectFreeVars(n.Cond, out)
		collectFreeVars(n.Then, out)
		collectFreeVars(n.Else, out)
	case *ast.GetField:
		collectFreeVars(n.Of, out)
	case *ast.MakeRecord:
		for _, f := range n.Fields {
			collectFreeVars(f.Value, out)
		}
	case *ast.TupleGet:
		collectFreeVars(n.Of, out)
	case *ast.Tuple:
		for _, el := range n.Elems {
			collectFreeVars(el, out)
		}
	case *ast.Singleton:
		collectFreeVars(n.Elem, out)
	case *ast.Map:
		collectFreeVars(n.Bag, out)
		collectFreeVarsLambda(n.F, out)
	case *ast.Filter:
		collectFreeVars(n.Bag, out)
		collectFreeVarsLambda(n.F, out)
	case *ast.FlatMap:
		collectFreeVars(n.Bag, out)
		collectFreeVarsLambda(n.F, out)
	case *ast.MakeMap:
		collectFreeVars(n.Bag, out)
		collectFreeVarsLambda(n.KeyF, out)
		collectFreeVarsLambda(n.ValF, out)
	case *ast.MapGet:
		collectFreeVars(n.Map, out)
		collectFreeVars(n.Key, out)
	case *ast.MapKeys:
		collectFreeVars(n.Map, out)
	case *ast.In:
		collectFreeVars(n.X, out)
		collectFreeVars(n.Bag, out)
	case *ast.ArgMin:
		collectFreeVars(n.Bag, out)
		collectFreeVarsLambda(n.KeyF, out)
	case *ast.ArgMax:
		collectFreeVars(n.Bag, out)
		collectFreeVarsLambda(n.KeyF, out)
	case *ast.Call:
		for _, a := range n.Args {
			collectFreeVars(a, out)
		}
	case *ast.WithAlteredValue:
		collectFreeVars(n.Handle, out)
		collectFreeVars(n.NewValue, out)
	case *ast.MakeMinHeap:
		collectFreeVars(n.Bag, out)
		collectFreeVarsLambda(n.KeyF, out)
	case *ast.MakeMaxHeap:
		collectFreeVars(n.Bag, out)
		collectFreeVarsLambda(n.KeyF, out)
	case *ast.HeapElems:
		collectFreeVars(n.Heap, out)
	case *ast.HeapPeek:
		collectFreeVars(n.Heap, out)
		collectFreeVars(n.N, out)
	case *ast.HeapPeek2:
		collectFreeVars(n.Heap, out)
		collectFreeVars(n.N, out)
	default:
		panic("rewrite.FreeVars: unsupported expression node")
	}
}

func collectFreeVarsLambda(l *ast.Lambda, out map[string]ast.Type) {
	if l == nil {
		return
	}
	inner := map[string]ast.Type{}
	collectFreeVars(l.Body, inner)
	delete(inner, l.Arg.Name)
	for name, t := range inner {
		if _, seen := out[name]; !seen {
			out[name] = t
		}
	}
}

// FreeVarsStmt returns the free variables of a statement; effects.StmtStateVars
// uses it to find the state variables a statement touches.
func FreeVarsStmt(s ast.Stmt) *set.Set[string] {
	fv := set.New[string](8)
	m := map[string]ast.Type{}
	collectFreeVarsStmt(s, m)
	for name := range m {
		fv.Insert(name)
	}
	return fv
}

func collectFreeVarsStmt(s ast.Stmt, out map[string]ast.Type) {
	switch n := s.(type) {
	case ast.NoOp:
	case *ast.Assign:
		collectFreeVars(n.Lval, out)
		collectFreeVars(n.Rhs, out)
	case *ast.CallStmt:
		collectFreeVars(n.Target, out)
		for _, a := range n.Args {
			collectFreeVars(a, out)
		}
	case *ast.IfStmt:
		collectFreeVars(n.Cond, out)
		collectFreeVarsStmt(n.Then, out)
		collectFreeVarsStmt(n.Else, out)
	case *ast.Seq:
		collectFreeVarsStmt(n.S1, out)
		collectFreeVarsStmt(n.S2, out)
	case *ast.ForEach:
		collectFreeVars(n.Bag, out)
		inner := map[string]ast.Type{}
		collectFreeVarsStmt(n.Body, inner)
		delete(inner, n.Var.Name)
		for name, t := range inner {
			if _, seen := out[name]; !seen {
				out[name] = t
			}
		}
	case *ast.Decl:
		collectFreeVars(n.Rhs, out)
	case *ast.While:
		collectFreeVars(n.Cond, out)
		collectFreeVarsStmt(n.Body, out)
	case *ast.Swap:
		collectFreeVars(n.A, out)
		collectFreeVars(n.B, out)
	case *ast.EscapableBlock:
		collectFreeVarsStmt(n.Body, out)
	case *ast.EscapeBlock:
	case *ast.Switch:
		collectFreeVars(n.Scrutinee, out)
		for _, c := range n.Cases {
			collectFreeVars(c.Value, out)
			collectFreeVarsStmt(c.Body, out)
		}
		collectFreeVarsStmt(n.Default, out)
	default:
		panic("rewrite.FreeVarsStmt: unsupported statement node")
	}
}
