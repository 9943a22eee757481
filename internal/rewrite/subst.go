package rewrite

import (
	"github.com/hashicorp/go-set/v3"
	"synthctl/internal/ast"
)

// Subst performs capture-avoiding substitution of sigma (name -> replacement)
// throughout e. Lambda binders that would otherwise capture a free variable
// of some replacement are alpha-renamed first.
func Subst(e ast.Expr, sigma map[string]ast.Expr) ast.Expr {
	if len(sigma) == 0 {
		return e
	}
	return substExpr(e, sigma)
}

func rhsFreeVars(sigma map[string]ast.Expr) *set.Set[string] {
	fv := set.New[string](8)
	for _, v := range sigma {
		fv.InsertSet(FreeVars(v))
	}
	return fv
}

func substExpr(e ast.Expr, sigma map[string]ast.Expr) ast.Expr {
	sub := func(x ast.Expr) ast.Expr { return substExpr(x, sigma) }
	switch n := e.(type) {
	case *ast.Var:
		if repl, ok := sigma[n.Name]; ok {
			return repl
		}
		return n
	case *ast.Literal, *ast.EmptyBag, *ast.EmptyMap:
		return n
	case *ast.Bin:
		return &ast.Bin{Op: n.Op, A: sub(n.A), B: sub(n.B), T: n.T}
	case *ast.Unary:
		return &ast.Unary{Op: n.Op, A: sub(n.A), T: n.T}
	case *ast.If:
		return &ast.If{Cond: sub(n.Cond), Then: sub(n.Then), Else: sub(n.Else), T: n.T}
	case *ast.GetField:
		return &ast.GetField{Of: sub(n.Of), Field: n.Field, T: n.T}
	case *ast.MakeRecord:
		fields := make([]ast.RecordFieldValue, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = ast.RecordFieldValue{Name: f.Name, Value: sub(f.Value)}
		}
		return &ast.MakeRecord{Fields: fields, T: n.T}
	case *ast.TupleGet:
		return &ast.TupleGet{Of: sub(n.Of), Index: n.Index, T: n.T}
	case *ast.Tuple:
		elems := make([]ast.Expr, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = sub(el)
		}
		return &ast.Tuple{Elems: elems, T: n.T}
	case *ast.Singleton:
		return &ast.Singleton{Elem: sub(n.Elem), T: n.T}
	case *ast.Map:
		return &ast.Map{Bag: sub(n.Bag), F: substLambda(n.F, sigma), T: n.T}
	case *ast.Filter:
		return &ast.Filter{Bag: sub(n.Bag), F: substLambda(n.F, sigma), T: n.T}
	case *ast.FlatMap:
		return &ast.FlatMap{Bag: sub(n.Bag), F: substLambda(n.F, sigma), T: n.T}
	case *ast.MakeMap:
		return &ast.MakeMap{Bag: sub(n.Bag), KeyF: substLambda(n.KeyF, sigma), ValF: substLambda(n.ValF, sigma), T: n.T}
	case *ast.MapGet:
		return &ast.MapGet{Map: sub(n.Map), Key: sub(n.Key), T: n.T}
	case *ast.MapKeys:
		return &ast.MapKeys{Map: sub(n.Map), T: n.T}
	case *ast.In:
		return &ast.In{X: sub(n.X), Bag: sub(n.Bag), T: n.T}
	case *ast.ArgMin:
		return &ast.ArgMin{Bag: sub(n.Bag), KeyF: substLambda(n.KeyF, sigma), T: n.T}
	case *ast.ArgMax:
		return &ast.ArgMax{Bag: sub(n.Bag), KeyF: substLambda(n.KeyF, sigma), T: n.T}
	case *ast.Call:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = sub(a)
		}
		return &ast.Call{Name: n.Name, Args: args, T: n.T}
	case *ast.WithAlteredValue:
		return &ast.WithAlteredValue{Handle: sub(n.Handle), NewValue: sub(n.NewValue), T: n.T}
	case *ast.MakeMinHeap:
		return &ast.MakeMinHeap{Bag: sub(n.Bag), KeyF: substLambda(n.KeyF, sigma), T: n.T}
	case *ast.MakeMaxHeap:
		return &ast.MakeMaxHeap{Bag: sub(n.Bag), KeyF: substLambda(n.KeyF, sigma), T: n.T}
	case *ast.HeapElems:
		return &ast.HeapElems{Heap: sub(n.Heap), T: n.T}
	case *ast.HeapPeek:
		return &ast.HeapPeek{Heap: sub(n.Heap), N: sub(n.N), T: n.T}
	case *ast.HeapPeek2:
		return &ast.HeapPeek2{Heap: sub(n.Heap), N: sub(n.N), T: n.T}
	default:
		panic("rewrite.Subst: unsupported expression node")
	}
}

func substLambda(l *ast.Lambda, sigma map[string]ast.Expr) *ast.Lambda {
	if l == nil {
		return nil
	}
	// The binder shadows any substitution under the same name.
	if _, shadowed := sigma[l.Arg.Name]; shadowed {
		inner := make(map[string]ast.Expr, len(sigma)-1)
		for k, v := range sigma {
			if k != l.Arg.Name {
				inner[k] = v
			}
		}
		sigma = inner
	}
	if len(sigma) == 0 {
		return l
	}
	arg := l.Arg
	body := l.Body
	if rhsFreeVars(sigma).Contains(l.Arg.Name) {
		// Renaming avoids the binder capturing a free variable introduced
		// by one of the replacements.
		fresh := FreshVar(l.Arg.T, rhsFreeVars(sigma).Union(FreeVars(l.Body)).(*set.Set[string]))
		body = substExpr(l.Body, map[string]ast.Expr{l.Arg.Name: fresh})
		arg = fresh
	}
	return &ast.Lambda{Arg: arg, Body: substExpr(body, sigma)}
}
