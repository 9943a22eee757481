package rewrite

import "synthctl/internal/ast"

// Visitor receives each node of an expression tree after its children have
// already been rewritten, and returns the (possibly replaced) node to use
// in its place. Returning the input unchanged leaves that position alone.
type Visitor func(ast.Expr) ast.Expr

// Rewrite applies visit to every node of e in bottom-up order: children are
// rewritten first, then the (rebuilt) parent is passed to visit. The
// mutator's handle-alias rewrite is built on it; WithAlteredValue
// elimination and sub-query factoring use their own traversals.
func Rewrite(e ast.Expr, visit Visitor) ast.Expr {
	if e == nil {
		return nil
	}
	rw := func(x ast.Expr) ast.Expr { return Rewrite(x, visit) }
	var rebuilt ast.Expr
	switch n := e.(type) {
	case *ast.Var, *ast.Literal, *ast.EmptyBag, *ast.EmptyMap:
		rebuilt = n
	case *ast.Bin:
		rebuilt = &ast.Bin{Op: n.Op, A: rw(n.A), B: rw(n.B), T: n.T}
	case *ast.Unary:
		rebuilt = &ast.Unary{Op: n.Op, A: rw(n.A), T: n.T}
	case *ast.If:
		rebuilt = &ast.If{Cond: rw(n.Cond), Then: rw(n.Then), Else: rw(n.Else), T: n.T}
	case *ast.GetField:
		rebuilt = &ast.GetField{Of: rw(n.Of), Field: n.Field, T: n.T}
	case *ast.MakeRecord:
		fields := make([]ast.RecordFieldValue, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = ast.RecordFieldValue{Name: f.Name, Value: rw(f.Value)}
		}
		rebuilt = &ast.MakeRecord{Fields: fields, T: n.T}
	case *ast.TupleGet:
		rebuilt = &ast.TupleGet{Of: rw(n.Of), Index: n.Index, T: n.T}
	case *ast.Tuple:
		elems := make([]ast.Expr, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = rw(el)
		}
		rebuilt = &ast.Tuple{Elems: elems, T: n.T}
	case *ast.Singleton:
		rebuilt = &ast.Singleton{Elem: rw(n.Elem), T: n.T}
	case *ast.Map:
		rebuilt = &ast.Map{Bag: rw(n.Bag), F: rewriteLambda(n.F, visit), T: n.T}
	case *ast.Filter:
		rebuilt = &ast.Filter{Bag: rw(n.Bag), F: rewriteLambda(n.F, visit), T: n.T}
	case *ast.FlatMap:
		rebuilt = &ast.FlatMap{Bag: rw(n.Bag), F: rewriteLambda(n.F, visit), T: n.T}
	case *ast.MakeMap:
		rebuilt = &ast.MakeMap{Bag: rw(n.Bag), KeyF: rewriteLambda(n.KeyF, visit), ValF: rewriteLambda(n.ValF, visit), T: n.T}
	case *ast.MapGet:
		rebuilt = &ast.MapGet{Map: rw(n.Map), Key: rw(n.Key), T: n.T}
	case *ast.MapKeys:
		rebuilt = &ast.MapKeys{Map: rw(n.Map), T: n.T}
	case *ast.In:
		rebuilt = &ast.In{X: rw(n.X), Bag: rw(n.Bag), T: n.T}
	case *ast.ArgMin:
		rebuilt = &ast.ArgMin{Bag: rw(n.Bag), KeyF: rewriteLambda(n.KeyF, visit), T: n.T}
	case *ast.ArgMax:
		rebuilt = &ast.ArgMax{Bag: rw(n.Bag), KeyF: rewriteLambda(n.KeyF, visit), T: n.T}
	case *ast.Call:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = rw(a)
		}
		rebuilt = &ast.Call{Name: n.Name, Args: args, T: n.T}
	case *ast.WithAlteredValue:
		rebuilt = &ast.WithAlteredValue{Handle: rw(n.Handle), NewValue: rw(n.NewValue), T: n.T}
	case *ast.MakeMinHeap:
		rebuilt = &ast.MakeMinHeap{Bag: rw(n.Bag), KeyF: rewriteLambda(n.KeyF, visit), T: n.T}
	case *ast.MakeMaxHeap:
		rebuilt = &ast.MakeMaxHeap{Bag: rw(n.Bag), KeyF: rewriteLambda(n.KeyF, visit), T: n.T}
	case *ast.HeapElems:
		rebuilt = &ast.HeapElems{Heap: rw(n.Heap), T: n.T}
	case *ast.HeapPeek:
		rebuilt = &ast.HeapPeek{Heap: rw(n.Heap), N: rw(n.N), T: n.T}
	case *ast.HeapPeek2:
		rebuilt = &ast.HeapPeek2{Heap: rw(n.Heap), N: rw(n.N), T: n.T}
	default:
		panic("rewrite.Rewrite: unsupported expression node")
	}
	return visit(rebuilt)
}

func rewriteLambda(l *ast.Lambda, visit Visitor) *ast.Lambda {
	if l == nil {
		return nil
	}
	return &ast.Lambda{Arg: l.Arg, Body: Rewrite(l.Body, visit)}
}

// RewriteStmt applies a Rewrite pass to every expression occurring in s,
// leaving the statement's shape otherwise untouched.
func RewriteStmt(s ast.Stmt, visit Visitor) ast.Stmt {
	rwe := func(x ast.Expr) ast.Expr { return Rewrite(x, visit) }
	switch n := s.(type) {
	case ast.NoOp:
		return n
	case *ast.Assign:
		return &ast.Assign{Lval: rwe(n.Lval), Rhs: rwe(n.Rhs)}
	case *ast.CallStmt:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = rwe(a)
		}
		return &ast.CallStmt{Target: rwe(n.Target), Func: n.Func, Args: args}
	case *ast.IfStmt:
		return &ast.IfStmt{Cond: rwe(n.Cond), Then: RewriteStmt(n.Then, visit), Else: RewriteStmt(n.Else, visit)}
	case *ast.Seq:
		return &ast.Seq{S1: RewriteStmt(n.S1, visit), S2: RewriteStmt(n.S2, visit)}
	case *ast.ForEach:
		return &ast.ForEach{Var: n.Var, Bag: rwe(n.Bag), Body: RewriteStmt(n.Body, visit)}
	case *ast.Decl:
		return &ast.Decl{Name: n.Name, Rhs: rwe(n.Rhs)}
	case *ast.While:
		return &ast.While{Cond: rwe(n.Cond), Body: RewriteStmt(n.Body, visit)}
	case *ast.Swap:
		return &ast.Swap{A: rwe(n.A), B: rwe(n.B)}
	case *ast.EscapableBlock:
		return &ast.EscapableBlock{Label: n.Label, Body: RewriteStmt(n.Body, visit)}
	case *ast.EscapeBlock:
		return n
	case *ast.Switch:
		cases := make([]ast.SwitchCase, len(n.Cases))
		for i, c := range n.Cases {
			cases[i] = ast.SwitchCase{Value: rwe(c.Value), Body: RewriteStmt(c.Body, visit)}
		}
		return &ast.Switch{Scrutinee: rwe(n.Scrutinee), Cases: cases, Default: RewriteStmt(n.Default, visit)}
	default:
		panic("rewrite.RewriteStmt: unsupported statement node")
	}
}
