// Package mutate computes the symbolic value of an expression after a
// statement executes, soundly across heap aliasing.
package mutate

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"
	"synthctl/internal/ast"
	"synthctl/internal/config"
	"synthctl/internal/extension"
	"synthctl/internal/rewrite"
)

// Mutator threads an extension registry and config options through every
// mutation, rather than reading package-level option globals.
type Mutator struct {
	Registry *extension.Registry
	Options  config.Options
}

func New(reg *extension.Registry, opts config.Options) *Mutator {
	return &Mutator{Registry: reg, Options: opts}
}

// Mutate computes e's value as of just after op has executed, recursing
// structurally on op's shape.
// Every built-in update method (add/add_all/remove/remove_all) desugars to
// an Assign before reaching here, except when the call targets a type with
// a registered extension handler (heap): there the handler computes the
// target's new symbolic value itself, since the generic Bag +/- algebra
// desugarCall relies on doesn't type-check against an extension type.
func (m *Mutator) Mutate(e ast.Expr, op ast.Stmt) ast.Expr {
	switch s := op.(type) {
	case ast.NoOp:
		return e
	case *ast.Seq:
		return m.mutateSeq(e, s)
	case *ast.Decl:
		return e
	case *ast.IfStmt:
		return &ast.If{
			Cond: s.Cond,
			Then: m.Mutate(e, s.Then),
			Else: m.Mutate(e, s.Else),
			T:    e.Type(),
		}
	case *ast.Assign:
		return m.mutateAssign(e, s)
	case *ast.CallStmt:
		if h := m.handlerFor(s); h != nil {
			return m.Mutate(e, &ast.Assign{Lval: s.Target, Rhs: h.MutateCall(s)})
		}
		return m.Mutate(e, desugarCall(s))
	default:
		panic(fmt.Sprintf("mutate.Mutate: unsupported statement shape %T", op))
	}
}

// mutateSeq left-associates nested Seqs first (Seq(a, Seq(b,c)) ==
// Seq(Seq(a,b),c) for the purpose of evaluation order — mutate always wants
// to peel off the last statement first), then applies
// mutate(mutate(e, b), a), special-casing a leading Decl so its binding is
// substituted into the inner result rather than dropped.
func (m *Mutator) mutateSeq(e ast.Expr, s *ast.Seq) ast.Expr {
	stmts := flattenSeq(s)
	result := e
	for i := len(stmts) - 1; i >= 0; i-- {
		st := stmts[i]
		if d, ok := st.(*ast.Decl); ok {
			result = rewrite.Subst(result, map[string]ast.Expr{d.Name: d.Rhs})
			continue
		}
		result = m.Mutate(result, st)
	}
	return result
}

func flattenSeq(s *ast.Seq) []ast.Stmt {
	var out []ast.Stmt
	var walk func(ast.Stmt)
	walk = func(st ast.Stmt) {
		if seq, ok := st.(*ast.Seq); ok {
			walk(seq.S1)
			walk(seq.S2)
			return
		}
		out = append(out, st)
	}
	walk(s)
	return out
}

func (m *Mutator) mutateAssign(e ast.Expr, s *ast.Assign) ast.Expr {
	switch lv := s.Lval.(type) {
	case *ast.Var:
		return rewrite.Subst(e, map[string]ast.Expr{lv.Name: s.Rhs})
	case *ast.GetField:
		if ht, ok := lv.Of.Type().(ast.HandleType); ok && lv.Field == "val" {
			return rewriteHandleAssign(e, lv.Of, ht, s.Rhs)
		}
		// r.f := rhs, where r is a record: recurse as Assign(r, r with {f: rhs}).
		rt := lv.Of.Type().(ast.RecordType)
		fields := make([]ast.RecordFieldValue, len(rt.Fields))
		for i, f := range rt.Fields {
			if f.Name == lv.Field {
				fields[i] = ast.RecordFieldValue{Name: f.Name, Value: s.Rhs}
			} else {
				fields[i] = ast.RecordFieldValue{Name: f.Name, Value: &ast.GetField{Of: lv.Of, Field: f.Name, T: f.Type}}
			}
		}
		return m.Mutate(e, &ast.Assign{Lval: lv.Of, Rhs: &ast.MakeRecord{Fields: fields, T: rt}})
	case *ast.TupleGet:
		tt := lv.Of.Type().(ast.TupleType)
		elems := make([]ast.Expr, len(tt.Elems))
		for i, et := range tt.Elems {
			if i == lv.Index {
				elems[i] = s.Rhs
			} else {
				elems[i] = &ast.TupleGet{Of: lv.Of, Index: i, T: et}
			}
		}
		return m.Mutate(e, &ast.Assign{Lval: lv.Of, Rhs: &ast.Tuple{Elems: elems, T: tt}})
	default:
		panic(fmt.Sprintf("mutate.mutateAssign: unsupported lvalue shape %T", s.Lval))
	}
}

// rewriteHandleAssign implements the alias-aware rewrite: every occurrence
// of x.val in e, where x: Handle(T) with the same T as h, becomes
// If(x == h, rhs, x.val). This is the core invariant that handles are
// aliasable — two handle-typed variables referring to the same identity
// must observe the same written value.
func rewriteHandleAssign(e ast.Expr, h ast.Expr, ht ast.HandleType, rhs ast.Expr) ast.Expr {
	visit := func(n ast.Expr) ast.Expr {
		gf, ok := n.(*ast.GetField)
		if !ok || gf.Field != "val" {
			return n
		}
		xt, ok := gf.Of.Type().(ast.HandleType)
		if !ok || !ast.TypesEqual(xt, ht) {
			return n
		}
		return &ast.If{
			Cond: &ast.Bin{Op: ast.OpEq, A: gf.Of, B: h, T: ast.BoolType{}},
			Then: rhs,
			Else: gf,
			T:    gf.T,
		}
	}
	return rewrite.Rewrite(e, visit)
}

// desugarCall lowers a built-in method call into the Assign/Seq shapes the
// rest of Mutate already understands.
func desugarCall(s *ast.CallStmt) ast.Stmt {
	switch s.Func {
	case ast.FuncAdd:
		bagT := s.Target.Type()
		return &ast.CallStmt{Target: s.Target, Func: ast.FuncAddAll, Args: []ast.Expr{&ast.Singleton{Elem: s.Args[0], T: bagT}}}
	case ast.FuncAddAll:
		return &ast.Assign{Lval: s.Target, Rhs: &ast.Bin{Op: ast.OpAdd, A: s.Target, B: s.Args[0], T: s.Target.Type()}}
	case ast.FuncRemove:
		bagT := s.Target.Type()
		return &ast.CallStmt{Target: s.Target, Func: ast.FuncRemoveAll, Args: []ast.Expr{&ast.Singleton{Elem: s.Args[0], T: bagT}}}
	case ast.FuncRemoveAll:
		return &ast.Assign{Lval: s.Target, Rhs: &ast.Bin{Op: ast.OpSub, A: s.Target, B: s.Args[0], T: s.Target.Type()}}
	default:
		panic(fmt.Sprintf("mutate.desugarCall: %s is not a built-in bag operation; route through an extension handler", s.Func))
	}
}

func (m *Mutator) handlerFor(op ast.Stmt) extension.Handler {
	cs, ok := op.(*ast.CallStmt)
	if !ok {
		return nil
	}
	return m.Registry.Lookup(cs.Target.Type())
}

// fixMap is the normalization hook for Map expressions produced by a
// mutation pass. The identity is the correct result for every reachable
// input: a map whose per-element image may have changed is decomposed by
// the sketcher's key diffing (sketch.sketchMap) before any caller could
// need an in-place repair here, so there is nothing left for this function
// to rewrite.
func fixMap(m *ast.Map) ast.Expr {
	return m
}

// collectHandleTypes is used by handles.go's ReachableHandlesByType to find
// the set of distinct Handle(T) shapes reachable from a root expression's type.
func collectHandleTypes(t ast.Type, out *set.Set[string], types map[string]ast.Type) {
	switch tt := t.(type) {
	case ast.HandleType:
		key := tt.String()
		if !out.Contains(key) {
			out.Insert(key)
			types[key] = tt
		}
	case ast.BagType:
		collectHandleTypes(tt.Elem, out, types)
	case ast.SetType:
		collectHandleTypes(tt.Elem, out, types)
	case ast.ListType:
		collectHandleTypes(tt.Elem, out, types)
	case ast.ArrayType:
		collectHandleTypes(tt.Elem, out, types)
	case ast.TupleType:
		for _, e := range tt.Elems {
			collectHandleTypes(e, out, types)
		}
	case ast.RecordType:
		for _, f := range tt.Fields {
			collectHandleTypes(f.Type, out, types)
		}
	case ast.MapType:
		collectHandleTypes(tt.Key, out, types)
		collectHandleTypes(tt.Val, out, types)
	}
}
