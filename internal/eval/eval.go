package eval

import (
	"sort"

	"synthctl/internal/ast"
)

// Env binds free variables and handle contents for a single evaluation.
// Handles is keyed by Handle.ID; two Var values that evaluate to handles
// with the same ID observe the same entry, which is how aliasing falls out
// of plain map lookup rather than needing bespoke tracking.
type Env struct {
	Vars    map[string]Value
	Handles map[string]Value
}

func NewEnv() *Env {
	return &Env{Vars: map[string]Value{}, Handles: map[string]Value{}}
}

func (e *Env) WithVar(name string, v Value) *Env {
	out := &Env{Vars: make(map[string]Value, len(e.Vars)+1), Handles: e.Handles}
	for k, vv := range e.Vars {
		out.Vars[k] = vv
	}
	out.Vars[name] = v
	return out
}

// Eval computes the value of e under env. It panics on a type it does not
// recognize or a shape eval was never meant to reach (e.g. WithAlteredValue,
// which must be eliminated by internal/mutate before an expression is ever
// evaluated).
func Eval(e ast.Expr, env *Env) Value {
	switch n := e.(type) {
	case *ast.Var:
		v, ok := env.Vars[n.Name]
		if !ok {
			panic("eval.Eval: unbound variable " + n.Name)
		}
		return v
	case *ast.Literal:
		return n.Value
	case *ast.Bin:
		return evalBin(n, env)
	case *ast.Unary:
		return evalUnary(n, env)
	case *ast.If:
		if Eval(n.Cond, env).(bool) {
			return Eval(n.Then, env)
		}
		return Eval(n.Else, env)
	case *ast.GetField:
		return evalGetField(n, env)
	case *ast.MakeRecord:
		fields := map[string]Value{}
		for _, f := range n.Fields {
			fields[f.Name] = Eval(f.Value, env)
		}
		return &Record{Fields: fields}
	case *ast.TupleGet:
		t := Eval(n.Of, env).([]Value)
		return t[n.Index]
	case *ast.Tuple:
		elems := make([]Value, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = Eval(el, env)
		}
		return elems
	case *ast.Singleton:
		return NewBag(Eval(n.Elem, env))
	case *ast.EmptyBag:
		return NewBag()
	case *ast.EmptyMap:
		mt := n.T.(ast.MapType)
		return NewMapVal(DefaultForType(mt.Val))
	case *ast.Map:
		src := Eval(n.Bag, env).(*Bag)
		out := make([]Value, len(src.Elems))
		for i, x := range src.Elems {
			out[i] = Eval(n.F.Apply(litOf(x, n.F.Arg.T)), env)
		}
		return &Bag{Elems: out}
	case *ast.Filter:
		src := Eval(n.Bag, env).(*Bag)
		var out []Value
		for _, x := range src.Elems {
			if Eval(n.F.Apply(litOf(x, n.F.Arg.T)), env).(bool) {
				out = append(out, x)
			}
		}
		return &Bag{Elems: out}
	case *ast.FlatMap:
		src := Eval(n.Bag, env).(*Bag)
		var out []Value
		for _, x := range src.Elems {
			inner := Eval(n.F.Apply(litOf(x, n.F.Arg.T)), env).(*Bag)
			out = append(out, inner.Elems...)
		}
		return &Bag{Elems: out}
	case *ast.MakeMap:
		src := Eval(n.Bag, env).(*Bag)
		mt := n.T.(ast.MapType)
		m := NewMapVal(DefaultForType(mt.Val))
		for _, x := range src.Elems {
			k := Eval(n.KeyF.Apply(litOf(x, n.KeyF.Arg.T)), env)
			v := Eval(n.ValF.Apply(litOf(x, n.ValF.Arg.T)), env)
			m.Set(k, v)
		}
		return m
	case *ast.MapGet:
		m := Eval(n.Map, env).(*MapVal)
		k := Eval(n.Key, env)
		return m.Get(k)
	case *ast.MapKeys:
		m := Eval(n.Map, env).(*MapVal)
		return &Bag{Elems: append([]Value(nil), m.Keys...)}
	case *ast.In:
		x := Eval(n.X, env)
		b := Eval(n.Bag, env).(*Bag)
		for _, e := range b.Elems {
			if Equal(e, x) {
				return true
			}
		}
		return false
	case *ast.ArgMin:
		return evalArgOpt(n.Bag, n.KeyF, env, true)
	case *ast.ArgMax:
		return evalArgOpt(n.Bag, n.KeyF, env, false)
	case *ast.WithAlteredValue:
		panic("eval.Eval: WithAlteredValue must be eliminated before evaluation")
	case *ast.MakeMinHeap:
		return evalMakeHeap(n.Bag, n.KeyF, env, true)
	case *ast.MakeMaxHeap:
		return evalMakeHeap(n.Bag, n.KeyF, env, false)
	case *ast.HeapElems:
		h := Eval(n.Heap, env).(*Heap)
		return &Bag{Elems: append([]Value(nil), h.Elems...)}
	case *ast.HeapPeek:
		h := Eval(n.Heap, env).(*Heap)
		return heapPeek(h, 0)
	case *ast.HeapPeek2:
		h := Eval(n.Heap, env).(*Heap)
		return heapPeek(h, 1)
	case *ast.Call:
		panic("eval.Eval: Call requires a call-name environment not modeled by the bare evaluator")
	default:
		panic("eval.Eval: unsupported expression node")
	}
}

// litOf wraps a raw Value back into an ast.Literal so it can pass through
// Lambda.Apply, which operates on the Expr tree, not on eval Values.
func litOf(v Value, t ast.Type) ast.Expr {
	return &ast.Literal{Value: v, T: t}
}

func evalBin(n *ast.Bin, env *Env) Value {
	switch n.Op {
	case ast.OpAnd:
		return Eval(n.A, env).(bool) && Eval(n.B, env).(bool)
	case ast.OpOr:
		return Eval(n.A, env).(bool) || Eval(n.B, env).(bool)
	}
	a, b := Eval(n.A, env), Eval(n.B, env)
	if ab, ok := a.(*Bag); ok {
		bb := b.(*Bag)
		switch n.Op {
		case ast.OpAdd:
			return &Bag{Elems: append(append([]Value(nil), ab.Elems...), bb.Elems...)}
		case ast.OpSub:
			return &Bag{Elems: multisetDiff(ab.Elems, bb.Elems)}
		case ast.OpEq:
			return Key(a) == Key(b)
		}
	}
	ai, aIsInt := a.(int64)
	bi, bIsInt := b.(int64)
	if aIsInt && bIsInt {
		switch n.Op {
		case ast.OpAdd:
			return ai + bi
		case ast.OpSub:
			return ai - bi
		case ast.OpMul:
			return ai * bi
		case ast.OpLt:
			return ai < bi
		case ast.OpLe:
			return ai <= bi
		case ast.OpEq:
			return ai == bi
		}
	}
	if n.Op == ast.OpEq {
		return Key(a) == Key(b)
	}
	panic("eval.evalBin: unsupported operand/operator combination")
}

func evalUnary(n *ast.Unary, env *Env) Value {
	switch n.Op {
	case ast.OpNeg:
		return -Eval(n.A, env).(int64)
	case ast.OpNot:
		return !Eval(n.A, env).(bool)
	case ast.OpSum:
		b := Eval(n.A, env).(*Bag)
		var total int64
		for _, x := range b.Elems {
			total += x.(int64)
		}
		return total
	case ast.OpLength:
		b := Eval(n.A, env).(*Bag)
		return int64(len(b.Elems))
	case ast.OpDistinct:
		b := Eval(n.A, env).(*Bag)
		return &Bag{Elems: distinct(b.Elems)}
	case ast.OpAreUnique:
		b := Eval(n.A, env).(*Bag)
		return len(distinct(b.Elems)) == len(b.Elems)
	case ast.OpAll:
		b := Eval(n.A, env).(*Bag)
		for _, x := range b.Elems {
			if !x.(bool) {
				return false
			}
		}
		return true
	case ast.OpAny:
		b := Eval(n.A, env).(*Bag)
		for _, x := range b.Elems {
			if x.(bool) {
				return true
			}
		}
		return false
	case ast.OpExists:
		b := Eval(n.A, env).(*Bag)
		return len(b.Elems) > 0
	case ast.OpEmpty:
		b := Eval(n.A, env).(*Bag)
		return len(b.Elems) == 0
	default:
		panic("eval.evalUnary: unsupported operator")
	}
}

func evalGetField(n *ast.GetField, env *Env) Value {
	of := Eval(n.Of, env)
	if h, ok := of.(*Handle); ok && n.Field == "val" {
		v, ok := env.Handles[h.ID]
		if !ok {
			panic("eval.Eval: handle " + h.ID + " has no entry in Env.Handles")
		}
		return v
	}
	rec := of.(*Record)
	return rec.Fields[n.Field]
}

func evalArgOpt(bagExpr ast.Expr, keyF *ast.Lambda, env *Env, wantMin bool) Value {
	b := Eval(bagExpr, env).(*Bag)
	if len(b.Elems) == 0 {
		panic("eval.Eval: ArgMin/ArgMax over an empty bag")
	}
	best := b.Elems[0]
	bestKey := Eval(keyF.Apply(litOf(best, keyF.Arg.T)), env)
	for _, x := range b.Elems[1:] {
		k := Eval(keyF.Apply(litOf(x, keyF.Arg.T)), env)
		if lessValue(k, bestKey) == wantMin {
			best, bestKey = x, k
		}
	}
	return best
}

func lessValue(a, b Value) bool {
	ai, aok := a.(int64)
	bi, bok := b.(int64)
	if aok && bok {
		return ai < bi
	}
	return Key(a) < Key(b)
}

func evalMakeHeap(bagExpr ast.Expr, keyF *ast.Lambda, env *Env, min bool) Value {
	b := Eval(bagExpr, env).(*Bag)
	h := &Heap{Min: min}
	for _, x := range b.Elems {
		h.Elems = append(h.Elems, x)
		h.Keys = append(h.Keys, Eval(keyF.Apply(litOf(x, keyF.Arg.T)), env))
	}
	return h
}

// heapPeek returns the winning (skip=0) or runner-up (skip=1) element under
// the heap's ordering.
func heapPeek(h *Heap, skip int) Value {
	type pair struct {
		elem Value
		key  Value
	}
	pairs := make([]pair, len(h.Elems))
	for i := range h.Elems {
		pairs[i] = pair{h.Elems[i], h.Keys[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if h.Min {
			return lessValue(pairs[i].key, pairs[j].key)
		}
		return lessValue(pairs[j].key, pairs[i].key)
	})
	if skip >= len(pairs) {
		panic("eval.heapPeek: skip beyond heap size")
	}
	return pairs[skip].elem
}

func distinct(elems []Value) []Value {
	seen := map[string]bool{}
	var out []Value
	for _, e := range elems {
		k := Key(e)
		if !seen[k] {
			seen[k] = true
			out = append(out, e)
		}
	}
	return out
}

// multisetDiff removes, for each element of b, one matching occurrence from
// a (bag difference, not set difference).
func multisetDiff(a, b []Value) []Value {
	remaining := map[string]int{}
	for _, x := range b {
		remaining[Key(x)]++
	}
	var out []Value
	for _, x := range a {
		k := Key(x)
		if remaining[k] > 0 {
			remaining[k]--
			continue
		}
		out = append(out, x)
	}
	return out
}
