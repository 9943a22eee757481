// Package ast defines the immutable, typed expression/statement/query model
// that every other synthesis component shares. Values are
// constructed once and never mutated in place; rewrites build new trees.
package ast

import "fmt"

// Expr is any typed expression node. Every node in this file carries its
// type: a T field set at construction, or a fixed type (Int for ArrayLen and
// ArrayIndexOf) — there is no untyped intermediate form, matching
// the invariant that no expression exists with an unresolved type once the
// typechecker has run.
type Expr interface {
	isExpr()
	Type() Type
	String() string
}

// BinOp enumerates the binary operators of the expression model.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpLt
	OpLe
	OpEq
	OpAnd
	OpOr
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpEq:
		return "=="
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	default:
		return "?binop?"
	}
}

// UnaryOp enumerates the unary operators of the expression model.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
	OpSum
	OpLength
	OpDistinct
	OpAreUnique
	OpAll
	OpAny
	OpExists
	OpEmpty
)

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "neg"
	case OpNot:
		return "not"
	case OpSum:
		return "Sum"
	case OpLength:
		return "Length"
	case OpDistinct:
		return "Distinct"
	case OpAreUnique:
		return "AreUnique"
	case OpAll:
		return "All"
	case OpAny:
		return "Any"
	case OpExists:
		return "Exists"
	case OpEmpty:
		return "Empty"
	default:
		return "?unop?"
	}
}

// ---- Leaves ----

// Var is a free or lambda-bound occurrence of a named variable.
type Var struct {
	Name string
	T    Type
}

func (*Var) isExpr()      {}
func (v *Var) Type() Type { return v.T }
func (v *Var) String() string { return v.Name }

// Literal is a constant value baked into the expression tree. Value holds a
// Go-native representation appropriate to T (int64 for Int, bool for Bool,
// string for String); collection/record literals are built via the
// dedicated constructors below instead of Literal.
type Literal struct {
	Value interface{}
	T     Type
}

func (*Literal) isExpr()      {}
func (l *Literal) Type() Type { return l.T }
func (l *Literal) String() string { return fmt.Sprintf("%v", l.Value) }

// ---- Operators ----

type Bin struct {
	Op   BinOp
	A, B Expr
	T    Type
}

func (*Bin) isExpr()      {}
func (b *Bin) Type() Type { return b.T }
func (b *Bin) String() string { return fmt.Sprintf("(%s %s %s)", b.A, b.Op, b.B) }

type Unary struct {
	Op UnaryOp
	A  Expr
	T  Type
}

func (*Unary) isExpr()      {}
func (u *Unary) Type() Type { return u.T }
func (u *Unary) String() string { return fmt.Sprintf("%s(%s)", u.Op, u.A) }

// ---- Control ----

type If struct {
	Cond, Then, Else Expr
	T                Type
}

func (*If) isExpr()      {}
func (i *If) Type() Type { return i.T }
func (i *If) String() string { return fmt.Sprintf("(if %s then %s else %s)", i.Cond, i.Then, i.Else) }

// ---- Records / tuples ----

type GetField struct {
	Of    Expr
	Field string
	T     Type
}

func (*GetField) isExpr()      {}
func (g *GetField) Type() Type { return g.T }
func (g *GetField) String() string { return fmt.Sprintf("%s.%s", g.Of, g.Field) }

// RecordFieldValue pairs a field name with the expression computing it,
// preserving the declaration order of the record's type.
type RecordFieldValue struct {
	Name  string
	Value Expr
}

type MakeRecord struct {
	Fields []RecordFieldValue
	T      Type
}

func (*MakeRecord) isExpr()      {}
func (m *MakeRecord) Type() Type { return m.T }
func (m *MakeRecord) String() string {
	s := "{"
	for i, f := range m.Fields {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s: %s", f.Name, f.Value)
	}
	return s + "}"
}

type TupleGet struct {
	Of    Expr
	Index int
	T     Type
}

func (*TupleGet) isExpr()      {}
func (t *TupleGet) Type() Type { return t.T }
func (t *TupleGet) String() string { return fmt.Sprintf("%s.%d", t.Of, t.Index) }

type Tuple struct {
	Elems []Expr
	T     Type
}

func (*Tuple) isExpr()      {}
func (t *Tuple) Type() Type { return t.T }
func (t *Tuple) String() string { return fmt.Sprintf("%v", t.Elems) }

// ---- Bags / sets / maps ----

type Singleton struct {
	Elem Expr
	T    Type
}

func (*Singleton) isExpr()      {}
func (s *Singleton) Type() Type { return s.T }
func (s *Singleton) String() string { return fmt.Sprintf("{%s}", s.Elem) }

type EmptyBag struct{ T Type }

func (*EmptyBag) isExpr()      {}
func (e *EmptyBag) Type() Type { return e.T }
func (e *EmptyBag) String() string { return "{}" }

// EmptyMap is the canonical empty Map(K, V) value — the default value for a
// Map-typed state variable, and the base case MakeMap reduces to when its
// source bag is empty.
type EmptyMap struct{ T Type }

func (*EmptyMap) isExpr()      {}
func (e *EmptyMap) Type() Type { return e.T }
func (e *EmptyMap) String() string { return "{:}" }

// Lambda is an anonymous single-argument function used as the body of
// Map/Filter/FlatMap/MakeMap/ArgMin/ArgMax. Arg.Name must be alpha-renamed
// by rewrite.Subst whenever substitution could capture it.
type Lambda struct {
	Arg  *Var
	Body Expr
}

func (l *Lambda) Apply(arg Expr) Expr {
	// Cheap, non-capture-avoiding application for callers that already know
	// arg cannot capture anything free in Body (e.g. the evaluator). Full
	// substitution goes through rewrite.Subst.
	return substituteVar(l.Body, l.Arg.Name, arg)
}

func (l *Lambda) FuncType() Type {
	return FuncType{Arg: l.Arg.T, Result: l.Body.Type()}
}

// FuncType is not a first-class Expr type (lambdas only appear as direct
// arguments to the combinators below) but is useful for signature checks.
type FuncType struct {
	Arg    Type
	Result Type
}

func (FuncType) isType()        {}
func (f FuncType) String() string { return fmt.Sprintf("%s -> %s", f.Arg, f.Result) }

func (l *Lambda) String() string { return fmt.Sprintf("(\\%s -> %s)", l.Arg.Name, l.Body) }

type Map struct {
	Bag Expr
	F   *Lambda
	T   Type
}

func (*Map) isExpr()      {}
func (m *Map) Type() Type { return m.T }
func (m *Map) String() string { return fmt.Sprintf("Map(%s, %s)", m.Bag, m.F) }

type Filter struct {
	Bag Expr
	F   *Lambda
	T   Type
}

func (*Filter) isExpr()      {}
func (f *Filter) Type() Type { return f.T }
func (f *Filter) String() string { return fmt.Sprintf("Filter(%s, %s)", f.Bag, f.F) }

type FlatMap struct {
	Bag Expr
	F   *Lambda
	T   Type
}

func (*FlatMap) isExpr()      {}
func (f *FlatMap) Type() Type { return f.T }
func (f *FlatMap) String() string { return fmt.Sprintf("FlatMap(%s, %s)", f.Bag, f.F) }

type MakeMap struct {
	Bag      Expr
	KeyF     *Lambda
	ValF     *Lambda
	T        Type
}

func (*MakeMap) isExpr()      {}
func (m *MakeMap) Type() Type { return m.T }
func (m *MakeMap) String() string { return fmt.Sprintf("MakeMap(%s, %s, %s)", m.Bag, m.KeyF, m.ValF) }

type MapGet struct {
	Map Expr
	Key Expr
	T   Type
}

func (*MapGet) isExpr()      {}
func (m *MapGet) Type() Type { return m.T }
func (m *MapGet) String() string { return fmt.Sprintf("%s[%s]", m.Map, m.Key) }

type MapKeys struct {
	Map Expr
	T   Type
}

func (*MapKeys) isExpr()      {}
func (m *MapKeys) Type() Type { return m.T }
func (m *MapKeys) String() string { return fmt.Sprintf("keys(%s)", m.Map) }

type In struct {
	X   Expr
	Bag Expr
	T   Type
}

func (*In) isExpr()      {}
func (i *In) Type() Type { return i.T }
func (i *In) String() string { return fmt.Sprintf("(%s in %s)", i.X, i.Bag) }

type ArgMin struct {
	Bag  Expr
	KeyF *Lambda
	T    Type
}

func (*ArgMin) isExpr()      {}
func (a *ArgMin) Type() Type { return a.T }
func (a *ArgMin) String() string { return fmt.Sprintf("ArgMin(%s, %s)", a.Bag, a.KeyF) }

type ArgMax struct {
	Bag  Expr
	KeyF *Lambda
	T    Type
}

func (*ArgMax) isExpr()      {}
func (a *ArgMax) Type() Type { return a.T }
func (a *ArgMax) String() string { return fmt.Sprintf("ArgMax(%s, %s)", a.Bag, a.KeyF) }

// ---- Calls ----

type Call struct {
	Name string
	Args []Expr
	T    Type
}

func (*Call) isExpr()      {}
func (c *Call) Type() Type { return c.T }
func (c *Call) String() string { return fmt.Sprintf("%s(%v)", c.Name, c.Args) }

// ---- Handles ----

// WithAlteredValue is a symbolic handle update: "the same handle, but as if
// its val field were new_value". It only ever appears transiently during
// mutation; internal/mutate eliminates it before synthesis proceeds further
// whenever a downstream consumer cannot handle it natively.
type WithAlteredValue struct {
	Handle   Expr
	NewValue Expr
	T        Type
}

func (*WithAlteredValue) isExpr()      {}
func (w *WithAlteredValue) Type() Type { return w.T }
func (w *WithAlteredValue) String() string {
	return fmt.Sprintf("WithAlteredValue(%s, %s)", w.Handle, w.NewValue)
}

// ---- Heaps ----

type MakeMinHeap struct {
	Bag  Expr
	KeyF *Lambda
	T    Type
}

func (*MakeMinHeap) isExpr()      {}
func (m *MakeMinHeap) Type() Type { return m.T }
func (m *MakeMinHeap) String() string { return fmt.Sprintf("MakeMinHeap(%s, %s)", m.Bag, m.KeyF) }

type MakeMaxHeap struct {
	Bag  Expr
	KeyF *Lambda
	T    Type
}

func (*MakeMaxHeap) isExpr()      {}
func (m *MakeMaxHeap) Type() Type { return m.T }
func (m *MakeMaxHeap) String() string { return fmt.Sprintf("MakeMaxHeap(%s, %s)", m.Bag, m.KeyF) }

type HeapElems struct {
	Heap Expr
	T    Type
}

func (*HeapElems) isExpr()      {}
func (h *HeapElems) Type() Type { return h.T }
func (h *HeapElems) String() string { return fmt.Sprintf("HeapElems(%s)", h.Heap) }

// HeapPeek looks at the minimum (or maximum) element. N must equal the
// current element count — validated as a well-formedness condition by
// internal/heap, not by the type system.
type HeapPeek struct {
	Heap Expr
	N    Expr
	T    Type
}

func (*HeapPeek) isExpr()      {}
func (h *HeapPeek) Type() Type { return h.T }
func (h *HeapPeek) String() string { return fmt.Sprintf("HeapPeek(%s, %s)", h.Heap, h.N) }

type HeapPeek2 struct {
	Heap Expr
	N    Expr
	T    Type
}

func (*HeapPeek2) isExpr()      {}
func (h *HeapPeek2) Type() Type { return h.T }
func (h *HeapPeek2) String() string { return fmt.Sprintf("HeapPeek2(%s, %s)", h.Heap, h.N) }

// ---- Arrays ----
// These three nodes back the array-representation codegen internal/heap
// lowers MinHeap/MaxHeap into. They are terminal: codegen output, never fed
// back through rewrite/equal/eval, so (unlike every node above) they are not
// wired into rewrite.Rewrite or eval.Eval.

type ArrayGet struct {
	Array Expr
	Index Expr
	T     Type
}

func (*ArrayGet) isExpr()      {}
func (a *ArrayGet) Type() Type { return a.T }
func (a *ArrayGet) String() string { return fmt.Sprintf("%s[%s]", a.Array, a.Index) }

type ArrayLen struct {
	Array Expr
}

func (*ArrayLen) isExpr()      {}
func (a *ArrayLen) Type() Type { return IntType{} }
func (a *ArrayLen) String() string { return fmt.Sprintf("len(%s)", a.Array) }

type ArrayIndexOf struct {
	Array Expr
	Value Expr
}

func (*ArrayIndexOf) isExpr()      {}
func (a *ArrayIndexOf) Type() Type { return IntType{} }
func (a *ArrayIndexOf) String() string { return fmt.Sprintf("indexOf(%s, %s)", a.Array, a.Value) }

// substituteVar performs single-variable structural substitution. It does
// not avoid capture of free variables in `value` by nested lambdas — it is
// only safe to use where the caller already knows no capture can occur
// (Lambda.Apply is used that way throughout eval/heap/sketch, where bound
// names are kept fresh by construction). General, capture-avoiding,
// multi-variable substitution lives in internal/rewrite.Subst.
func substituteVar(e Expr, name string, value Expr) Expr {
	sub := func(x Expr) Expr { return substituteVar(x, name, value) }
	switch n := e.(type) {
	case *Var:
		if n.Name == name {
			return value
		}
		return n
	case *Literal:
		return n
	case *Bin:
		return &Bin{Op: n.Op, A: sub(n.A), B: sub(n.B), T: n.T}
	case *Unary:
		return &Unary{Op: n.Op, A: sub(n.A), T: n.T}
	case *If:
		return &If{Cond: sub(n.Cond), Then: sub(n.Then), Else: sub(n.Else), T: n.T}
	case *GetField:
		return &GetField{Of: sub(n.Of), Field: n.Field, T: n.T}
	case *MakeRecord:
		fields := make([]RecordFieldValue, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = RecordFieldValue{Name: f.Name, Value: sub(f.Value)}
		}
		return &MakeRecord{Fields: fields, T: n.T}
	case *TupleGet:
		return &TupleGet{Of: sub(n.Of), Index: n.Index, T: n.T}
	case *Tuple:
		elems := make([]Expr, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = sub(el)
		}
		return &Tuple{Elems: elems, T: n.T}
	case *Singleton:
		return &Singleton{Elem: sub(n.Elem), T: n.T}
	case *EmptyBag:
		return n
	case *EmptyMap:
		return n
	case *Map:
		return &Map{Bag: sub(n.Bag), F: subLambda(n.F, name, value), T: n.T}
	case *Filter:
		return &Filter{Bag: sub(n.Bag), F: subLambda(n.F, name, value), T: n.T}
	case *FlatMap:
		return &FlatMap{Bag: sub(n.Bag), F: subLambda(n.F, name, value), T: n.T}
	case *MakeMap:
		return &MakeMap{Bag: sub(n.Bag), KeyF: subLambda(n.KeyF, name, value), ValF: subLambda(n.ValF, name, value), T: n.T}
	case *MapGet:
		return &MapGet{Map: sub(n.Map), Key: sub(n.Key), T: n.T}
	case *MapKeys:
		return &MapKeys{Map: sub(n.Map), T: n.T}
	case *In:
		return &In{X: sub(n.X), Bag: sub(n.Bag), T: n.T}
	case *ArgMin:
		return &ArgMin{Bag: sub(n.Bag), KeyF: subLambda(n.KeyF, name, value), T: n.T}
	case *ArgMax:
		return &ArgMax{Bag: sub(n.Bag), KeyF: subLambda(n.KeyF, name, value), T: n.T}
	case *Call:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = sub(a)
		}
		return &Call{Name: n.Name, Args: args, T: n.T}
	case *WithAlteredValue:
		return &WithAlteredValue{Handle: sub(n.Handle), NewValue: sub(n.NewValue), T: n.T}
	case *MakeMinHeap:
		return &MakeMinHeap{Bag: sub(n.Bag), KeyF: subLambda(n.KeyF, name, value), T: n.T}
	case *MakeMaxHeap:
		return &MakeMaxHeap{Bag: sub(n.Bag), KeyF: subLambda(n.KeyF, name, value), T: n.T}
	case *HeapElems:
		return &HeapElems{Heap: sub(n.Heap), T: n.T}
	case *HeapPeek:
		return &HeapPeek{Heap: sub(n.Heap), N: sub(n.N), T: n.T}
	case *HeapPeek2:
		return &HeapPeek2{Heap: sub(n.Heap), N: sub(n.N), T: n.T}
	default:
		return e
	}
}

func subLambda(l *Lambda, name string, value Expr) *Lambda {
	if l == nil {
		return nil
	}
	if l.Arg.Name == name {
		// The substituted name is shadowed by this lambda's own binder.
		return l
	}
	return &Lambda{Arg: l.Arg, Body: substituteVar(l.Body, name, value)}
}
