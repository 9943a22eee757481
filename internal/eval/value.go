// Package eval is a reference interpreter for the expression model: given an
// environment, it computes the value of an expression directly, with no
// symbolic reasoning. It exists to state and test the soundness properties
// of mutate/sketch/heap and to build counterexample models for
// the oracle and the enumerator's output vectors.
package eval

import (
	"fmt"
	"sort"
	"strings"

	"synthctl/internal/ast"
)

// Value is the result of evaluating an expression. Concrete representations:
// int64 (Int), bool (Bool), string (String), *Bag (Bag/Set/List), *MapVal
// (Map), []Value (Tuple), *Record (Record), *Handle (Handle), *Heap (Min/MaxHeap).
type Value interface{}

// Bag is an unordered multiset of values.
type Bag struct {
	Elems []Value
}

func NewBag(elems ...Value) *Bag { return &Bag{Elems: elems} }

func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Elems)
}

// Record is a value of a RecordType, keyed by field name.
type Record struct {
	Fields map[string]Value
}

// Handle is a value of a HandleType: a bare identity. Its current contents
// live in the Env's Handles map, not on the Handle itself, so that aliasing
// (two Handle values with the same ID always share a value) falls out of
// map lookup rather than needing to be maintained as an invariant on copies.
type Handle struct {
	ID string
}

// MapVal is a value of a MapType: explicit entries plus the default value
// returned for any key not present.
type MapVal struct {
	Keys    []Value // insertion order, for deterministic iteration
	Entries map[string]Value
	Default Value
}

func NewMapVal(def Value) *MapVal {
	return &MapVal{Entries: map[string]Value{}, Default: def}
}

func (m *MapVal) Get(k Value) Value {
	if v, ok := m.Entries[Key(k)]; ok {
		return v
	}
	return m.Default
}

func (m *MapVal) Set(k, v Value) {
	key := Key(k)
	if _, exists := m.Entries[key]; !exists {
		m.Keys = append(m.Keys, k)
	}
	m.Entries[key] = v
}

func (m *MapVal) Delete(k Value) {
	key := Key(k)
	if _, exists := m.Entries[key]; !exists {
		return
	}
	delete(m.Entries, key)
	for i, kk := range m.Keys {
		if Key(kk) == key {
			m.Keys = append(m.Keys[:i], m.Keys[i+1:]...)
			break
		}
	}
}

// Heap is a value of a MinHeap/MaxHeap type: a bag of (elem, key) pairs plus
// an ordering direction. It is the evaluator's stand-in for the algebraic
// heap layer. The array-backed representation lives in internal/heap and is
// not interpreted by this package.
type Heap struct {
	Elems []Value
	Keys  []Value
	Min   bool // true for MinHeap, false for MaxHeap
}

// Key renders a Value into a canonical string usable as a map/set key,
// enough to support multiset/membership operations without a general
// hashing library — values here are always built from Int/Bool/String/
// Tuple/Record/Handle-identity leaves.
func Key(v Value) string {
	switch x := v.(type) {
	case int64:
		return fmt.Sprintf("i%d", x)
	case bool:
		return fmt.Sprintf("b%v", x)
	case string:
		return fmt.Sprintf("s%q", x)
	case *Handle:
		return "h" + x.ID
	case []Value:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = Key(e)
		}
		return "(" + strings.Join(parts, ",") + ")"
	case *Record:
		names := make([]string, 0, len(x.Fields))
		for n := range x.Fields {
			names = append(names, n)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, n := range names {
			parts[i] = n + "=" + Key(x.Fields[n])
		}
		return "{" + strings.Join(parts, ",") + "}"
	case *Bag:
		keys := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			keys[i] = Key(e)
		}
		sort.Strings(keys)
		return "bag[" + strings.Join(keys, ",") + "]"
	case *MapVal:
		entries := make([]string, 0, len(x.Entries))
		for k, v := range x.Entries {
			entries = append(entries, k+"->"+Key(v))
		}
		sort.Strings(entries)
		return "map[" + strings.Join(entries, ",") + "]"
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Equal reports whether two values are the same under the data model's
// notion of equality (handles compare by identity, bags as multisets).
func Equal(a, b Value) bool {
	return Key(a) == Key(b)
}

// DefaultForType builds the zero/empty value for t, used when a Map is
// queried at an absent key and when seeding environments.
func DefaultForType(t ast.Type) Value {
	switch x := t.(type) {
	case ast.IntType:
		return int64(0)
	case ast.BoolType:
		return false
	case ast.StringType:
		return ""
	case ast.BagType, ast.SetType, ast.ListType, ast.ArrayType:
		return NewBag()
	case ast.TupleType:
		elems := make([]Value, len(x.Elems))
		for i, et := range x.Elems {
			elems[i] = DefaultForType(et)
		}
		return elems
	case ast.RecordType:
		fields := map[string]Value{}
		for _, f := range x.Fields {
			fields[f.Name] = DefaultForType(f.Type)
		}
		return &Record{Fields: fields}
	case ast.MapType:
		return NewMapVal(DefaultForType(x.Val))
	case ast.HandleType:
		return &Handle{ID: ""}
	default:
		panic("eval.DefaultForType: unsupported type")
	}
}
