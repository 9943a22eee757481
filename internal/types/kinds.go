// Package types classifies ast.Type values (scalar vs. collection vs.
// numeric) and builds default values for them. There is no fixed list of
// builtin type *names* here (types are structural, not declared), so
// classification dispatches on the Go type of the ast.Type value instead of
// on a string registry.
package types

import "synthctl/internal/ast"

// IsScalar reports whether t is an Int/Bool/String/Handle — the types that
// never need element-wise recursion during substitution or codegen.
func IsScalar(t ast.Type) bool {
	switch t.(type) {
	case ast.IntType, ast.BoolType, ast.StringType, ast.HandleType:
		return true
	default:
		return false
	}
}

// IsCollection reports whether t is Bag/Set/List/Array.
func IsCollection(t ast.Type) bool {
	return ast.IsCollection(t)
}

// IsNumeric reports whether t supports +, -, and ordering as a plain
// integer, i.e. is Int. (The expression model overloads + and - onto
// Bag/Set for multiset sum/difference; IsNumeric excludes those, so it
// tells "real" numeric state apart from collection state.)
func IsNumeric(t ast.Type) bool {
	_, ok := t.(ast.IntType)
	return ok
}

// IsHeap reports whether t is a MinHeap or MaxHeap.
func IsHeap(t ast.Type) bool {
	switch t.(type) {
	case ast.MinHeapType, ast.MaxHeapType:
		return true
	default:
		return false
	}
}

// DefaultValue builds the canonical zero value expression for t: 0 for Int,
// false for Bool, "" for String, the empty bag/set/list for collections, an
// all-default record/tuple for aggregates, and the empty map for Map(K, V).
// Heap defaults are supplied by internal/heap's extension handler, not
// here, since constructing one requires a key lambda.
func DefaultValue(t ast.Type) ast.Expr {
	switch tt := t.(type) {
	case ast.IntType:
		return &ast.Literal{Value: int64(0), T: t}
	case ast.BoolType:
		return &ast.Literal{Value: false, T: t}
	case ast.StringType:
		return &ast.Literal{Value: "", T: t}
	case ast.BagType, ast.SetType, ast.ListType:
		return &ast.EmptyBag{T: t}
	case ast.TupleType:
		elems := make([]ast.Expr, len(tt.Elems))
		for i, et := range tt.Elems {
			elems[i] = DefaultValue(et)
		}
		return &ast.Tuple{Elems: elems, T: t}
	case ast.RecordType:
		fields := make([]ast.RecordFieldValue, len(tt.Fields))
		for i, f := range tt.Fields {
			fields[i] = ast.RecordFieldValue{Name: f.Name, Value: DefaultValue(f.Type)}
		}
		return &ast.MakeRecord{Fields: fields, T: t}
	case ast.MapType:
		return &ast.EmptyMap{T: t}
	default:
		panic("types.DefaultValue: no default for " + t.String())
	}
}
