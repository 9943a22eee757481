// Package extension defines the registry contract for non-builtin types —
// currently just the heap family — so that mutate/sketch can delegate to a
// type-specific handler instead of special-casing heaps inline.
package extension

import "synthctl/internal/ast"

// MakeSubgoal matches the signature the sketcher hands to a Handler so it
// can factor part of its own state maintenance into a re-synthesizable
// sub-query, without extension importing the sketch package (which itself
// calls into extension, to dispatch heap-typed lvals back out).
type MakeSubgoal func(expr ast.Expr, extraAssumptions []ast.Expr, doc string) ast.Expr

// Handler is the contract an extension type must implement.
// Implementations are registered once per concrete type and looked up by
// the owned Go type of the ast.Type value.
type Handler interface {
	// OwnedTypes returns the ast.Type variants this handler is responsible
	// for (e.g. MinHeapType, MaxHeapType).
	OwnedTypes() []ast.Type

	// DefaultValue returns the zero value for t, recursing into nested
	// types via recurse where needed.
	DefaultValue(t ast.Type, recurse func(ast.Type) ast.Expr) ast.Expr

	// CheckWF reports a well-formedness violation for e, or nil if e is
	// well-formed (e.g. HeapPeek(h, n) with n != |HeapElems(h)|).
	CheckWF(e ast.Expr) error

	// Typecheck resolves/validates e's type, reporting failures through
	// reportErr instead of panicking.
	Typecheck(e ast.Expr, typecheck func(ast.Expr) ast.Expr, reportErr func(error)) ast.Expr

	// StorageSize estimates the concrete storage cost of e for a plan's
	// cost model, given the current count of tracked elements k.
	StorageSize(e ast.Expr, k int) int

	// EncodingType returns the type used to reason about t symbolically
	// (a heap of (E, K) encodes as Bag((E, K))).
	EncodingType(t ast.Type) ast.Type

	// Encode lowers e into its encoding type's representation.
	Encode(e ast.Expr) ast.Expr

	// MutateCall computes the new symbolic value of s.Target after a
	// built-in update method call whose target type this handler owns, for
	// use by mutate.Mutator.Mutate where the generic Bag +/- desugaring
	// doesn't type-check (a heap isn't itself a Bag it can be added to).
	MutateCall(s *ast.CallStmt) ast.Expr

	// MutateInPlace computes the statement that keeps a concrete
	// representation of lval in sync with an abstract update, emitting
	// sub-queries through makeSubgoal.
	MutateInPlace(lval, old ast.Expr, op ast.Stmt, assumptions []ast.Expr, makeSubgoal MakeSubgoal) ast.Stmt

	// RepType returns the concrete (array/variable-backed) representation
	// type used by codegen for t.
	RepType(t ast.Type) ast.Type

	// Codegen lowers e into concrete code, given concretization functions
	// mapping an abstract state-variable name to its chosen representation.
	Codegen(e ast.Expr, concretize map[string]ast.Expr) ast.Expr

	// ImplementStmt lowers a statement over the abstract type into
	// concrete code.
	ImplementStmt(s ast.Stmt, concretize map[string]ast.Expr) ast.Stmt
}

// Registry maps an ast.Type's dynamic Go type name to its Handler.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register associates a Handler with every type it owns.
func (r *Registry) Register(h Handler) {
	for _, t := range h.OwnedTypes() {
		r.handlers[typeKey(t)] = h
	}
}

// Lookup returns the Handler owning t, or nil if t is a builtin type with
// no registered extension.
func (r *Registry) Lookup(t ast.Type) Handler {
	return r.handlers[typeKey(t)]
}

func typeKey(t ast.Type) string {
	switch t.(type) {
	case ast.MinHeapType:
		return "MinHeap"
	case ast.MaxHeapType:
		return "MaxHeap"
	default:
		return "?"
	}
}
