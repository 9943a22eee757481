package rewrite

import (
	"fmt"
	"sync/atomic"

	"github.com/hashicorp/go-set/v3"
	"synthctl/internal/ast"
)

var freshCounter uint64

// FreshName returns a name guaranteed to be unique across the process,
// prefixed with `prefix`. Query names minted by the sketcher and binder
// names minted during capture-avoiding substitution both go through this:
// a single monotonic counter rather than a random identifier (there is no
// reason to pull in a UUID library for a purely internal, single-process
// counter).
func FreshName(prefix string) string {
	n := atomic.AddUint64(&freshCounter, 1)
	return fmt.Sprintf("%s%d", prefix, n)
}

// FreshVar returns a variable of type t whose name does not appear in avoid.
func FreshVar(t ast.Type, avoid *set.Set[string]) *ast.Var {
	for {
		name := FreshName("v")
		if avoid == nil || !avoid.Contains(name) {
			return &ast.Var{Name: name, T: t}
		}
	}
}
