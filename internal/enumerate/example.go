package enumerate

import (
	"fmt"

	"synthctl/internal/eval"
)

// Example is one accumulated counterexample: a single concrete element
// (reconstructed from the model's flattened field assignments) plus a
// binding for every free variable the target mentions.
// Sorted records the model's "_sorted" boolean; nothing in the enumerator
// reads it.
type Example struct {
	Elem   eval.Value
	Vars   map[string]eval.Value
	Sorted bool
}

// OutputVector is a fingerprint over every accumulated Example: one bit per
// example recording whether the formula holds there. Two candidates with
// equal output vectors are indistinguishable by every counterexample seen
// so far, which is what pruning and equivalence-class caching key on.
type OutputVector string

func (v OutputVector) String() string { return fmt.Sprintf("ov(%s)", string(v)) }
