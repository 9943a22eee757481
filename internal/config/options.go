// Package config carries the toolchain's process-wide flags as an explicit
// value instead of package-level globals, threaded into every constructor
// that reads them.
package config

// Options is passed explicitly into sketch.Sketcher, mutate.Mutator, and
// enumerate.Enumerator constructors.
type Options struct {
	// SkipStatelessSynthesis inlines a sub-expression with no state-variable
	// dependency instead of promoting it to its own sub-query.
	SkipStatelessSynthesis bool

	// UpdateNumbersWithDeltas updates numeric derived values via a delta
	// sub-query (lval := lval + delta) instead of recomputing from scratch.
	UpdateNumbersWithDeltas bool

	// MaxRoundsWithoutProgress is how many consecutive non-productive
	// enumeration rounds (past MinSizeBeforeStopping) the enumerator
	// tolerates before yielding stop. Exposed here rather than hardcoded so
	// tests can shrink it.
	MaxRoundsWithoutProgress int

	// MinSizeBeforeStopping is the plan size past which the no-progress
	// counter is consulted.
	MinSizeBeforeStopping int
}

// Default returns the production thresholds.
func Default() Options {
	return Options{
		SkipStatelessSynthesis:   false,
		UpdateNumbersWithDeltas:  false,
		MaxRoundsWithoutProgress: 4,
		MinSizeBeforeStopping:    6,
	}
}
