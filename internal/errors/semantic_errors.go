package errors

import (
	"fmt"
	"strings"
)

// DiagnosticBuilder provides a fluent interface for building a CompilerError
// with suggestions, notes, and help text attached incrementally.
type DiagnosticBuilder struct {
	err CompilerError
}

// NewDiagnostic creates a new error-level diagnostic builder.
func NewDiagnostic(code, message string, loc Location) *DiagnosticBuilder {
	return &DiagnosticBuilder{err: CompilerError{Level: Error, Code: code, Message: message, Location: loc}}
}

// NewDiagnosticWarning creates a new warning-level diagnostic builder.
func NewDiagnosticWarning(code, message string, loc Location) *DiagnosticBuilder {
	return &DiagnosticBuilder{err: CompilerError{Level: Warning, Code: code, Message: message, Location: loc}}
}

func (b *DiagnosticBuilder) WithSuggestion(message string) *DiagnosticBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

func (b *DiagnosticBuilder) WithReplacement(message, replacement string) *DiagnosticBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message, Replacement: replacement})
	return b
}

func (b *DiagnosticBuilder) WithNote(note string) *DiagnosticBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

func (b *DiagnosticBuilder) WithHelp(help string) *DiagnosticBuilder {
	b.err.HelpText = help
	return b
}

func (b *DiagnosticBuilder) Build() CompilerError {
	return b.err
}

// UndefinedVariable reports a reference to a variable not bound in scope.
func UndefinedVariable(name string, loc Location, similarNames []string) CompilerError {
	b := NewDiagnostic(ErrorUndefinedVariable, fmt.Sprintf("undefined variable '%s'", name), loc)
	if len(similarNames) > 0 {
		b = b.WithSuggestion(didYouMean(similarNames))
	} else {
		b = b.WithNote("variables are bound by query arguments, lambda binders, or enclosing let-statements")
	}
	return b.Build()
}

// UndefinedFunction reports a call to a name that resolves to neither a
// builtin operation nor a declared state-variable method.
func UndefinedFunction(name string, loc Location, similarNames []string) CompilerError {
	b := NewDiagnostic(ErrorUndefinedFunction, fmt.Sprintf("call to '%s' does not resolve to a builtin or state-variable method", name), loc)
	if len(similarNames) > 0 {
		b = b.WithSuggestion(didYouMean(similarNames))
	}
	return b.WithHelp("calls must target a recognized builtin or a method on a declared state variable").Build()
}

// TypeMismatch reports that an expression's type does not match the context
// it appears in.
func TypeMismatch(expected, actual string, loc Location) CompilerError {
	b := NewDiagnostic(ErrorTypeMismatch, fmt.Sprintf("type mismatch: expected %s, found %s", expected, actual), loc)
	if expected == "Bool" && actual != "Bool" {
		b = b.WithSuggestion("use a comparison or membership test to produce a boolean value")
	}
	return b.Build()
}

// FieldNotFound reports access to a record field that does not exist.
func FieldNotFound(recordType, fieldName string, loc Location, availableFields []string) CompilerError {
	b := NewDiagnostic(ErrorFieldNotFound, fmt.Sprintf("record %s has no field '%s'", recordType, fieldName), loc)
	if similar := findSimilarNames(fieldName, availableFields); len(similar) > 0 {
		b = b.WithSuggestion(didYouMean(similar))
	}
	if len(availableFields) > 0 {
		b = b.WithNote(fmt.Sprintf("available fields: %s", strings.Join(availableFields, ", ")))
	}
	return b.Build()
}

// DuplicateField reports a record literal that assigns the same field twice.
func DuplicateField(fieldName string, loc Location) CompilerError {
	return NewDiagnostic(ErrorDuplicateField, fmt.Sprintf("duplicate field '%s' in record literal", fieldName), loc).
		WithNote("each field can only be specified once in a record literal").
		Build()
}

// MissingField reports a record literal that omits a required field.
func MissingField(recordType, fieldName string, loc Location) CompilerError {
	return NewDiagnostic(ErrorMissingField, fmt.Sprintf("missing field '%s' in literal of record %s", fieldName, recordType), loc).
		WithSuggestion(fmt.Sprintf("add the missing field: %s = <value>", fieldName)).
		Build()
}

// InvalidOperation reports an operator applied to incompatible operand types.
func InvalidOperation(op, leftType, rightType string, loc Location) CompilerError {
	b := NewDiagnostic(ErrorInvalidBinaryOperation, fmt.Sprintf("invalid operation: %s %s %s", leftType, op, rightType), loc)
	switch op {
	case "+", "-", "*":
		b = b.WithNote("arithmetic is only defined over Int")
	case "and", "or":
		b = b.WithNote("logical connectives require Bool operands on both sides")
	}
	return b.Build()
}

// DuplicateDeclaration reports two state variables or queries sharing a name.
func DuplicateDeclaration(name string, loc Location) CompilerError {
	return NewDiagnostic(ErrorDuplicateDeclaration, fmt.Sprintf("duplicate declaration: %s", name), loc).
		WithSuggestion(fmt.Sprintf("rename one of the declarations of '%s'", name)).
		Build()
}

// UnsupportedConstruct reports an expression or statement shape that no
// component (typecheck, rewrite, mutate, sketch) knows how to process.
func UnsupportedConstruct(description string, loc Location) CompilerError {
	return NewDiagnostic(ErrorUnsupportedConstruct, fmt.Sprintf("unsupported construct: %s", description), loc).
		WithHelp("this form was not reachable by any enumeration fragment recognized by the toolchain").
		Build()
}

// UnsketchableUpdate reports that no update sketch could be derived for a
// state variable under a given method.
func UnsketchableUpdate(stateVar, method string, loc Location) CompilerError {
	return NewDiagnostic(ErrorUnsketchableUpdate, fmt.Sprintf("cannot derive an update sketch for '%s' under method '%s'", stateVar, method), loc).
		WithNote("decomposition bottoms out at a type sketch_update does not know how to split further").
		Build()
}

// OracleUnknown reports that the decision oracle could not resolve validity
// within its supported fragment.
func OracleUnknown(goal string, loc Location) CompilerError {
	return NewDiagnostic(ErrorOracleUnknown, fmt.Sprintf("oracle returned unknown deciding: %s", goal), loc).
		WithHelp("the goal likely falls outside quantifier-free linear integer arithmetic").
		Build()
}

// AliasingRewriteFailed reports that rewriting a handle-aliasing comparison
// produced an expression that fails to type-check.
func AliasingRewriteFailed(handleVar string, loc Location) CompilerError {
	return NewDiagnostic(ErrorAliasingRewriteFailed, fmt.Sprintf("handle-aliasing rewrite for '%s' produced an ill-typed expression", handleVar), loc).
		Build()
}

// AlteredValueElimFailed reports that WithAlteredValue could not be removed
// from a candidate expression before code generation.
func AlteredValueElimFailed(loc Location) CompilerError {
	return NewDiagnostic(ErrorAlteredValueElimFailed, "could not eliminate WithAlteredValue before code generation", loc).
		WithNote("every WithAlteredValue must be resolved by tupling the handle with its value before this point").
		Build()
}

// EnumerationExhausted reports that the enumerator hit its cost cap without
// finding a semantically valid plan for some query.
func EnumerationExhausted(query string, costCap int) CompilerError {
	return NewDiagnostic(ErrorEnumerationExhausted, fmt.Sprintf("no valid plan found for '%s' within cost cap %d", query, costCap), Location{Query: query}).
		WithHelp("raise the cost cap or simplify the query's assumptions").
		Build()
}

// IllFormedPlan reports that a candidate plan failed a well-formedness
// check and was discarded before consideration by the oracle.
func IllFormedPlan(reason string, loc Location) CompilerError {
	return NewDiagnostic(ErrorIllFormedPlan, fmt.Sprintf("ill-formed plan: %s", reason), loc).Build()
}

// UnusedVariable reports a warning for a state variable never read by any
// query.
func UnusedVariable(name string, loc Location) CompilerError {
	return NewDiagnosticWarning(WarningUnusedVariable, fmt.Sprintf("state variable '%s' is declared but never read by a query", name), loc).
		Build()
}

// StupidPlan reports a warning for a plan that is valid but provably no
// cheaper than an equivalence-class representative already accepted.
func StupidPlan(query string, cost, bestCost float64) CompilerError {
	return NewDiagnosticWarning(WarningStupidPlan, fmt.Sprintf("plan for '%s' costs %.2f but a representative costing %.2f was already found", query, cost, bestCost), Location{Query: query}).
		Build()
}

func didYouMean(candidates []string) string {
	if len(candidates) == 1 {
		return fmt.Sprintf("did you mean '%s'?", candidates[0])
	}
	return fmt.Sprintf("did you mean one of: '%s'?", strings.Join(candidates, "', '"))
}

func findSimilarNames(target string, candidates []string) []string {
	var similar []string
	for _, candidate := range candidates {
		if levenshteinDistance(target, candidate) <= 2 && len(candidate) > 2 {
			similar = append(similar, candidate)
		}
	}
	return similar
}

// levenshteinDistance is a small edit-distance helper used to power
// "did you mean" suggestions without pulling in a dedicated fuzzy-matching
// dependency for what is, across the whole pack, a single leaf utility.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}
	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min3(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}
	return matrix[len(a)][len(b)]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
