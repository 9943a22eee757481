package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorReporterFormatsLocationAndSuggestion(t *testing.T) {
	reporter := NewErrorReporter("balanceOf")

	err := UndefinedVariable("unknownVar", Location{Query: "balanceOf", Expr: "unknownVar + 1"}, []string{"knownVar", "anotherVar"})
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "error["+ErrorUndefinedVariable+"]")
	assert.Contains(t, formatted, "undefined variable")
	assert.Contains(t, formatted, "unknownVar")
	assert.Contains(t, formatted, "balanceOf")
	assert.Contains(t, formatted, "did you mean")
	assert.Contains(t, formatted, "knownVar")
}

func TestUndefinedVariableError(t *testing.T) {
	loc := Location{Query: "q"}

	err := UndefinedVariable("balace", loc, []string{"balance"})
	assert.Equal(t, ErrorUndefinedVariable, err.Code)
	assert.Contains(t, err.Message, "balace")
	assert.Len(t, err.Suggestions, 1)
	assert.Contains(t, err.Suggestions[0].Message, "did you mean 'balance'")

	err = UndefinedVariable("xyz", loc, []string{})
	assert.Empty(t, err.Suggestions)
	assert.NotEmpty(t, err.Notes)
}

func TestUndefinedFunctionError(t *testing.T) {
	loc := Location{Query: "q"}

	err := UndefinedFunction("sende", loc, []string{"sender"})
	assert.Equal(t, ErrorUndefinedFunction, err.Code)
	assert.Contains(t, err.Message, "sende")
	assert.Len(t, err.Suggestions, 1)
	assert.Contains(t, err.Suggestions[0].Message, "did you mean 'sender'")
}

func TestTypeMismatchError(t *testing.T) {
	loc := Location{Query: "q"}

	err := TypeMismatch("Int", "Bool", loc)
	assert.Equal(t, ErrorTypeMismatch, err.Code)
	assert.Contains(t, err.Message, "expected Int, found Bool")

	err = TypeMismatch("Bool", "Int", loc)
	assert.Contains(t, err.Suggestions[0].Message, "comparison")
}

func TestFieldNotFoundError(t *testing.T) {
	loc := Location{Query: "q"}

	err := FieldNotFound("Person", "nam", loc, []string{"name", "age", "email"})
	assert.Equal(t, ErrorFieldNotFound, err.Code)
	assert.Contains(t, err.Message, "Person has no field 'nam'")
	assert.Len(t, err.Suggestions, 1)
	assert.Contains(t, err.Suggestions[0].Message, "did you mean 'name'")
	assert.Len(t, err.Notes, 1)
	assert.Contains(t, err.Notes[0], "available fields: name, age, email")
}

func TestWarningFormatting(t *testing.T) {
	reporter := NewErrorReporter("q")

	err := UnusedVariable("total", Location{Query: "q"})
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "warning[W0001]")
	assert.Contains(t, formatted, "never read")
}

func TestStupidPlanWarning(t *testing.T) {
	err := StupidPlan("balanceOf", 12.5, 3.0)
	assert.Equal(t, WarningStupidPlan, err.Code)
	assert.True(t, IsWarning(err.Code))
	assert.Contains(t, err.Message, "balanceOf")
}

func TestEnumerationExhaustedError(t *testing.T) {
	err := EnumerationExhausted("topK", 5000)
	assert.Equal(t, ErrorEnumerationExhausted, err.Code)
	assert.Contains(t, err.Message, "topK")
	assert.Contains(t, err.Message, "5000")
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("hello", "hello"))
	assert.Equal(t, 1, levenshteinDistance("hello", "hallo"))
	assert.Equal(t, 1, levenshteinDistance("hello", "helo"))
	assert.Equal(t, 5, levenshteinDistance("hello", ""))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
}

func TestSimilarNameFinding(t *testing.T) {
	candidates := []string{"balance", "amount", "total", "balanceOf", "xyz"}

	similar := findSimilarNames("balace", candidates)
	assert.Contains(t, similar, "balance")
	assert.NotContains(t, similar, "xyz")

	similar = findSimilarNames("verydifferent", candidates)
	assert.Empty(t, similar)
}

func TestErrorLevels(t *testing.T) {
	reporter := NewErrorReporter("q")

	errorErr := CompilerError{Level: Error, Message: "test error"}
	warningErr := CompilerError{Level: Warning, Message: "test warning"}

	errorFormatted := reporter.FormatError(errorErr)
	warningFormatted := reporter.FormatError(warningErr)

	assert.Contains(t, errorFormatted, "error:")
	assert.Contains(t, warningFormatted, "warning:")
}

func TestErrorCategory(t *testing.T) {
	assert.Equal(t, "Type Checking", GetErrorCategory(ErrorUndefinedVariable))
	assert.Equal(t, "Decision Oracle", GetErrorCategory(ErrorOracleUnknown))
	assert.Equal(t, "Enumeration", GetErrorCategory(ErrorEnumerationExhausted))
	assert.Equal(t, "Warning", GetErrorCategory(WarningStupidPlan))

	assert.True(t, strings.HasPrefix(GetErrorDescription(ErrorOracleUnknown), "oracle"))
}

func TestDiagnosticsAggregatesAndIgnoresNil(t *testing.T) {
	var diag Diagnostics
	diag.Add(nil)
	assert.NoError(t, diag.ErrorOrNil())

	first := UndefinedVariable("x", Location{Query: "q"}, nil)
	second := TypeMismatch("Int", "Bool", Location{Query: "q"})
	diag.Add(&first)
	diag.Add(&second)

	err := diag.ErrorOrNil()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "undefined variable")
	assert.Contains(t, err.Error(), "type mismatch")

	var seen []string
	diag.Each(func(ce CompilerError) { seen = append(seen, ce.Code) })
	assert.Equal(t, []string{ErrorUndefinedVariable, ErrorTypeMismatch}, seen)
}

func TestCompilerErrorSatisfiesErrorInterface(t *testing.T) {
	withCode := CompilerError{Code: ErrorTypeMismatch, Message: "bad type"}
	assert.Equal(t, "[E0003] bad type", withCode.Error())

	bare := CompilerError{Message: "no code here"}
	assert.Equal(t, "no code here", bare.Error())
}
