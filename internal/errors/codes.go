package errors

// Error code ranges:
// E0001-E0099: Type-checking and well-formedness errors
// E0100-E0199: Unsupported construct errors
// E0200-E0299: Decision-oracle errors
// E0300-E0399: Mutation/state-maintenance errors
// E0400-E0499: Enumeration/search errors
// E0800-E0899: Warning codes

const (
	// E0001: Variable resolution errors
	ErrorUndefinedVariable = "E0001"

	// E0002: Call-name resolution errors
	ErrorUndefinedFunction = "E0002"

	// E0003: Type compatibility errors
	ErrorTypeMismatch = "E0003"

	// E0004: Query return type errors
	ErrorInvalidReturnType = "E0004"

	// E0005: Record field access errors
	ErrorFieldNotFound = "E0005"

	// E0006: Record literal validation errors
	ErrorDuplicateField = "E0006"

	// E0007: Missing required fields in a record literal
	ErrorMissingField = "E0007"

	// E0008: Binary operation type errors
	ErrorInvalidBinaryOperation = "E0008"

	// E0009: Duplicate state variable or query declaration
	ErrorDuplicateDeclaration = "E0009"

	// E0017: Assumption references a variable outside query scope
	ErrorUninitializedVariable = "E0017"

	// E0021: Call to a state variable never declared
	ErrorUndefinedModule = "E0021"

	// E0100: Expression or statement shape not supported by any component
	ErrorUnsupportedConstruct = "E0100"

	// E0101: Update sketch could not be generated for this state variable/query pair
	ErrorUnsketchableUpdate = "E0101"

	// E0200: Oracle returned unknown (outside QF_LIA, or solver gave up)
	ErrorOracleUnknown = "E0200"

	// E0201: Oracle push/pop scope misuse (pop without matching push)
	ErrorOracleScopeMisuse = "E0201"

	// E0300: Handle aliasing rewrite produced an ill-typed expression
	ErrorAliasingRewriteFailed = "E0300"

	// E0301: WithAlteredValue could not be eliminated
	ErrorAlteredValueElimFailed = "E0301"

	// E0400: Enumeration exceeded its cost cap before finding a valid plan
	ErrorEnumerationExhausted = "E0400"

	// E0401: Candidate plan rejected by well-formedness check
	ErrorIllFormedPlan = "E0401"

	// W0001: Unused state variable warning
	WarningUnusedVariable = "W0001"

	// W0002: Stupid plan warning (semantically valid but needlessly expensive)
	WarningStupidPlan = "W0002"
)

// GetErrorDescription returns a human-readable description of the error code.
func GetErrorDescription(code string) string {
	switch code {
	case ErrorUndefinedVariable:
		return "variable is used but not defined in the current scope"
	case ErrorUndefinedFunction:
		return "call name is not a recognized builtin or state-variable method"
	case ErrorTypeMismatch:
		return "expression type does not match the expected type"
	case ErrorInvalidReturnType:
		return "query return expression does not match its declared return type"
	case ErrorFieldNotFound:
		return "record field does not exist on this record type"
	case ErrorDuplicateField:
		return "duplicate field in record literal"
	case ErrorMissingField:
		return "required field missing in record literal"
	case ErrorInvalidBinaryOperation:
		return "binary operation not supported for these operand types"
	case ErrorDuplicateDeclaration:
		return "duplicate state variable or query declaration"
	case ErrorUninitializedVariable:
		return "assumption or query body references a variable out of scope"
	case ErrorUndefinedModule:
		return "call targets a state variable that was never declared"
	case ErrorUnsupportedConstruct:
		return "expression or statement shape is not supported by any synthesis component"
	case ErrorUnsketchableUpdate:
		return "no update sketch could be derived for this state variable under this query"
	case ErrorOracleUnknown:
		return "oracle could not determine validity within its fragment"
	case ErrorOracleScopeMisuse:
		return "oracle scope was popped without a matching push"
	case ErrorAliasingRewriteFailed:
		return "handle-aliasing rewrite produced an expression that fails to type-check"
	case ErrorAlteredValueElimFailed:
		return "WithAlteredValue could not be eliminated from the candidate expression"
	case ErrorEnumerationExhausted:
		return "enumeration reached its cost cap before finding a semantically valid plan"
	case ErrorIllFormedPlan:
		return "candidate plan failed a well-formedness check and was discarded"
	case WarningUnusedVariable:
		return "state variable is declared but never read by any query"
	case WarningStupidPlan:
		return "plan is valid but provably no cheaper than a representative already in its equivalence class"
	default:
		return "unknown error code"
	}
}

// IsWarning returns true if code represents a warning rather than a hard error.
func IsWarning(code string) bool {
	return (code >= "E0800" && code < "E0900") || (len(code) > 0 && code[0] == 'W')
}

// GetErrorCategory returns the category of the error based on its code.
func GetErrorCategory(code string) string {
	switch {
	case code >= "E0001" && code < "E0100":
		return "Type Checking"
	case code >= "E0100" && code < "E0200":
		return "Unsupported Construct"
	case code >= "E0200" && code < "E0300":
		return "Decision Oracle"
	case code >= "E0300" && code < "E0400":
		return "State Maintenance"
	case code >= "E0400" && code < "E0500":
		return "Enumeration"
	case code >= "E0800" && code < "E0900":
		return "Warning"
	case len(code) > 0 && code[0] == 'W':
		return "Warning"
	default:
		return "Unknown"
	}
}
