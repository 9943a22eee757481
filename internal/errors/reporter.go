package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
)

// ErrorLevel represents the severity of a diagnostic.
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
	Note    ErrorLevel = "note"
	Help    ErrorLevel = "help"
)

// Location pins a diagnostic to the query or method being processed and,
// where available, the offending sub-expression's printed form. There is no
// source file/line here — a synthesis run operates on an already-parsed
// Spec, not on source text.
type Location struct {
	Query string
	Expr  string
}

// CompilerError is a structured diagnostic with suggestions and context,
// following the same shape the toolchain has always used for messages
// surfaced to a user running synthctl.
type CompilerError struct {
	Level       ErrorLevel
	Code        string
	Message     string
	Location    Location
	Suggestions []Suggestion
	Notes       []string
	HelpText    string
}

// Suggestion represents a suggested fix or alternative.
type Suggestion struct {
	Message     string
	Replacement string
}

// Error satisfies the standard error interface so a CompilerError can be
// appended directly to a Diagnostics accumulator.
func (e CompilerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return e.Message
}

// Diagnostics accumulates CompilerErrors produced across an independent set
// of checks (e.g. one run per demo query, or one run per state-variable
// method) into a single combined error, the way a driver that doesn't want
// to abort at the first failure needs to report every failure it found.
type Diagnostics struct {
	errs *multierror.Error
}

// Add records err, which may be nil (a no-op, so callers can write
// diag.Add(checkSomething()) unconditionally).
func (d *Diagnostics) Add(err *CompilerError) {
	if err == nil {
		return
	}
	d.errs = multierror.Append(d.errs, *err)
}

// ErrorOrNil returns the combined error, or nil if nothing was ever added.
func (d *Diagnostics) ErrorOrNil() error {
	return d.errs.ErrorOrNil()
}

// Each reports every accumulated CompilerError in the order it was added.
func (d *Diagnostics) Each(f func(CompilerError)) {
	if d.errs == nil {
		return
	}
	for _, e := range d.errs.Errors {
		if ce, ok := e.(CompilerError); ok {
			f(ce)
		}
	}
}

// ErrorReporter formats CompilerErrors consistently across the CLI.
type ErrorReporter struct {
	source string // the Spec's name, shown in the location line
}

// NewErrorReporter creates a reporter for a named synthesis run.
func NewErrorReporter(source string) *ErrorReporter {
	return &ErrorReporter{source: source}
}

// FormatError formats a CompilerError with the toolchain's Rust-like styling.
func (er *ErrorReporter) FormatError(err CompilerError) string {
	var result strings.Builder

	levelColor := er.getLevelColor(err.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if err.Code != "" {
		result.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(string(err.Level)), err.Code, err.Message))
	} else {
		result.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(err.Level)), err.Message))
	}

	result.WriteString(fmt.Sprintf("   %s %s", dim("-->"), er.source))
	if err.Location.Query != "" {
		result.WriteString(fmt.Sprintf(", query %s", bold(err.Location.Query)))
	}
	result.WriteString("\n")
	result.WriteString(fmt.Sprintf("   %s\n", dim("│")))

	if err.Location.Expr != "" {
		result.WriteString(fmt.Sprintf("   %s %s\n", dim("│"), err.Location.Expr))
		result.WriteString(fmt.Sprintf("   %s\n", dim("│")))
	}

	if len(err.Suggestions) > 0 {
		suggestionColor := color.New(color.FgCyan).SprintFunc()
		for i, suggestion := range err.Suggestions {
			if i == 0 {
				result.WriteString(fmt.Sprintf("   %s %s: %s\n", suggestionColor("help"), suggestionColor("try"), suggestion.Message))
			} else {
				result.WriteString(fmt.Sprintf("        %s\n", suggestion.Message))
			}
			if suggestion.Replacement != "" {
				result.WriteString(fmt.Sprintf("   %s %s\n", dim("│"), suggestionColor(suggestion.Replacement)))
			}
		}
	}

	for _, note := range err.Notes {
		noteColor := color.New(color.FgBlue).SprintFunc()
		result.WriteString(fmt.Sprintf("   %s %s %s\n", dim("│"), noteColor("note:"), note))
	}

	if err.HelpText != "" {
		helpColor := color.New(color.FgGreen).SprintFunc()
		result.WriteString(fmt.Sprintf("   %s %s %s\n", dim("│"), helpColor("help:"), err.HelpText))
	}

	result.WriteString("\n")
	return result.String()
}

func (er *ErrorReporter) getLevelColor(level ErrorLevel) func(...interface{}) string {
	switch level {
	case Error:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case Help:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}
