// Package clouderr is the closed taxonomy of errors the dispatch core can
// produce. Every error except CommandExecution has a Prefix field for the
// command-chain prefix consumed so far, so callers and the exception
// controller can report precisely where a parse diverged.
package clouderr

import "fmt"

// NoSuchCommand is returned when no literal root matches the first token.
type NoSuchCommand struct {
	Supplied string
	Prefix   string
}

func (e *NoSuchCommand) Error() string {
	return fmt.Sprintf("no such command: %q", e.Supplied)
}

// InvalidSyntax is returned when the input partially matches a command but
// diverges before a terminal can be chosen.
type InvalidSyntax struct {
	CorrectSyntax string
	Prefix        string
}

func (e *InvalidSyntax) Error() string {
	return fmt.Sprintf("invalid syntax, expected: %s", e.CorrectSyntax)
}

// NoPermission is returned when a terminal was matched but the sender
// lacks its required permission.
type NoPermission struct {
	Permission string
	Prefix     string
}

func (e *NoPermission) Error() string {
	return fmt.Sprintf("no permission: %s", e.Permission)
}

// InvalidCommandSender is returned when the sender is not assignable to
// the terminal's required sender type.
type InvalidCommandSender struct {
	RequiredType string
	Prefix       string
}

func (e *InvalidCommandSender) Error() string {
	return fmt.Sprintf("invalid command sender, expected: %s", e.RequiredType)
}

// ArgumentParseKind discriminates the ArgumentParse subtypes.
type ArgumentParseKind int

const (
	NoInputProvided ArgumentParseKind = iota
	InvalidFormat
	NumberOutOfRange
	RegexValidation
	UnknownFlag
	MissingFlag
	DuplicateFlag
)

func (k ArgumentParseKind) String() string {
	switch k {
	case NoInputProvided:
		return "NoInputProvided"
	case InvalidFormat:
		return "InvalidFormat"
	case NumberOutOfRange:
		return "NumberOutOfRange"
	case RegexValidation:
		return "RegexValidation"
	case UnknownFlag:
		return "UnknownFlag"
	case MissingFlag:
		return "MissingFlag"
	case DuplicateFlag:
		return "DuplicateFlag"
	default:
		return "Unknown"
	}
}

// ArgumentParse wraps a failure from an argument parser. Diagnostic carries
// caption-style variables (e.g. "input", "min", "max", "name") that an
// external formatter substitutes into a caption template; the core never
// renders them into prose itself.
type ArgumentParse struct {
	Kind       ArgumentParseKind
	Component  string
	Diagnostic map[string]string
	Prefix     string
	Cause      error
}

func (e *ArgumentParse) Error() string {
	return fmt.Sprintf("argument parse failed for %q: %s", e.Component, e.Kind)
}

func (e *ArgumentParse) Unwrap() error { return e.Cause }

// CommandExecution wraps any error the handler itself returned, unless
// that error already is one of the typed core errors.
type CommandExecution struct {
	Cause error
}

func (e *CommandExecution) Error() string {
	return fmt.Sprintf("command execution failed: %v", e.Cause)
}

func (e *CommandExecution) Unwrap() error { return e.Cause }

// Ambiguous is reserved for preprocessors that detect irresolvable
// ambiguity in the input before parsing reaches the tree.
type Ambiguous struct {
	Reason string
	Prefix string
}

func (e *Ambiguous) Error() string {
	return fmt.Sprintf("ambiguous command: %s", e.Reason)
}

// NumberOutOfRangeDiagnostic builds the Diagnostic map for a bounded
// numeric parser failure: the offending input plus the allowed range.
func NumberOutOfRangeDiagnostic(input, min, max string) map[string]string {
	return map[string]string{"input": input, "min": min, "max": max}
}

// Wrap turns any error into a CommandExecution unless it is already one of
// the typed core errors, so handler panics and returned errors alike reach
// the exception controller through a single, closed taxonomy.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	switch err.(type) {
	case *NoSuchCommand, *InvalidSyntax, *NoPermission, *InvalidCommandSender,
		*ArgumentParse, *CommandExecution, *Ambiguous:
		return err
	default:
		return &CommandExecution{Cause: err}
	}
}
