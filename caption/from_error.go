package caption

import "github.com/dispatchtree/cloud/clouderr"

// FromError maps one of the typed clouderr errors to its caption Key and
// Variables bag, so a formatter doesn't need its own copy of clouderr's
// taxonomy switch. Any other error maps to CommandExecution with its
// message as the "cause" variable, matching clouderr.Wrap's fallback.
func FromError(err error) (Key, Variables) {
	switch e := err.(type) {
	case *clouderr.NoSuchCommand:
		return NoSuchCommand, Variables{"supplied": e.Supplied, "prefix": e.Prefix}
	case *clouderr.InvalidSyntax:
		return InvalidSyntax, Variables{"correct_syntax": e.CorrectSyntax, "prefix": e.Prefix}
	case *clouderr.NoPermission:
		return NoPermission, Variables{"permission": e.Permission, "prefix": e.Prefix}
	case *clouderr.InvalidCommandSender:
		return InvalidCommandSender, Variables{"required_type": e.RequiredType, "prefix": e.Prefix}
	case *clouderr.ArgumentParse:
		return fromArgumentParse(e)
	case *clouderr.CommandExecution:
		return CommandExecution, Variables{"cause": e.Error()}
	case *clouderr.Ambiguous:
		return Ambiguous, Variables{"reason": e.Reason, "prefix": e.Prefix}
	default:
		return CommandExecution, Variables{"cause": err.Error()}
	}
}

func fromArgumentParse(e *clouderr.ArgumentParse) (Key, Variables) {
	vars := Variables{"component": e.Component, "prefix": e.Prefix}
	for k, v := range e.Diagnostic {
		vars[k] = v
	}
	switch e.Kind {
	case clouderr.NumberOutOfRange:
		return NumberOutOfRange, vars
	case clouderr.RegexValidation:
		return RegexValidation, vars
	case clouderr.UnknownFlag:
		return UnknownFlag, vars
	case clouderr.MissingFlag:
		return MissingFlag, vars
	case clouderr.DuplicateFlag:
		return DuplicateFlag, vars
	case clouderr.InvalidFormat:
		return InvalidFormat, vars
	default:
		return NoInputProvided, vars
	}
}
