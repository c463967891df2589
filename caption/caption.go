// Package caption implements the caption collaborator: a set of
// user-facing message templates identified by a stable key, filled in by
// substituting "<placeholder>" occurrences from a variables bag. The core
// itself never renders prose; it only produces a Key plus Variables (see
// clouderr.ArgumentParse.Diagnostic), and FromError bridges the two so a
// caller doesn't have to duplicate the clouderr type switch.
package caption

import "strings"

// Key identifies a message template, independent of locale or wording.
type Key string

// The closed set of keys corresponding to clouderr's error taxonomy.
const (
	NoSuchCommand        Key = "cloud.error.no_such_command"
	InvalidSyntax        Key = "cloud.error.invalid_syntax"
	NoPermission         Key = "cloud.error.no_permission"
	InvalidCommandSender Key = "cloud.error.invalid_sender"
	NoInputProvided      Key = "cloud.error.argument.no_input"
	InvalidFormat        Key = "cloud.error.argument.invalid_format"
	NumberOutOfRange     Key = "cloud.error.argument.number_out_of_range"
	RegexValidation      Key = "cloud.error.argument.regex_validation"
	UnknownFlag          Key = "cloud.error.argument.unknown_flag"
	MissingFlag          Key = "cloud.error.argument.missing_flag"
	DuplicateFlag        Key = "cloud.error.argument.duplicate_flag"
	CommandExecution     Key = "cloud.error.command_execution"
	Ambiguous            Key = "cloud.error.ambiguous"
)

// Variables is the `{placeholder: string}` bag substituted into a template.
type Variables map[string]string

// defaultTemplates holds one English template per Key, the registry's seed
// data. Callers replace or extend these via Registry.Register for
// localization without touching the core.
var defaultTemplates = map[Key]string{
	NoSuchCommand:        "Unknown command: <supplied>",
	InvalidSyntax:        "Invalid syntax. Usage: <correct_syntax>",
	NoPermission:         "You do not have permission to do this (<permission>)",
	InvalidCommandSender: "This command cannot be run by <sender_type>; expected <required_type>",
	NoInputProvided:      "No input was provided for <name>",
	InvalidFormat:        "<input> is not a valid <expected>",
	NumberOutOfRange:     "<input> is not in range <min>..<max>",
	RegexValidation:      "<input> did not match the expected pattern",
	UnknownFlag:          "Unknown flag: --<name>",
	MissingFlag:          "Missing required flag: --<name>",
	DuplicateFlag:        "Flag --<name> was given more than once",
	CommandExecution:     "The command failed: <cause>",
	Ambiguous:            "Ambiguous command: <reason>",
}

// Registry is a mutable key -> template map, seeded from the defaults. A
// front-end (the demo REPL, the wsconsole server) holds one Registry and
// registers overrides onto it. Unlike the parser registry it has no freeze
// step: Register is accepted at any time.
type Registry struct {
	templates map[Key]string
}

// NewRegistry returns a Registry seeded with the built-in English
// templates.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[Key]string, len(defaultTemplates))}
	for k, v := range defaultTemplates {
		r.templates[k] = v
	}
	return r
}

// Register overrides (or adds) the template for k.
func (r *Registry) Register(k Key, template string) {
	r.templates[k] = template
}

// Template returns the template for k, reporting false if none is
// registered.
func (r *Registry) Template(k Key) (string, bool) {
	t, ok := r.templates[k]
	return t, ok
}

// Format renders k's template with vars, via the package-level Format
// rule. Unknown keys render as the bare key name.
func (r *Registry) Format(k Key, vars Variables) string {
	template, ok := r.Template(k)
	if !ok {
		return string(k)
	}
	return Format(template, vars)
}

// Format substitutes every "<name>" occurrence in template with vars[name].
// A placeholder with no entry in vars is left literally in place, as
// "<placeholder>".
func Format(template string, vars Variables) string {
	var sb strings.Builder
	i := 0
	for i < len(template) {
		open := strings.IndexByte(template[i:], '<')
		if open < 0 {
			sb.WriteString(template[i:])
			break
		}
		open += i
		close := strings.IndexByte(template[open:], '>')
		if close < 0 {
			sb.WriteString(template[i:])
			break
		}
		close += open
		name := template[open+1 : close]
		sb.WriteString(template[i:open])
		if val, ok := vars[name]; ok {
			sb.WriteString(val)
		} else {
			sb.WriteString(template[open : close+1])
		}
		i = close + 1
	}
	return sb.String()
}
