package caption

import (
	"errors"
	"testing"

	"github.com/dispatchtree/cloud/clouderr"
)

func TestFormatSubstitutesKnownPlaceholders(t *testing.T) {
	got := Format("<input> is not in range <min>..<max>", Variables{"input": "100", "min": "1", "max": "64"})
	want := "100 is not in range 1..64"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestFormatLeavesUnknownPlaceholdersLiteral(t *testing.T) {
	got := Format("Unknown flag: --<name>", Variables{})
	want := "Unknown flag: --<name>"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestFormatHandlesUnterminatedAngleBracket(t *testing.T) {
	got := Format("truncated <nam", Variables{"name": "x"})
	want := "truncated <nam"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestRegistryFormatUnknownKeyRendersBareKeyName(t *testing.T) {
	r := NewRegistry()
	got := r.Format(Key("cloud.error.nonexistent"), nil)
	if got != "cloud.error.nonexistent" {
		t.Errorf("Format() = %q, want bare key", got)
	}
}

func TestRegistryRegisterOverridesTemplate(t *testing.T) {
	r := NewRegistry()
	r.Register(NoSuchCommand, "No command named <supplied> exists")
	got := r.Format(NoSuchCommand, Variables{"supplied": "zzz"})
	want := "No command named zzz exists"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestFromErrorMapsEachTypedError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Key
	}{
		{"no such command", &clouderr.NoSuchCommand{Supplied: "zzz"}, NoSuchCommand},
		{"invalid syntax", &clouderr.InvalidSyntax{CorrectSyntax: "config"}, InvalidSyntax},
		{"no permission", &clouderr.NoPermission{Permission: "admin.use"}, NoPermission},
		{"invalid sender", &clouderr.InvalidCommandSender{RequiredType: "Admin"}, InvalidCommandSender},
		{"command execution", &clouderr.CommandExecution{Cause: errors.New("x")}, CommandExecution},
		{"ambiguous", &clouderr.Ambiguous{Reason: "two matches"}, Ambiguous},
		{"unknown plain error", errors.New("boom"), CommandExecution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, _ := FromError(tt.err)
			if k != tt.want {
				t.Errorf("FromError() key = %q, want %q", k, tt.want)
			}
		})
	}
}

func TestFromErrorArgumentParseDispatchesByKind(t *testing.T) {
	tests := []struct {
		name string
		kind clouderr.ArgumentParseKind
		want Key
	}{
		{"number out of range", clouderr.NumberOutOfRange, NumberOutOfRange},
		{"regex validation", clouderr.RegexValidation, RegexValidation},
		{"unknown flag", clouderr.UnknownFlag, UnknownFlag},
		{"missing flag", clouderr.MissingFlag, MissingFlag},
		{"duplicate flag", clouderr.DuplicateFlag, DuplicateFlag},
		{"invalid format", clouderr.InvalidFormat, InvalidFormat},
		{"no input provided", clouderr.NoInputProvided, NoInputProvided},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &clouderr.ArgumentParse{Kind: tt.kind, Component: "amount", Diagnostic: map[string]string{"input": "100"}}
			k, vars := FromError(err)
			if k != tt.want {
				t.Errorf("FromError() key = %q, want %q", k, tt.want)
			}
			if vars["component"] != "amount" || vars["input"] != "100" {
				t.Errorf("vars = %v", vars)
			}
		})
	}
}
