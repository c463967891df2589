// Package flag implements the flag subsystem: a "flag container" terminal
// pseudo-component that collects --name/-n options interleaved with (or
// following) positional arguments, built atop spf13/pflag the way a CLI
// built atop cobra reuses cobra's embedded pflag.FlagSet.
package flag

import (
	"reflect"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/spf13/pflag"

	"github.com/dispatchtree/cloud/clouderr"
	"github.com/dispatchtree/cloud/input"
	"github.com/dispatchtree/cloud/key"
	"github.com/dispatchtree/cloud/parser"
)

var boolType = reflect.TypeOf(false)

// Kind discriminates presence flags from value flags.
type Kind int

const (
	// Presence flags (--verbose, -v) bind to boolean true if present.
	Presence Kind = iota
	// Value flags (--count 3, -c 3) are parsed by an inner parser.
	Value
)

// Spec describes one registered flag.
type Spec struct {
	Long        string
	Short       string // single letter; "" for no shorthand
	Kind        Kind
	Parser      parser.AnyParser // required for Kind == Value
	Required    bool
	Description string
}

// LongFromFieldName derives a kebab-case long flag name from a Go-style
// identifier, for front-ends that build Specs from struct field names.
func LongFromFieldName(name string) string { return strcase.ToKebab(name) }

// TrailingPositional describes the final positional component a flag
// container may carry alongside its flags. Flags and the tail positional
// may interleave only when that positional opts into flag-awareness.
type TrailingPositional struct {
	Name      string
	Parser    parser.AnyParser
	Required  bool
	FlagAware bool
}

func (tp *TrailingPositional) key() key.Key {
	return key.Key{Name: tp.Name, Type: tp.Parser.ValueType()}
}

// Set is a node's flag container: an ordered collection of flag Specs plus
// an optional trailing positional.
type Set struct {
	Specs              []Spec
	ShortGrouping      bool
	TrailingPositional *TrailingPositional
}

// Parse consumes the remainder of in as flags (and, if configured, the
// trailing positional), binding every value into ctx under its own key
// (flags under key.Key{Name: spec.Long}).
func (s *Set) Parse(ctx *key.Context, in *input.Input) error {
	var tokens []string
	for !in.Empty() {
		tok, err := in.ReadString()
		if err != nil {
			break
		}
		tokens = append(tokens, tok)
	}

	if err := s.checkDuplicates(tokens); err != nil {
		return err
	}

	if s.TrailingPositional != nil && s.TrailingPositional.FlagAware {
		i := 0
		for i < len(tokens) && !looksLikeFlagToken(tokens[i]) {
			i++
		}
		positionalTokens := tokens[:i]
		tokens = tokens[i:]
		if len(positionalTokens) > 0 {
			value := strings.Join(positionalTokens, " ")
			val, err := s.TrailingPositional.Parser.ParseAny(ctx, input.New(value))
			if err != nil {
				return err
			}
			ctx.RawPut(s.TrailingPositional.key(), val)
		} else if s.TrailingPositional.Required {
			return &clouderr.ArgumentParse{Kind: clouderr.NoInputProvided, Component: s.TrailingPositional.Name}
		}
	}

	fs := pflag.NewFlagSet("flags", pflag.ContinueOnError)
	fs.Usage = func() {}
	fs.SetOutput(discard{})

	bools := make(map[string]*bool, len(s.Specs))
	strs := make(map[string]*string, len(s.Specs))
	for _, spec := range s.Specs {
		switch spec.Kind {
		case Presence:
			b := new(bool)
			if s.ShortGrouping && spec.Short != "" {
				fs.BoolVarP(b, spec.Long, spec.Short, false, spec.Description)
			} else {
				fs.BoolVar(b, spec.Long, false, spec.Description)
			}
			bools[spec.Long] = b
		case Value:
			v := new(string)
			if s.ShortGrouping && spec.Short != "" {
				fs.StringVarP(v, spec.Long, spec.Short, "", spec.Description)
			} else {
				fs.StringVar(v, spec.Long, "", spec.Description)
			}
			strs[spec.Long] = v
		}
	}

	if err := fs.Parse(tokens); err != nil {
		return mapPflagError(err)
	}

	for _, spec := range s.Specs {
		if spec.Required && !fs.Changed(spec.Long) {
			return &clouderr.ArgumentParse{
				Kind:       clouderr.MissingFlag,
				Diagnostic: map[string]string{"name": spec.Long},
			}
		}
	}

	for _, spec := range s.Specs {
		k := key.Key{Name: spec.Long, Type: boolType}
		switch spec.Kind {
		case Presence:
			ctx.RawPut(k, *bools[spec.Long])
		case Value:
			if !fs.Changed(spec.Long) {
				continue
			}
			val, err := spec.Parser.ParseAny(ctx, input.New(*strs[spec.Long]))
			if err != nil {
				return err
			}
			ctx.RawPut(key.Key{Name: spec.Long, Type: spec.Parser.ValueType()}, val)
		}
	}

	if s.TrailingPositional != nil && !s.TrailingPositional.FlagAware {
		args := fs.Args()
		if len(args) == 0 {
			if s.TrailingPositional.Required {
				return &clouderr.ArgumentParse{Kind: clouderr.NoInputProvided, Component: s.TrailingPositional.Name}
			}
		} else {
			val, err := s.TrailingPositional.Parser.ParseAny(ctx, input.New(args[0]))
			if err != nil {
				return err
			}
			ctx.RawPut(s.TrailingPositional.key(), val)
		}
	}

	return nil
}

// Suggest offers every flag's long name (and short name, when short
// grouping is on) plus the trailing positional's suggestions. It does not
// look at in, so it never offers a value flag's own value suggestions.
func (s *Set) Suggest(ctx *key.Context, in *input.Input) []parser.Suggestion {
	var out []parser.Suggestion
	for _, spec := range s.Specs {
		out = append(out, parser.Suggestion{Value: "--" + spec.Long, Tooltip: spec.Description})
		if s.ShortGrouping && spec.Short != "" {
			out = append(out, parser.Suggestion{Value: "-" + spec.Short, Tooltip: spec.Description})
		}
	}
	if s.TrailingPositional != nil {
		out = append(out, s.TrailingPositional.Parser.SuggestionsAny(ctx, "")...)
	}
	return out
}

// FlagSyntax renders the container's flags as "[--flag] [--other
// <value>]…", in registration order, followed by the trailing positional
// (if any) as <name> or [name].
func (s *Set) FlagSyntax() string {
	parts := make([]string, 0, len(s.Specs)+1)
	for _, spec := range s.Specs {
		switch spec.Kind {
		case Presence:
			parts = append(parts, "[--"+spec.Long+"]")
		case Value:
			parts = append(parts, "[--"+spec.Long+" <value>]")
		}
	}
	if s.TrailingPositional != nil {
		name := "<" + s.TrailingPositional.Name + ">"
		if !s.TrailingPositional.Required {
			name = "[" + s.TrailingPositional.Name + "]"
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, " ")
}

func (s *Set) checkDuplicates(tokens []string) error {
	seen := make(map[string]bool)
	for _, tok := range tokens {
		if tok == "--" {
			break
		}
		name := flagNameOf(tok)
		if name == "" {
			continue
		}
		if seen[name] {
			return &clouderr.ArgumentParse{
				Kind:       clouderr.DuplicateFlag,
				Diagnostic: map[string]string{"name": name},
			}
		}
		seen[name] = true
	}
	return nil
}

func flagNameOf(tok string) string {
	switch {
	case strings.HasPrefix(tok, "--"):
		name := strings.TrimPrefix(tok, "--")
		if i := strings.IndexByte(name, '='); i >= 0 {
			name = name[:i]
		}
		return name
	case strings.HasPrefix(tok, "-") && len(tok) > 1 && !isDigitByte(tok[1]):
		return tok[1:]
	default:
		return ""
	}
}

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }

func looksLikeFlagToken(tok string) bool {
	if strings.HasPrefix(tok, "--") {
		return true
	}
	return len(tok) > 1 && tok[0] == '-' && !isDigitByte(tok[1]) && tok[1] != '.'
}

func mapPflagError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand") {
		name := strings.TrimSpace(strings.TrimPrefix(msg, "unknown flag:"))
		name = strings.TrimPrefix(name, "--")
		return &clouderr.ArgumentParse{
			Kind:       clouderr.UnknownFlag,
			Diagnostic: map[string]string{"name": name},
		}
	}
	return &clouderr.ArgumentParse{
		Kind:       clouderr.InvalidFormat,
		Diagnostic: map[string]string{"input": msg},
		Cause:      err,
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
