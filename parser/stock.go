package parser

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/dispatchtree/cloud/clouderr"
	"github.com/dispatchtree/cloud/input"
	"github.com/dispatchtree/cloud/key"
)

// StringMode selects one of the string parser variants.
type StringMode int

const (
	// StringSingle reads one whitespace-delimited token, honoring quotes.
	StringSingle StringMode = iota
	// StringQuoted requires quotes, or reads a single unquoted token.
	StringQuoted
	// StringGreedy consumes the rest of the input verbatim.
	StringGreedy
	// StringGreedyFlagAware consumes until the first long or short flag
	// token at a boundary.
	StringGreedyFlagAware
)

// StringParser implements all string-family stock parsers.
type StringParser struct {
	Mode StringMode
}

func (p StringParser) ValueType() reflect.Type { return reflect.TypeOf("") }

func (p StringParser) Parse(ctx *key.Context, in *input.Input) ParseResult[string] {
	switch p.Mode {
	case StringQuoted:
		if in.Empty() {
			return Failure[string](&clouderr.ArgumentParse{Kind: clouderr.NoInputProvided})
		}
		s, err := in.ReadQuotedString()
		if err != nil {
			return Failure[string](wrapInputErr(err))
		}
		return Success(s)
	case StringGreedy:
		if in.Empty() {
			return Failure[string](&clouderr.ArgumentParse{Kind: clouderr.NoInputProvided})
		}
		return Success(in.ReadGreedy())
	case StringGreedyFlagAware:
		if in.Empty() {
			return Failure[string](&clouderr.ArgumentParse{Kind: clouderr.NoInputProvided})
		}
		return Success(readUntilFlag(in))
	default:
		s, err := in.ReadString()
		if err != nil {
			return Failure[string](wrapInputErr(err))
		}
		return Success(s)
	}
}

func (p StringParser) Suggestions(ctx *key.Context, partial string) []Suggestion { return nil }

// readUntilFlag consumes tokens up to (not including) the first token that
// looks like a long (--name) or short (-n) flag, for greedy flag-aware
// positional parsers.
func readUntilFlag(in *input.Input) string {
	in.SkipWhitespace()
	start := in.Pos()
	end := start
	for {
		mark := in.Mark()
		_ = mark
		tok, err := in.PeekToken()
		if err != nil {
			break
		}
		if looksLikeFlag(tok) {
			break
		}
		if _, err := in.ReadString(); err != nil {
			break
		}
		end = in.Pos()
		if in.Empty() {
			break
		}
	}
	return in.Raw()[start:end]
}

func looksLikeFlag(tok string) bool {
	return strings.HasPrefix(tok, "--") || (len(tok) > 1 && tok[0] == '-' && !isDigitOrDot(tok[1]))
}

func isDigitOrDot(b byte) bool { return (b >= '0' && b <= '9') || b == '.' }

func wrapInputErr(err error) error {
	switch e := err.(type) {
	case *input.InvalidFormatError:
		return &clouderr.ArgumentParse{
			Kind:       clouderr.InvalidFormat,
			Diagnostic: map[string]string{"input": e.Raw, "expected": e.Expected},
			Cause:      err,
		}
	default:
		return &clouderr.ArgumentParse{Kind: clouderr.NoInputProvided, Cause: err}
	}
}

// IntParser parses a bounded int64. Bounded is false when no range was
// configured; out-of-range values fail with NumberOutOfRange.
type IntParser struct {
	Bounded  bool
	Min, Max int64
}

func (p IntParser) ValueType() reflect.Type { return reflect.TypeOf(int64(0)) }

func (p IntParser) Parse(ctx *key.Context, in *input.Input) ParseResult[int64] {
	mark := in.Mark()
	n, err := in.ReadInt64()
	if err != nil {
		in.Reset(mark)
		return Failure[int64](wrapInputErr(err))
	}
	if p.Bounded && (n < p.Min || n > p.Max) {
		return Failure[int64](&clouderr.ArgumentParse{
			Kind:       clouderr.NumberOutOfRange,
			Diagnostic: clouderr.NumberOutOfRangeDiagnostic(strconv.FormatInt(n, 10), strconv.FormatInt(p.Min, 10), strconv.FormatInt(p.Max, 10)),
		})
	}
	return Success(n)
}

func (p IntParser) Suggestions(ctx *key.Context, partial string) []Suggestion { return nil }

// FloatParser parses a bounded float64.
type FloatParser struct {
	Bounded  bool
	Min, Max float64
}

func (p FloatParser) ValueType() reflect.Type { return reflect.TypeOf(float64(0)) }

func (p FloatParser) Parse(ctx *key.Context, in *input.Input) ParseResult[float64] {
	mark := in.Mark()
	f, err := in.ReadFloat64()
	if err != nil {
		in.Reset(mark)
		return Failure[float64](wrapInputErr(err))
	}
	if p.Bounded && (f < p.Min || f > p.Max) {
		return Failure[float64](&clouderr.ArgumentParse{
			Kind:       clouderr.NumberOutOfRange,
			Diagnostic: clouderr.NumberOutOfRangeDiagnostic(strconv.FormatFloat(f, 'g', -1, 64), strconv.FormatFloat(p.Min, 'g', -1, 64), strconv.FormatFloat(p.Max, 'g', -1, 64)),
		})
	}
	return Success(f)
}

func (p FloatParser) Suggestions(ctx *key.Context, partial string) []Suggestion { return nil }

// BoolParser parses a boolean from a configurable accepted-token set.
// DefaultBoolParser accepts {true,false}; ExtendedBoolParser adds
// {yes,no,on,off}.
type BoolParser struct {
	Truthy, Falsy []string
}

// DefaultBoolParser accepts only true/false.
func DefaultBoolParser() BoolParser {
	return BoolParser{Truthy: []string{"true"}, Falsy: []string{"false"}}
}

// ExtendedBoolParser additionally accepts yes/no and on/off.
func ExtendedBoolParser() BoolParser {
	return BoolParser{
		Truthy: []string{"true", "yes", "on"},
		Falsy:  []string{"false", "no", "off"},
	}
}

func (p BoolParser) ValueType() reflect.Type { return reflect.TypeOf(false) }

func (p BoolParser) Parse(ctx *key.Context, in *input.Input) ParseResult[bool] {
	mark := in.Mark()
	b, err := in.ReadBool(p.Truthy, p.Falsy)
	if err != nil {
		in.Reset(mark)
		return Failure[bool](wrapInputErr(err))
	}
	return Success(b)
}

func (p BoolParser) Suggestions(ctx *key.Context, partial string) []Suggestion {
	out := make([]Suggestion, 0, len(p.Truthy)+len(p.Falsy))
	for _, t := range p.Truthy {
		out = append(out, Suggestion{Value: t})
	}
	for _, f := range p.Falsy {
		out = append(out, Suggestion{Value: f})
	}
	return out
}

// CasePolicy controls whether literal/enum comparison is case-sensitive.
type CasePolicy int

const (
	// CaseInsensitive is the manager default for user-facing text.
	CaseInsensitive CasePolicy = iota
	CaseSensitive
)

func (c CasePolicy) equal(a, b string) bool {
	if c == CaseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}

// EnumParser parses one of a closed set of allowed literal strings.
type EnumParser struct {
	Values []string
	Case   CasePolicy
}

func (p EnumParser) ValueType() reflect.Type { return reflect.TypeOf("") }

func (p EnumParser) Parse(ctx *key.Context, in *input.Input) ParseResult[string] {
	mark := in.Mark()
	tok, err := in.ReadString()
	if err != nil {
		in.Reset(mark)
		return Failure[string](wrapInputErr(err))
	}
	for _, v := range p.Values {
		if p.Case.equal(tok, v) {
			return Success(v)
		}
	}
	in.Reset(mark)
	return Failure[string](&clouderr.ArgumentParse{
		Kind:       clouderr.InvalidFormat,
		Diagnostic: map[string]string{"input": tok, "expected": strings.Join(p.Values, "|")},
	})
}

func (p EnumParser) Suggestions(ctx *key.Context, partial string) []Suggestion {
	out := make([]Suggestion, 0, len(p.Values))
	for _, v := range p.Values {
		out = append(out, Suggestion{Value: v})
	}
	return out
}

// StringArrayParser collects the entire remaining token list. FlagAware
// stops before the first flag-looking token.
type StringArrayParser struct {
	FlagAware bool
}

func (p StringArrayParser) ValueType() reflect.Type { return reflect.TypeOf([]string(nil)) }

func (p StringArrayParser) Parse(ctx *key.Context, in *input.Input) ParseResult[[]string] {
	var out []string
	for !in.Empty() {
		tok, err := in.PeekToken()
		if err != nil {
			break
		}
		if p.FlagAware && looksLikeFlag(tok) {
			break
		}
		s, err := in.ReadString()
		if err != nil {
			break
		}
		out = append(out, s)
	}
	return Success(out)
}

func (p StringArrayParser) Suggestions(ctx *key.Context, partial string) []Suggestion { return nil }

// EitherParser attempts Primary, then Fallback on failure, resetting the
// cursor between attempts.
type EitherParser[T any] struct {
	Primary  Parser[T]
	Fallback Parser[T]
}

func (p EitherParser[T]) ValueType() reflect.Type { return p.Primary.ValueType() }

func (p EitherParser[T]) Parse(ctx *key.Context, in *input.Input) ParseResult[T] {
	mark := in.Mark()
	res := p.Primary.Parse(ctx, in)
	if res.Ok() {
		return res
	}
	in.Reset(mark)
	return p.Fallback.Parse(ctx, in)
}

func (p EitherParser[T]) Suggestions(ctx *key.Context, partial string) []Suggestion {
	return append(p.Primary.Suggestions(ctx, partial), p.Fallback.Suggestions(ctx, partial)...)
}

// LiteralParser accepts a fixed name or any of its aliases, honoring the
// manager's case policy. It backs literal CommandNodes.
type LiteralParser struct {
	Name    string
	Aliases []string
	Case    CasePolicy
}

func (p LiteralParser) ValueType() reflect.Type { return reflect.TypeOf("") }

// Matches reports whether tok names this literal or one of its aliases.
func (p LiteralParser) Matches(tok string) bool {
	if p.Case.equal(tok, p.Name) {
		return true
	}
	for _, a := range p.Aliases {
		if p.Case.equal(tok, a) {
			return true
		}
	}
	return false
}

func (p LiteralParser) Parse(ctx *key.Context, in *input.Input) ParseResult[string] {
	mark := in.Mark()
	tok, err := in.ReadString()
	if err != nil {
		in.Reset(mark)
		return Failure[string](wrapInputErr(err))
	}
	if !p.Matches(tok) {
		in.Reset(mark)
		return Failure[string](&clouderr.ArgumentParse{
			Kind:       clouderr.InvalidFormat,
			Diagnostic: map[string]string{"input": tok, "expected": p.Name},
		})
	}
	return Success(p.Name)
}

func (p LiteralParser) Suggestions(ctx *key.Context, partial string) []Suggestion {
	return []Suggestion{{Value: p.Name}}
}
