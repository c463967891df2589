package parser

import (
	"testing"

	"github.com/dispatchtree/cloud/clouderr"
	"github.com/dispatchtree/cloud/input"
)

func TestStringParserModes(t *testing.T) {
	tests := []struct {
		name string
		mode StringMode
		raw  string
		want string
	}{
		{"single token", StringSingle, "hello world", "hello"},
		{"quoted", StringQuoted, `"hello world" rest`, "hello world"},
		{"greedy", StringGreedy, "hello world  ", "hello world  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := StringParser{Mode: tt.mode}
			res := p.Parse(nil, input.New(tt.raw))
			got, err := res.Unwrap()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStringGreedyFlagAwareStopsAtFlag(t *testing.T) {
	p := StringParser{Mode: StringGreedyFlagAware}
	in := input.New("prod staging --force")
	res := p.Parse(nil, in)
	got, err := res.Unwrap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "prod staging" {
		t.Errorf("Parse() = %q, want %q", got, "prod staging")
	}
	if in.Remaining() != " --force" {
		t.Errorf("Remaining() = %q, want %q", in.Remaining(), " --force")
	}
}

func TestIntParserBounds(t *testing.T) {
	p := IntParser{Bounded: true, Min: 1, Max: 64}

	res := p.Parse(nil, input.New("100"))
	_, err := res.Unwrap()
	ap, ok := err.(*clouderr.ArgumentParse)
	if !ok || ap.Kind != clouderr.NumberOutOfRange {
		t.Fatalf("expected NumberOutOfRange, got %v", err)
	}

	res2 := p.Parse(nil, input.New("10"))
	v, err := res2.Unwrap()
	if err != nil || v != 10 {
		t.Errorf("Parse(10) = %d, %v; want 10, nil", v, err)
	}
}

func TestIntParserCursorDisciplineOnFailure(t *testing.T) {
	p := IntParser{}
	in := input.New("notanumber")
	mark := in.Mark()
	res := p.Parse(nil, in)
	if _, err := res.Unwrap(); err == nil {
		t.Fatal("expected failure")
	}
	if in.Pos() != mark {
		t.Errorf("cursor moved on failed parse: pos=%d mark=%d", in.Pos(), mark)
	}
}

func TestBoolParserDefaultAndExtended(t *testing.T) {
	def := DefaultBoolParser()
	if _, err := def.Parse(nil, input.New("yes")).Unwrap(); err == nil {
		t.Error("default parser should reject 'yes'")
	}

	ext := ExtendedBoolParser()
	v, err := ext.Parse(nil, input.New("on")).Unwrap()
	if err != nil || !v {
		t.Errorf("extended Parse(on) = %v, %v; want true, nil", v, err)
	}
}

func TestEnumParserCaseInsensitiveByDefault(t *testing.T) {
	p := EnumParser{Values: []string{"Red", "Green", "Blue"}, Case: CaseInsensitive}
	v, err := p.Parse(nil, input.New("red")).Unwrap()
	if err != nil || v != "Red" {
		t.Errorf("Parse(red) = %q, %v; want %q, nil", v, err, "Red")
	}

	_, err = p.Parse(nil, input.New("purple")).Unwrap()
	if err == nil {
		t.Error("expected failure for value outside the closed set")
	}
}

func TestStringArrayParserFlagAware(t *testing.T) {
	p := StringArrayParser{FlagAware: true}
	got, err := p.Parse(nil, input.New("a b c --flag")).Unwrap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEitherParserFallsBackAndResetsCursor(t *testing.T) {
	// The bounded primary rejects 42 after consuming it; the fallback can
	// only read 42 if the cursor was reset.
	p := EitherParser[int64]{Primary: IntParser{Bounded: true, Min: 0, Max: 10}, Fallback: IntParser{}}
	in := input.New("42")
	v, err := p.Parse(nil, in).Unwrap()
	if err != nil || v != 42 {
		t.Errorf("Parse() = %d, %v; want 42, nil", v, err)
	}
}

func TestLiteralParserMatchesAliases(t *testing.T) {
	p := LiteralParser{Name: "remove", Aliases: []string{"rm", "del"}, Case: CaseInsensitive}
	for _, tok := range []string{"remove", "RM", "Del"} {
		if !p.Matches(tok) {
			t.Errorf("Matches(%q) = false, want true", tok)
		}
	}
	if p.Matches("other") {
		t.Error("Matches(other) = true, want false")
	}
}

func TestAdaptErasesType(t *testing.T) {
	any_ := Adapt[int64](IntParser{})
	v, err := any_.ParseAny(nil, input.New("7"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, ok := v.(int64)
	if !ok || n != 7 {
		t.Errorf("ParseAny() = %v (%T), want int64(7)", v, v)
	}
}
