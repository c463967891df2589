package parser

import (
	"reflect"
	"testing"
)

func TestRegistryLookupByType(t *testing.T) {
	r := NewRegistry()
	intType := reflect.TypeOf(int64(0))
	if err := r.Register(intType, func(params *ParserParameters) AnyParser {
		return Adapt[int64](IntParser{})
	}); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	p, ok := r.Lookup(intType, "", nil)
	if !ok {
		t.Fatal("Lookup() did not find registered type")
	}
	if p.ValueType() != intType {
		t.Errorf("ValueType() = %v, want %v", p.ValueType(), intType)
	}
}

func TestRegistryLookupByNameFallsBackFromType(t *testing.T) {
	r := NewRegistry()
	stringType := reflect.TypeOf("")
	named := Adapt[string](StringParser{Mode: StringSingle})
	if err := r.RegisterNamed("word", named); err != nil {
		t.Fatalf("RegisterNamed() error: %v", err)
	}

	p, ok := r.Lookup(stringType, "word", nil)
	if !ok {
		t.Fatal("Lookup() by name did not find registration")
	}
	if p.ValueType() != stringType {
		t.Errorf("ValueType() = %v, want %v", p.ValueType(), stringType)
	}
}

func TestRegistryFreezeRejectsRegistration(t *testing.T) {
	r := NewRegistry()
	r.Freeze()
	if err := r.Register(reflect.TypeOf(0), func(*ParserParameters) AnyParser { return nil }); err == nil {
		t.Error("Register() after Freeze() should fail")
	}
	if err := r.RegisterNamed("x", Adapt[string](StringParser{})); err == nil {
		t.Error("RegisterNamed() after Freeze() should fail")
	}
}

func TestParserParametersRoundtrip(t *testing.T) {
	params := NewParserParameters()
	SetParam(params, 7)
	v, ok := GetParam[int](params)
	if !ok || v != 7 {
		t.Errorf("GetParam() = %v, %v; want 7, true", v, ok)
	}
	_, ok = GetParam[string](params)
	if ok {
		t.Error("GetParam() for unset type should report false")
	}
}

func TestSuggestionProviderLookupByExactName(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterSuggestionProvider("roster", func(_ any, partial string) []Suggestion {
		return []Suggestion{{Value: "Alice"}}
	}); err != nil {
		t.Fatalf("RegisterSuggestionProvider() error: %v", err)
	}
	provider, ok := r.LookupSuggestionProvider("roster")
	if !ok {
		t.Fatal("LookupSuggestionProvider() did not find registration")
	}
	got := provider(nil, "")
	if len(got) != 1 || got[0].Value != "Alice" {
		t.Errorf("provider() = %v", got)
	}
	if _, ok := r.LookupSuggestionProvider("missing"); ok {
		t.Error("LookupSuggestionProvider() found nonexistent name")
	}
}
