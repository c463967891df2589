package parser

import (
	"reflect"

	deadlock "github.com/sasha-s/go-deadlock"
)

// ParserParameters is a bag of typed annotations a Factory may consult,
// standing in for reflective per-component annotations: the core only
// ever needs already-built values, never the reflection itself.
type ParserParameters struct {
	values map[reflect.Type]any
}

// NewParserParameters returns an empty parameter bag.
func NewParserParameters() *ParserParameters {
	return &ParserParameters{values: make(map[reflect.Type]any)}
}

// SetParam stores v under its own type in params.
func SetParam[T any](params *ParserParameters, v T) {
	var zero T
	params.values[reflect.TypeOf(zero)] = v
}

// GetParam retrieves a value of type T from params.
func GetParam[T any](params *ParserParameters) (T, bool) {
	var zero T
	v, ok := params.values[reflect.TypeOf(zero)]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Factory builds an AnyParser, parameterized by ParserParameters.
type Factory func(params *ParserParameters) AnyParser

// SuggestionProvider answers a partial token with candidate completions,
// looked up by exact name.
type SuggestionProvider func(ctx_ any, partial string) []Suggestion

type assignableEntry struct {
	iface reflect.Type
	named AnyParser
}

// Registry implements the parser lookup precedence: exact type match
// first, then a named parser, then the first parser registered with
// RegisterNamed whose value type is assignable to the requested type.
// Factories registered by type are matched by exact type only.
type Registry struct {
	mu                  deadlock.RWMutex
	byType              map[reflect.Type]Factory
	byName              map[string]AnyParser
	suggestionProviders map[string]SuggestionProvider
	assignable          []assignableEntry
	frozen              bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byType:              make(map[reflect.Type]Factory),
		byName:              make(map[string]AnyParser),
		suggestionProviders: make(map[string]SuggestionProvider),
	}
}

// Freeze rejects further mutation; the manager calls this on the
// Registering -> AfterRegistration transition.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Register associates a type descriptor with a parser factory.
func (r *Registry) Register(t reflect.Type, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return errFrozen
	}
	r.byType[t] = factory
	return nil
}

// RegisterNamed associates a name with a concrete parser instance,
// reusable across components that reference it by name rather than type.
func (r *Registry) RegisterNamed(name string, p AnyParser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return errFrozen
	}
	r.byName[name] = p
	r.assignable = append(r.assignable, assignableEntry{iface: p.ValueType(), named: p})
	return nil
}

// RegisterSuggestionProvider associates a name with a suggestion provider,
// looked up by exact name only.
func (r *Registry) RegisterSuggestionProvider(name string, provider SuggestionProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return errFrozen
	}
	r.suggestionProviders[name] = provider
	return nil
}

// Lookup resolves a parser for the given type descriptor and/or name: exact
// type, then named parser, then the first RegisterNamed parser assignable
// to t.
func (r *Registry) Lookup(t reflect.Type, name string, params *ParserParameters) (AnyParser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if factory, ok := r.byType[t]; ok {
		return factory(params), true
	}
	if name != "" {
		if p, ok := r.byName[name]; ok {
			return p, true
		}
	}
	for _, entry := range r.assignable {
		if t == nil || entry.iface == t || (t != nil && entry.iface != nil && entry.iface.AssignableTo(t)) {
			return entry.named, true
		}
	}
	return nil, false
}

// LookupSuggestionProvider resolves a suggestion provider by exact name.
func (r *Registry) LookupSuggestionProvider(name string) (SuggestionProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.suggestionProviders[name]
	return p, ok
}

var errFrozen = &frozenError{}

type frozenError struct{}

func (*frozenError) Error() string { return "parser: registry is frozen" }
