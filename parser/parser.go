// Package parser implements the ArgumentParser contract: typed parse +
// suggest pairs, a type- and name-aware registry, and the stock parsers
// every command tree needs out of the box.
package parser

import (
	"reflect"

	"github.com/dispatchtree/cloud/input"
	"github.com/dispatchtree/cloud/key"
)

// Suggestion is one candidate completion for a partial token.
type Suggestion struct {
	Value   string
	Tooltip string
}

// ParseResult is the sum type Success(T) | Failure(error). Go has no
// tagged union; ok discriminates the two.
type ParseResult[T any] struct {
	ok    bool
	value T
	err   error
}

// Success builds a successful ParseResult.
func Success[T any](v T) ParseResult[T] {
	return ParseResult[T]{ok: true, value: v}
}

// Failure builds a failed ParseResult. err should usually be a
// *clouderr.ArgumentParse.
func Failure[T any](err error) ParseResult[T] {
	return ParseResult[T]{err: err}
}

// Unwrap returns (value, nil) on success or (zero, err) on failure.
func (r ParseResult[T]) Unwrap() (T, error) {
	return r.value, r.err
}

// Ok reports whether the parse succeeded.
func (r ParseResult[T]) Ok() bool { return r.ok }

// Parser is the typed parse/suggest contract for argument type T.
type Parser[T any] interface {
	Parse(ctx *key.Context, in *input.Input) ParseResult[T]
	Suggestions(ctx *key.Context, partial string) []Suggestion
	ValueType() reflect.Type
}

// AnyParser is the type-erased form the tree operates on; every Parser[T]
// is adapted to this via Adapt so the tree can store heterogeneous
// variable-node parsers in one slice.
type AnyParser interface {
	ParseAny(ctx *key.Context, in *input.Input) (any, error)
	SuggestionsAny(ctx *key.Context, partial string) []Suggestion
	ValueType() reflect.Type
}

type adapted[T any] struct {
	inner Parser[T]
}

// Adapt erases a typed Parser[T] into an AnyParser for storage in the tree.
func Adapt[T any](p Parser[T]) AnyParser {
	return adapted[T]{inner: p}
}

func (a adapted[T]) ParseAny(ctx *key.Context, in *input.Input) (any, error) {
	return a.inner.Parse(ctx, in).Unwrap()
}

func (a adapted[T]) SuggestionsAny(ctx *key.Context, partial string) []Suggestion {
	return a.inner.Suggestions(ctx, partial)
}

func (a adapted[T]) ValueType() reflect.Type { return a.inner.ValueType() }
