// Package tree implements the command tree and its dispatch algorithm: a
// shared-prefix tree of literal and variable nodes, insertion with
// conflict detection, and the parse/suggest traversals.
package tree

import (
	"reflect"

	"github.com/dispatchtree/cloud/input"
	"github.com/dispatchtree/cloud/key"
	"github.com/dispatchtree/cloud/parser"
	"github.com/dispatchtree/cloud/process"
)

// ComponentKind discriminates the three component shapes a CommandNode can
// hold.
type ComponentKind int

const (
	KindLiteral ComponentKind = iota
	KindVariable
	KindFlagContainer
)

// Default is either a fixed value or a deferred producer, used when an
// optional component is absent from the input.
type Default struct {
	Value    any
	Producer func(ctx *key.Context) any
}

// Resolve returns the default value for ctx, preferring a deferred
// producer when set.
func (d *Default) Resolve(ctx *key.Context) any {
	if d == nil {
		return nil
	}
	if d.Producer != nil {
		return d.Producer(ctx)
	}
	return d.Value
}

// ComponentValidator is an extra validator run on a component's already-
// parsed token, after a successful Parser.Parse and before the value is
// bound into the Context.
type ComponentValidator func(ctx *key.Context, raw string, value any) error

// FlagContainer is the interface a flag-subsystem implementation (see
// package flag) satisfies so the tree can treat flag collection as an
// ordinary terminal pseudo-component without importing the flag package.
type FlagContainer interface {
	Parse(ctx *key.Context, in *input.Input) error
	Suggest(ctx *key.Context, in *input.Input) []parser.Suggestion
}

// CommandComponent is one slot in a command path: a literal word, a typed
// variable, or the trailing flag container.
type CommandComponent struct {
	Name        string
	Kind        ComponentKind
	Aliases     []string // literal only
	Parser      parser.AnyParser
	Required    bool
	Default     *Default
	Description string
	Validators  []ComponentValidator
	Flags       FlagContainer // flag-container only

	literalParserType reflect.Type // not set or read by this package
}

// Key returns the typed key under which this component's value is bound,
// for callers that need to look a value up without constructing their own
// key.Key.
func (c *CommandComponent) Key() key.Key {
	var t reflect.Type
	if c.Parser != nil {
		t = c.Parser.ValueType()
	}
	return key.Key{Name: c.Name, Type: t}
}

// Handler is the terminal command's business logic. It receives the fully
// bound Context and returns an error, which Execute wraps in
// clouderr.CommandExecution unless it is already one of the typed core
// errors.
type Handler func(ctx *key.Context) error

// Command is an ordered list of components plus a handler, meta map,
// required sender type, and permission. Commands are immutable once
// inserted.
type Command struct {
	Components []*CommandComponent
	Handler    Handler
	Meta       map[key.Key]any
	// SenderType, when non-nil, must be an interface type; a sender is
	// accepted only if it implements this interface — this is how sender
	// assignability is modeled without a class hierarchy to walk.
	SenderType reflect.Type
	Permission string
}

// CommandNode is one position in the tree.
type CommandNode struct {
	component *CommandComponent // nil at the root
	parent    *CommandNode

	literalChildren map[string]*CommandNode // case-policy-normalized name/alias -> node
	variableChild   *CommandNode
	flagChild       *CommandNode

	terminal *Command

	// chain holds this node's stages; Parse runs its preprocessors when
	// traversal reaches the node. Its postprocessors are not run by the
	// tree.
	chain *process.Chain
}

func newNode(component *CommandComponent, parent *CommandNode) *CommandNode {
	return &CommandNode{
		component:       component,
		parent:          parent,
		literalChildren: make(map[string]*CommandNode),
	}
}

// Component returns the node's component, or nil at the root.
func (n *CommandNode) Component() *CommandComponent { return n.component }

// Parent returns the node's parent, or nil at the root.
func (n *CommandNode) Parent() *CommandNode { return n.parent }

// Terminal returns the command attached at this node, or nil.
func (n *CommandNode) Terminal() *Command { return n.terminal }

// Children returns every child node (literal, variable, flag-container) for
// traversal/help purposes.
func (n *CommandNode) Children() []*CommandNode {
	out := make([]*CommandNode, 0, len(n.literalChildren)+2)
	seen := make(map[*CommandNode]bool)
	for _, c := range n.literalChildren {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	if n.variableChild != nil {
		out = append(out, n.variableChild)
	}
	if n.flagChild != nil {
		out = append(out, n.flagChild)
	}
	return out
}

// SetChain attaches a chain whose preprocessors run when traversal reaches
// this node. The manager attaches its manager-wide chain to the root this
// way.
func (n *CommandNode) SetChain(c *process.Chain) { n.chain = c }

func normalizeKey(name string, policy parser.CasePolicy) string {
	if policy == parser.CaseSensitive {
		return name
	}
	return lower(name)
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
