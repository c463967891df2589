package tree

import (
	"fmt"
	"reflect"
)

// ConflictCause enumerates the deterministic insertion-rejection reasons.
type ConflictCause int

const (
	// DuplicateHandlerMismatch: two terminals with the same path have
	// different handlers.
	DuplicateHandlerMismatch ConflictCause = iota
	// RequiredAfterOptional: a required component follows an optional one
	// on the same path.
	RequiredAfterOptional
	// LiteralVariableNameClash: a literal name collides with an existing
	// variable component's name.
	LiteralVariableNameClash
	// AliasConflict: an alias conflicts with a sibling's name or alias.
	AliasConflict
	// AmbiguousVariableChild: a node would gain a second, differently
	// typed or named variable child (at most one is permitted).
	AmbiguousVariableChild
)

func (c ConflictCause) String() string {
	switch c {
	case DuplicateHandlerMismatch:
		return "duplicate handler mismatch"
	case RequiredAfterOptional:
		return "required component follows optional component"
	case LiteralVariableNameClash:
		return "literal name clashes with variable component name"
	case AliasConflict:
		return "alias conflicts with sibling name or alias"
	case AmbiguousVariableChild:
		return "ambiguous variable child"
	default:
		return "unknown conflict"
	}
}

// ConflictError is returned by Insert when a command cannot be added
// deterministically.
type ConflictError struct {
	Cause ConflictCause
	Path  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("tree: cannot insert %q: %s", e.Path, e.Cause)
}

// Insert adds cmd to the tree, reusing existing nodes along its path where
// possible. It is a no-op (returns nil) if the exact same command (same
// path, same handler) is already present — registering the same command
// twice is idempotent, never a silent duplicate.
func (t *CommandTree) Insert(cmd *Command) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := validateRequiredOrder(cmd); err != nil {
		return err
	}

	node := t.root
	seenOptional := false
	for _, comp := range cmd.Components {
		if comp.Required && seenOptional {
			return &ConflictError{Cause: RequiredAfterOptional, Path: pathString(cmd)}
		}
		if !comp.Required {
			seenOptional = true
		}

		child, err := t.resolveChild(node, comp)
		if err != nil {
			return err
		}
		node = child
	}

	if node.terminal != nil {
		if !sameCommand(node.terminal, cmd) {
			return &ConflictError{Cause: DuplicateHandlerMismatch, Path: pathString(cmd)}
		}
		return nil // idempotent re-registration
	}
	node.terminal = cmd
	t.indexTerminal(node)
	return nil
}

func validateRequiredOrder(cmd *Command) error {
	seenOptional := false
	for _, comp := range cmd.Components {
		if comp.Kind == KindFlagContainer {
			continue
		}
		if comp.Required && seenOptional {
			return &ConflictError{Cause: RequiredAfterOptional, Path: pathString(cmd)}
		}
		if !comp.Required {
			seenOptional = true
		}
	}
	return nil
}

// resolveChild finds or creates the child of node for comp, applying the
// deterministic insertion-conflict checks.
func (t *CommandTree) resolveChild(node *CommandNode, comp *CommandComponent) (*CommandNode, error) {
	switch comp.Kind {
	case KindLiteral:
		return t.resolveLiteralChild(node, comp)
	case KindVariable:
		return t.resolveVariableChild(node, comp)
	case KindFlagContainer:
		if node.flagChild == nil {
			node.flagChild = newNode(comp, node)
		}
		return node.flagChild, nil
	default:
		return nil, fmt.Errorf("tree: unknown component kind %d", comp.Kind)
	}
}

func (t *CommandTree) resolveLiteralChild(node *CommandNode, comp *CommandComponent) (*CommandNode, error) {
	primaryKey := normalizeKey(comp.Name, t.Case)

	if node.variableChild != nil && normalizeKey(node.variableChild.component.Name, t.Case) == primaryKey {
		return nil, &ConflictError{Cause: LiteralVariableNameClash, Path: comp.Name}
	}

	names := append([]string{comp.Name}, comp.Aliases...)
	var existing *CommandNode
	for _, n := range names {
		key := normalizeKey(n, t.Case)
		if found, ok := node.literalChildren[key]; ok {
			if existing == nil {
				existing = found
			} else if existing != found {
				return nil, &ConflictError{Cause: AliasConflict, Path: comp.Name}
			}
		}
	}

	if existing != nil {
		// Reusing an existing literal node: verify the alias set is
		// compatible (no alias claimed by a different sibling).
		for _, n := range names {
			key := normalizeKey(n, t.Case)
			if found, ok := node.literalChildren[key]; ok && found != existing {
				return nil, &ConflictError{Cause: AliasConflict, Path: comp.Name}
			}
		}
		for _, n := range names {
			node.literalChildren[normalizeKey(n, t.Case)] = existing
		}
		return existing, nil
	}

	for _, n := range names {
		key := normalizeKey(n, t.Case)
		if _, ok := node.literalChildren[key]; ok {
			return nil, &ConflictError{Cause: AliasConflict, Path: comp.Name}
		}
	}

	child := newNode(comp, node)
	for _, n := range names {
		node.literalChildren[normalizeKey(n, t.Case)] = child
	}
	return child, nil
}

func (t *CommandTree) resolveVariableChild(node *CommandNode, comp *CommandComponent) (*CommandNode, error) {
	if _, ok := node.literalChildren[normalizeKey(comp.Name, t.Case)]; ok {
		return nil, &ConflictError{Cause: LiteralVariableNameClash, Path: comp.Name}
	}

	if node.variableChild != nil {
		existing := node.variableChild.component
		if existing.Name == comp.Name && sameParserType(existing, comp) {
			return node.variableChild, nil
		}
		return nil, &ConflictError{Cause: AmbiguousVariableChild, Path: comp.Name}
	}

	child := newNode(comp, node)
	node.variableChild = child
	return child, nil
}

func sameParserType(a, b *CommandComponent) bool {
	if a.Parser == nil || b.Parser == nil {
		return a.Parser == b.Parser
	}
	return a.Parser.ValueType() == b.Parser.ValueType()
}

func sameCommand(a, b *Command) bool {
	// Go function values are not comparable with ==, so handlers are
	// compared by code pointer: two closures created from the same
	// function literal count as the same handler.
	if reflect.ValueOf(a.Handler).Pointer() != reflect.ValueOf(b.Handler).Pointer() {
		return false
	}
	if a.Permission != b.Permission || a.SenderType != b.SenderType {
		return false
	}
	return len(a.Components) == len(b.Components)
}

func pathString(cmd *Command) string {
	out := ""
	for i, c := range cmd.Components {
		if i > 0 {
			out += " "
		}
		out += c.Name
	}
	return out
}

func (t *CommandTree) indexTerminal(node *CommandNode) {
	if node.component == nil {
		return
	}
	if t.namedNodes == nil {
		t.namedNodes = make(map[string]*CommandNode)
	}
	t.namedNodes[node.component.Name] = node
}
