// Package help implements the help handler: verbose/multiple/index
// queries over a command tree, filtered by a sender-visibility predicate,
// plus syntax formatting shared by all three result shapes.
package help

import (
	"strings"

	"github.com/dispatchtree/cloud/tree"
)

// VisibleFilter decides whether a terminal command should be considered at
// all for this sender — typically a permission/sender-type check mirroring
// (but not required to match) the one Parse applies.
type VisibleFilter func(cmd *tree.Command) bool

// Entry is one command's help-relevant identity: its full path of component
// names and the command itself.
type Entry struct {
	Path    []string
	Command *tree.Command
}

// Syntax renders Entry's path: literals by name, required variables as
// <name>, optional variables as [name], and a flag container as one
// [--flag]/[--other <value>] token per flag, plus its trailing positional.
func (e Entry) Syntax() string {
	parts := make([]string, 0, len(e.Command.Components))
	for _, c := range e.Command.Components {
		parts = append(parts, componentSyntax(c))
	}
	return strings.Join(parts, " ")
}

// VerboseCommand is returned when the query uniquely identifies a terminal.
type VerboseCommand struct {
	Entry Entry
}

// MultipleCommand is returned when the query matches a subtree with more
// than one terminal.
type MultipleCommand struct {
	LongestCommonPath string
	Children          []Entry
}

// IndexCommand lists every visible root-level entry point.
type IndexCommand struct {
	Entries []Entry
}

// Result is the sum type Query produces; exactly one field is non-nil.
type Result struct {
	Verbose  *VerboseCommand
	Multiple *MultipleCommand
	Index    *IndexCommand
}

// Query answers a help request against t, honoring visible for every
// terminal it considers.
func Query(t *tree.CommandTree, visible VisibleFilter, query string) Result {
	tokens := strings.Fields(query)

	if len(tokens) == 0 {
		return Result{Index: &IndexCommand{Entries: rootIndex(t, visible)}}
	}

	matches := collectMatches(t, visible, tokens)

	switch len(matches) {
	case 0:
		return Result{Index: &IndexCommand{Entries: rootIndex(t, visible)}}
	case 1:
		return Result{Verbose: &VerboseCommand{Entry: matches[0]}}
	default:
		return Result{Multiple: &MultipleCommand{
			LongestCommonPath: longestCommonPath(matches),
			Children:          matches,
		}}
	}
}

// longestCommonPath returns the longest sequence of leading component names
// shared by every entry's Path, joined into a syntax-style string.
func longestCommonPath(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}
	prefix := entries[0].Path
	for _, e := range entries[1:] {
		prefix = commonPrefix(prefix, e.Path)
		if len(prefix) == 0 {
			break
		}
	}
	return strings.Join(prefix, " ")
}

func commonPrefix(a, b []string) []string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// rootIndex lists every visible terminal reachable without descending
// through another terminal's subtree boundary — in practice, every visible
// terminal in the tree, since the core tree does not nest commands under
// other commands' terminals.
func rootIndex(t *tree.CommandTree, visible VisibleFilter) []Entry {
	var out []Entry
	t.Traverse(func(node *tree.CommandNode, path []*tree.CommandComponent) {
		cmd := node.Terminal()
		if cmd == nil || (visible != nil && !visible(cmd)) {
			return
		}
		out = append(out, Entry{Path: pathNames(path), Command: cmd})
	})
	return out
}

// collectMatches finds every visible terminal whose path is prefixed by
// tokens (matched against literal component names/aliases case-
// insensitively; a variable component matches any single token).
func collectMatches(t *tree.CommandTree, visible VisibleFilter, tokens []string) []Entry {
	var out []Entry
	t.Traverse(func(node *tree.CommandNode, path []*tree.CommandComponent) {
		cmd := node.Terminal()
		if cmd == nil || (visible != nil && !visible(cmd)) {
			return
		}
		if !pathMatchesQuery(path, tokens) {
			return
		}
		out = append(out, Entry{Path: pathNames(path), Command: cmd})
	})
	return out
}

func pathMatchesQuery(path []*tree.CommandComponent, tokens []string) bool {
	if len(tokens) > len(path) {
		return false
	}
	for i, tok := range tokens {
		c := path[i]
		if c.Kind != tree.KindLiteral {
			continue
		}
		if !equalsAnyFold(tok, append([]string{c.Name}, c.Aliases...)) {
			return false
		}
	}
	return true
}

func equalsAnyFold(tok string, names []string) bool {
	for _, n := range names {
		if strings.EqualFold(tok, n) {
			return true
		}
	}
	return false
}

func pathNames(path []*tree.CommandComponent) []string {
	out := make([]string, len(path))
	for i, c := range path {
		out[i] = c.Name
	}
	return out
}

func componentSyntax(c *tree.CommandComponent) string {
	switch c.Kind {
	case tree.KindLiteral:
		return c.Name
	case tree.KindFlagContainer:
		return flagSyntax(c)
	default:
		if c.Required {
			return "<" + c.Name + ">"
		}
		return "[" + c.Name + "]"
	}
}

func flagSyntax(c *tree.CommandComponent) string {
	fs, ok := c.Flags.(interface{ FlagSyntax() string })
	if ok {
		return fs.FlagSyntax()
	}
	return "[--flags]"
}
