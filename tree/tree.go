package tree

import (
	"strings"

	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/dispatchtree/cloud/parser"
)

// CommandTree is the shared-prefix tree of literal and variable nodes. It
// is read-mostly: Insert is only safe to call during registration; once
// the owning manager freezes the tree, Parse/Suggest/Traverse are safe
// from any number of goroutines.
type CommandTree struct {
	mu   deadlock.RWMutex
	root *CommandNode

	// Case governs literal disambiguation, per manager configuration;
	// default case-insensitive.
	Case parser.CasePolicy

	namedNodes map[string]*CommandNode

	// SuggestionProcessor filters the final candidate list down to valid
	// completions of the partial token being completed. Defaults to a
	// case-insensitive prefix match.
	SuggestionProcessor SuggestionProcessor
}

// SuggestionProcessor narrows raw candidates down to those still valid
// completions of token.
type SuggestionProcessor func(token string, candidates []parser.Suggestion) []parser.Suggestion

// DefaultSuggestionProcessor implements the manager default: case-
// insensitive prefix matching, preserving the candidates' original order.
func DefaultSuggestionProcessor(token string, candidates []parser.Suggestion) []parser.Suggestion {
	lower := strings.ToLower(token)
	out := make([]parser.Suggestion, 0, len(candidates))
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c.Value), lower) {
			out = append(out, c)
		}
	}
	return out
}

// New returns an empty CommandTree with the given case policy.
func New(policy parser.CasePolicy) *CommandTree {
	t := &CommandTree{Case: policy, SuggestionProcessor: DefaultSuggestionProcessor}
	t.root = newNode(nil, nil)
	return t
}

// Root returns the tree's root node.
func (t *CommandTree) Root() *CommandNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// GetNamedNode returns a terminal node whose component carries this name,
// indexed at insertion time; nodes without a terminal are not indexed.
// Multiple commands can end in a component of the same name at different
// depths; this returns whichever was indexed most recently, matching a
// simple "last wins" lookup used by help/debug tooling rather than
// full-path addressing.
func (t *CommandTree) GetNamedNode(name string) (*CommandNode, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.namedNodes[name]
	return n, ok
}

// Visitor is called for every node Traverse visits, along with the path of
// components from the root to that node (root itself excluded).
type Visitor func(node *CommandNode, path []*CommandComponent)

// Traverse walks the tree depth-first from the root, calling visit at
// every node including those without a terminal.
func (t *CommandTree) Traverse(visit Visitor) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	t.traverse(t.root, nil, visit)
}

func (t *CommandTree) traverse(node *CommandNode, path []*CommandComponent, visit Visitor) {
	if node.component != nil {
		path = append(path, node.component)
	}
	visit(node, path)
	for _, child := range orderedChildren(node) {
		t.traverse(child, path, visit)
	}
}

// orderedChildren returns a node's children with a deterministic order:
// literals first (insertion order is not tracked per-map, so this sorts by
// name for reproducible output), then the variable child, then the flag
// child.
func orderedChildren(n *CommandNode) []*CommandNode {
	seen := make(map[*CommandNode]bool)
	names := make([]string, 0, len(n.literalChildren))
	byName := make(map[string]*CommandNode, len(n.literalChildren))
	for k, v := range n.literalChildren {
		if seen[v] {
			continue
		}
		seen[v] = true
		names = append(names, k)
		byName[k] = v
	}
	sortStrings(names)
	out := make([]*CommandNode, 0, len(names)+2)
	for _, k := range names {
		out = append(out, byName[k])
	}
	if n.variableChild != nil {
		out = append(out, n.variableChild)
	}
	if n.flagChild != nil {
		out = append(out, n.flagChild)
	}
	return out
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
