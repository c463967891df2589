package tree

import (
	"github.com/dispatchtree/cloud/input"
	"github.com/dispatchtree/cloud/key"
	"github.com/dispatchtree/cloud/parser"
)

// Suggest mirrors Parse but never fails: at the point parsing would fail
// or input ends, it collects candidate completions for the current
// partial token.
func (t *CommandTree) Suggest(ctx *key.Context, in *input.Input) []parser.Suggestion {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.suggestNode(t.root, ctx, in)
}

func (t *CommandTree) suggestNode(node *CommandNode, ctx *key.Context, in *input.Input) []parser.Suggestion {
	mark := in.Mark()

	tok, err := in.PeekToken()
	if err != nil {
		return t.collectSuggestions(node, ctx, "")
	}

	hasMore := tokenHasMoreAfter(in)
	in.Reset(mark)

	if !hasMore {
		return t.collectSuggestions(node, ctx, tok)
	}

	if child, ok := t.matchLiteral(node, tok); ok {
		_, _ = in.ReadString()
		return t.suggestNode(child, ctx, in)
	}

	if node.variableChild != nil {
		comp := node.variableChild.component
		val, perr := comp.Parser.ParseAny(ctx, in)
		if perr == nil {
			ctx.RawPut(comp.Key(), val)
			return t.suggestNode(node.variableChild, ctx, in)
		}
		in.Reset(mark)
	}

	if node.flagChild != nil {
		return node.flagChild.component.Flags.Suggest(ctx, in)
	}

	return nil
}

func tokenHasMoreAfter(in *input.Input) bool {
	mark := in.Mark()
	defer in.Reset(mark)
	if _, err := in.ReadString(); err != nil {
		return false
	}
	return !in.Empty()
}

// collectSuggestions gathers every raw candidate applicable at node (every
// literal name/alias, the variable child's own suggestions, and the flag
// container's), then narrows them with the tree's SuggestionProcessor.
func (t *CommandTree) collectSuggestions(node *CommandNode, ctx *key.Context, partial string) []parser.Suggestion {
	var raw []parser.Suggestion

	keys := make([]string, 0, len(node.literalChildren))
	for k := range node.literalChildren {
		keys = append(keys, k)
	}
	sortStrings(keys)
	seen := make(map[*CommandNode]bool, len(node.literalChildren))
	for _, k := range keys {
		child := node.literalChildren[k]
		if seen[child] {
			continue
		}
		seen[child] = true
		names := append([]string{child.component.Name}, child.component.Aliases...)
		for _, n := range names {
			raw = append(raw, parser.Suggestion{Value: n})
		}
	}

	if node.variableChild != nil {
		raw = append(raw, node.variableChild.component.Parser.SuggestionsAny(ctx, partial)...)
	}

	if node.flagChild != nil {
		raw = append(raw, node.flagChild.component.Flags.Suggest(ctx, input.New(partial))...)
	}

	processor := t.SuggestionProcessor
	if processor == nil {
		processor = DefaultSuggestionProcessor
	}
	return processor(partial, raw)
}
