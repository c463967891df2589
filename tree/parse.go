package tree

import (
	"reflect"
	"strings"

	"github.com/dispatchtree/cloud/clouderr"
	"github.com/dispatchtree/cloud/input"
	"github.com/dispatchtree/cloud/key"
)

// PermissionChecker is implemented by senders that can answer a permission
// query. A sender that does not implement it is treated as lacking any
// named permission.
type PermissionChecker interface {
	HasPermission(permission string) bool
}

// ParseOutcome is what Parse returns: either a resolved terminal, a
// "consumed but not executed" marker for confirmation-style middleware, or
// an error.
type ParseOutcome struct {
	Command  *Command
	Consumed bool
	Err      error
}

// Parse walks the tree from the root consuming tokens from in, producing
// either a resolved terminal Command or a typed failure.
func (t *CommandTree) Parse(ctx *key.Context, in *input.Input) ParseOutcome {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cmd, consumed, err := t.parseNode(t.root, ctx, in, nil)
	if err != nil {
		return ParseOutcome{Err: err}
	}
	if consumed {
		return ParseOutcome{Consumed: true}
	}
	if err := t.checkSenderAndPermission(cmd, ctx); err != nil {
		return ParseOutcome{Err: err}
	}
	return ParseOutcome{Command: cmd}
}

func (t *CommandTree) checkSenderAndPermission(cmd *Command, ctx *key.Context) error {
	if cmd.SenderType != nil {
		if ctx.Sender == nil || !reflect.TypeOf(ctx.Sender).Implements(cmd.SenderType) {
			return &clouderr.InvalidCommandSender{RequiredType: cmd.SenderType.String()}
		}
	}
	if cmd.Permission != "" {
		checker, ok := ctx.Sender.(PermissionChecker)
		if !ok || !checker.HasPermission(cmd.Permission) {
			return &clouderr.NoPermission{Permission: cmd.Permission}
		}
	}
	return nil
}

// parseNode implements one step of the recursive descent down the tree.
// It returns either a resolved command, a "consumed" signal from a
// short-circuiting postprocessor-style preprocessor, or an error.
func (t *CommandTree) parseNode(node *CommandNode, ctx *key.Context, in *input.Input, pathSoFar []string) (*Command, bool, error) {
	if r := node.chain.RunPreprocessors(ctx); !r.Continue {
		if r.Consumed {
			return nil, true, nil
		}
		return nil, false, r.Err
	}

	mark := in.Mark()

	if !in.Empty() {
		if tok, err := in.PeekToken(); err == nil {
			if child, ok := t.matchLiteral(node, tok); ok {
				_, _ = in.ReadString()
				return t.parseNode(child, ctx, in, append(pathSoFar, child.component.Name))
			}
		}
	}

	if node.variableChild != nil {
		cmd, consumed, err, handled := t.tryVariable(node, ctx, in, mark, pathSoFar)
		if handled {
			return cmd, consumed, err
		}
	}

	if node.flagChild != nil {
		flagComp := node.flagChild.component
		if err := flagComp.Flags.Parse(ctx, in); err != nil {
			return nil, false, err
		}
		if node.flagChild.terminal != nil {
			return node.flagChild.terminal, false, nil
		}
		return nil, false, &clouderr.InvalidSyntax{CorrectSyntax: strings.Join(pathSoFar, " "), Prefix: strings.Join(pathSoFar, " ")}
	}

	if in.Empty() {
		if node.terminal != nil {
			return node.terminal, false, nil
		}
	}

	if len(pathSoFar) == 0 {
		tok, _ := in.PeekToken()
		return nil, false, &clouderr.NoSuchCommand{Supplied: tok}
	}

	prefix := strings.Join(pathSoFar, " ")
	correctSyntax := prefix
	if tok, err := in.PeekToken(); err == nil {
		if child, ok := t.uniqueLiteralPrefixMatch(node, tok); ok {
			correctSyntax = strings.Join(append(append([]string{}, pathSoFar...), child.component.Name), " ")
		}
	}
	return nil, false, &clouderr.InvalidSyntax{
		CorrectSyntax: correctSyntax,
		Prefix:        prefix,
	}
}

// tryVariable attempts the node's variable child, applying the optional/
// default skip rule needed for scenarios like "give <player> [amount]":
// when the component is optional and either input is exhausted or what
// remains looks like a flag token, its default is bound and traversal
// continues into the child without consuming input.
//
// Every path currently reports handled=true: a required component that
// fails to parse with no terminal to fall back on returns its parse
// failure. A false handled would signal the caller to continue past the
// variable-child branch.
func (t *CommandTree) tryVariable(node *CommandNode, ctx *key.Context, in *input.Input, mark int, pathSoFar []string) (cmd *Command, consumed bool, err error, handled bool) {
	child := node.variableChild
	comp := child.component

	nextLooksLikeFlag := false
	if !in.Empty() {
		if tok, tErr := in.PeekToken(); tErr == nil {
			nextLooksLikeFlag = strings.HasPrefix(tok, "-")
		}
	}

	if !comp.Required && (in.Empty() || nextLooksLikeFlag) {
		bindDefault(ctx, comp)
		c, cons, e := t.parseNode(child, ctx, in, append(pathSoFar, comp.Name))
		return c, cons, e, true
	}

	val, perr := comp.Parser.ParseAny(ctx, in)
	if perr == nil {
		raw := strings.TrimLeft(in.Raw()[mark:in.Pos()], " ")
		for _, v := range comp.Validators {
			if verr := v(ctx, raw, val); verr != nil {
				perr = verr
				break
			}
		}
	}
	if perr == nil {
		ctx.RawPut(comp.Key(), val)
		c, cons, e := t.parseNode(child, ctx, in, append(pathSoFar, comp.Name))
		return c, cons, e, true
	}

	in.Reset(mark)

	if !comp.Required {
		bindDefault(ctx, comp)
		c, cons, e := t.parseNode(child, ctx, in, append(pathSoFar, comp.Name))
		if e == nil {
			return c, cons, e, true
		}
		if node.terminal != nil {
			return node.terminal, false, nil, true
		}
		// The fallback continuation found no better explanation for the
		// leftover input than a generic syntax failure; perr (e.g. a
		// NumberOutOfRange from this very token) is the more specific
		// diagnostic and wins.
		return nil, false, wrapParseFailure(perr, comp, strings.Join(pathSoFar, " ")), true
	}

	if node.terminal != nil && (in.Empty() || nextLooksLikeFlag) {
		return node.terminal, false, nil, true
	}

	return nil, false, wrapParseFailure(perr, comp, strings.Join(pathSoFar, " ")), true
}

func bindDefault(ctx *key.Context, comp *CommandComponent) {
	if comp.Default == nil {
		return
	}
	ctx.RawPut(comp.Key(), comp.Default.Resolve(ctx))
}

func wrapParseFailure(err error, comp *CommandComponent, prefix string) error {
	if ap, ok := err.(*clouderr.ArgumentParse); ok {
		ap.Component = comp.Name
		ap.Prefix = prefix
		return ap
	}
	return err
}

// matchLiteral finds a literal child of node whose name or alias matches
// tok under the tree's case policy. Literal beats variable is implemented
// by the caller trying literals first.
func (t *CommandTree) matchLiteral(node *CommandNode, tok string) (*CommandNode, bool) {
	key := normalizeKey(tok, t.Case)
	child, ok := node.literalChildren[key]
	return child, ok
}

// uniqueLiteralPrefixMatch finds the single literal child of node whose own
// name (not aliases) is prefixed by tok under the tree's case policy. It
// reports ok=false if no child qualifies or more than one does, since the
// completion would be ambiguous.
func (t *CommandTree) uniqueLiteralPrefixMatch(node *CommandNode, tok string) (match *CommandNode, ok bool) {
	norm := normalizeKey(tok, t.Case)
	seen := make(map[*CommandNode]bool)
	for _, child := range node.literalChildren {
		if seen[child] {
			continue
		}
		seen[child] = true
		if strings.HasPrefix(normalizeKey(child.component.Name, t.Case), norm) {
			if match != nil {
				return nil, false
			}
			match = child
		}
	}
	return match, match != nil
}
