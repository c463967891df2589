// Package execute implements the execution coordinators: an inline
// (synchronous) coordinator and an executor-backed async one, both
// producing a cancellable Future.
package execute

import (
	"context"
	"fmt"

	"github.com/dispatchtree/cloud/clouderr"
	"github.com/dispatchtree/cloud/input"
	"github.com/dispatchtree/cloud/key"
	"github.com/dispatchtree/cloud/process"
	"github.com/dispatchtree/cloud/tree"
)

// Resolver is satisfied by *tree.CommandTree; a narrow interface keeps this
// package testable without constructing a full tree.
type Resolver interface {
	Parse(ctx *key.Context, in *input.Input) tree.ParseOutcome
}

// Coordinator parses and executes one command line, returning immediately
// with a Future the caller can wait on or cancel.
type Coordinator interface {
	Execute(ctx context.Context, sender any, line string) *Future
}

// CanceledError is the error a Future resolves with when Cancel lands
// before the handler starts.
type CanceledError struct{}

func (CanceledError) Error() string { return "execute: canceled before handler invocation" }

// InlineCoordinator runs parse and the handler on the calling goroutine,
// resolving its Future before Execute returns. This is the simplest
// coordinator and a good default for synchronous senders (tests, a REPL
// with no need for concurrency).
type InlineCoordinator struct {
	Tree           Resolver
	Postprocessors *process.Chain
}

// NewInline returns a Coordinator that never leaves the calling goroutine.
func NewInline(r Resolver, postprocessors *process.Chain) *InlineCoordinator {
	return &InlineCoordinator{Tree: r, Postprocessors: postprocessors}
}

func (c *InlineCoordinator) Execute(ctx context.Context, sender any, line string) *Future {
	f := newFuture()
	cctx := key.New(sender)
	outcome := c.Tree.Parse(cctx, input.New(line))
	if outcome.Err != nil {
		f.complete(nil, outcome.Err)
		return f
	}
	if outcome.Consumed {
		f.complete(cctx, nil)
		return f
	}
	if !f.markStarted() {
		f.complete(nil, CanceledError{})
		return f
	}
	err := runCommand(ctx, cctx, outcome.Command, c.Postprocessors)
	f.complete(cctx, err)
	return f
}

// Mode selects how much of Execute runs off the calling goroutine.
type Mode int

const (
	// SyncParseAsyncExecute parses on the calling goroutine (so a syntax
	// error surfaces before Execute returns) and only dispatches the
	// handler invocation to a new goroutine. This is the documented safe
	// default: a sender implementation that is not reentrant can still
	// safely call Execute from its own event loop, since parsing (which may
	// touch sender state for suggestions/permission checks) never races
	// with it.
	SyncParseAsyncExecute Mode = iota
	// FullyAsync dispatches both parse and execute to a new goroutine.
	FullyAsync
)

// AsyncCoordinator runs the handler (and, in FullyAsync mode, parsing too)
// on a new goroutine per call.
type AsyncCoordinator struct {
	Tree           Resolver
	Postprocessors *process.Chain
	Mode           Mode
}

// NewAsync returns an executor-backed Coordinator. mode defaults to
// SyncParseAsyncExecute, the safe default, unless FullyAsync is passed.
func NewAsync(r Resolver, postprocessors *process.Chain, mode Mode) *AsyncCoordinator {
	return &AsyncCoordinator{Tree: r, Postprocessors: postprocessors, Mode: mode}
}

func (c *AsyncCoordinator) Execute(ctx context.Context, sender any, line string) *Future {
	f := newFuture()

	if c.Mode == FullyAsync {
		go func() {
			cctx := key.New(sender)
			outcome := c.Tree.Parse(cctx, input.New(line))
			if outcome.Err != nil {
				f.complete(nil, outcome.Err)
				return
			}
			if outcome.Consumed {
				f.complete(cctx, nil)
				return
			}
			if !f.markStarted() {
				f.complete(nil, CanceledError{})
				return
			}
			err := runCommand(ctx, cctx, outcome.Command, c.Postprocessors)
			f.complete(cctx, err)
		}()
		return f
	}

	cctx := key.New(sender)
	outcome := c.Tree.Parse(cctx, input.New(line))
	if outcome.Err != nil {
		f.complete(nil, outcome.Err)
		return f
	}
	if outcome.Consumed {
		f.complete(cctx, nil)
		return f
	}
	go func() {
		if !f.markStarted() {
			f.complete(nil, CanceledError{})
			return
		}
		err := runCommand(ctx, cctx, outcome.Command, c.Postprocessors)
		f.complete(cctx, err)
	}()
	return f
}

// runCommand runs the manager-wide postprocessor chain and then the
// terminal's handler, converting a panic or bare error into the
// appropriate clouderr type.
func runCommand(ctx context.Context, cctx *key.Context, cmd *tree.Command, postprocessors *process.Chain) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &clouderr.CommandExecution{Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	if r := postprocessors.RunPostprocessors(cctx); !r.Continue {
		if r.Consumed {
			return nil
		}
		return r.Err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if herr := cmd.Handler(cctx); herr != nil {
		return clouderr.Wrap(herr)
	}
	return nil
}
