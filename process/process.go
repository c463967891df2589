// Package process implements the preprocessor/postprocessor chain: ordered
// stages run before parsing and after binding, either of which may
// short-circuit the traversal.
package process

import "github.com/dispatchtree/cloud/key"

// Result is what a Stage returns: either continue, stop with an error, or
// stop having "consumed" the request without executing it — the shape a
// confirmation-middleware collaborator needs.
type Result struct {
	Continue bool
	Consumed bool
	Err      error
}

// Continue lets the chain proceed to the next stage.
func Continue() Result { return Result{Continue: true} }

// Stop halts the chain with err, which becomes the parse/execute failure.
func Stop(err error) Result { return Result{Err: err} }

// Consumed halts the chain without an error and without executing the
// handler; used by middleware (e.g. a confirmation step) that wants to
// intercept a request rather than let it fail or succeed normally.
func Consumed() Result { return Result{Consumed: true} }

// Stage is one preprocessor or postprocessor step.
type Stage func(ctx *key.Context) Result

// Chain is an ordered, possibly empty, list of preprocessor stages and an
// independent ordered list of postprocessor stages.
type Chain struct {
	Preprocessors  []Stage
	Postprocessors []Stage
}

// NewChain returns an empty Chain.
func NewChain() *Chain { return &Chain{} }

// AddPreprocessor appends a stage to run before parsing/binding.
func (c *Chain) AddPreprocessor(s Stage) { c.Preprocessors = append(c.Preprocessors, s) }

// AddPostprocessor appends a stage to run after binding completes.
func (c *Chain) AddPostprocessor(s Stage) { c.Postprocessors = append(c.Postprocessors, s) }

// RunPreprocessors runs every preprocessor stage in order, stopping at the
// first one that does not Continue.
func (c *Chain) RunPreprocessors(ctx *key.Context) Result {
	if c == nil {
		return Continue()
	}
	for _, s := range c.Preprocessors {
		if r := s(ctx); !r.Continue {
			return r
		}
	}
	return Continue()
}

// RunPostprocessors runs every postprocessor stage in order, stopping at
// the first one that does not Continue.
func (c *Chain) RunPostprocessors(ctx *key.Context) Result {
	if c == nil {
		return Continue()
	}
	for _, s := range c.Postprocessors {
		if r := s(ctx); !r.Continue {
			return r
		}
	}
	return Continue()
}
