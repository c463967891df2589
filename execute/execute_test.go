package execute

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dispatchtree/cloud/clouderr"
	"github.com/dispatchtree/cloud/input"
	"github.com/dispatchtree/cloud/key"
	"github.com/dispatchtree/cloud/process"
	"github.com/dispatchtree/cloud/tree"
)

// fakeResolver returns a fixed outcome for every call, letting coordinator
// tests exercise each branch of Execute without building a real tree.
type fakeResolver struct {
	outcome tree.ParseOutcome
}

func (f *fakeResolver) Parse(ctx *key.Context, in *input.Input) tree.ParseOutcome {
	return f.outcome
}

func handlerCommand(handler tree.Handler) *tree.Command {
	return &tree.Command{Handler: handler}
}

func TestInlineCoordinatorRunsHandlerAndResolves(t *testing.T) {
	var ranWith *key.Context
	cmd := handlerCommand(func(ctx *key.Context) error {
		ranWith = ctx
		return nil
	})
	c := NewInline(&fakeResolver{outcome: tree.ParseOutcome{Command: cmd}}, process.NewChain())

	f := c.Execute(context.Background(), "sender", "whatever")
	result, err := f.Wait()
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if result == nil {
		t.Fatal("Wait() result is nil")
	}
	if ranWith == nil {
		t.Error("handler never ran")
	}
}

func TestInlineCoordinatorSurfacesParseError(t *testing.T) {
	parseErr := &clouderr.NoSuchCommand{Supplied: "nope"}
	c := NewInline(&fakeResolver{outcome: tree.ParseOutcome{Err: parseErr}}, process.NewChain())

	f := c.Execute(context.Background(), "sender", "nope")
	_, err := f.Wait()
	if err != parseErr {
		t.Errorf("Wait() error = %v, want %v", err, parseErr)
	}
}

func TestInlineCoordinatorConsumedShortCircuitsHandler(t *testing.T) {
	called := false
	cmd := handlerCommand(func(ctx *key.Context) error {
		called = true
		return nil
	})
	_ = cmd // unused in this outcome; Consumed never reaches a command
	c := NewInline(&fakeResolver{outcome: tree.ParseOutcome{Consumed: true}}, process.NewChain())

	f := c.Execute(context.Background(), "sender", "y")
	_, err := f.Wait()
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if called {
		t.Error("handler ran despite Consumed outcome")
	}
}

func TestInlineCoordinatorWrapsHandlerError(t *testing.T) {
	cmd := handlerCommand(func(ctx *key.Context) error {
		return errors.New("boom")
	})
	c := NewInline(&fakeResolver{outcome: tree.ParseOutcome{Command: cmd}}, process.NewChain())

	f := c.Execute(context.Background(), "sender", "x")
	_, err := f.Wait()
	ce, ok := err.(*clouderr.CommandExecution)
	if !ok {
		t.Fatalf("Wait() error = %v (%T), want *clouderr.CommandExecution", err, err)
	}
	if ce.Cause == nil || ce.Cause.Error() != "boom" {
		t.Errorf("Cause = %v, want boom", ce.Cause)
	}
}

func TestInlineCoordinatorWrapsPanic(t *testing.T) {
	cmd := handlerCommand(func(ctx *key.Context) error {
		panic("kaboom")
	})
	c := NewInline(&fakeResolver{outcome: tree.ParseOutcome{Command: cmd}}, process.NewChain())

	f := c.Execute(context.Background(), "sender", "x")
	_, err := f.Wait()
	if _, ok := err.(*clouderr.CommandExecution); !ok {
		t.Fatalf("Wait() error = %v (%T), want *clouderr.CommandExecution", err, err)
	}
}

func TestInlineCoordinatorPostprocessorCanStop(t *testing.T) {
	called := false
	cmd := handlerCommand(func(ctx *key.Context) error {
		called = true
		return nil
	})
	stopErr := errors.New("blocked")
	chain := process.NewChain()
	chain.AddPostprocessor(func(ctx *key.Context) process.Result { return process.Stop(stopErr) })
	c := NewInline(&fakeResolver{outcome: tree.ParseOutcome{Command: cmd}}, chain)

	f := c.Execute(context.Background(), "sender", "x")
	_, err := f.Wait()
	if err != stopErr {
		t.Errorf("Wait() error = %v, want %v", err, stopErr)
	}
	if called {
		t.Error("handler ran despite postprocessor stopping the chain")
	}
}

func TestAsyncCoordinatorSyncParseAsyncExecute(t *testing.T) {
	done := make(chan struct{})
	cmd := handlerCommand(func(ctx *key.Context) error {
		close(done)
		return nil
	})
	c := NewAsync(&fakeResolver{outcome: tree.ParseOutcome{Command: cmd}}, process.NewChain(), SyncParseAsyncExecute)

	f := c.Execute(context.Background(), "sender", "x")
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler never ran within timeout")
	}
	if _, err := f.Wait(); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
}

func TestAsyncCoordinatorFullyAsyncSurfacesParseError(t *testing.T) {
	parseErr := &clouderr.NoSuchCommand{Supplied: "nope"}
	c := NewAsync(&fakeResolver{outcome: tree.ParseOutcome{Err: parseErr}}, process.NewChain(), FullyAsync)

	f := c.Execute(context.Background(), "sender", "nope")
	_, err := f.Wait()
	if err != parseErr {
		t.Errorf("Wait() error = %v, want %v", err, parseErr)
	}
}

func TestFutureCancelBeforeStartSuppressesHandler(t *testing.T) {
	f := newFuture()
	if !f.Cancel() {
		t.Fatal("Cancel() before markStarted should succeed")
	}
	if f.markStarted() {
		t.Error("markStarted() should fail after Cancel()")
	}
}

func TestFutureCancelAfterStartIsNoop(t *testing.T) {
	f := newFuture()
	if !f.markStarted() {
		t.Fatal("markStarted() should succeed")
	}
	if f.Cancel() {
		t.Error("Cancel() after markStarted should report false")
	}
}

func TestFutureTryResult(t *testing.T) {
	f := newFuture()
	if _, _, ok := f.TryResult(); ok {
		t.Error("TryResult() reported ready before complete")
	}
	f.complete("done", nil)
	v, err, ok := f.TryResult()
	if !ok || v != "done" || err != nil {
		t.Errorf("TryResult() = %v, %v, %v; want done, nil, true", v, err, ok)
	}
}
