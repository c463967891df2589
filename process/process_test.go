package process

import (
	"errors"
	"testing"

	"github.com/dispatchtree/cloud/key"
)

func TestChainRunPreprocessorsStopsAtFirstNonContinue(t *testing.T) {
	c := NewChain()
	var ran []string
	c.AddPreprocessor(func(ctx *key.Context) Result {
		ran = append(ran, "first")
		return Continue()
	})
	stopErr := errors.New("blocked")
	c.AddPreprocessor(func(ctx *key.Context) Result {
		ran = append(ran, "second")
		return Stop(stopErr)
	})
	c.AddPreprocessor(func(ctx *key.Context) Result {
		ran = append(ran, "third")
		return Continue()
	})

	r := c.RunPreprocessors(key.New(nil))
	if r.Continue {
		t.Error("Continue = true, want false")
	}
	if r.Err != stopErr {
		t.Errorf("Err = %v, want %v", r.Err, stopErr)
	}
	if len(ran) != 2 || ran[0] != "first" || ran[1] != "second" {
		t.Errorf("ran = %v, want [first second]", ran)
	}
}

func TestChainRunPostprocessorsAllContinue(t *testing.T) {
	c := NewChain()
	calls := 0
	c.AddPostprocessor(func(ctx *key.Context) Result { calls++; return Continue() })
	c.AddPostprocessor(func(ctx *key.Context) Result { calls++; return Continue() })

	r := c.RunPostprocessors(key.New(nil))
	if !r.Continue {
		t.Error("Continue = false, want true")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestChainConsumedStopsWithoutError(t *testing.T) {
	c := NewChain()
	c.AddPreprocessor(func(ctx *key.Context) Result { return Consumed() })
	r := c.RunPreprocessors(key.New(nil))
	if r.Continue {
		t.Error("Continue = true, want false")
	}
	if !r.Consumed {
		t.Error("Consumed = false, want true")
	}
	if r.Err != nil {
		t.Errorf("Err = %v, want nil", r.Err)
	}
}

func TestNilChainAlwaysContinues(t *testing.T) {
	var c *Chain
	if r := c.RunPreprocessors(key.New(nil)); !r.Continue {
		t.Error("nil Chain.RunPreprocessors() should Continue")
	}
	if r := c.RunPostprocessors(key.New(nil)); !r.Continue {
		t.Error("nil Chain.RunPostprocessors() should Continue")
	}
}
