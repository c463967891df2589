// Package exception implements an exception controller: a registry of
// typed handlers selected by most-specific-type, with filter predicates
// and next()-style chaining to the next-best candidate.
package exception

import (
	"reflect"

	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/dispatchtree/cloud/key"
)

// Next invokes the next-best-matching handler, for handlers that want to
// delegate rather than handle an exception themselves.
type Next func() (any, error)

// Handler processes an error raised during parse or execute. It returns a
// result value (opaque to the controller; the manager decides what, if
// anything, to do with it) and an error. Returning a non-nil error
// propagates the failure to the caller of execute, whether that is the
// original err (re-throw) or a new one.
type Handler func(ctx *key.Context, err error, next Next) (any, error)

// Filter further restricts when a registration is eligible, beyond type
// assignability.
type Filter func(err error) bool

type registration struct {
	declared reflect.Type
	handler  Handler
	filter   Filter
	seq      int
}

// Controller stores exception registrations and dispatches an error to the
// most specific matching one.
type Controller struct {
	mu            deadlock.RWMutex
	registrations []registration
	seq           int
	frozen        bool
}

// NewController returns an empty Controller.
func NewController() *Controller { return &Controller{} }

// Freeze rejects further registration; the manager calls this on the
// Registering -> AfterRegistration transition.
func (c *Controller) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
}

// Register adds a handler for errType (concrete or interface), guarded by
// an optional filter. Later registrations for the same type shadow earlier
// ones only when they are equally specific (see Dispatch); both remain in
// the candidate list for next() chaining.
func (c *Controller) Register(errType reflect.Type, handler Handler, filter Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return errFrozen
	}
	c.seq++
	c.registrations = append(c.registrations, registration{
		declared: errType,
		handler:  handler,
		filter:   filter,
		seq:      c.seq,
	})
	return nil
}

// Dispatch routes err to the most specific matching registration. If no
// registration matches, it returns (nil, err) unchanged so the caller can
// surface it to whoever invoked execute.
func (c *Controller) Dispatch(ctx *key.Context, err error) (any, error) {
	c.mu.RLock()
	candidates := c.candidatesFor(err)
	c.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, err
	}
	return c.invoke(ctx, err, candidates, 0)
}

func (c *Controller) invoke(ctx *key.Context, err error, candidates []registration, i int) (any, error) {
	if i >= len(candidates) {
		return nil, err
	}
	reg := candidates[i]
	next := func() (any, error) { return c.invoke(ctx, err, candidates, i+1) }
	return reg.handler(ctx, err, next)
}

// candidatesFor computes the assignable+filter-matching registrations,
// ordered most-specific-first; ties (equal specificity) break by latest
// registration.
func (c *Controller) candidatesFor(err error) []registration {
	errType := reflect.TypeOf(err)
	var out []registration
	for _, reg := range c.registrations {
		if !assignable(errType, reg.declared) {
			continue
		}
		if reg.filter != nil && !reg.filter(err) {
			continue
		}
		out = append(out, reg)
	}
	sortBySpecificity(out, errType)
	return out
}

func assignable(errType, declared reflect.Type) bool {
	if errType == nil || declared == nil {
		return false
	}
	if errType == declared {
		return true
	}
	if declared.Kind() == reflect.Interface {
		return errType.Implements(declared)
	}
	return false
}

// specificity ranks an exact concrete-type match above an interface match;
// a custom error type's own partial order (when it implements more than
// one registered interface) is expressed purely through registration
// order within a tier: latest registration wins a tie.
func specificity(declared, errType reflect.Type) int {
	if declared == errType {
		return 2
	}
	if declared.Kind() == reflect.Interface {
		return 1
	}
	return 0
}

func sortBySpecificity(regs []registration, errType reflect.Type) {
	for i := 1; i < len(regs); i++ {
		for j := i; j > 0; j-- {
			a, b := regs[j-1], regs[j]
			if less(a, b, errType) {
				break
			}
			regs[j-1], regs[j] = regs[j], regs[j-1]
		}
	}
}

// less reports whether a should sort before b (a is the better candidate).
func less(a, b registration, errType reflect.Type) bool {
	sa, sb := specificity(a.declared, errType), specificity(b.declared, errType)
	if sa != sb {
		return sa > sb
	}
	return a.seq > b.seq
}

var errFrozen = &frozenError{}

type frozenError struct{}

func (*frozenError) Error() string { return "exception: controller is frozen" }
