// Package manager implements the CommandManager facade: it ties the
// parser registry, command tree, exception controller, processor chain,
// and execution coordinator together behind a one-way lifecycle state
// machine.
package manager

import (
	"context"
	"fmt"
	"reflect"

	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/dispatchtree/cloud/exception"
	"github.com/dispatchtree/cloud/execute"
	"github.com/dispatchtree/cloud/help"
	"github.com/dispatchtree/cloud/input"
	"github.com/dispatchtree/cloud/key"
	"github.com/dispatchtree/cloud/log"
	"github.com/dispatchtree/cloud/parser"
	"github.com/dispatchtree/cloud/process"
	"github.com/dispatchtree/cloud/tree"
)

// State is a position in the manager's one-way lifecycle:
// BeforeRegistration -> Registering -> AfterRegistration.
type State int

const (
	BeforeRegistration State = iota
	Registering
	AfterRegistration
)

func (s State) String() string {
	switch s {
	case BeforeRegistration:
		return "BeforeRegistration"
	case Registering:
		return "Registering"
	case AfterRegistration:
		return "AfterRegistration"
	default:
		return "Unknown"
	}
}

// ErrBackwardTransition is returned by Transition when asked to move the
// state machine backward or sideways; the lifecycle only ever advances.
var ErrBackwardTransition = fmt.Errorf("manager: lifecycle state can only advance")

// ErrFrozen is returned by every Register* call once the manager has
// reached AfterRegistration.
var ErrFrozen = fmt.Errorf("manager: rejected, lifecycle is AfterRegistration")

// CoordinatorKind selects which concrete execute.Coordinator the manager
// builds by default when none is supplied in Config.
type CoordinatorKind int

const (
	// InlineCoordinator runs parse and the handler on the calling
	// goroutine.
	InlineCoordinator CoordinatorKind = iota
	// AsyncCoordinatorKind runs the handler (and, depending on Mode,
	// parsing too) on a new goroutine per call.
	AsyncCoordinatorKind
)

// Config configures a Manager at construction time. It is a plain struct
// assigned field-by-field, favoring a literal-struct style over a fluent
// builder chain.
type Config struct {
	// Case governs literal/alias disambiguation case-sensitivity,
	// default CaseInsensitive.
	Case parser.CasePolicy
	// CoordinatorKind selects the coordinator built on the
	// Registering -> AfterRegistration transition, unless Execute already
	// built one lazily before that transition.
	CoordinatorKind CoordinatorKind
	// AsyncMode configures AsyncCoordinatorKind's parse/execute split.
	AsyncMode execute.Mode
	// SuggestionProcessor overrides the tree's default case-insensitive
	// prefix filter.
	SuggestionProcessor tree.SuggestionProcessor
	// Logger receives the manager's structured diagnostics. Defaults to
	// log.Get(log.Manager).
	Logger log.Logger
}

// Manager is the facade tying together the parser registry, command tree,
// exception controller, processor chain, and execution coordinator.
type Manager struct {
	mu deadlock.RWMutex

	state State
	cfg   Config

	tree       *tree.CommandTree
	parsers    *parser.Registry
	exceptions *exception.Controller
	chain      *process.Chain

	coordinator execute.Coordinator
	logger      log.Logger
}

// New returns a Manager in state BeforeRegistration.
func New(cfg Config) *Manager {
	t := tree.New(cfg.Case)
	if cfg.SuggestionProcessor != nil {
		t.SuggestionProcessor = cfg.SuggestionProcessor
	}
	chain := process.NewChain()
	t.Root().SetChain(chain)

	logger := cfg.Logger
	if logger == nil {
		logger = log.Get(log.Manager)
	}

	return &Manager{
		cfg:        cfg,
		tree:       t,
		parsers:    parser.NewRegistry(),
		exceptions: exception.NewController(),
		chain:      chain,
		logger:     logger,
	}
}

// State reports the manager's current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Tree returns the underlying command tree, for callers (help renderers,
// tests) that need read access beyond the registration API.
func (m *Manager) Tree() *tree.CommandTree { return m.tree }

// Parsers returns the parser registry, for front-ends that build
// CommandComponents by looking parsers up directly.
func (m *Manager) Parsers() *parser.Registry { return m.parsers }

// Exceptions returns the exception controller.
func (m *Manager) Exceptions() *exception.Controller { return m.exceptions }

// Transition advances the lifecycle state machine. It is one-way: calling
// it with a state at or before the current one fails with
// ErrBackwardTransition, and skipping a state is rejected too, so the only
// legal calls are BeforeRegistration -> Registering and Registering ->
// AfterRegistration. On reaching AfterRegistration, the parser registry and
// exception controller freeze and, if Execute has not already built one,
// the coordinator selected by Config.CoordinatorKind is built. Once AfterRegistration is reached the tree
// is effectively immutable and safe to read from any number of goroutines.
func (m *Manager) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if to <= m.state {
		return ErrBackwardTransition
	}
	if to != m.state+1 {
		return fmt.Errorf("manager: cannot skip from %s to %s", m.state, to)
	}

	m.state = to
	m.logger.Infof("lifecycle transitioned to %s", to)

	if to == AfterRegistration {
		m.parsers.Freeze()
		m.exceptions.Freeze()
		if m.coordinator == nil {
			m.coordinator = m.buildCoordinator()
		}
	}
	return nil
}

func (m *Manager) buildCoordinator() execute.Coordinator {
	switch m.cfg.CoordinatorKind {
	case AsyncCoordinatorKind:
		return execute.NewAsync(m.tree, m.chain, m.cfg.AsyncMode)
	default:
		return execute.NewInline(m.tree, m.chain)
	}
}

func (m *Manager) checkMutableLocked() error {
	if m.state == AfterRegistration {
		return ErrFrozen
	}
	return nil
}

// Register adds cmd to the command tree.
func (m *Manager) Register(cmd *tree.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkMutableLocked(); err != nil {
		return err
	}
	return m.tree.Insert(cmd)
}

// RegisterParser associates a type descriptor with a parser factory.
func (m *Manager) RegisterParser(t reflect.Type, factory parser.Factory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkMutableLocked(); err != nil {
		return err
	}
	return m.parsers.Register(t, factory)
}

// RegisterNamedParser associates a name with a concrete parser instance.
func (m *Manager) RegisterNamedParser(name string, p parser.AnyParser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkMutableLocked(); err != nil {
		return err
	}
	return m.parsers.RegisterNamed(name, p)
}

// RegisterSuggestionProvider associates a name with a suggestion provider.
func (m *Manager) RegisterSuggestionProvider(name string, provider parser.SuggestionProvider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkMutableLocked(); err != nil {
		return err
	}
	return m.parsers.RegisterSuggestionProvider(name, provider)
}

// RegisterPreprocessor appends a manager-wide preprocessor stage, run once
// at the start of every parse.
func (m *Manager) RegisterPreprocessor(stage process.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkMutableLocked(); err != nil {
		return err
	}
	m.chain.AddPreprocessor(stage)
	return nil
}

// RegisterPostprocessor appends a manager-wide postprocessor stage, run
// once after a terminal's arguments are fully bound but before its
// handler runs.
func (m *Manager) RegisterPostprocessor(stage process.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkMutableLocked(); err != nil {
		return err
	}
	m.chain.AddPostprocessor(stage)
	return nil
}

// RegisterExceptionHandler registers handler for errType, guarded by an
// optional filter.
func (m *Manager) RegisterExceptionHandler(errType reflect.Type, handler exception.Handler, filter exception.Filter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkMutableLocked(); err != nil {
		return err
	}
	return m.exceptions.Register(errType, handler, filter)
}

// CommandResult carries the final Context once execution resolves, useful
// for tests and middleware that want to inspect bound arguments.
type CommandResult struct {
	Context *key.Context
}

// ResultFuture wraps execute.Future, resolving to a *CommandResult instead
// of a bare `any`, and routing any unhandled error through the manager's
// exception controller before it reaches the caller of execute.
type ResultFuture struct {
	m     *Manager
	inner *execute.Future
}

// Wait blocks until the underlying future resolves, then applies
// exception-controller dispatch to any error before returning.
func (f *ResultFuture) Wait() (*CommandResult, error) {
	res, err := f.inner.Wait()
	cctx, _ := res.(*key.Context)
	if err == nil {
		return &CommandResult{Context: cctx}, nil
	}
	return f.m.routeException(cctx, err)
}

// Cancel requests cancellation; see execute.Future.Cancel.
func (f *ResultFuture) Cancel() bool { return f.inner.Cancel() }

// Done returns a channel closed once the future resolves.
func (f *ResultFuture) Done() <-chan struct{} { return f.inner.Done() }

func (m *Manager) routeException(cctx *key.Context, err error) (*CommandResult, error) {
	if cctx == nil {
		cctx = key.New(nil)
	}
	m.logger.Debugf("dispatching exception: %v", err)
	_, rerr := m.exceptions.Dispatch(cctx, err)
	if rerr != nil {
		return nil, rerr
	}
	return &CommandResult{Context: cctx}, nil
}

// Execute parses and runs line for sender, via whichever coordinator the
// manager was configured with, resolving to a *CommandResult. If called
// before the manager ever reached AfterRegistration, the coordinator
// selected by Config.CoordinatorKind is built lazily so tests against a
// manager still in Registering keep working.
func (m *Manager) Execute(ctx context.Context, sender any, line string) *ResultFuture {
	m.mu.Lock()
	if m.coordinator == nil {
		m.logger.Warningf("Execute called before AfterRegistration; building a default coordinator")
		m.coordinator = m.buildCoordinator()
	}
	coordinator := m.coordinator
	m.mu.Unlock()

	return &ResultFuture{m: m, inner: coordinator.Execute(ctx, sender, line)}
}

// Suggest answers the tab-completion query for line. Suggestion traversal
// is pure and synchronous by contract, so unlike Execute this returns its
// result directly rather than via a future.
func (m *Manager) Suggest(ctx context.Context, sender any, line string) []parser.Suggestion {
	cctx := key.New(sender)
	return m.tree.Suggest(cctx, input.New(line))
}

// senderVisible builds the default VisibleFilter HelpQuery uses: a
// terminal is visible to sender only if the sender satisfies its required
// sender type and permission, mirroring the checks Parse itself applies
// without requiring a full parse.
func senderVisible(sender any) help.VisibleFilter {
	return func(cmd *tree.Command) bool {
		if cmd.SenderType != nil {
			if sender == nil || !reflect.TypeOf(sender).Implements(cmd.SenderType) {
				return false
			}
		}
		if cmd.Permission != "" {
			checker, ok := sender.(tree.PermissionChecker)
			if !ok || !checker.HasPermission(cmd.Permission) {
				return false
			}
		}
		return true
	}
}

// HelpQuery answers a help request against the tree, filtered to what
// sender may use.
func (m *Manager) HelpQuery(sender any, query string) help.Result {
	return help.Query(m.tree, senderVisible(sender), query)
}

