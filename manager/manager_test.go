package manager

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dispatchtree/cloud/exception"
	"github.com/dispatchtree/cloud/key"
	"github.com/dispatchtree/cloud/parser"
	"github.com/dispatchtree/cloud/tree"
)

func literalComp(name string) *tree.CommandComponent {
	return &tree.CommandComponent{
		Name:     name,
		Kind:     tree.KindLiteral,
		Required: true,
		Parser:   parser.Adapt[string](parser.LiteralParser{Name: name, Case: parser.CaseInsensitive}),
	}
}

func stringVar(name string, required bool) *tree.CommandComponent {
	return &tree.CommandComponent{
		Name:     name,
		Kind:     tree.KindVariable,
		Required: required,
		Parser:   parser.Adapt[string](parser.StringParser{Mode: parser.StringSingle}),
	}
}

func TestManagerLifecycleMonotonic(t *testing.T) {
	m := New(Config{})
	if m.State() != BeforeRegistration {
		t.Fatalf("State() = %v, want BeforeRegistration", m.State())
	}
	if err := m.Transition(AfterRegistration); err == nil {
		t.Error("Transition() skipping Registering should fail")
	}
	if err := m.Transition(Registering); err != nil {
		t.Fatalf("Transition(Registering) error: %v", err)
	}
	if err := m.Transition(BeforeRegistration); err == nil {
		t.Error("Transition() backward should fail")
	}
	if err := m.Transition(AfterRegistration); err != nil {
		t.Fatalf("Transition(AfterRegistration) error: %v", err)
	}
	if err := m.Transition(AfterRegistration); err == nil {
		t.Error("Transition() to same state should fail")
	}
}

func TestManagerRegisterRejectedAfterFreeze(t *testing.T) {
	m := New(Config{})
	if err := m.Transition(Registering); err != nil {
		t.Fatalf("Transition() error: %v", err)
	}
	if err := m.Transition(AfterRegistration); err != nil {
		t.Fatalf("Transition() error: %v", err)
	}

	cmd := &tree.Command{Components: []*tree.CommandComponent{literalComp("greet")}, Handler: func(ctx *key.Context) error { return nil }}
	if err := m.Register(cmd); err != ErrFrozen {
		t.Errorf("Register() after freeze = %v, want ErrFrozen", err)
	}
}

func TestManagerExecuteBindsArgumentsAndResolves(t *testing.T) {
	m := New(Config{})
	var got string
	cmd := &tree.Command{
		Components: []*tree.CommandComponent{literalComp("greet"), stringVar("name", true)},
		Handler: func(ctx *key.Context) error {
			v, _ := ctx.RawGet(key.Key{Name: "name", Type: reflect.TypeOf("")})
			got, _ = v.(string)
			return nil
		},
	}
	if err := m.Register(cmd); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if err := m.Transition(Registering); err != nil {
		t.Fatalf("Transition() error: %v", err)
	}
	if err := m.Transition(AfterRegistration); err != nil {
		t.Fatalf("Transition() error: %v", err)
	}

	f := m.Execute(context.Background(), "sender", "greet Alice")
	res, err := f.Wait()
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if res == nil || res.Context == nil {
		t.Fatal("Wait() returned nil CommandResult/Context")
	}
	if got != "Alice" {
		t.Errorf("bound name = %q, want Alice", got)
	}
}

func TestManagerExecuteRoutesUnhandledErrorThroughExceptionController(t *testing.T) {
	m := New(Config{})
	boom := errors.New("boom")
	cmd := &tree.Command{
		Components: []*tree.CommandComponent{literalComp("fail")},
		Handler:    func(ctx *key.Context) error { return boom },
	}
	if err := m.Register(cmd); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	var handled bool
	errType := reflect.TypeOf((*error)(nil)).Elem()
	if err := m.RegisterExceptionHandler(errType, func(ctx *key.Context, err error, next exception.Next) (any, error) {
		handled = true
		return nil, nil
	}, nil); err != nil {
		t.Fatalf("RegisterExceptionHandler() error: %v", err)
	}

	if err := m.Transition(Registering); err != nil {
		t.Fatalf("Transition() error: %v", err)
	}
	if err := m.Transition(AfterRegistration); err != nil {
		t.Fatalf("Transition() error: %v", err)
	}

	f := m.Execute(context.Background(), "sender", "fail")
	res, err := f.Wait()
	if err != nil {
		t.Fatalf("Wait() error: %v, want nil (handled by exception controller)", err)
	}
	if !handled {
		t.Error("exception handler was never invoked")
	}
	if res == nil {
		t.Error("Wait() returned nil CommandResult")
	}
}

func TestManagerSuggestIsSynchronous(t *testing.T) {
	m := New(Config{})
	cmd := &tree.Command{
		Components: []*tree.CommandComponent{literalComp("greet"), stringVar("name", true)},
		Handler:    func(ctx *key.Context) error { return nil },
	}
	if err := m.Register(cmd); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if err := m.Transition(Registering); err != nil {
		t.Fatalf("Transition() error: %v", err)
	}
	if err := m.Transition(AfterRegistration); err != nil {
		t.Fatalf("Transition() error: %v", err)
	}

	got := m.Suggest(context.Background(), "sender", "gre")
	if len(got) != 1 || got[0].Value != "greet" {
		t.Errorf("Suggest() = %v, want [greet]", got)
	}
}

func TestManagerHelpQueryFiltersBySenderType(t *testing.T) {
	m := New(Config{})
	adminType := reflect.TypeOf((*adminMarker)(nil)).Elem()
	cmd := &tree.Command{
		Components: []*tree.CommandComponent{literalComp("shutdown")},
		SenderType: adminType,
		Handler:    func(ctx *key.Context) error { return nil },
	}
	if err := m.Register(cmd); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if err := m.Transition(Registering); err != nil {
		t.Fatalf("Transition() error: %v", err)
	}
	if err := m.Transition(AfterRegistration); err != nil {
		t.Fatalf("Transition() error: %v", err)
	}

	res := m.HelpQuery("plain string sender", "")
	if res.Index == nil {
		t.Fatal("HelpQuery() did not return an Index result")
	}
	if len(res.Index.Entries) != 0 {
		t.Errorf("len(Entries) = %d, want 0 (non-admin sender)", len(res.Index.Entries))
	}

	res2 := m.HelpQuery(&fakeAdmin{}, "")
	if res2.Index == nil || len(res2.Index.Entries) != 1 {
		t.Errorf("HelpQuery() for admin sender = %+v, want 1 entry", res2.Index)
	}
}

type adminMarker interface{ IsAdmin() bool }

type fakeAdmin struct{}

func (*fakeAdmin) IsAdmin() bool { return true }
