package main

import (
	"fmt"
	"reflect"

	"github.com/dispatchtree/cloud/flag"
	"github.com/dispatchtree/cloud/key"
	"github.com/dispatchtree/cloud/manager"
	"github.com/dispatchtree/cloud/parser"
	"github.com/dispatchtree/cloud/tree"
)

// Admin is the sender-type constraint demo commands use to exercise the
// tree's sender-assignability check.
type Admin interface {
	IsAdmin() bool
}

// ConsoleSender is the demo's own sender implementation: it satisfies
// tree.PermissionChecker and the Admin interface. The tree's sender-type
// check is structural, so a ConsoleSender always passes it; Operator only
// decides what IsAdmin reports.
type ConsoleSender struct {
	Name        string
	Operator    bool
	Permissions map[string]bool
}

func (s *ConsoleSender) HasPermission(permission string) bool {
	return s.Permissions != nil && s.Permissions[permission]
}

func (s *ConsoleSender) IsAdmin() bool { return s.Operator }

var adminType = reflect.TypeOf((*Admin)(nil)).Elem()

// nameKey, playerKey, ... are the typed keys demo handlers read bound
// arguments from.
var (
	nameKey   = key.Of[string]("name")
	playerKey = key.Of[string]("player")
	amountKey = key.Of[int64]("amount")
	keyKey    = key.Of[string]("key")
	valueKey  = key.Of[string]("value")
	targetKey = key.Of[string]("target")
	subKey    = key.Of[string]("sub")
)

// nameSuggestParser is a plain string parser whose Suggestions are a fixed
// roster held in the parser itself (the same names the "roster"
// suggestion provider registered below returns).
type nameSuggestParser struct {
	parser.StringParser
	roster []string
}

func (p nameSuggestParser) Suggestions(ctx *key.Context, partial string) []parser.Suggestion {
	out := make([]parser.Suggestion, len(p.roster))
	for i, n := range p.roster {
		out[i] = parser.Suggestion{Value: n}
	}
	return out
}

func literal(name string, aliases ...string) *tree.CommandComponent {
	return &tree.CommandComponent{
		Name:     name,
		Kind:     tree.KindLiteral,
		Aliases:  aliases,
		Required: true,
		Parser:   parser.Adapt[string](parser.LiteralParser{Name: name, Aliases: aliases, Case: parser.CaseInsensitive}),
	}
}

// buildDemoManager registers a handful of representative commands against
// a fresh Manager and transitions it live.
func buildDemoManager() (*manager.Manager, error) {
	m := manager.New(manager.Config{Case: parser.CaseInsensitive})

	if err := m.Transition(manager.Registering); err != nil {
		return nil, err
	}

	roster := []string{"Alice", "Albert", "Bob"}
	greet := &tree.Command{
		Components: []*tree.CommandComponent{
			literal("greet"),
			{
				Name:     "name",
				Kind:     tree.KindVariable,
				Parser:   parser.Adapt[string](nameSuggestParser{StringParser: parser.StringParser{Mode: parser.StringSingle}, roster: roster}),
				Required: true,
			},
		},
		Handler: func(ctx *key.Context) error {
			name, _ := key.Get(ctx, nameKey)
			fmt.Printf("Hello, %s!\n", name)
			return nil
		},
	}

	give := &tree.Command{
		Components: []*tree.CommandComponent{
			literal("give"),
			{Name: "player", Kind: tree.KindVariable, Required: true, Parser: parser.Adapt[string](parser.StringParser{Mode: parser.StringSingle})},
			{
				Name:     "amount",
				Kind:     tree.KindVariable,
				Required: false,
				Parser:   parser.Adapt[int64](parser.IntParser{Bounded: true, Min: 1, Max: 64}),
				Default:  &tree.Default{Value: int64(1)},
			},
		},
		Handler: func(ctx *key.Context) error {
			player, _ := key.Get(ctx, playerKey)
			amount, _ := key.Get(ctx, amountKey)
			fmt.Printf("Gave %d to %s\n", amount, player)
			return nil
		},
	}

	configSet := &tree.Command{
		Components: []*tree.CommandComponent{
			literal("config"),
			literal("set"),
			{Name: "key", Kind: tree.KindVariable, Required: true, Parser: parser.Adapt[string](parser.StringParser{Mode: parser.StringSingle})},
			{Name: "value", Kind: tree.KindVariable, Required: true, Parser: parser.Adapt[string](parser.StringParser{Mode: parser.StringSingle})},
		},
		Handler: func(ctx *key.Context) error {
			k, _ := key.Get(ctx, keyKey)
			v, _ := key.Get(ctx, valueKey)
			fmt.Printf("Set %s = %s\n", k, v)
			return nil
		},
	}

	configReset := &tree.Command{
		Components: []*tree.CommandComponent{
			literal("config"),
			literal("reset"),
		},
		Handler: func(ctx *key.Context) error {
			fmt.Println("Configuration reset")
			return nil
		},
	}

	deploy := &tree.Command{
		Components: []*tree.CommandComponent{
			literal("deploy"),
			{
				Name: "flags",
				Kind: tree.KindFlagContainer,
				Flags: &flag.Set{
					Specs: []flag.Spec{
						{Long: "force", Kind: flag.Presence},
						{Long: "count", Kind: flag.Value, Parser: parser.Adapt[int64](parser.IntParser{})},
					},
					TrailingPositional: &flag.TrailingPositional{
						Name:      "target",
						Parser:    parser.Adapt[string](parser.StringParser{Mode: parser.StringSingle}),
						Required:  true,
						FlagAware: false,
					},
				},
			},
		},
		Handler: func(ctx *key.Context) error {
			target, _ := key.Get(ctx, targetKey)
			force, _ := key.Get(ctx, key.Of[bool]("force"))
			count, _ := key.Get(ctx, key.Of[int64]("count"))
			fmt.Printf("Deploying to %s (force=%v, count=%d)\n", target, force, count)
			return nil
		},
	}

	admin := &tree.Command{
		Components: []*tree.CommandComponent{
			literal("admin"),
			{Name: "sub", Kind: tree.KindVariable, Required: true, Parser: parser.Adapt[string](parser.StringParser{Mode: parser.StringSingle})},
		},
		SenderType: adminType,
		Permission: "admin.use",
		Handler: func(ctx *key.Context) error {
			sub, _ := key.Get(ctx, subKey)
			fmt.Printf("admin: %s\n", sub)
			return nil
		},
	}

	for _, cmd := range []*tree.Command{greet, give, configSet, configReset, deploy, admin} {
		if err := m.Register(cmd); err != nil {
			return nil, fmt.Errorf("register %v: %w", cmd.Components[0].Name, err)
		}
	}

	if err := m.RegisterSuggestionProvider("roster", func(_ any, partial string) []parser.Suggestion {
		out := make([]parser.Suggestion, len(roster))
		for i, n := range roster {
			out[i] = parser.Suggestion{Value: n}
		}
		return out
	}); err != nil {
		return nil, err
	}

	if err := m.Transition(manager.AfterRegistration); err != nil {
		return nil, err
	}
	return m, nil
}
