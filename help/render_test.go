package help

import (
	"bytes"
	"strings"
	"testing"
)

func TestRendererPlainTextVerbose(t *testing.T) {
	tr := buildConfigTree(t)
	res := Query(tr, nil, "config set")
	if res.Verbose == nil {
		t.Fatal("expected Verbose result")
	}

	var buf bytes.Buffer
	r := NewRenderer(&buf)
	if r.Color {
		t.Fatal("NewRenderer(non-tty) set Color = true")
	}
	r.Render(res)

	out := buf.String()
	if !strings.Contains(out, "config set <key> [value]") {
		t.Errorf("output = %q, missing rendered syntax", out)
	}
}

func TestRendererPlainTextIndexTableAligns(t *testing.T) {
	tr := buildConfigTree(t)
	res := Query(tr, nil, "")
	var buf bytes.Buffer
	NewRenderer(&buf).Render(res)
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != len(res.Index.Entries) {
		t.Fatalf("rendered %d lines, want %d", len(lines), len(res.Index.Entries))
	}
	for _, e := range res.Index.Entries {
		if !strings.Contains(out, e.Syntax()) {
			t.Errorf("output missing syntax %q:\n%s", e.Syntax(), out)
		}
	}
}

func TestRendererShowsPermissionForGatedCommand(t *testing.T) {
	tr := buildConfigTree(t)
	res := Query(tr, nil, "greet")
	if res.Verbose == nil {
		t.Fatal("expected Verbose result for greet")
	}
	res.Verbose.Entry.Command.Permission = "greet.use"

	var buf bytes.Buffer
	NewRenderer(&buf).Render(res)
	out := buf.String()
	if !strings.Contains(out, "permission: greet.use") {
		t.Errorf("output = %q, missing permission line", out)
	}
}
