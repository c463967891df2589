package help

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"github.com/rivo/uniseg"
	"golang.org/x/term"
)

// Renderer formats a Result for a specific output: colored and column-
// aligned when writing to a terminal, plain text otherwise. This is the
// "help renderer" the core spec explicitly keeps out of scope; it lives
// here as the reference collaborator that exercises the rest of the
// package.
type Renderer struct {
	Output  *termenv.Output
	Color   bool
	Width   int
}

// NewRenderer builds a Renderer for w, auto-detecting color support and
// terminal width when w is a TTY (an *os.File backed by a terminal
// descriptor); w is rendered in plain text otherwise.
func NewRenderer(w io.Writer) *Renderer {
	r := &Renderer{Output: termenv.NewOutput(w), Width: 80}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		r.Color = true
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			r.Width = width
		}
	}
	return r
}

// Render writes res to the Renderer's output.
func (r *Renderer) Render(res Result) {
	switch {
	case res.Verbose != nil:
		r.renderVerbose(res.Verbose)
	case res.Multiple != nil:
		r.renderMultiple(res.Multiple)
	case res.Index != nil:
		r.renderIndex(res.Index)
	}
}

func (r *Renderer) renderVerbose(v *VerboseCommand) {
	fmt.Fprintln(r.Output, r.style(v.Entry.Syntax(), termenv.ANSIBrightCyan))
	if v.Entry.Command.Permission != "" {
		fmt.Fprintln(r.Output, r.style("permission: "+v.Entry.Command.Permission, termenv.ANSIBrightBlack))
	}
}

func (r *Renderer) renderMultiple(m *MultipleCommand) {
	fmt.Fprintln(r.Output, r.style(m.LongestCommonPath+" ...", termenv.ANSIBrightCyan))
	r.renderTable(m.Children)
}

func (r *Renderer) renderIndex(idx *IndexCommand) {
	r.renderTable(idx.Entries)
}

// renderTable column-aligns a list of syntax strings, measuring display
// width with go-runewidth/uniseg so wide (e.g. CJK) command names still
// line up.
func (r *Renderer) renderTable(entries []Entry) {
	width := 0
	syntaxes := make([]string, len(entries))
	for i, e := range entries {
		syntaxes[i] = e.Syntax()
		if w := displayWidth(syntaxes[i]); w > width {
			width = w
		}
	}
	for i, s := range syntaxes {
		pad := width - displayWidth(s)
		if pad < 0 {
			pad = 0
		}
		line := r.style(s, termenv.ANSIBrightCyan) + strings.Repeat(" ", pad)
		if entries[i].Command.Permission != "" {
			line += "  " + r.style(entries[i].Command.Permission, termenv.ANSIBrightBlack)
		}
		fmt.Fprintln(r.Output, line)
	}
}

func (r *Renderer) style(s string, c termenv.ANSIColor) string {
	if !r.Color {
		return s
	}
	return r.Output.String(s).Foreground(c).String()
}

// displayWidth measures s the way a terminal would, grapheme-cluster by
// grapheme-cluster, so combining marks and emoji do not throw off column
// alignment.
func displayWidth(s string) int {
	width := 0
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		width += runewidth.StringWidth(gr.Str())
	}
	return width
}
