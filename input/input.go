// Package input implements CommandInput: a mutable cursor over a single raw
// command line. It never mutates the underlying string; only the cursor
// advances. An Input is not safe for concurrent use.
package input

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoInput is returned when a read is attempted past the end of input.
var ErrNoInput = errors.New("input: no input provided")

// ErrUnterminatedQuote is returned when a quoted string never closes.
var ErrUnterminatedQuote = errors.New("input: unterminated quoted string")

// InvalidFormatError reports that raw text could not be parsed as expected.
type InvalidFormatError struct {
	Raw      string
	Expected string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("input: %q is not a valid %s", e.Raw, e.Expected)
}

// Input is a cursor over an owned string. Readers consume from the front;
// Remaining always reflects what has not yet been consumed, including any
// leading separator.
type Input struct {
	raw  string
	pos  int
	mark int
}

// New returns an Input positioned at the start of raw.
func New(raw string) *Input {
	return &Input{raw: raw}
}

// Raw returns the full original string, unaffected by cursor position.
func (in *Input) Raw() string { return in.raw }

// Pos returns the current cursor offset into Raw.
func (in *Input) Pos() int { return in.pos }

// Empty reports whether nothing is left to read; remaining whitespace
// counts as something left.
func (in *Input) Empty() bool { return in.pos >= len(in.raw) }

// Remaining returns the unconsumed slice verbatim, including its leading
// separator if any.
func (in *Input) Remaining() string { return in.raw[in.pos:] }

// Mark records the current cursor position for a later Reset.
func (in *Input) Mark() int {
	in.mark = in.pos
	return in.mark
}

// Reset restores the cursor to a position previously returned by Mark or
// Pos.
func (in *Input) Reset(pos int) { in.pos = pos }

// PeekChar returns the byte at the cursor without consuming it, or 0 if
// Empty.
func (in *Input) PeekChar() byte {
	if in.Empty() {
		return 0
	}
	return in.raw[in.pos]
}

func (in *Input) peekAt(offset int) byte {
	idx := in.pos + offset
	if idx < 0 || idx >= len(in.raw) {
		return 0
	}
	return in.raw[idx]
}

func (in *Input) advance() byte {
	ch := in.raw[in.pos]
	in.pos++
	return ch
}

// SkipWhitespace advances over a run of one or more spaces, reporting
// whether it consumed anything. Only leading separators are collapsed;
// internal whitespace inside a read token is left to that reader.
func (in *Input) SkipWhitespace() bool {
	start := in.pos
	for !in.Empty() && in.PeekChar() == ' ' {
		in.advance()
	}
	return in.pos > start
}

// ReadString reads one whitespace-delimited token, honoring double- and
// single-quoted strings with backslash escapes: `"…"` and `'…'` with
// \", \', \\, \n, \t escapes.
func (in *Input) ReadString() (string, error) {
	in.SkipWhitespace()
	if in.Empty() {
		return "", ErrNoInput
	}
	if c := in.PeekChar(); c == '"' || c == '\'' {
		return in.ReadQuotedString()
	}
	start := in.pos
	for !in.Empty() && in.PeekChar() != ' ' {
		in.advance()
	}
	return in.raw[start:in.pos], nil
}

// ReadQuotedString reads a single- or double-quoted token, unescaping
// backslash sequences. If the current token is not quoted it is read as a
// plain token, as ReadString does. If the quote never terminates it fails
// with ErrUnterminatedQuote and leaves the cursor on the opening quote.
func (in *Input) ReadQuotedString() (string, error) {
	in.SkipWhitespace()
	if in.Empty() {
		return "", ErrNoInput
	}
	quote := in.PeekChar()
	if quote != '"' && quote != '\'' {
		return in.ReadString()
	}
	start := in.pos
	in.advance()
	var sb strings.Builder
	for {
		if in.Empty() {
			in.pos = start
			return "", ErrUnterminatedQuote
		}
		c := in.advance()
		if c == quote {
			break
		}
		if c == '\\' && !in.Empty() {
			switch esc := in.advance(); esc {
			case '"', '\'', '\\':
				sb.WriteByte(esc)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String(), nil
}

// ReadGreedy consumes every remaining byte and returns it, including
// internal whitespace, after skipping only the leading separator.
func (in *Input) ReadGreedy() string {
	in.SkipWhitespace()
	rest := in.raw[in.pos:]
	in.pos = len(in.raw)
	return rest
}

// ReadInt64 reads one token and parses it as a base-10 integer.
func (in *Input) ReadInt64() (int64, error) {
	mark := in.pos
	tok, err := in.ReadString()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		in.pos = mark
		return 0, &InvalidFormatError{Raw: tok, Expected: "integer"}
	}
	return n, nil
}

// ReadFloat64 reads one token and parses it as a float.
func (in *Input) ReadFloat64() (float64, error) {
	mark := in.pos
	tok, err := in.ReadString()
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		in.pos = mark
		return 0, &InvalidFormatError{Raw: tok, Expected: "float"}
	}
	return f, nil
}

// ReadBool reads one token and parses it against the accepted token sets,
// case-insensitively. Each call site supplies its own accepted sets so
// stock parsers can support {true,false} and optionally {yes,no,on,off}.
func (in *Input) ReadBool(truthy, falsy []string) (bool, error) {
	mark := in.pos
	tok, err := in.ReadString()
	if err != nil {
		return false, err
	}
	lower := strings.ToLower(tok)
	for _, t := range truthy {
		if lower == t {
			return true, nil
		}
	}
	for _, f := range falsy {
		if lower == f {
			return false, nil
		}
	}
	in.pos = mark
	return false, &InvalidFormatError{Raw: tok, Expected: "boolean"}
}

// PeekToken returns the next whitespace-delimited token without consuming
// it, honoring quotes. It restores the cursor exactly.
func (in *Input) PeekToken() (string, error) {
	mark := in.pos
	tok, err := in.ReadString()
	in.pos = mark
	return tok, err
}
