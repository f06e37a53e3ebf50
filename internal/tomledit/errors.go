package tomledit

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrParse is matched by every *ParseError via errors.Is.
var ErrParse = errors.New("toml parse error")

// ParseError reports the first offending token of a malformed document.
// Line and Column are 1-based; Column counts characters, not bytes.
type ParseError struct {
	Line   int
	Column int
	// Offset is the byte offset of the offending token.
	Offset int
	// LineText is the source line containing the offending token.
	LineText string
	// Unexpected describes what was found, e.g. "i" or "end of input".
	Unexpected string
	// Expected lists what would have been accepted at that position.
	Expected []string
	// Message carries semantic failures such as duplicate keys.
	Message string
}

// Error renders the error with a source snippet:
//
//	TOML parse error at line 1, column 6
//	  |
//	1 | This is clearly not a valid Cargo.toml.
//	  |      ^
//	Unexpected `i`
//	Expected `=`
func (e *ParseError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "TOML parse error at line %d, column %d\n", e.Line, e.Column)

	gutter := strconv.Itoa(e.Line)
	pad := strings.Repeat(" ", len(gutter))
	fmt.Fprintf(&sb, "%s |\n", pad)
	fmt.Fprintf(&sb, "%s | %s\n", gutter, e.LineText)
	fmt.Fprintf(&sb, "%s | %s^", pad, strings.Repeat(" ", max(e.Column-1, 0)))

	if e.Unexpected != "" {
		fmt.Fprintf(&sb, "\nUnexpected `%s`", e.Unexpected)
	}
	if len(e.Expected) > 0 {
		sb.WriteString("\nExpected ")
		sb.WriteString(joinExpected(e.Expected))
	}
	if e.Message != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Message)
	}
	return sb.String()
}

// Is makes errors.Is(err, ErrParse) hold for any *ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func joinExpected(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
}

// position maps byte offsets of a source to line/column pairs.
type position struct {
	src []byte
	nl  []int // offsets of '\n'
}

func newPosition(src []byte) *position {
	p := &position{src: src}
	for i, c := range src {
		if c == '\n' {
			p.nl = append(p.nl, i)
		}
	}
	return p
}

// lineCol returns the 1-based line and column of off.
func (p *position) lineCol(off int) (int, int) {
	li := sort.SearchInts(p.nl, off)
	start := 0
	if li > 0 {
		start = p.nl[li-1] + 1
	}
	return li + 1, utf8.RuneCount(p.src[start:off]) + 1
}

func (p *position) lineText(off int) string {
	li := sort.SearchInts(p.nl, off)
	start := 0
	if li > 0 {
		start = p.nl[li-1] + 1
	}
	end := len(p.src)
	if li < len(p.nl) {
		end = p.nl[li]
	}
	return strings.TrimSuffix(string(p.src[start:end]), "\r")
}

func (p *position) errorAt(off int, unexpected string, expected ...string) *ParseError {
	line, col := p.lineCol(off)
	return &ParseError{
		Line:       line,
		Column:     col,
		Offset:     off,
		LineText:   p.lineText(off),
		Unexpected: unexpected,
		Expected:   expected,
	}
}

func (p *position) messageAt(off int, format string, args ...any) *ParseError {
	line, col := p.lineCol(off)
	return &ParseError{
		Line:     line,
		Column:   col,
		Offset:   off,
		LineText: p.lineText(off),
		Message:  fmt.Sprintf(format, args...),
	}
}

// describe renders the byte at off for an "Unexpected" message.
func (p *position) describe(off int) string {
	if off >= len(p.src) {
		return "end of input"
	}
	r, _ := utf8.DecodeRune(p.src[off:])
	switch r {
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	case utf8.RuneError:
		return "invalid UTF-8"
	}
	return string(r)
}
