package tomledit

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// item is one top-level construct of a document: a key/value line, a table
// header, or a run of blank lines and comments.
type item interface {
	writeTo(sb *strings.Builder)
}

type trivia struct {
	raw string
}

func (t *trivia) writeTo(sb *strings.Builder) { sb.WriteString(t.raw) }

// key is a possibly dotted key as written in the source.
type key struct {
	raw    string
	parts  []string
	offset int
}

type keyValue struct {
	indent  string
	key     *key
	eq      string
	value   *Value
	trailer string
}

func (kv *keyValue) writeTo(sb *strings.Builder) {
	sb.WriteString(kv.indent)
	sb.WriteString(kv.key.raw)
	sb.WriteString(kv.eq)
	kv.value.writeTo(sb)
	sb.WriteString(kv.trailer)
}

type tableHeader struct {
	indent  string
	raw     string
	key     *key
	array   bool
	trailer string
}

func (h *tableHeader) writeTo(sb *strings.Builder) {
	sb.WriteString(h.indent)
	sb.WriteString(h.raw)
	sb.WriteString(h.trailer)
}

var (
	reDecInt       = regexp.MustCompile(`^[+-]?(0|[1-9](_?[0-9])*)$`)
	reHexInt       = regexp.MustCompile(`^0x[0-9A-Fa-f](_?[0-9A-Fa-f])*$`)
	reOctInt       = regexp.MustCompile(`^0o[0-7](_?[0-7])*$`)
	reBinInt       = regexp.MustCompile(`^0b[01](_?[01])*$`)
	reFloat        = regexp.MustCompile(`^[+-]?(0|[1-9](_?[0-9])*)(\.[0-9](_?[0-9])*([eE][+-]?[0-9](_?[0-9])*)?|[eE][+-]?[0-9](_?[0-9])*)$`)
	reSpecialFloat = regexp.MustCompile(`^[+-]?(inf|nan)$`)
	reDate         = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)
	reDateTime     = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}[Tt ][0-9]{2}:[0-9]{2}(:[0-9]{2}(\.[0-9]+)?)?([Zz]|[+-][0-9]{2}:[0-9]{2})?$`)
	reTime         = regexp.MustCompile(`^[0-9]{2}:[0-9]{2}(:[0-9]{2}(\.[0-9]+)?)?$`)
)

var simpleEscapes = map[byte]byte{'b': '\b', 't': '\t', 'n': '\n', 'f': '\f', 'r': '\r', 'e': 0x1b, '"': '"', '\\': '\\'}

var valueExpected = []string{"`\"`", "`'`", "`[`", "`{`", "a number", "a boolean", "a date-time"}

type parser struct {
	src []byte
	pos int
	at  *position
}

func newParser(src []byte) *parser {
	return &parser{src: src, at: newPosition(src)}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) peekAt(n int) byte {
	if p.pos+n >= len(p.src) {
		return 0
	}
	return p.src[p.pos+n]
}

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(string(p.src[p.pos:min(p.pos+len(s), len(p.src))]), s)
}

func (p *parser) unexpected(expected ...string) *ParseError {
	return p.at.errorAt(p.pos, p.at.describe(p.pos), expected...)
}

func (p *parser) text(from int) string { return string(p.src[from:p.pos]) }

func (p *parser) skipWS() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

// atNewline reports whether a newline (LF or CRLF) starts at pos and
// returns its length.
func (p *parser) atNewline() (int, bool) {
	switch p.peek() {
	case '\n':
		return 1, true
	case '\r':
		if p.peekAt(1) == '\n' {
			return 2, true
		}
	}
	return 0, false
}

// parseComment consumes a comment up to, but not including, the newline.
func (p *parser) parseComment() error {
	p.pos++ // '#'
	for !p.eof() {
		if _, ok := p.atNewline(); ok {
			return nil
		}
		if isControl(p.src[p.pos]) {
			return p.unexpected("newline")
		}
		if err := p.copyRune(nil); err != nil {
			return err
		}
	}
	return nil
}

// lineEnd consumes trailing whitespace, an optional comment and the newline
// (or end of input) that terminate a top-level construct.
func (p *parser) lineEnd() error {
	p.skipWS()
	if p.peek() == '#' {
		if err := p.parseComment(); err != nil {
			return err
		}
	}
	if p.eof() {
		return nil
	}
	if n, ok := p.atNewline(); ok {
		p.pos += n
		return nil
	}
	return p.unexpected("newline", "`#`")
}

func (p *parser) parseDocument() ([]item, error) {
	var items []item
	for !p.eof() {
		start := p.pos
		p.skipWS()
		switch c := p.peek(); {
		case p.eof():
			items = append(items, &trivia{raw: p.text(start)})
		case c == '\n' || c == '\r' || c == '#':
			if err := p.lineEnd(); err != nil {
				return nil, err
			}
			items = append(items, &trivia{raw: p.text(start)})
		case c == '[':
			h, err := p.parseHeader(start)
			if err != nil {
				return nil, err
			}
			items = append(items, h)
		default:
			kv, err := p.parseKeyValue(start)
			if err != nil {
				return nil, err
			}
			items = append(items, kv)
		}
	}
	return items, nil
}

func (p *parser) parseHeader(start int) (*tableHeader, error) {
	h := &tableHeader{indent: p.text(start)}
	hstart := p.pos
	p.pos++ // '['
	if p.peek() == '[' {
		h.array = true
		p.pos++
	}
	p.skipWS()
	k, err := p.parseKey()
	if err != nil {
		return nil, err
	}
	h.key = k
	p.skipWS()
	if p.peek() != ']' {
		return nil, p.unexpected("`.`", "`]`")
	}
	p.pos++
	if h.array {
		if p.peek() != ']' {
			return nil, p.unexpected("`]]`")
		}
		p.pos++
	}
	h.raw = p.text(hstart)
	tstart := p.pos
	if err := p.lineEnd(); err != nil {
		return nil, err
	}
	h.trailer = p.text(tstart)
	return h, nil
}

func (p *parser) parseKeyValue(start int) (*keyValue, error) {
	kv := &keyValue{indent: p.text(start)}
	k, err := p.parseKey()
	if err != nil {
		return nil, err
	}
	kv.key = k
	eq, err := p.parseEq()
	if err != nil {
		return nil, err
	}
	kv.eq = eq
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	kv.value = v
	tstart := p.pos
	if err := p.lineEnd(); err != nil {
		return nil, err
	}
	kv.trailer = p.text(tstart)
	return kv, nil
}

func (p *parser) parseEq() (string, error) {
	start := p.pos
	p.skipWS()
	if p.peek() != '=' {
		return "", p.unexpected("`=`")
	}
	p.pos++
	p.skipWS()
	return p.text(start), nil
}

func (p *parser) parseKey() (*key, error) {
	start := p.pos
	var parts []string
	for {
		part, err := p.parseSimpleKey()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
		save := p.pos
		p.skipWS()
		if p.peek() == '.' {
			p.pos++
			p.skipWS()
			continue
		}
		p.pos = save
		break
	}
	return &key{raw: p.text(start), parts: parts, offset: start}, nil
}

func (p *parser) parseSimpleKey() (string, error) {
	switch c := p.peek(); {
	case c == '"':
		if p.hasPrefix(`"""`) {
			return "", p.unexpected("a key")
		}
		_, s, err := p.parseBasicString()
		return s, err
	case c == '\'':
		if p.hasPrefix(`'''`) {
			return "", p.unexpected("a key")
		}
		_, s, err := p.parseLiteralString()
		return s, err
	case isBareKeyChar(c):
		start := p.pos
		for !p.eof() && isBareKeyChar(p.src[p.pos]) {
			p.pos++
		}
		return p.text(start), nil
	default:
		return "", p.unexpected("a key")
	}
}

func (p *parser) parseValue() (*Value, error) {
	switch p.peek() {
	case '"':
		if p.hasPrefix(`"""`) {
			raw, s, err := p.parseMultilineBasicString()
			if err != nil {
				return nil, err
			}
			return &Value{kind: KindString, raw: raw, str: s, style: StyleMultilineBasic}, nil
		}
		raw, s, err := p.parseBasicString()
		if err != nil {
			return nil, err
		}
		return &Value{kind: KindString, raw: raw, str: s, style: StyleBasic}, nil
	case '\'':
		if p.hasPrefix(`'''`) {
			raw, s, err := p.parseMultilineLiteralString()
			if err != nil {
				return nil, err
			}
			return &Value{kind: KindString, raw: raw, str: s, style: StyleMultilineLiteral}, nil
		}
		raw, s, err := p.parseLiteralString()
		if err != nil {
			return nil, err
		}
		return &Value{kind: KindString, raw: raw, str: s, style: StyleLiteral}, nil
	case '[':
		return p.parseArray()
	case '{':
		return p.parseInlineTable()
	default:
		return p.parseScalar()
	}
}

func (p *parser) parseScalar() (*Value, error) {
	start := p.pos
	for !p.eof() && isScalarChar(p.src[p.pos]) {
		p.pos++
	}
	tok := p.text(start)
	// A local date may be followed by a space and a time.
	if reDate.MatchString(tok) && p.peek() == ' ' && isDigit(p.peekAt(1)) && isDigit(p.peekAt(2)) && p.peekAt(3) == ':' {
		p.pos++
		for !p.eof() && isScalarChar(p.src[p.pos]) {
			p.pos++
		}
		tok = p.text(start)
	}
	if tok == "" {
		return nil, p.unexpected(valueExpected...)
	}
	v := &Value{raw: tok}
	switch {
	case tok == "true" || tok == "false":
		v.kind = KindBool
		v.b = tok == "true"
	case reDecInt.MatchString(tok) || reHexInt.MatchString(tok) || reOctInt.MatchString(tok) || reBinInt.MatchString(tok):
		i, err := strconv.ParseInt(strings.ReplaceAll(tok, "_", ""), 0, 64)
		if err != nil {
			pe := p.at.messageAt(start, "integer `%s` is out of range", tok)
			return nil, pe
		}
		v.kind = KindInteger
		v.i = i
	case reSpecialFloat.MatchString(tok):
		v.kind = KindFloat
		switch strings.TrimLeft(tok, "+-") {
		case "inf":
			v.f = math.Inf(1)
			if tok[0] == '-' {
				v.f = math.Inf(-1)
			}
		default:
			v.f = math.NaN()
		}
	case reFloat.MatchString(tok):
		f, err := strconv.ParseFloat(strings.ReplaceAll(tok, "_", ""), 64)
		if err != nil {
			return nil, p.at.messageAt(start, "float `%s` is out of range", tok)
		}
		v.kind = KindFloat
		v.f = f
	case reDateTime.MatchString(tok) || reDate.MatchString(tok) || reTime.MatchString(tok):
		v.kind = KindDatetime
	default:
		p.pos = start
		return nil, p.unexpected(valueExpected...)
	}
	return v, nil
}

// parseArrayWS consumes whitespace, newlines and comments between array
// elements.
func (p *parser) parseArrayWS() (string, error) {
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if c == ' ' || c == '\t' {
			p.pos++
			continue
		}
		if n, ok := p.atNewline(); ok {
			p.pos += n
			continue
		}
		if c == '#' {
			if err := p.parseComment(); err != nil {
				return "", err
			}
			continue
		}
		break
	}
	return p.text(start), nil
}

func (p *parser) parseArray() (*Value, error) {
	p.pos++ // '['
	v := &Value{kind: KindArray}
	for {
		pre, err := p.parseArrayWS()
		if err != nil {
			return nil, err
		}
		if p.peek() == ']' {
			v.trailer = pre
			p.pos++
			return v, nil
		}
		if p.eof() {
			return nil, p.unexpected("`]`")
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		post, err := p.parseArrayWS()
		if err != nil {
			return nil, err
		}
		e := &element{pre: pre, value: val, post: post}
		v.elems = append(v.elems, e)
		switch p.peek() {
		case ',':
			e.comma = true
			p.pos++
		case ']':
			p.pos++
			return v, nil
		default:
			return nil, p.unexpected("`,`", "`]`")
		}
	}
}

func (p *parser) parseInlineTable() (*Value, error) {
	p.pos++ // '{'
	v := &Value{kind: KindInlineTable}
	for {
		start := p.pos
		p.skipWS()
		pre := p.text(start)
		if p.peek() == '}' {
			if n := len(v.elems); n > 0 && v.elems[n-1].comma {
				return nil, p.unexpected("a key")
			}
			v.trailer = pre
			p.pos++
			return v, nil
		}
		k, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		eq, err := p.parseEq()
		if err != nil {
			return nil, err
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		pstart := p.pos
		p.skipWS()
		e := &element{pre: pre, key: k, eq: eq, value: val, post: p.text(pstart)}
		v.elems = append(v.elems, e)
		switch p.peek() {
		case ',':
			e.comma = true
			p.pos++
		case '}':
			p.pos++
			return v, nil
		default:
			return nil, p.unexpected("`,`", "`}`")
		}
	}
}

func (p *parser) parseBasicString() (raw, val string, err error) {
	start := p.pos
	p.pos++ // '"'
	var sb strings.Builder
	for {
		if p.eof() {
			return "", "", p.unexpected("`\"`")
		}
		c := p.src[p.pos]
		switch {
		case c == '"':
			p.pos++
			return p.text(start), sb.String(), nil
		case c == '\\':
			if err := p.parseEscape(&sb); err != nil {
				return "", "", err
			}
		case c == '\n' || c == '\r' || isControl(c):
			return "", "", p.unexpected("`\"`")
		default:
			if err := p.copyRune(&sb); err != nil {
				return "", "", err
			}
		}
	}
}

func (p *parser) parseMultilineBasicString() (raw, val string, err error) {
	start := p.pos
	p.pos += 3
	if n, ok := p.atNewline(); ok {
		p.pos += n
	}
	var sb strings.Builder
	for {
		if p.eof() {
			return "", "", p.unexpected(`"""`)
		}
		if p.hasPrefix(`"""`) {
			n := 3
			for p.peekAt(n) == '"' {
				n++
			}
			if n > 5 {
				p.pos += 5
				return "", "", p.unexpected("newline", "`#`")
			}
			sb.WriteString(strings.Repeat(`"`, n-3))
			p.pos += n
			return p.text(start), sb.String(), nil
		}
		c := p.src[p.pos]
		if n, ok := p.atNewline(); ok {
			sb.WriteString(string(p.src[p.pos : p.pos+n]))
			p.pos += n
			continue
		}
		switch {
		case c == '\\':
			if p.lineEndingBackslash() {
				continue
			}
			if err := p.parseEscape(&sb); err != nil {
				return "", "", err
			}
		case isControl(c):
			return "", "", p.unexpected(`"""`)
		default:
			if err := p.copyRune(&sb); err != nil {
				return "", "", err
			}
		}
	}
}

// lineEndingBackslash consumes a backslash that ends a line inside a
// multi-line basic string together with all following whitespace.
func (p *parser) lineEndingBackslash() bool {
	i := p.pos + 1
	for i < len(p.src) && (p.src[i] == ' ' || p.src[i] == '\t') {
		i++
	}
	if i >= len(p.src) || (p.src[i] != '\n' && !(p.src[i] == '\r' && i+1 < len(p.src) && p.src[i+1] == '\n')) {
		return false
	}
	for i < len(p.src) && (p.src[i] == ' ' || p.src[i] == '\t' || p.src[i] == '\n' || p.src[i] == '\r') {
		i++
	}
	p.pos = i
	return true
}

func (p *parser) parseLiteralString() (raw, val string, err error) {
	start := p.pos
	p.pos++ // '\''
	for {
		if p.eof() {
			return "", "", p.unexpected("`'`")
		}
		c := p.src[p.pos]
		switch {
		case c == '\'':
			p.pos++
			raw = p.text(start)
			return raw, raw[1 : len(raw)-1], nil
		case c == '\n' || c == '\r' || isControl(c):
			return "", "", p.unexpected("`'`")
		default:
			if err := p.copyRune(nil); err != nil {
				return "", "", err
			}
		}
	}
}

func (p *parser) parseMultilineLiteralString() (raw, val string, err error) {
	start := p.pos
	p.pos += 3
	if n, ok := p.atNewline(); ok {
		p.pos += n
	}
	var sb strings.Builder
	for {
		if p.eof() {
			return "", "", p.unexpected("'''")
		}
		if p.hasPrefix(`'''`) {
			n := 3
			for p.peekAt(n) == '\'' {
				n++
			}
			if n > 5 {
				p.pos += 5
				return "", "", p.unexpected("newline", "`#`")
			}
			sb.WriteString(strings.Repeat(`'`, n-3))
			p.pos += n
			return p.text(start), sb.String(), nil
		}
		if n, ok := p.atNewline(); ok {
			sb.WriteString(string(p.src[p.pos : p.pos+n]))
			p.pos += n
			continue
		}
		if isControl(p.src[p.pos]) {
			return "", "", p.unexpected("'''")
		}
		if err := p.copyRune(&sb); err != nil {
			return "", "", err
		}
	}
}

func (p *parser) copyRune(sb *strings.Builder) error {
	r, size := utf8.DecodeRune(p.src[p.pos:])
	if r == utf8.RuneError && size <= 1 {
		return p.unexpected("valid UTF-8")
	}
	if sb != nil {
		sb.WriteRune(r)
	}
	p.pos += size
	return nil
}

func (p *parser) parseEscape(sb *strings.Builder) error {
	p.pos++ // '\\'
	c := p.peek()
	if r, ok := simpleEscapes[c]; ok {
		sb.WriteByte(r)
		p.pos++
		return nil
	}
	var digits int
	switch c {
	case 'x':
		digits = 2
	case 'u':
		digits = 4
	case 'U':
		digits = 8
	default:
		return p.unexpected("an escape sequence")
	}
	p.pos++
	if p.pos+digits > len(p.src) {
		return p.unexpected("a hexadecimal digit")
	}
	code, err := strconv.ParseUint(string(p.src[p.pos:p.pos+digits]), 16, 32)
	if err != nil {
		return p.unexpected("a hexadecimal digit")
	}
	r := rune(code)
	if !utf8.ValidRune(r) {
		return p.at.messageAt(p.pos, "invalid unicode scalar value U+%X", code)
	}
	sb.WriteRune(r)
	p.pos += digits
	return nil
}

func isBareKeyChar(c byte) bool {
	return c == '_' || c == '-' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isScalarChar(c byte) bool {
	return isBareKeyChar(c) || c == '+' || c == '.' || c == ':'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isControl(c byte) bool {
	return (c < 0x20 && c != '\t') || c == 0x7f
}
