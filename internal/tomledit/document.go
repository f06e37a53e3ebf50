// Package tomledit provides a TOML document that can be edited without
// disturbing the formatting, comments or ordering of untouched content.
//
// A Document serializes back to the exact bytes it was parsed from until it
// is modified; SetValue replaces only the text of the targeted value.
package tomledit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoValue is returned when a path does not name an existing value.
var ErrNoValue = errors.New("no value at path")

// Document is a parsed TOML document that retains its source layout.
type Document struct {
	items  []item
	root   *Table
	tables []*Table
}

// Parse parses src into a Document. A malformed document yields a
// *ParseError describing the first offending token.
func Parse(src []byte) (*Document, error) {
	p := newParser(src)
	items, err := p.parseDocument()
	if err != nil {
		return nil, err
	}
	d := &Document{items: items}
	if err := d.index(p.at); err != nil {
		return nil, err
	}
	return d, nil
}

// Bytes serializes the document.
func (d *Document) Bytes() []byte {
	return []byte(d.String())
}

// String serializes the document.
func (d *Document) String() string {
	var sb strings.Builder
	for _, it := range d.items {
		it.writeTo(&sb)
	}
	return sb.String()
}

// Root returns the top-level table.
func (d *Document) Root() *Table { return d.root }

// Tables returns every table of the document in the order it was first
// introduced, including implicit, dotted and inline tables and each element
// of an array of tables.
func (d *Document) Tables() []*Table {
	out := make([]*Table, len(d.tables))
	copy(out, d.tables)
	return out
}

// Table returns the table at path. An empty path names the root table.
func (d *Document) Table(path ...string) (*Table, bool) {
	t := d.root
	for _, k := range path {
		sub, ok := t.Table(k)
		if !ok {
			return nil, false
		}
		t = sub
	}
	return t, true
}

// Get returns the value at path.
func (d *Document) Get(path ...string) (*Value, bool) {
	if len(path) == 0 {
		return nil, false
	}
	t, ok := d.Table(path[:len(path)-1]...)
	if !ok {
		return nil, false
	}
	return t.Get(path[len(path)-1])
}

// SetValue replaces the value at path with v. Only the value's own text
// changes: the key, surrounding whitespace and any trailing comment are kept,
// and inside an inline table the sibling order and inline layout are kept.
func (d *Document) SetValue(path []string, v *Value) error {
	if len(path) == 0 || v == nil {
		return fmt.Errorf("tomledit: set %q: %w", strings.Join(path, "."), ErrNoValue)
	}
	target, ok := d.Get(path...)
	if !ok {
		return fmt.Errorf("tomledit: set %q: %w", strings.Join(path, "."), ErrNoValue)
	}
	prev := *target
	*target = *v.clone()
	if err := d.index(nil); err != nil {
		*target = prev
		_ = d.index(nil)
		return fmt.Errorf("tomledit: set %q: %w", strings.Join(path, "."), err)
	}
	return nil
}

// SetString replaces the string at path with s, keeping the quoting style
// of the previous value when it can represent s.
func (d *Document) SetString(path []string, s string) error {
	prev, ok := d.Get(path...)
	if !ok {
		return fmt.Errorf("tomledit: set %q: %w", strings.Join(path, "."), ErrNoValue)
	}
	return d.SetValue(path, NewStringLike(prev, s))
}

// index rebuilds the logical table tree from the document items. at is
// used to position semantic errors and may be nil after the initial parse.
func (d *Document) index(at *position) error {
	b := &indexer{at: at}
	d.root = b.newTable(nil, TableRoot)
	current := d.root
	for _, it := range d.items {
		switch it := it.(type) {
		case *keyValue:
			if err := b.insert(current, it.key, it.value); err != nil {
				return err
			}
		case *tableHeader:
			t, err := b.open(d.root, it)
			if err != nil {
				return err
			}
			current = t
		}
	}
	d.tables = b.tables
	return nil
}

type indexer struct {
	at     *position
	tables []*Table
}

func (b *indexer) newTable(path []string, kind TableKind) *Table {
	t := &Table{
		path:  path,
		kind:  kind,
		byKey: make(map[string]*entry),
	}
	b.tables = append(b.tables, t)
	return t
}

func (b *indexer) fail(k *key, format string, args ...any) error {
	if b.at == nil {
		return fmt.Errorf(format, args...)
	}
	return b.at.messageAt(k.offset, format, args...)
}

func childPath(parent []string, k string) []string {
	out := make([]string, 0, len(parent)+1)
	out = append(out, parent...)
	return append(out, k)
}

// insert adds a key/value to t, creating the tables named by a dotted key.
func (b *indexer) insert(t *Table, k *key, v *Value) error {
	parent := t
	for _, part := range k.parts[:len(k.parts)-1] {
		e, ok := parent.byKey[part]
		if !ok {
			sub := b.newTable(childPath(parent.path, part), TableDotted)
			parent.add(&entry{key: part, table: sub})
			parent = sub
			continue
		}
		if e.table == nil || e.array != nil || e.table.kind == TableInline {
			return b.fail(k, "cannot extend `%s` with dotted key `%s`", part, k.raw)
		}
		parent = e.table
	}
	last := k.parts[len(k.parts)-1]
	if _, dup := parent.byKey[last]; dup {
		return b.fail(k, "duplicate key `%s`", last)
	}
	e := &entry{key: last, value: v}
	if v.kind == KindInlineTable {
		sub := b.newTable(childPath(parent.path, last), TableInline)
		for _, el := range v.elems {
			if err := b.insert(sub, el.key, el.value); err != nil {
				return err
			}
		}
		e.table = sub
	}
	parent.add(e)
	return nil
}

// open resolves the table introduced by a [header] or [[header]].
func (b *indexer) open(root *Table, h *tableHeader) (*Table, error) {
	parent := root
	parts := h.key.parts
	for _, part := range parts[:len(parts)-1] {
		e, ok := parent.byKey[part]
		switch {
		case !ok:
			sub := b.newTable(childPath(parent.path, part), TableImplicit)
			parent.add(&entry{key: part, table: sub})
			parent = sub
		case e.array != nil:
			parent = e.array[len(e.array)-1]
		case e.table != nil && e.table.kind != TableInline:
			parent = e.table
		default:
			return nil, b.fail(h.key, "cannot extend `%s` in table header `%s`", part, h.key.raw)
		}
	}
	last := parts[len(parts)-1]
	e, ok := parent.byKey[last]
	path := childPath(parent.path, last)
	if h.array {
		if !ok {
			e = &entry{key: last}
			parent.add(e)
		} else if e.array == nil {
			return nil, b.fail(h.key, "duplicate key `%s`", last)
		}
		t := b.newTable(path, TableArrayElement)
		t.header = h
		e.array = append(e.array, t)
		return t, nil
	}
	if !ok {
		t := b.newTable(path, TableHeader)
		t.header = h
		parent.add(&entry{key: last, table: t})
		return t, nil
	}
	if e.table != nil && e.array == nil && e.table.kind == TableImplicit {
		e.table.kind = TableHeader
		e.table.header = h
		return e.table, nil
	}
	if e.table != nil && e.table.kind == TableHeader {
		return nil, b.fail(h.key, "duplicate table `%s`", strings.Join(path, "."))
	}
	return nil, b.fail(h.key, "duplicate key `%s`", last)
}
