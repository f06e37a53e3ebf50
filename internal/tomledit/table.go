package tomledit

// TableKind records how a table came to exist in the document.
type TableKind int

const (
	// TableRoot is the top-level table.
	TableRoot TableKind = iota
	// TableHeader is introduced by a [header].
	TableHeader
	// TableImplicit exists only as the parent of a deeper [a.b] header.
	TableImplicit
	// TableDotted is introduced by a dotted key such as a.b = 1.
	TableDotted
	// TableInline is an inline table value { ... }.
	TableInline
	// TableArrayElement is one [[header]] element of an array of tables.
	TableArrayElement
)

// Table is a read view over one table of a Document.
type Table struct {
	path    []string
	kind    TableKind
	header  *tableHeader
	entries []*entry
	byKey   map[string]*entry
}

type entry struct {
	key   string
	value *Value
	table *Table
	array []*Table
}

func (t *Table) add(e *entry) {
	t.entries = append(t.entries, e)
	t.byKey[e.key] = e
}

// Path returns the keys leading to the table from the root.
func (t *Table) Path() []string {
	out := make([]string, len(t.path))
	copy(out, t.path)
	return out
}

// Kind reports how the table was introduced.
func (t *Table) Kind() TableKind { return t.kind }

// Len returns the number of keys directly in the table.
func (t *Table) Len() int { return len(t.entries) }

// Keys returns the table's keys in declaration order.
func (t *Table) Keys() []string {
	keys := make([]string, len(t.entries))
	for i, e := range t.entries {
		keys[i] = e.key
	}
	return keys
}

// Has reports whether key is defined in the table.
func (t *Table) Has(key string) bool {
	_, ok := t.byKey[key]
	return ok
}

// Get returns the value stored under key. Sub-tables introduced by headers
// or dotted keys have no value; inline tables do.
func (t *Table) Get(key string) (*Value, bool) {
	e, ok := t.byKey[key]
	if !ok || e.value == nil {
		return nil, false
	}
	return e.value, true
}

// Table returns the sub-table stored under key.
func (t *Table) Table(key string) (*Table, bool) {
	e, ok := t.byKey[key]
	if !ok || e.table == nil {
		return nil, false
	}
	return e.table, true
}

// ArrayTables returns the elements of the array of tables stored under key.
func (t *Table) ArrayTables(key string) []*Table {
	e, ok := t.byKey[key]
	if !ok {
		return nil
	}
	return e.array
}
