package document

import (
	"mofox-ui/pkg/merge"
)

// Table is a TOML table: the document root, a [header] table, a table
// implied by dotted keys, or an inline table.
type Table struct {
	doc     *Document
	parent  *Table
	path    []string
	keys    []string
	entries map[string]*entry

	section *section   // section opened by this table's own header
	home    *section   // section that receives new statements
	prefix  []string   // dotted key prefix of new statements inside home
	inline  *statement // statement whose inline value contains this table
	inArray bool       // this table or an ancestor is an [[array]] element
}

type entry struct {
	value any        // *Table, tableArray, or a decoded TOML value
	stmt  *statement // statement defining this key, nil for header tables
}

// tableArray is the value of a key defined by [[header]] sections.
type tableArray []*Table

var _ merge.Tree = (*Table)(nil)

func newRoot(d *Document) *Table {
	sec := &section{}
	d.sections = append(d.sections, sec)
	return &Table{doc: d, entries: map[string]*entry{}, section: sec, home: sec}
}

func (t *Table) newChild(key string) *Table {
	path := make([]string, len(t.path), len(t.path)+1)
	copy(path, t.path)
	return &Table{
		doc:     t.doc,
		parent:  t,
		path:    append(path, key),
		entries: map[string]*entry{},
		inArray: t.inArray,
	}
}

// Keys returns the table's keys in file order.
func (t *Table) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Get returns the value at key: a *Table for tables, []*Table for arrays of
// tables, and the decoded value otherwise.
func (t *Table) Get(key string) (any, bool) {
	e, ok := t.entries[key]
	if !ok {
		return nil, false
	}
	if arr, ok := e.value.(tableArray); ok {
		return []*Table(arr), true
	}
	return e.value, true
}

// Subtree implements merge.Tree. An existing table is returned as is; any
// other value at key is replaced by an empty table. A scalar statement that
// is replaced keeps its position and becomes an inline table.
func (t *Table) Subtree(key string) merge.Tree {
	e, ok := t.entries[key]
	if ok {
		if sub, isTable := e.value.(*Table); isTable {
			return sub
		}
		t.release(e)
	}

	sub := t.newChild(key)
	switch {
	case t.inline != nil:
		sub.inline = t.inline
		t.inline.dirty = true
		t.put(key, &entry{value: sub})
	case ok && e.stmt != nil:
		sub.inline = e.stmt
		e.stmt.dirty = true
		t.put(key, &entry{value: sub, stmt: e.stmt})
	case sub.inArray:
		// Placed lazily as dotted keys inside the enclosing array element.
		t.put(key, &entry{value: sub})
	default:
		sec := t.doc.appendSection(sub.path)
		sub.section, sub.home = sec, sec
		t.put(key, &entry{value: sub})
	}
	return sub
}

// Set implements merge.Tree. The value replaces whatever key held. A
// map[string]any value replaces key with a new table holding its contents.
func (t *Table) Set(key string, value any) {
	if m, ok := value.(map[string]any); ok {
		if e, exists := t.entries[key]; exists {
			if sub, isTable := e.value.(*Table); isTable {
				if sub.inline != nil {
					sub.keys, sub.entries = nil, map[string]*entry{}
					sub.inline.dirty = true
					merge.Merge(sub, m)
					return
				}
				sub.detach()
				t.remove(key)
			}
		}
		merge.Merge(t.Subtree(key), m)
		return
	}

	e, ok := t.entries[key]
	if ok {
		t.release(e)
	}
	switch {
	case t.inline != nil:
		t.put(key, &entry{value: value})
		t.inline.dirty = true
	case ok && e.stmt != nil:
		e.stmt.dirty = true
		t.put(key, &entry{value: value, stmt: e.stmt})
	default:
		t.put(key, &entry{value: value, stmt: t.place(key)})
	}
}

// Map returns the table as plain Go values.
func (t *Table) Map() map[string]any {
	out := make(map[string]any, len(t.keys))
	for _, k := range t.keys {
		out[k] = plain(t.entries[k].value)
	}
	return out
}

func plain(v any) any {
	switch x := v.(type) {
	case *Table:
		return x.Map()
	case tableArray:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = el.Map()
		}
		return out
	default:
		return v
	}
}

func (t *Table) put(key string, e *entry) {
	if _, ok := t.entries[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.entries[key] = e
}

func (t *Table) remove(key string) {
	if _, ok := t.entries[key]; !ok {
		return
	}
	delete(t.entries, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			return
		}
	}
}

// release drops the source text owned by the value in e, except e's own
// statement, which the caller may reuse.
func (t *Table) release(e *entry) {
	switch v := e.value.(type) {
	case *Table:
		if v.inline == nil {
			v.detach()
		}
	case tableArray:
		for _, el := range v {
			el.detach()
		}
	}
}

// detach deletes every section and statement that defines t or its
// descendants.
func (t *Table) detach() {
	if t.section != nil {
		t.section.deleted = true
	}
	for _, k := range t.keys {
		e := t.entries[k]
		if e.stmt != nil {
			e.stmt.deleted = true
		}
		switch v := e.value.(type) {
		case *Table:
			if v.inline == nil {
				v.detach()
			}
		case tableArray:
			for _, el := range v {
				el.detach()
			}
		}
	}
}

// place creates the statement for a new key of t.
func (t *Table) place(key string) *statement {
	sec, prefix := t.target()
	keys := append(append([]string(nil), prefix...), key)
	st := &statement{
		rawKey: formatKey(keys),
		sep:    " = ",
		eol:    t.doc.eol,
		owner:  t,
		name:   key,
		dirty:  true,
	}
	sec.insert(st)
	return st
}

// target returns the section and dotted prefix for new statements of t,
// creating a [header] section at the end of the file when t has none.
func (t *Table) target() (*section, []string) {
	if t.home != nil {
		return t.home, t.prefix
	}
	if t.inArray && t.parent != nil {
		sec, prefix := t.parent.target()
		t.home = sec
		t.prefix = append(append([]string(nil), prefix...), t.path[len(t.path)-1])
		return t.home, t.prefix
	}
	sec := t.doc.appendSection(t.path)
	t.section, t.home = sec, sec
	return sec, nil
}

// insert adds st after the last statement of s.
func (s *section) insert(st *statement) {
	at := 0
	for i, it := range s.items {
		if it.stmt != nil {
			at = i + 1
		}
	}
	s.items = append(s.items, nil)
	copy(s.items[at+1:], s.items[at:])
	s.items[at] = &item{stmt: st}
}

// openHeader resolves the table for a [keys] or [[keys]] header starting
// at the root t.
func (t *Table) openHeader(keys []string, sec *section, array bool) *Table {
	cur := t
	for _, k := range keys[:len(keys)-1] {
		cur = cur.implicitChild(k)
	}
	last := keys[len(keys)-1]

	if array {
		var arr tableArray
		if e, ok := cur.entries[last]; ok {
			arr, _ = e.value.(tableArray)
		}
		el := cur.newChild(last)
		el.inArray = true
		el.section, el.home = sec, sec
		cur.put(last, &entry{value: append(arr, el)})
		return el
	}

	if e, ok := cur.entries[last]; ok {
		if sub, ok := e.value.(*Table); ok {
			sub.section, sub.home, sub.prefix = sec, sec, nil
			return sub
		}
	}
	sub := cur.newChild(last)
	sub.section, sub.home = sec, sec
	cur.put(last, &entry{value: sub})
	return sub
}

// implicitChild returns the table at key for header navigation. Arrays of
// tables resolve to their last element.
func (t *Table) implicitChild(key string) *Table {
	if e, ok := t.entries[key]; ok {
		switch v := e.value.(type) {
		case *Table:
			return v
		case tableArray:
			if len(v) > 0 {
				return v[len(v)-1]
			}
		}
	}
	sub := t.newChild(key)
	t.put(key, &entry{value: sub})
	return sub
}

// define records a statement with the given dotted keys in t, the table of
// sec's header.
func (t *Table) define(keys []string, st *statement, value any, sec *section) {
	cur := t
	for i, k := range keys[:len(keys)-1] {
		cur = cur.dottedChild(k, sec, keys[:i+1])
	}
	last := keys[len(keys)-1]
	st.owner, st.name = cur, last
	cur.put(last, &entry{value: cur.wrap(last, value, st), stmt: st})
}

func (t *Table) dottedChild(key string, sec *section, prefix []string) *Table {
	if e, ok := t.entries[key]; ok {
		if sub, ok := e.value.(*Table); ok {
			return sub
		}
	}
	sub := t.newChild(key)
	sub.home = sec
	sub.prefix = append([]string(nil), prefix...)
	t.put(key, &entry{value: sub})
	return sub
}

// wrap turns a decoded inline table into a *Table owned by st.
func (t *Table) wrap(key string, value any, st *statement) any {
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}
	sub := t.newChild(key)
	sub.inline = st
	for _, k := range sortedKeys(m) {
		sub.put(k, &entry{value: sub.wrap(k, m[k], st)})
	}
	return sub
}
