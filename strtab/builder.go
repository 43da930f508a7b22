package strtab

import (
	"strconv"

	"github.com/svaarala/duktape-sub000/derrors"
)

const (
	// IndexBits is the width of a STRIDX field in the builtin bitstream.
	IndexBits = 9
	// MaxStrings is the largest table IndexBits can address.
	MaxStrings = 1 << IndexBits
	// MaxClassNameIndex bounds ClassName strings, which the runtime
	// stores in 8-bit fields.
	MaxClassNameIndex = 255
)

// List is a named group of strings added as a unit.
type List struct {
	Name    string
	Entries []Entry
}

// Builder collects string requests and computes the final table order.
//
// Order: every non-reserved entry is inserted at the front of the table in
// declaration order, so later entries get lower indices. ClassName strings
// are inserted in a second sweep to pull them to the front. Reserved words
// and strict-only reserved words stay at the end as two contiguous blocks
// in declared order, so the lexer can map STRIDX to token numbers by
// offset.
type Builder struct {
	prefix   string
	special  map[string]string
	reserved []Entry
	strict   []Entry
	lists    []List
}

// NewBuilder returns a Builder whose define names start with prefix,
// e.g. "DUK_STRIDX_".
func NewBuilder(prefix string) *Builder {
	return &Builder{prefix: prefix, special: make(map[string]string)}
}

// SetDefineName forces the define suffix for key where the automatic
// rule collides or produces an invalid identifier.
func (b *Builder) SetDefineName(key, suffix string) {
	b.special[key] = suffix
}

// AddReserved appends reserved words valid in both strict and non-strict
// code.
func (b *Builder) AddReserved(entries ...Entry) {
	b.reserved = append(b.reserved, entries...)
}

// AddStrictReserved appends reserved words valid only in strict code.
func (b *Builder) AddStrictReserved(entries ...Entry) {
	b.strict = append(b.strict, entries...)
}

// AddList adds a category list. Lists are processed in call order.
func (b *Builder) AddList(name string, entries []Entry) {
	b.lists = append(b.lists, List{Name: name, Entries: entries})
}

// String is one slot of a built table.
type String struct {
	Key    string
	Define string
	Flags  Flags
}

// Table is the immutable result of Builder.Build.
type Table struct {
	strings       []String
	byKey         map[string]int
	byDefine      map[string]int
	startReserved int
	startStrict   int
}

type slot struct {
	prepended bool
	i         int
}

type pending struct {
	prefix []String // prepended entries, last inserted first
	tail   []String // reserved block
	byKey  map[string]slot
	byDef  map[string]string
}

func (p *pending) at(sl slot) *String {
	if sl.prepended {
		return &p.prefix[sl.i]
	}
	return &p.tail[sl.i]
}

// add is a no-op for a string already present with the same define.
func (p *pending) add(s String, prepend bool) error {
	if sl, ok := p.byKey[s.Key]; ok {
		old := p.at(sl)
		if old.Define != s.Define {
			return derrors.Consistencyf(entity(s.Key), "define",
				"same string with different defines %s and %s", old.Define, s.Define)
		}
		old.Flags |= s.Flags
		return nil
	}
	if key, ok := p.byDef[s.Define]; ok {
		return derrors.Consistencyf(entity(s.Key), "define",
			"define %s already used by %s", s.Define, entity(key))
	}
	if prepend {
		p.byKey[s.Key] = slot{prepended: true, i: len(p.prefix)}
		p.prefix = append(p.prefix, s)
	} else {
		p.byKey[s.Key] = slot{i: len(p.tail)}
		p.tail = append(p.tail, s)
	}
	p.byDef[s.Define] = s.Key
	return nil
}

// Build computes the final order, assigns indices and checks every
// capacity and consistency rule.
func (b *Builder) Build() (*Table, error) {
	p := &pending{byKey: make(map[string]slot), byDef: make(map[string]string)}

	mk := func(e Entry) (String, error) {
		if err := e.validate(); err != nil {
			return String{}, err
		}
		def, err := b.defineName(e)
		if err != nil {
			return String{}, err
		}
		return String{Key: e.Key(), Define: def, Flags: e.Flags}, nil
	}

	for _, e := range b.reserved {
		s, err := mk(e)
		if err != nil {
			return nil, err
		}
		if err := p.add(s, false); err != nil {
			return nil, err
		}
	}
	numNonStrict := len(p.tail)
	for _, e := range b.strict {
		s, err := mk(e)
		if err != nil {
			return nil, err
		}
		if err := p.add(s, false); err != nil {
			return nil, err
		}
	}
	numStrict := len(p.tail) - numNonStrict

	classNames := make(map[string]bool)
	for _, l := range b.lists {
		for _, e := range l.Entries {
			if e.Flags&ClassName != 0 {
				classNames[e.Key()] = true
			}
		}
	}
	for pass := 0; pass < 2; pass++ {
		for _, l := range b.lists {
			for _, e := range l.Entries {
				if pass == 0 && classNames[e.Key()] {
					continue
				}
				s, err := mk(e)
				if err != nil {
					return nil, err
				}
				if err := p.add(s, true); err != nil {
					return nil, err
				}
			}
		}
	}

	t := &Table{
		byKey:    make(map[string]int),
		byDefine: make(map[string]int),
	}
	for i := len(p.prefix) - 1; i >= 0; i-- {
		t.strings = append(t.strings, p.prefix[i])
	}
	t.strings = append(t.strings, p.tail...)

	if len(t.strings) > MaxStrings {
		return nil, derrors.Capacityf(entity(t.strings[MaxStrings].Key), "",
			"string table holds at most %d strings", MaxStrings)
	}
	for i, s := range t.strings {
		t.byKey[s.Key] = i
		t.byDefine[s.Define] = i
		if classNames[s.Key] && i > MaxClassNameIndex {
			return nil, derrors.Capacityf(entity(s.Key), "",
				"class name landed at index %d, needs an 8-bit index", i)
		}
	}
	t.startReserved = len(t.strings) - numNonStrict - numStrict
	t.startStrict = len(t.strings) - numStrict
	return t, nil
}

// Len returns the number of strings.
func (t *Table) Len() int { return len(t.strings) }

// Strings returns the table in index order.
func (t *Table) Strings() []String { return t.strings }

// Index returns the STRIDX of key.
func (t *Table) Index(key string) (int, bool) {
	i, ok := t.byKey[key]
	return i, ok
}

// Has reports whether key is in the table.
func (t *Table) Has(key string) bool {
	_, ok := t.byKey[key]
	return ok
}

// DefineIndex returns the STRIDX carried by a define name.
func (t *Table) DefineIndex(define string) (int, bool) {
	i, ok := t.byDefine[define]
	return i, ok
}

// StartReserved is the index of the first reserved word.
func (t *Table) StartReserved() int { return t.startReserved }

// StartStrictReserved is the index of the first strict-only reserved word.
func (t *Table) StartStrictReserved() int { return t.startStrict }

// EndReserved is the exclusive end of the reserved range.
func (t *Table) EndReserved() int { return len(t.strings) }

func entity(key string) string {
	return strconv.Quote(key)
}
