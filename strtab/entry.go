// Package strtab builds the runtime's built-in string table: the final
// ordered list of identifiers with their STRIDX values and C define names,
// and the 5-bit packed bitstream the runtime expands at startup.
package strtab

import (
	"strings"

	"github.com/svaarala/duktape-sub000/derrors"
)

// InternalMarker prefixes engine-private property keys. It is written as
// symbol 27 in the bitstream and becomes 0xff at runtime.
const InternalMarker = "\x00"

// Flags categorize a string. Only ClassName affects placement; the rest
// are carried for the build metadata.
type Flags uint16

const (
	ReservedWord Flags = 1 << iota
	FutureReservedWord
	FutureReservedWordStrict
	SpecialLiteral
	SectionB
	BrowserLike
	ES6
	CommonJS
	Custom
	Internal
	// ClassName strings are looked up with 8-bit indices by the runtime
	// and must land below index 256.
	ClassName
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{ReservedWord, "reserved_word"},
	{FutureReservedWord, "future_reserved_word"},
	{FutureReservedWordStrict, "future_reserved_word_strict"},
	{SpecialLiteral, "special_literal"},
	{SectionB, "section_b"},
	{BrowserLike, "browser_like"},
	{ES6, "es6"},
	{CommonJS, "commonjs"},
	{Custom, "custom"},
	{Internal, "internal"},
	{ClassName, "class_name"},
}

// FlagByName returns the flag with the given metadata key.
func FlagByName(name string) (Flags, bool) {
	for _, f := range flagNames {
		if f.name == name {
			return f.flag, true
		}
	}
	return 0, false
}

func (f Flags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, ",")
}

// Entry is one requested string. For Internal entries Text omits the
// marker; Key adds it.
type Entry struct {
	Text  string
	Flags Flags
	// Define overrides the generated define name suffix (the part after
	// the STRIDX prefix).
	Define string
}

// Key returns the string as it appears in the table.
func (e Entry) Key() string {
	if e.Flags&Internal != 0 {
		return InternalMarker + e.Text
	}
	return e.Text
}

func (e Entry) validate() error {
	if e.Flags&Internal != 0 {
		if e.Text == "" || e.Text[0] < 'A' || e.Text[0] > 'Z' {
			return derrors.Schemaf(entity(e.Key()), "", "internal key must start with an uppercase letter")
		}
	}
	for i := 0; i < len(e.Text); i++ {
		if e.Text[i] > 0x7f {
			return derrors.Schemaf(entity(e.Key()), "", "non-ASCII byte 0x%02x at offset %d", e.Text[i], i)
		}
	}
	return nil
}
