// Package builtins encodes the runtime's built-in object graph into the
// bit-packed init data the runtime decodes at heap creation.
//
// Encoding is two-phase. First every object gets a dense index (BIDX) in
// declaration order and every referenced native function gets a dense index
// (NATIDX) in sorted order. Then a Session writes one creation record per
// object followed by one properties record per object.
package builtins

import (
	"fmt"
	"strings"

	"github.com/svaarala/duktape-sub000/derrors"
)

// Class is the internal class tag of an object. Numbering matches the
// runtime's class constants.
type Class uint8

const (
	ClassUnused Class = iota
	ClassArguments
	ClassArray
	ClassBoolean
	ClassDate
	ClassError
	ClassFunction
	ClassJSON
	ClassMath
	ClassNumber
	ClassObject
	ClassRegExp
	ClassString
	ClassGlobal
	ClassObjEnv
	ClassDecEnv
	ClassBuffer
	ClassPointer
	ClassThread
	numClasses
)

var classNames = [numClasses]string{
	"Unused", "Arguments", "Array", "Boolean", "Date", "Error", "Function",
	"JSON", "Math", "Number", "Object", "RegExp", "String", "global",
	"ObjEnv", "DecEnv", "Buffer", "Pointer", "Thread",
}

func (c Class) String() string {
	if c < numClasses {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// ParseClass maps a class name to its tag.
func ParseClass(name string) (Class, error) {
	for i, n := range classNames {
		if n == name {
			return Class(i), nil
		}
	}
	return 0, derrors.Schemaf("", "class", "unknown class %q", name)
}

// Attributes is a property attribute bitset.
type Attributes uint8

const (
	Writable     Attributes = 1 << 0
	Enumerable   Attributes = 1 << 1
	Configurable Attributes = 1 << 2
	// Accessor is accepted in metadata but does not fit the 3-bit field;
	// the runtime sets it itself for accessor payloads.
	Accessor Attributes = 1 << 3
)

const (
	DefaultAttributes       Attributes = Writable | Configurable
	DefaultLengthAttributes Attributes = 0
)

// ParseAttributes parses a "wec" style attribute string.
func ParseAttributes(s string) (Attributes, error) {
	var a Attributes
	for _, c := range s {
		var f Attributes
		switch c {
		case 'w':
			f = Writable
		case 'e':
			f = Enumerable
		case 'c':
			f = Configurable
		case 'a':
			f = Accessor
		default:
			return 0, derrors.Schemaf("", "attributes", "unsupported flag %q in %q", c, s)
		}
		if a&f != 0 {
			return 0, derrors.Schemaf("", "attributes", "duplicate flag %q in %q", c, s)
		}
		a |= f
	}
	return a, nil
}

func (a Attributes) String() string {
	var sb strings.Builder
	for _, f := range []struct {
		bit Attributes
		c   byte
	}{{Writable, 'w'}, {Enumerable, 'e'}, {Configurable, 'c'}, {Accessor, 'a'}} {
		if a&f.bit != 0 {
			sb.WriteByte(f.c)
		}
	}
	return sb.String()
}

// DefaultAttributesFor returns the attributes a property named name gets
// when none are given.
func DefaultAttributesFor(name string) Attributes {
	if name == LengthName {
		return DefaultLengthAttributes
	}
	return DefaultAttributes
}

// Nargs is the argument count mode of a native function. The zero value
// means "same as length".
type Nargs struct {
	mode nargsMode
	n    int
}

type nargsMode uint8

const (
	nargsDefault nargsMode = iota
	nargsFixed
	nargsVarargs
)

// VarargsNargs marks a function whose argument count comes from the call.
var VarargsNargs = Nargs{mode: nargsVarargs}

// FixedNargs returns an explicit argument count.
func FixedNargs(n int) Nargs {
	return Nargs{mode: nargsFixed, n: n}
}

// IsDefault reports whether no explicit mode was given.
func (n Nargs) IsDefault() bool { return n.mode == nargsDefault }

// IsVarargs reports whether the count comes from the call site.
func (n Nargs) IsVarargs() bool { return n.mode == nargsVarargs }

// Count returns the explicit count of a fixed Nargs.
func (n Nargs) Count() (int, bool) { return n.n, n.mode == nargsFixed }

func (n Nargs) String() string {
	switch n.mode {
	case nargsFixed:
		return fmt.Sprintf("%d", n.n)
	case nargsVarargs:
		return "varargs"
	}
	return "default"
}

// Payload is the value of a value property.
type Payload interface {
	payload()
}

// Number is a double payload. The exact bit pattern is preserved.
type Number float64

// String is a string payload. It is written as a string table reference
// when the table has it and inline otherwise.
type String string

// BuiltinRef references another built-in object by id.
type BuiltinRef string

// Undefined is the undefined payload.
type Undefined struct{}

// Bool is a boolean payload.
type Bool bool

// AccessorPair is a getter/setter payload naming two native functions.
type AccessorPair struct {
	Getter string
	Setter string
}

func (Number) payload()       {}
func (String) payload()       {}
func (BuiltinRef) payload()   {}
func (Undefined) payload()    {}
func (Bool) payload()         {}
func (AccessorPair) payload() {}

// Magic is the auxiliary 16-bit value handed to a shared native.
type Magic interface {
	magic()
}

// Literal is a literal magic value in int16 range.
type Literal int

// BidxOf resolves to the BIDX of the named object.
type BidxOf string

func (Literal) magic() {}
func (BidxOf) magic()  {}

// Extensions gates optional properties.
type Extensions struct {
	SectionB    bool
	BrowserLike bool
}

// Gate marks a property as belonging to an optional extension.
type Gate struct {
	SectionB bool
	Browser  bool
}

// Enabled reports whether a property with this gate is emitted under ext.
func (g Gate) Enabled(ext Extensions) bool {
	if g.SectionB && !ext.SectionB {
		return false
	}
	if g.Browser && !ext.BrowserLike {
		return false
	}
	return true
}

// Value is a plain or accessor property.
type Value struct {
	Name string
	// Attributes overrides the name-dependent default when non-nil.
	Attributes *Attributes
	Payload    Payload
	Gate
}

// Function is a native function property.
type Function struct {
	Name   string
	Native string
	Length int
	Nargs  Nargs
	Magic  Magic
	Gate
}

// Object describes one built-in object.
type Object struct {
	ID    string
	Class Class

	// Ids of related objects; empty means none.
	InternalPrototype   string
	ExternalPrototype   string
	ExternalConstructor string

	Length *int
	// LengthAttributes is only legal on the Array class.
	LengthAttributes *Attributes

	// Function class only.
	Name          string
	Native        string
	Nargs         Nargs
	Constructable bool
	Magic         Magic

	Values    []Value
	Functions []Function
}

// FilteredValues returns the values enabled under ext, in order.
func (o *Object) FilteredValues(ext Extensions) []Value {
	var out []Value
	for _, v := range o.Values {
		if v.Enabled(ext) {
			out = append(out, v)
		}
	}
	return out
}

// FilteredFunctions returns the functions enabled under ext, in order.
func (o *Object) FilteredFunctions(ext Extensions) []Function {
	var out []Function
	for _, f := range o.Functions {
		if f.Enabled(ext) {
			out = append(out, f)
		}
	}
	return out
}
