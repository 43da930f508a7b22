package builtins

// ---------------------------------------------------------------------------
// Frozen field widths and tags of the builtin init bitstream.
//
// IMPORTANT: These values are FROZEN. The runtime decoder reads the stream
// with the same widths in the same order and there is no version tag, so
// changing any value here breaks every runtime built against older data.
//
// Field order, as read by duk_hthread_builtins.c:
//
//	creation record, once per object:
//	  class(5) length:flag[+3]
//	  Function class only: natidx(8) name:stridx(9) nargs:flag[+3]
//	                       constructable:flag magic:flag[+16]
//	properties record, once per object, after all creation records:
//	  internal_prototype(6) external_prototype(6) external_constructor(6)
//	  value count(6), per value:
//	    stridx(9) attributes:flag[+3] type(3) payload
//	  function count(6), per function:
//	    stridx(9) natidx(8) length(3) nargs:flag[+3] magic:flag[+16]
//
// The prototype links sit in the properties record so that every object
// exists before any link to it is resolved.
// ---------------------------------------------------------------------------

const (
	ClassBits        = 5
	BidxBits         = 6
	StridxBits       = 9
	NatidxBits       = 8
	NumValuesBits    = 6
	NumFunctionsBits = 6
	PropFlagsBits    = 3
	StringLengthBits = 8
	StringCharBits   = 7
	LengthBits       = 3
	NargsBits        = 3
	PropTypeBits     = 3
	MagicBits        = 16
)

const (
	// NargsVarargs in a nargs field means the argument count is taken
	// from the call site.
	NargsVarargs = 0x07
	// NoBidx in a bidx field means "no object".
	NoBidx = 0x3f

	// MaxBuiltins is the number of objects a bidx field can address with
	// NoBidx reserved.
	MaxBuiltins = NoBidx
	// MaxNatives is the number of distinct native functions supported.
	MaxNatives = 1<<NatidxBits - 1
	// MaxProps bounds the value and function counts of one object.
	MaxProps = 1<<NumValuesBits - 1
	// MaxInlineString bounds inline string payloads.
	MaxInlineString = 1<<StringLengthBits - 1
)

// Property payload tags.
const (
	propTypeDouble    = 0
	propTypeString    = 1
	propTypeStridx    = 2
	propTypeBuiltin   = 3
	propTypeUndefined = 4
	propTypeTrue      = 5
	propTypeFalse     = 6
	propTypeAccessor  = 7
)

// LengthName is the one property name whose default attributes differ.
const LengthName = "length"
