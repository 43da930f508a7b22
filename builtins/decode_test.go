package builtins

import (
	"math"
	"testing"

	"github.com/svaarala/duktape-sub000/bitstream"
	"github.com/svaarala/duktape-sub000/strtab"
)

// The types and decoder below mirror the runtime's builtin initialization
// and serve as the round-trip oracle.

type decValue struct {
	Name     uint32
	Override bool
	Attrs    Attributes
	Type     uint32
	Bits     uint64
	Str      string
	Index    uint32
	Getter   uint32
	Setter   uint32
}

type decFunction struct {
	Name   uint32
	Native uint32
	Length uint32
	Nargs  uint32
	Magic  uint16
}

type decObject struct {
	Class         Class
	Length        int
	Native        uint32
	Name          uint32
	Nargs         uint32
	Constructable bool
	Magic         uint16

	InternalPrototype   uint32
	ExternalPrototype   uint32
	ExternalConstructor uint32
	Values              []decValue
	Functions           []decFunction
}

func decodeGraph(t *testing.T, data []byte, n int, strs *strtab.Table, order ByteOrder) []decObject {
	t.Helper()
	lengthIdx, _ := strs.Index(LengthName)
	r := bitstream.NewReader(data)
	objs := make([]decObject, n)
	for i := range objs {
		o := &objs[i]
		o.Class = Class(r.Bits(ClassBits))
		o.Length = -1
		if r.Flag() {
			o.Length = int(r.Bits(LengthBits))
		}
		if o.Class == ClassFunction {
			o.Native = r.Bits(NatidxBits)
			o.Name = r.Bits(StridxBits)
			o.Nargs = r.Flagged(NargsBits, uint32(o.Length))
			o.Constructable = r.Flag()
			o.Magic = uint16(r.Flagged(MagicBits, 0))
		}
	}
	for i := range objs {
		o := &objs[i]
		o.InternalPrototype = r.Bits(BidxBits)
		o.ExternalPrototype = r.Bits(BidxBits)
		o.ExternalConstructor = r.Bits(BidxBits)
		nv := int(r.Bits(NumValuesBits))
		for j := 0; j < nv; j++ {
			v := decValue{Name: r.Bits(StridxBits)}
			if r.Flag() {
				v.Override = true
				v.Attrs = Attributes(r.Bits(PropFlagsBits))
			} else if int(v.Name) == lengthIdx {
				v.Attrs = DefaultLengthAttributes
			} else {
				v.Attrs = DefaultAttributes
			}
			v.Type = r.Bits(PropTypeBits)
			switch v.Type {
			case propTypeDouble:
				var b [8]byte
				copy(b[:], r.Bytes(8))
				v.Bits = math.Float64bits(DecodeDouble(b, order))
			case propTypeString:
				l := int(r.Bits(StringLengthBits))
				buf := make([]byte, l)
				for k := range buf {
					buf[k] = byte(r.Bits(StringCharBits))
				}
				v.Str = string(buf)
			case propTypeStridx:
				v.Index = r.Bits(StridxBits)
			case propTypeBuiltin:
				v.Index = r.Bits(BidxBits)
			case propTypeAccessor:
				v.Getter = r.Bits(NatidxBits)
				v.Setter = r.Bits(NatidxBits)
			}
			o.Values = append(o.Values, v)
		}
		nf := int(r.Bits(NumFunctionsBits))
		for j := 0; j < nf; j++ {
			f := decFunction{
				Name:   r.Bits(StridxBits),
				Native: r.Bits(NatidxBits),
				Length: r.Bits(LengthBits),
			}
			f.Nargs = r.Flagged(NargsBits, f.Length)
			f.Magic = uint16(r.Flagged(MagicBits, 0))
			o.Functions = append(o.Functions, f)
		}
	}
	if r.Err() != nil {
		t.Fatalf("decode: %v", r.Err())
	}
	if rest := len(data)*8 - r.Pos(); rest >= 8 {
		t.Fatalf("decode: %d unread bits", rest)
	}
	return objs
}

// expectGraph computes what the runtime should see for objs.
func expectGraph(t *testing.T, objs []*Object, strs *strtab.Table, ext Extensions) []decObject {
	t.Helper()
	idx, err := NewIndex(objs)
	if err != nil {
		t.Fatal(err)
	}
	natives, err := CollectNatives(objs)
	if err != nil {
		t.Fatal(err)
	}
	str := func(s string) uint32 {
		i, ok := strs.Index(s)
		if !ok {
			t.Fatalf("string %q missing from fixture table", s)
		}
		return uint32(i)
	}
	nat := func(s string) uint32 {
		i, _ := natives.Index(s)
		return uint32(i)
	}
	ref := func(id string) uint32 {
		if id == "" {
			return NoBidx
		}
		i, _ := idx.Lookup(id)
		return uint32(i)
	}
	magic := func(m Magic) uint16 {
		v, err := ResolveMagic(m, idx)
		if err != nil {
			t.Fatal(err)
		}
		return v
	}
	nargs := func(n Nargs, length int) uint32 {
		if c, ok := n.Count(); ok {
			return uint32(c)
		}
		if n.IsVarargs() {
			return NargsVarargs
		}
		return uint32(length)
	}

	var out []decObject
	for _, o := range objs {
		d := decObject{
			Class:               o.Class,
			Length:              -1,
			InternalPrototype:   ref(o.InternalPrototype),
			ExternalPrototype:   ref(o.ExternalPrototype),
			ExternalConstructor: ref(o.ExternalConstructor),
		}
		if o.Length != nil {
			d.Length = *o.Length
		}
		if o.Class == ClassFunction {
			d.Native = nat(o.Native)
			d.Name = str(o.Name)
			d.Nargs = nargs(o.Nargs, d.Length)
			d.Constructable = o.Constructable
			d.Magic = magic(o.Magic)
		}
		for _, v := range o.FilteredValues(ext) {
			dv := decValue{Name: str(v.Name), Attrs: DefaultAttributesFor(v.Name)}
			if v.Attributes != nil && *v.Attributes != dv.Attrs {
				dv.Override = true
				dv.Attrs = *v.Attributes
			}
			switch p := v.Payload.(type) {
			case Number:
				dv.Type = propTypeDouble
				dv.Bits = math.Float64bits(float64(p))
			case String:
				if strs.Has(string(p)) {
					dv.Type = propTypeStridx
					dv.Index = str(string(p))
				} else {
					dv.Type = propTypeString
					dv.Str = string(p)
				}
			case BuiltinRef:
				dv.Type = propTypeBuiltin
				dv.Index = ref(string(p))
			case Undefined:
				dv.Type = propTypeUndefined
			case Bool:
				dv.Type = propTypeFalse
				if p {
					dv.Type = propTypeTrue
				}
			case AccessorPair:
				dv.Type = propTypeAccessor
				dv.Getter = nat(p.Getter)
				dv.Setter = nat(p.Setter)
			}
			d.Values = append(d.Values, dv)
		}
		for _, f := range o.FilteredFunctions(ext) {
			d.Functions = append(d.Functions, decFunction{
				Name:   str(f.Name),
				Native: nat(f.Native),
				Length: uint32(f.Length),
				Nargs:  nargs(f.Nargs, f.Length),
				Magic:  magic(f.Magic),
			})
		}
		out = append(out, d)
	}
	return out
}
