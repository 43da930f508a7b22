package builtins

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/svaarala/duktape-sub000/bitstream"
	"github.com/svaarala/duktape-sub000/derrors"
	"github.com/svaarala/duktape-sub000/strtab"
)

var log = commonlog.GetLogger("genbuiltins.builtins")

// Options are the per-variant encoding parameters.
type Options struct {
	ByteOrder  ByteOrder
	Extensions Extensions
}

// Stats counts what one encoding run emitted.
type Stats struct {
	Objects       int
	Values        int
	Functions     int
	InlineStrings int
}

// Result is the output of one encoding run.
type Result struct {
	Data  []byte
	Stats Stats
}

// Session owns all state of one encoding run. Sessions share nothing
// mutable, so variants for several byte orders can run concurrently over
// the same objects, string table, index and natives.
type Session struct {
	objs    []*Object
	strs    *strtab.Table
	idx     *Index
	natives *Natives
	opts    Options

	w     *bitstream.Writer
	stats Stats
}

// NewSession prepares a run. idx and natives must have been built from
// objs.
func NewSession(objs []*Object, strs *strtab.Table, idx *Index, natives *Natives, opts Options) *Session {
	return &Session{
		objs:    objs,
		strs:    strs,
		idx:     idx,
		natives: natives,
		opts:    opts,
		w:       bitstream.NewWriter(4096),
	}
}

// Encode builds the index and native table for objs and encodes them in
// one step.
func Encode(objs []*Object, strs *strtab.Table, opts Options) (*Result, error) {
	idx, err := NewIndex(objs)
	if err != nil {
		return nil, err
	}
	natives, err := CollectNatives(objs)
	if err != nil {
		return nil, err
	}
	return NewSession(objs, strs, idx, natives, opts).Encode()
}

// Encode writes all creation records, then all properties records. Any
// error aborts the run and no data is returned.
func (s *Session) Encode() (_ *Result, err error) {
	defer derrors.Wrap(&err, "encode builtins (%s)", s.opts.ByteOrder)

	if s.w == nil {
		return nil, fmt.Errorf("session already used")
	}
	defer func() { s.w = nil }()
	for _, o := range s.objs {
		if err := s.creation(o); err != nil {
			return nil, err
		}
	}
	for _, o := range s.objs {
		if err := s.properties(o); err != nil {
			return nil, err
		}
	}
	data := s.w.Finish()
	log.Infof("%d bytes of built-in init data (%s), %d built-in objects, %d normal props, %d func props, %d inline strings",
		len(data), s.opts.ByteOrder, s.stats.Objects, s.stats.Values, s.stats.Functions, s.stats.InlineStrings)
	return &Result{Data: data, Stats: s.stats}, nil
}

func (s *Session) bits(v uint32, width int) { s.w.AppendBits(v, width) }
func (s *Session) flag(set bool)            { s.w.AppendFlag(set) }

func (s *Session) stridx(key, entity, field string) error {
	i, ok := s.strs.Index(key)
	if !ok {
		return derrors.Schemaf(entity, field, "string %q is not in the string table", key)
	}
	s.bits(uint32(i), StridxBits)
	return nil
}

func (s *Session) natidx(name, entity, field string) error {
	if name == "" {
		return derrors.Schemaf(entity, field, "missing native function")
	}
	i, ok := s.natives.Index(name)
	if !ok {
		return derrors.Schemaf(entity, field, "native %q is not registered", name)
	}
	s.bits(uint32(i), NatidxBits)
	return nil
}

func (s *Session) bidx(id, entity, field string) error {
	r, err := s.idx.Ref(id)
	if err != nil {
		return derrors.At(err, entity, field)
	}
	s.bits(r.field(), BidxBits)
	return nil
}

func (s *Session) nargs(n Nargs, entity, field string) error {
	if c, fixed := n.Count(); fixed {
		if c < 0 || c >= NargsVarargs {
			return derrors.Capacityf(entity, field, "nargs %d outside 0..%d", c, NargsVarargs-1)
		}
		s.flag(true)
		s.bits(uint32(c), NargsBits)
		return nil
	}
	if n.IsVarargs() {
		s.flag(true)
		s.bits(NargsVarargs, NargsBits)
		return nil
	}
	s.flag(false)
	return nil
}

// magic writes the flag and, for a non-zero value, the 16-bit field.
// The runtime defaults a missing magic to 0.
func (s *Session) magic(m Magic, entity, field string) error {
	v, err := ResolveMagic(m, s.idx)
	if err != nil {
		return derrors.At(err, entity, field)
	}
	if v == 0 {
		s.flag(false)
		return nil
	}
	s.flag(true)
	s.bits(uint32(v), MagicBits)
	return nil
}

func checkLength(n int, entity, field string) error {
	if n < 0 || n >= 1<<LengthBits {
		return derrors.Capacityf(entity, field, "length %d outside 0..%d", n, 1<<LengthBits-1)
	}
	return nil
}

// creation writes the record the runtime needs to allocate the object:
// class, optional length and, for Function objects, the native binding.
func (s *Session) creation(o *Object) error {
	if o.Class >= numClasses {
		return derrors.Schemaf(o.ID, "class", "invalid class %d", o.Class)
	}
	s.bits(uint32(o.Class), ClassBits)

	if o.Length != nil {
		if err := checkLength(*o.Length, o.ID, "length"); err != nil {
			return err
		}
		s.flag(true)
		s.bits(uint32(*o.Length), LengthBits)
	} else {
		s.flag(false)
	}

	if o.LengthAttributes != nil && *o.LengthAttributes != DefaultLengthAttributes && o.Class != ClassArray {
		return derrors.Consistencyf(o.ID, "length_attributes",
			"non-default length attributes %q on a %s object, only Array allows them", o.LengthAttributes.String(), o.Class)
	}

	if o.Class != ClassFunction {
		return nil
	}
	if o.Length == nil {
		return derrors.Schemaf(o.ID, "length", "Function object without length")
	}
	if err := s.natidx(o.Native, o.ID, "native"); err != nil {
		return err
	}
	if err := s.stridx(o.Name, o.ID, "name"); err != nil {
		return err
	}
	if err := s.nargs(o.Nargs, o.ID, "nargs"); err != nil {
		return err
	}
	s.flag(o.Constructable)
	return s.magic(o.Magic, o.ID, "magic")
}

// properties writes the prototype links and the filtered property lists.
func (s *Session) properties(o *Object) error {
	s.stats.Objects++

	if err := s.bidx(o.InternalPrototype, o.ID, "internal_prototype"); err != nil {
		return err
	}
	if err := s.bidx(o.ExternalPrototype, o.ID, "external_prototype"); err != nil {
		return err
	}
	if err := s.bidx(o.ExternalConstructor, o.ID, "external_constructor"); err != nil {
		return err
	}

	values := o.FilteredValues(s.opts.Extensions)
	if len(values) > MaxProps {
		return derrors.Capacityf(o.ID, "values", "%d values, at most %d", len(values), MaxProps)
	}
	s.bits(uint32(len(values)), NumValuesBits)
	for _, v := range values {
		if err := s.value(o, v, fmt.Sprintf("values[%q]", v.Name)); err != nil {
			return err
		}
	}

	funcs := o.FilteredFunctions(s.opts.Extensions)
	if len(funcs) > MaxProps {
		return derrors.Capacityf(o.ID, "functions", "%d functions, at most %d", len(funcs), MaxProps)
	}
	s.bits(uint32(len(funcs)), NumFunctionsBits)
	for _, f := range funcs {
		if err := s.function(o, f, fmt.Sprintf("functions[%q]", f.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) value(o *Object, v Value, field string) error {
	s.stats.Values++
	if err := s.stridx(v.Name, o.ID, field); err != nil {
		return err
	}

	def := DefaultAttributesFor(v.Name)
	attrs := def
	if v.Attributes != nil {
		attrs = *v.Attributes
	}
	if attrs != def {
		if attrs >= 1<<PropFlagsBits {
			return derrors.Capacityf(o.ID, field, "attributes %q do not fit %d bits", attrs.String(), PropFlagsBits)
		}
		s.flag(true)
		s.bits(uint32(attrs), PropFlagsBits)
	} else {
		s.flag(false)
	}

	switch p := v.Payload.(type) {
	case Bool:
		if p {
			s.bits(propTypeTrue, PropTypeBits)
		} else {
			s.bits(propTypeFalse, PropTypeBits)
		}
	case Undefined:
		s.bits(propTypeUndefined, PropTypeBits)
	case Number:
		s.bits(propTypeDouble, PropTypeBits)
		b := EncodeDouble(float64(p), s.opts.ByteOrder)
		s.w.AppendBytes(b[:])
	case String:
		if i, ok := s.strs.Index(string(p)); ok {
			s.bits(propTypeStridx, PropTypeBits)
			s.bits(uint32(i), StridxBits)
			break
		}
		if len(p) > MaxInlineString {
			return derrors.Capacityf(o.ID, field, "inline string of %d bytes, at most %d", len(p), MaxInlineString)
		}
		for i := 0; i < len(p); i++ {
			if p[i] >= 1<<StringCharBits {
				return derrors.Capacityf(o.ID, field, "inline string byte 0x%02x does not fit %d bits", p[i], StringCharBits)
			}
		}
		s.stats.InlineStrings++
		s.bits(propTypeString, PropTypeBits)
		s.bits(uint32(len(p)), StringLengthBits)
		for i := 0; i < len(p); i++ {
			s.bits(uint32(p[i]), StringCharBits)
		}
	case BuiltinRef:
		if p == "" {
			return derrors.Schemaf(o.ID, field, "builtin reference without id")
		}
		s.bits(propTypeBuiltin, PropTypeBits)
		if err := s.bidx(string(p), o.ID, field); err != nil {
			return err
		}
	case AccessorPair:
		s.bits(propTypeAccessor, PropTypeBits)
		if err := s.natidx(p.Getter, o.ID, field+".getter"); err != nil {
			return err
		}
		if err := s.natidx(p.Setter, o.ID, field+".setter"); err != nil {
			return err
		}
	case nil:
		return derrors.Schemaf(o.ID, field, "value property without payload")
	default:
		return derrors.Schemaf(o.ID, field, "unsupported payload %T", p)
	}
	return nil
}

func (s *Session) function(o *Object, f Function, field string) error {
	s.stats.Functions++
	if err := s.stridx(f.Name, o.ID, field); err != nil {
		return err
	}
	if err := s.natidx(f.Native, o.ID, field+".native"); err != nil {
		return err
	}
	if err := checkLength(f.Length, o.ID, field+".length"); err != nil {
		return err
	}
	s.bits(uint32(f.Length), LengthBits)
	if err := s.nargs(f.Nargs, o.ID, field+".nargs"); err != nil {
		return err
	}
	return s.magic(f.Magic, o.ID, field+".magic")
}
