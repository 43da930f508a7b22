package metadata

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/svaarala/duktape-sub000/builtins"
	"github.com/svaarala/duktape-sub000/derrors"
	"github.com/svaarala/duktape-sub000/strtab"
)

type builtinsDoc struct {
	Objects []objectDoc `yaml:"objects"`
}

type objectDoc struct {
	ID                  string        `yaml:"id"`
	Class               string        `yaml:"class"`
	InternalPrototype   string        `yaml:"internal_prototype"`
	ExternalPrototype   string        `yaml:"external_prototype"`
	ExternalConstructor string        `yaml:"external_constructor"`
	Name                string        `yaml:"name"`
	Length              *int          `yaml:"length"`
	LengthAttributes    *string       `yaml:"length_attributes"`
	Native              string        `yaml:"native"`
	Constructable       bool          `yaml:"constructable"`
	Varargs             bool          `yaml:"varargs"`
	Nargs               *int          `yaml:"nargs"`
	Magic               *magicDoc     `yaml:"magic"`
	Values              []valueDoc    `yaml:"values"`
	Functions           []functionDoc `yaml:"functions"`
}

type valueDoc struct {
	Name       string     `yaml:"name"`
	Value      yaml.Node  `yaml:"value"`
	Getter     string     `yaml:"getter"`
	Setter     string     `yaml:"setter"`
	Attributes *string    `yaml:"attributes"`
	SectionB   bool       `yaml:"section_b"`
	Browser    bool       `yaml:"browser"`
}

type functionDoc struct {
	Name     string    `yaml:"name"`
	Native   string    `yaml:"native"`
	Length   int       `yaml:"length"`
	Varargs  bool      `yaml:"varargs"`
	Nargs    *int      `yaml:"nargs"`
	Magic    *magicDoc `yaml:"magic"`
	SectionB bool      `yaml:"section_b"`
	Browser  bool      `yaml:"browser"`
}

// magicDoc is either a literal integer or {bidx: id}.
type magicDoc struct {
	magic builtins.Magic
}

func (m *magicDoc) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var v int
		if err := n.Decode(&v); err != nil {
			return err
		}
		m.magic = builtins.Literal(v)
		return nil
	}
	var ref struct {
		Bidx string `yaml:"bidx"`
	}
	if err := n.Decode(&ref); err != nil {
		return err
	}
	m.magic = builtins.BidxOf(ref.Bidx)
	return nil
}

func (m *magicDoc) get() builtins.Magic {
	if m == nil {
		return nil
	}
	return m.magic
}

// typedValue is the mapping form of a value.
type typedValue struct {
	Type  string    `yaml:"type"`
	Bits  string    `yaml:"bits"`
	ID    string    `yaml:"id"`
	Value yaml.Node `yaml:"value"`
}

// payload converts a value node. Scalars infer their type from the YAML
// tag, so 1 is a number and "1" a string.
func payload(n *yaml.Node) (builtins.Payload, error) {
	if n.Kind == yaml.ScalarNode {
		return scalarPayload(n)
	}
	var tv typedValue
	if err := n.Decode(&tv); err != nil {
		return nil, err
	}
	switch tv.Type {
	case "double":
		if tv.Bits != "" {
			bits, err := strconv.ParseUint(tv.Bits, 16, 64)
			if err != nil {
				return nil, fmt.Errorf("bad double bits %q", tv.Bits)
			}
			return builtins.Number(math.Float64frombits(bits)), nil
		}
		var f float64
		if err := tv.Value.Decode(&f); err != nil {
			return nil, err
		}
		return builtins.Number(f), nil
	case "string":
		var s string
		if err := tv.Value.Decode(&s); err != nil {
			return nil, err
		}
		return builtins.String(s), nil
	case "boolean":
		var b bool
		if err := tv.Value.Decode(&b); err != nil {
			return nil, err
		}
		return builtins.Bool(b), nil
	case "builtin":
		return builtins.BuiltinRef(tv.ID), nil
	case "undefined":
		return builtins.Undefined{}, nil
	}
	return nil, fmt.Errorf("unknown value type %q", tv.Type)
}

func scalarPayload(n *yaml.Node) (builtins.Payload, error) {
	switch n.ShortTag() {
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return builtins.Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return builtins.Number(f), nil
	case "!!str":
		return builtins.String(n.Value), nil
	}
	return nil, fmt.Errorf("unsupported scalar %s", n.ShortTag())
}

func nargs(varargs bool, n *int) builtins.Nargs {
	switch {
	case varargs:
		return builtins.VarargsNargs
	case n != nil:
		return builtins.FixedNargs(*n)
	}
	return builtins.Nargs{}
}

func attributes(s *string, entity, field string) (*builtins.Attributes, error) {
	if s == nil {
		return nil, nil
	}
	a, err := builtins.ParseAttributes(*s)
	if err != nil {
		return nil, derrors.At(err, entity, field)
	}
	return &a, nil
}

func (d *objectDoc) object() (*builtins.Object, error) {
	class, err := builtins.ParseClass(d.Class)
	if err != nil {
		return nil, derrors.At(err, d.ID, "class")
	}
	la, err := attributes(d.LengthAttributes, d.ID, "length_attributes")
	if err != nil {
		return nil, err
	}
	o := &builtins.Object{
		ID:                  d.ID,
		Class:               class,
		InternalPrototype:   d.InternalPrototype,
		ExternalPrototype:   d.ExternalPrototype,
		ExternalConstructor: d.ExternalConstructor,
		Length:              d.Length,
		LengthAttributes:    la,
		Name:                d.Name,
		Native:              d.Native,
		Nargs:               nargs(d.Varargs, d.Nargs),
		Constructable:       d.Constructable,
		Magic:               d.Magic.get(),
	}
	for _, vd := range d.Values {
		field := fmt.Sprintf("values[%q]", vd.Name)
		v := builtins.Value{
			Name: vd.Name,
			Gate: builtins.Gate{SectionB: vd.SectionB, Browser: vd.Browser},
		}
		if v.Attributes, err = attributes(vd.Attributes, d.ID, field); err != nil {
			return nil, err
		}
		hasValue := vd.Value.Kind != 0
		switch {
		case hasValue && (vd.Getter != "" || vd.Setter != ""):
			return nil, derrors.Schemaf(d.ID, field, "both a value and an accessor")
		case hasValue:
			p, err := payload(&vd.Value)
			if err != nil {
				return nil, derrors.Schemaf(d.ID, field, "line %d: %v", vd.Value.Line, err)
			}
			v.Payload = p
		case vd.Getter != "" && vd.Setter != "":
			v.Payload = builtins.AccessorPair{Getter: vd.Getter, Setter: vd.Setter}
		default:
			return nil, derrors.Schemaf(d.ID, field, "needs a value or both getter and setter")
		}
		o.Values = append(o.Values, v)
	}
	for _, fd := range d.Functions {
		o.Functions = append(o.Functions, builtins.Function{
			Name:   fd.Name,
			Native: fd.Native,
			Length: fd.Length,
			Nargs:  nargs(fd.Varargs, fd.Nargs),
			Magic:  fd.Magic.get(),
			Gate:   builtins.Gate{SectionB: fd.SectionB, Browser: fd.Browser},
		})
	}
	return o, nil
}

type stringsDoc struct {
	Reserved       []entryDoc        `yaml:"reserved"`
	StrictReserved []entryDoc        `yaml:"strict_reserved"`
	Lists          []listDoc         `yaml:"lists"`
	DefineNames    map[string]string `yaml:"define_names"`
}

type listDoc struct {
	Name    string     `yaml:"name"`
	Strings []entryDoc `yaml:"strings"`
}

// entryDoc is a bare string or {text: ..., <flag>: true, define: ...}.
type entryDoc struct {
	entry strtab.Entry
}

func (e *entryDoc) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		e.entry.Text = n.Value
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: string entry must be a scalar or a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		switch k.Value {
		case "text":
			e.entry.Text = v.Value
		case "define":
			e.entry.Define = v.Value
		default:
			f, ok := strtab.FlagByName(k.Value)
			if !ok {
				return fmt.Errorf("line %d: unknown string flag %q", k.Line, k.Value)
			}
			var set bool
			if err := v.Decode(&set); err != nil {
				return err
			}
			if set {
				e.entry.Flags |= f
			}
		}
	}
	return nil
}

func entries(docs []entryDoc) []strtab.Entry {
	out := make([]strtab.Entry, len(docs))
	for i, d := range docs {
		out[i] = d.entry
	}
	return out
}
