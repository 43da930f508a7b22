// Package metadata loads the YAML documents describing the built-in objects
// and the built-in string lists.
//
// Both documents are validated against an embedded CUE schema before they
// are converted, so structural mistakes surface as schema errors naming the
// document. The default documents ship embedded in the binary.
package metadata

import (
	"embed"
	"os"
	"strings"

	"github.com/tliron/commonlog"
	"gopkg.in/yaml.v3"

	"github.com/svaarala/duktape-sub000/builtins"
	"github.com/svaarala/duktape-sub000/derrors"
	"github.com/svaarala/duktape-sub000/strtab"
)

var log = commonlog.GetLogger("genbuiltins.metadata")

//go:embed data/builtins.yaml data/strings.yaml
var data embed.FS

const (
	defaultBuiltins = "data/builtins.yaml"
	defaultStrings  = "data/strings.yaml"
)

// DerivedList is the name of the string list built from the names used by
// the objects. It is merged last.
const DerivedList = "derived"

// Strings holds the string lists in declaration order.
type Strings struct {
	Reserved       []strtab.Entry
	StrictReserved []strtab.Entry
	Lists          []strtab.List
	// DefineNames maps a string to its define suffix where the automatic
	// rule does not fit.
	DefineNames map[string]string
}

// Set is one loaded pair of documents.
type Set struct {
	Objects []*builtins.Object
	Strings Strings
}

// Default returns the embedded metadata.
func Default() (*Set, error) {
	return Load("", "")
}

// Load reads the builtins and strings documents. An empty path selects the
// embedded default for that document.
func Load(builtinsPath, stringsPath string) (*Set, error) {
	bdata, bname, err := read(builtinsPath, defaultBuiltins)
	if err != nil {
		return nil, err
	}
	sdata, sname, err := read(stringsPath, defaultStrings)
	if err != nil {
		return nil, err
	}
	return parse(bname, bdata, sname, sdata)
}

// Parse converts in-memory documents.
func Parse(builtinsYAML, stringsYAML []byte) (*Set, error) {
	return parse("builtins", builtinsYAML, "strings", stringsYAML)
}

func read(path, def string) ([]byte, string, error) {
	if path == "" {
		b, err := data.ReadFile(def)
		return b, def, err
	}
	b, err := os.ReadFile(path)
	return b, path, err
}

func parse(bname string, bdata []byte, sname string, sdata []byte) (_ *Set, err error) {
	defer derrors.Wrap(&err, "load metadata")

	if err := validate("#Builtins", bname, bdata); err != nil {
		return nil, err
	}
	if err := validate("#Strings", sname, sdata); err != nil {
		return nil, err
	}

	var bd builtinsDoc
	if err := yaml.Unmarshal(bdata, &bd); err != nil {
		return nil, derrors.Schemaf(bname, "", "%v", err)
	}
	var sd stringsDoc
	if err := yaml.Unmarshal(sdata, &sd); err != nil {
		return nil, derrors.Schemaf(sname, "", "%v", err)
	}

	s := &Set{}
	for i := range bd.Objects {
		o, err := bd.Objects[i].object()
		if err != nil {
			return nil, err
		}
		s.Objects = append(s.Objects, o)
	}
	s.Strings = Strings{
		Reserved:       entries(sd.Reserved),
		StrictReserved: entries(sd.StrictReserved),
		DefineNames:    sd.DefineNames,
	}
	for _, l := range sd.Lists {
		s.Strings.Lists = append(s.Strings.Lists, strtab.List{Name: l.Name, Entries: entries(l.Strings)})
	}
	log.Debugf("loaded %d objects from %s, %d string lists from %s", len(s.Objects), bname, len(s.Strings.Lists), sname)
	return s, nil
}

// Object returns the object with the given id, or nil.
func (s *Set) Object(id string) *builtins.Object {
	for _, o := range s.Objects {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// Clone returns a copy whose objects and property lists can be modified
// without affecting s.
func (s *Set) Clone() *Set {
	c := &Set{Strings: s.Strings}
	for _, o := range s.Objects {
		oc := *o
		oc.Values = append([]builtins.Value(nil), o.Values...)
		oc.Functions = append([]builtins.Function(nil), o.Functions...)
		c.Objects = append(c.Objects, &oc)
	}
	return c
}

// AddVersion inserts a read-only "version" number property in front of
// the values of the object id.
func (s *Set) AddVersion(id string, version int) error {
	o := s.Object(id)
	if o == nil {
		return derrors.Schemaf(id, "", "version object not found")
	}
	var none builtins.Attributes
	v := builtins.Value{Name: "version", Attributes: &none, Payload: builtins.Number(version)}
	o.Values = append([]builtins.Value{v}, o.Values...)
	return nil
}

// StringBuilder returns a builder loaded with the string lists followed by
// the derived list of every name the objects use.
func (s *Set) StringBuilder(prefix string) *strtab.Builder {
	b := strtab.NewBuilder(prefix)
	for key, suffix := range s.Strings.DefineNames {
		b.SetDefineName(key, suffix)
	}
	b.AddReserved(s.Strings.Reserved...)
	b.AddStrictReserved(s.Strings.StrictReserved...)
	for _, l := range s.Strings.Lists {
		b.AddList(l.Name, l.Entries)
	}
	b.AddList(DerivedList, s.derived())
	return b
}

func (s *Set) derived() []strtab.Entry {
	var out []strtab.Entry
	seen := make(map[string]bool)
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		if strings.HasPrefix(name, strtab.InternalMarker) {
			out = append(out, strtab.Entry{Text: strings.TrimPrefix(name, strtab.InternalMarker), Flags: strtab.Internal})
			return
		}
		out = append(out, strtab.Entry{Text: name})
	}
	for _, o := range s.Objects {
		add(o.Name)
		for _, v := range o.Values {
			add(v.Name)
		}
		for _, f := range o.Functions {
			add(f.Name)
		}
	}
	return out
}
