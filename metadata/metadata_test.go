package metadata

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/svaarala/duktape-sub000/builtins"
	"github.com/svaarala/duktape-sub000/derrors"
	"github.com/svaarala/duktape-sub000/strtab"
)

const minimalStrings = `
reserved:
  - {text: if, reserved_word: true}
lists:
  - name: test
    strings:
      - {text: Object, class_name: true}
      - plain
`

func TestDefault(t *testing.T) {
	s, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Objects) == 0 || len(s.Objects) > builtins.MaxBuiltins {
		t.Fatalf("%d objects", len(s.Objects))
	}
	if s.Objects[0].ID != "bi_global" {
		t.Errorf("first object = %s, want bi_global", s.Objects[0].ID)
	}

	global := s.Object("bi_global")
	if nan, ok := global.Values[0].Payload.(builtins.Number); !ok || math.Float64bits(float64(nan)) != 0x7ff8000000000000 {
		t.Errorf("NaN payload = %#v", global.Values[0].Payload)
	}
	if a := global.Values[0].Attributes; a == nil || *a != 0 {
		t.Errorf("NaN attributes = %v, want none", a)
	}

	env := s.Object("bi_global_env")
	if env == nil || env.Values[0].Name != "\x00Target" {
		t.Fatalf("bi_global_env values = %+v", env)
	}

	ctor := s.Object("bi_error_constructor")
	if ctor.Magic != builtins.BidxOf("bi_error_prototype") {
		t.Errorf("Error constructor magic = %#v", ctor.Magic)
	}
	if !ctor.Constructable || ctor.Class != builtins.ClassFunction {
		t.Errorf("Error constructor = %+v", ctor)
	}

	arr := s.Object("bi_array_prototype")
	if arr.LengthAttributes == nil || *arr.LengthAttributes != builtins.Writable {
		t.Errorf("Array prototype length attributes = %v", arr.LengthAttributes)
	}
}

func TestDefaultEncodes(t *testing.T) {
	s, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if fp := s.Object("bi_function_prototype"); fp.Class != builtins.ClassFunction || fp.Name != "" {
		t.Fatalf("Function prototype = class %v name %q, want an empty-named Function", fp.Class, fp.Name)
	}
	if err := s.AddVersion("bi_duktape", 10099); err != nil {
		t.Fatal(err)
	}
	tab, err := s.StringBuilder("DUK_STRIDX_").Build()
	if err != nil {
		t.Fatal(err)
	}
	if tab.Len() > strtab.MaxStrings {
		t.Fatalf("table has %d strings", tab.Len())
	}
	if _, err := strtab.Encode(tab); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"break", "yield", "Object", "\x00Target", "version", "getPrototypeOf"} {
		if !tab.Has(key) {
			t.Errorf("table lacks %q", key)
		}
	}
	if i, _ := tab.Index("break"); i != tab.StartReserved() {
		t.Errorf("break at %d, reserved range starts at %d", i, tab.StartReserved())
	}
	if i, _ := tab.Index("implements"); i != tab.StartStrictReserved() {
		t.Errorf("implements at %d, strict range starts at %d", i, tab.StartStrictReserved())
	}

	for _, order := range builtins.ByteOrders {
		for _, ext := range []builtins.Extensions{{}, {SectionB: true, BrowserLike: true}} {
			if _, err := builtins.Encode(s.Objects, tab, builtins.Options{ByteOrder: order, Extensions: ext}); err != nil {
				t.Errorf("%s %+v: %v", order, ext, err)
			}
		}
	}
}

func TestValueShorthand(t *testing.T) {
	const doc = `
objects:
  - id: bi_test
    class: Object
    values:
      - {name: a, value: 1}
      - {name: b, value: "1"}
      - {name: c, value: true}
      - {name: d, value: {type: double, bits: "fff0000000000000"}}
      - {name: e, value: {type: builtin, id: bi_test}}
      - {name: f, value: {type: undefined}}
      - {name: g, getter: duk_get, setter: duk_set, attributes: "c"}
      - {name: h, value: {type: double, value: 0.5}}
      - {name: i, value: {type: string, value: "x"}}
      - {name: j, value: 2.5, section_b: true}
    functions:
      - {name: k, native: duk_k, length: 2}
      - {name: l, native: duk_l, length: 0, varargs: true, magic: -1}
      - {name: m, native: duk_m, length: 1, nargs: 3, magic: {bidx: bi_test}, browser: true}
`
	s, err := Parse([]byte(doc), []byte(minimalStrings))
	if err != nil {
		t.Fatal(err)
	}
	o := s.Objects[0]

	var got []builtins.Payload
	for _, v := range o.Values {
		got = append(got, v.Payload)
	}
	want := []builtins.Payload{
		builtins.Number(1),
		builtins.String("1"),
		builtins.Bool(true),
		builtins.Number(math.Inf(-1)),
		builtins.BuiltinRef("bi_test"),
		builtins.Undefined{},
		builtins.AccessorPair{Getter: "duk_get", Setter: "duk_set"},
		builtins.Number(0.5),
		builtins.String("x"),
		builtins.Number(2.5),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payloads mismatch (-want +got):\n%s", diff)
	}
	if !o.Values[9].SectionB || o.Values[8].SectionB {
		t.Errorf("section_b gate not carried")
	}
	if a := o.Values[6].Attributes; a == nil || *a != builtins.Configurable {
		t.Errorf("accessor attributes = %v", a)
	}

	fns := o.Functions
	if !fns[0].Nargs.IsDefault() || fns[0].Magic != nil || fns[0].Length != 2 {
		t.Errorf("k = %+v", fns[0])
	}
	if !fns[1].Nargs.IsVarargs() || fns[1].Magic != builtins.Literal(-1) {
		t.Errorf("l = %+v", fns[1])
	}
	if n, ok := fns[2].Nargs.Count(); !ok || n != 3 || fns[2].Magic != builtins.BidxOf("bi_test") || !fns[2].Browser {
		t.Errorf("m = %+v", fns[2])
	}
}

func TestStringEntries(t *testing.T) {
	const doc = `
reserved:
  - {text: if, reserved_word: true}
strict_reserved:
  - {text: let, reserved_word: true, future_reserved_word_strict: true}
lists:
  - name: one
    strings:
      - plain
      - {text: Value, internal: true, custom: true}
      - {text: MAX_VALUE, define: MAX_VALUE}
define_names:
  "": EMPTY_STRING
`
	s, err := Parse([]byte("objects: []\n"), []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	want := Strings{
		Reserved:       []strtab.Entry{{Text: "if", Flags: strtab.ReservedWord}},
		StrictReserved: []strtab.Entry{{Text: "let", Flags: strtab.ReservedWord | strtab.FutureReservedWordStrict}},
		Lists: []strtab.List{{Name: "one", Entries: []strtab.Entry{
			{Text: "plain"},
			{Text: "Value", Flags: strtab.Internal | strtab.Custom},
			{Text: "MAX_VALUE", Define: "MAX_VALUE"},
		}}},
		DefineNames: map[string]string{"": "EMPTY_STRING"},
	}
	if diff := cmp.Diff(want, s.Strings); diff != "" {
		t.Errorf("strings mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaRejects(t *testing.T) {
	obj := func(body string) string {
		return "objects:\n  - id: bi_test\n    class: Object\n" + body
	}
	cases := []struct {
		name     string
		builtins string
		strings  string
	}{
		{"unknown field", obj("    colour: red\n"), minimalStrings},
		{"unknown class", "objects:\n  - {id: bi_test, class: Widget}\n", minimalStrings},
		{"bad id", "objects:\n  - {id: test, class: Object}\n", minimalStrings},
		{"bad attributes", obj("    values:\n      - {name: a, value: 1, attributes: rwx}\n"), minimalStrings},
		{"function without length", obj("    functions:\n      - {name: f, native: duk_f}\n"), minimalStrings},
		{"bad double bits", obj("    values:\n      - {name: a, value: {type: double, bits: xyz}}\n"), minimalStrings},
		{"value and accessor", obj("    values:\n      - {name: a, value: 1, getter: g, setter: s}\n"), minimalStrings},
		{"half accessor", obj("    values:\n      - {name: a, getter: g}\n"), minimalStrings},
		{"not a mapping", "- 1\n", minimalStrings},
		{"unknown string flag", "objects: []\n", "lists:\n  - name: x\n    strings:\n      - {text: a, shiny: true}\n"},
		{"bad define", "objects: []\n", "define_names:\n  a: 1abc\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.builtins), []byte(c.strings))
			if !errors.Is(err, derrors.Schema) {
				t.Errorf("err = %v, want schema error", err)
			}
		})
	}
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	bpath := filepath.Join(dir, "b.yaml")
	if err := os.WriteFile(bpath, []byte("objects:\n  - {id: bi_only, class: Object}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(bpath, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Objects) != 1 || s.Objects[0].ID != "bi_only" {
		t.Errorf("objects = %+v", s.Objects)
	}
	if len(s.Strings.Reserved) == 0 {
		t.Errorf("embedded strings not used")
	}

	if err := os.WriteFile(bpath, []byte("objects:\n  - {id: bi_only, class: Nope}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(bpath, "")
	if !errors.Is(err, derrors.Schema) || !strings.Contains(err.Error(), bpath) {
		t.Errorf("err = %v, want schema error naming %s", err, bpath)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml"), ""); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestAddVersion(t *testing.T) {
	s, err := Parse([]byte("objects:\n  - {id: bi_duktape, class: Object, values: [{name: env, value: x}]}\n"), []byte(minimalStrings))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddVersion("bi_duktape", 10203); err != nil {
		t.Fatal(err)
	}
	v := s.Objects[0].Values
	if len(v) != 2 || v[0].Name != "version" || v[0].Payload != builtins.Number(10203) {
		t.Fatalf("values = %+v", v)
	}
	if v[0].Attributes == nil || *v[0].Attributes != 0 {
		t.Errorf("version attributes = %v, want none", v[0].Attributes)
	}
	if err := s.AddVersion("bi_nope", 1); !errors.Is(err, derrors.Schema) {
		t.Errorf("unknown object err = %v", err)
	}
}

func TestDerivedNames(t *testing.T) {
	const doc = `
objects:
  - id: bi_f
    class: Function
    name: Widget
    length: 0
    native: duk_widget
    values:
      - {name: "\0Secret", value: 1}
      - {name: plain, value: "not a name"}
    functions:
      - {name: spin, native: duk_spin, length: 0}
`
	s, err := Parse([]byte(doc), []byte(minimalStrings))
	if err != nil {
		t.Fatal(err)
	}
	tab, err := s.StringBuilder("DUK_STRIDX_").Build()
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"Widget", "\x00Secret", "plain", "spin"} {
		if !tab.Has(key) {
			t.Errorf("table lacks %q", key)
		}
	}
	if tab.Has("not a name") {
		t.Errorf("string value was added to the table")
	}
	if i, _ := tab.DefineIndex("DUK_STRIDX_INT_SECRET"); i != mustIndex(t, tab, "\x00Secret") {
		t.Errorf("internal define does not map to the internal key")
	}
	// Object is a class name and stays first.
	if i := mustIndex(t, tab, "Object"); i != 0 {
		t.Errorf("Object at %d, want 0", i)
	}
}

func mustIndex(t *testing.T, tab *strtab.Table, key string) int {
	t.Helper()
	i, ok := tab.Index(key)
	if !ok {
		t.Fatalf("table lacks %q", key)
	}
	return i
}

func TestValueDocDecodesNode(t *testing.T) {
	var vd valueDoc
	if err := yaml.Unmarshal([]byte("name: x\nvalue: 1\n"), &vd); err != nil {
		t.Fatal(err)
	}
	if vd.Value.Kind != yaml.ScalarNode || vd.Value.ShortTag() != "!!int" {
		t.Fatalf("value node = kind %v tag %s", vd.Value.Kind, vd.Value.ShortTag())
	}
	p, err := payload(&vd.Value)
	if err != nil {
		t.Fatal(err)
	}
	if p != builtins.Number(1) {
		t.Errorf("payload = %#v, want Number(1)", p)
	}

	var accessor valueDoc
	if err := yaml.Unmarshal([]byte("name: x\ngetter: duk_bi_get\nsetter: duk_bi_set\n"), &accessor); err != nil {
		t.Fatal(err)
	}
	if accessor.Value.Kind != 0 {
		t.Errorf("absent value decoded as kind %v", accessor.Value.Kind)
	}
}
