package generator

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/svaarala/duktape-sub000/builtins"
	"github.com/svaarala/duktape-sub000/derrors"
	"github.com/svaarala/duktape-sub000/metadata"
)

func defaultInput(t *testing.T) Input {
	t.Helper()
	set, err := metadata.Default()
	if err != nil {
		t.Fatal(err)
	}
	return Input{
		Set:           set,
		ByteOrders:    builtins.ByteOrders,
		Extensions:    builtins.Extensions{SectionB: true, BrowserLike: true},
		Version:       10500,
		GitDescribe:   "v1.5.0",
		VersionObject: "bi_duktape",
		InitJS:        []byte("Duktape.x = 1;"),
		DefinePrefix:  "DUK_",
	}
}

func TestGenerate(t *testing.T) {
	in := defaultInput(t)
	before := len(in.Set.Object("bi_duktape").Values)

	out, err := Generate(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Variants) != 3 {
		t.Fatalf("%d variants, want 3", len(out.Variants))
	}
	for i, v := range out.Variants {
		if v.ByteOrder != builtins.ByteOrders[i] {
			t.Errorf("variant %d is %s, want %s", i, v.ByteOrder, builtins.ByteOrders[i])
		}
		if len(v.Data) == 0 {
			t.Errorf("%s: no data", v.ByteOrder)
		}
		if len(v.Data) != len(out.Variants[0].Data) {
			t.Errorf("%s: %d bytes, little has %d", v.ByteOrder, len(v.Data), len(out.Variants[0].Data))
		}
		if v.Stats.Objects != out.Index.Len() {
			t.Errorf("%s: %d objects encoded, index has %d", v.ByteOrder, v.Stats.Objects, out.Index.Len())
		}
	}
	if bytes.Equal(out.Variants[0].Data, out.Variants[1].Data) {
		t.Errorf("little and big variants are identical")
	}

	duk := out.Objects[mustLookup(t, out, "bi_duktape")]
	if duk.Values[0].Name != "version" || duk.Values[0].Payload != builtins.Number(10500) {
		t.Errorf("first bi_duktape value = %+v", duk.Values[0])
	}
	if got := len(in.Set.Object("bi_duktape").Values); got != before {
		t.Errorf("input set modified: %d values, had %d", got, before)
	}

	if !bytes.HasSuffix(out.InitJS, []byte(";\x00")) {
		t.Errorf("initjs not NUL terminated: %q", out.InitJS)
	}
	if got := out.VersionString(); got != "1.5.0" {
		t.Errorf("version string = %q", got)
	}
	if _, ok := out.Strings.DefineIndex("DUK_STRIDX_LENGTH"); !ok {
		t.Errorf("no DUK_STRIDX_LENGTH define")
	}
	if out.StringData == nil || len(out.StringData.Data) == 0 {
		t.Errorf("no string data")
	}
}

func mustLookup(t *testing.T, out *Output, id string) int {
	t.Helper()
	i, ok := out.Index.Lookup(id)
	if !ok {
		t.Fatalf("no object %s", id)
	}
	return i
}

func TestGenerateDeterministic(t *testing.T) {
	in := defaultInput(t)
	a, err := Generate(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Variants {
		if !bytes.Equal(a.Variants[i].Data, b.Variants[i].Data) {
			t.Errorf("%s: runs differ", a.Variants[i].ByteOrder)
		}
	}
	if !bytes.Equal(a.StringData.Data, b.StringData.Data) {
		t.Errorf("string data differs between runs")
	}
}

func TestGenerateSubset(t *testing.T) {
	in := defaultInput(t)
	in.ByteOrders = []builtins.ByteOrder{builtins.MixedEndian}
	in.Extensions = builtins.Extensions{}
	in.VersionObject = ""
	in.InitJS = nil

	out, err := Generate(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Variants) != 1 || out.Variants[0].ByteOrder != builtins.MixedEndian {
		t.Errorf("variants = %+v", out.Variants)
	}
	if out.InitJS != nil {
		t.Errorf("InitJS = %q, want nil", out.InitJS)
	}
	full, err := Generate(context.Background(), defaultInput(t))
	if err != nil {
		t.Fatal(err)
	}
	if out.Variants[0].Stats.Functions >= full.Variants[2].Stats.Functions {
		t.Errorf("filtered build has %d functions, full build %d", out.Variants[0].Stats.Functions, full.Variants[2].Stats.Functions)
	}
}

func TestGenerateErrors(t *testing.T) {
	in := defaultInput(t)
	in.VersionObject = "bi_nope"
	if _, err := Generate(context.Background(), in); !errors.Is(err, derrors.Schema) {
		t.Errorf("unknown version object: err = %v, want schema error", err)
	}

	in = defaultInput(t)
	in.Set = in.Set.Clone()
	in.Set.Objects[0].Functions = append(in.Set.Objects[0].Functions, builtins.Function{Name: "length", Native: "duk_bi_x", Length: 9})
	out, err := Generate(context.Background(), in)
	if !errors.Is(err, derrors.Capacity) {
		t.Errorf("bad length: err = %v, want capacity error", err)
	}
	if out != nil {
		t.Errorf("partial output returned")
	}

	in = defaultInput(t)
	in.ByteOrders = nil
	if _, err := Generate(context.Background(), in); err == nil {
		t.Errorf("no byte orders: Generate succeeded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Generate(ctx, defaultInput(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled: err = %v", err)
	}
}

func TestTerminate(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"x", "x\x00"},
		{"x\x00", "x\x00"},
	}
	for _, c := range cases {
		if got := string(terminate([]byte(c.in))); got != c.want {
			t.Errorf("terminate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestGenerateGolden(t *testing.T) {
	out, err := Generate(context.Background(), defaultInput(t))
	if err != nil {
		t.Fatal(err)
	}
	goldens := map[string][]byte{"strings": out.StringData.Data}
	for _, v := range out.Variants {
		goldens["builtins_"+v.ByteOrder.String()] = v.Data
	}
	for name, data := range goldens {
		goldenFile := filepath.Join("testdata", name+".golden")
		got := hex.Dump(data)
		updateGolden(t, goldenFile, got)
		compareGolden(t, goldenFile, got)
	}
}

// Golden file helpers

func updateGolden(t *testing.T, path, content string) {
	t.Helper()
	if os.Getenv("UPDATE_GOLDEN") == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating testdata dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("updating golden file: %v", err)
	}
}

func compareGolden(t *testing.T, path, got string) {
	t.Helper()
	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Fatalf("golden file %s does not exist. Run with UPDATE_GOLDEN=1 to create.", path)
	}
	if err != nil {
		t.Fatalf("reading golden file: %v", err)
	}
	if string(expected) != got {
		t.Errorf("output differs from golden file %s.\nRun with UPDATE_GOLDEN=1 to update.", path)
	}
}
