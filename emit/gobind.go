package emit

import (
	"bytes"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/svaarala/duktape-sub000/derrors"
	"github.com/svaarala/duktape-sub000/generator"
)

// goName turns an upper snake case define suffix into a Go identifier,
// e.g. ("Stridx", "LC_UNDEFINED") becomes StridxLcUndefined.
func goName(prefix, suffix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, part := range strings.Split(suffix, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}
	return b.String()
}

type goNames map[string]string

func (n goNames) add(name, entity string) error {
	if other, dup := n[name]; dup {
		return derrors.Consistencyf(entity, "", "Go name %s already used by %s", name, other)
	}
	n[name] = entity
	return nil
}

// GoBindings renders a Go source file exposing every index and data
// array, for Go tools that inspect a runtime built from the same data.
func GoBindings(out *generator.Output, pkg string) ([]byte, error) {
	names := goNames{}
	for _, n := range []string{"Version", "GitDescribe", "NumBuiltins", "NumStrings", "Strings", "Natives", "StringsData", "BuiltinsData", "InitJS",
		"StridxStartReserved", "StridxStartStrictReserved", "StridxEndReserved"} {
		names[n] = n
	}

	var bidx []jen.Code
	for i, id := range out.Index.IDs() {
		suffix := strings.TrimPrefix(BidxDefine("", id), "BIDX_")
		name := goName("Bidx", suffix)
		if err := names.add(name, id); err != nil {
			return nil, err
		}
		bidx = append(bidx, jen.Id(name).Op("=").Lit(i))
	}
	bidx = append(bidx, jen.Id("NumBuiltins").Op("=").Lit(out.Index.Len()))

	var stridx []jen.Code
	for i, s := range out.Strings.Strings() {
		name := goName("Stridx", strings.TrimPrefix(s.Define, out.StridxPrefix()))
		if err := names.add(name, s.Define); err != nil {
			return nil, err
		}
		stridx = append(stridx, jen.Id(name).Op("=").Lit(i).Comment(jen.Lit(s.Key).GoString()))
	}
	stridx = append(stridx,
		jen.Id("NumStrings").Op("=").Lit(out.Strings.Len()),
		jen.Id("StridxStartReserved").Op("=").Lit(out.Strings.StartReserved()),
		jen.Id("StridxStartStrictReserved").Op("=").Lit(out.Strings.StartStrictReserved()),
		jen.Id("StridxEndReserved").Op("=").Lit(out.Strings.EndReserved()),
	)

	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by genbuiltins. DO NOT EDIT.")

	f.Const().Defs(
		jen.Id("Version").Op("=").Lit(out.Version),
		jen.Id("GitDescribe").Op("=").Lit(out.GitDescribe),
	)
	f.Line()
	f.Comment("Built-in object indices.")
	f.Const().Defs(bidx...)
	f.Line()
	f.Comment("Built-in string indices.")
	f.Const().Defs(stridx...)
	f.Line()

	f.Comment("Strings lists the built-in strings in index order.")
	f.Var().Id("Strings").Op("=").Index().String().ValuesFunc(func(g *jen.Group) {
		for _, s := range out.Strings.Strings() {
			g.Line().Lit(s.Key)
		}
		g.Line()
	})
	f.Line()
	f.Comment("Natives lists the native functions in index order.")
	f.Var().Id("Natives").Op("=").Index().String().ValuesFunc(func(g *jen.Group) {
		for _, n := range out.Natives.Names() {
			g.Line().Lit(n)
		}
		g.Line()
	})
	f.Line()
	f.Comment("StringsData is the packed string table.")
	f.Var().Id("StringsData").Op("=").Index().Byte().Parens(jen.Lit(string(out.StringData.Data)))
	f.Line()
	f.Comment("BuiltinsData is the built-in object init data per double byte order.")
	data := jen.Dict{}
	for _, v := range out.Variants {
		data[jen.Lit(v.ByteOrder.String())] = jen.Index().Byte().Parens(jen.Lit(string(v.Data)))
	}
	f.Var().Id("BuiltinsData").Op("=").Map(jen.String()).Index().Byte().Values(data)
	if len(out.InitJS) > 0 {
		f.Line()
		f.Comment("InitJS is the NUL terminated init script.")
		f.Var().Id("InitJS").Op("=").Index().Byte().Parens(jen.Lit(string(out.InitJS)))
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
