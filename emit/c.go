// Package emit renders a generator.Output into the files a runtime build
// consumes: the C header and source, build metadata JSON, a CBOR index
// manifest and optional Go bindings.
//
// Every renderer is pure and returns bytes; writing files is left to the
// caller so a failed run leaves no partial outputs behind.
package emit

import (
	"strconv"
	"strings"

	"github.com/svaarala/duktape-sub000/builtins"
	"github.com/svaarala/duktape-sub000/derrors"
	"github.com/svaarala/duktape-sub000/generator"
)

// variantMacro is the feature macro selecting the variant for b.
func variantMacro(prefix string, b builtins.ByteOrder) string {
	switch b {
	case builtins.BigEndian:
		return prefix + "USE_DOUBLE_BE"
	case builtins.MixedEndian:
		return prefix + "USE_DOUBLE_ME"
	}
	return prefix + "USE_DOUBLE_LE"
}

// BidxDefine returns the define for an object id: bi_foo_bar becomes
// <prefix>BIDX_FOO_BAR.
func BidxDefine(prefix, id string) string {
	name := id
	if i := strings.IndexByte(id, '_'); i >= 0 {
		name = id[i+1:]
	}
	return prefix + "BIDX_" + strings.ToUpper(name)
}

func bidxDefines(out *generator.Output) ([]string, error) {
	seen := make(map[string]string)
	var defs []string
	for _, id := range out.Index.IDs() {
		d := BidxDefine(out.DefinePrefix, id)
		if other, dup := seen[d]; dup {
			return nil, derrors.Consistencyf(id, "id", "define %s already used by %s", d, other)
		}
		seen[d] = id
		defs = append(defs, d)
	}
	return defs, nil
}

func eachVariant(w *cWriter, out *generator.Output, body func(v generator.Variant)) {
	for i, v := range out.Variants {
		kw := "#elif"
		if i == 0 {
			kw = "#if"
		}
		w.line("%s defined(%s)", kw, variantMacro(out.DefinePrefix, v.ByteOrder))
		body(v)
	}
	w.line("#else")
	w.line("#error invalid endianness defines")
	w.line("#endif")
}

// Header renders the C header declaring the data arrays and every index
// define.
func Header(out *generator.Output) ([]byte, error) {
	defs, err := bidxDefines(out)
	if err != nil {
		return nil, err
	}
	p := out.DefinePrefix
	guard := p + "BUILTINS_H_INCLUDED"

	w := &cWriter{}
	w.banner(out.GitDescribe)
	w.line("#ifndef %s", guard)
	w.line("#define %s", guard)
	w.blank()
	eachVariant(w, out, func(v generator.Variant) {
		stringsHeader(w, out)
		w.blank()
		w.line("#if !defined(%sSINGLE_FILE)", p)
		w.line("%sINTERNAL_DECL const duk_c_function duk_bi_native_functions[%d];", p, out.Natives.Len())
		w.line("%sINTERNAL_DECL const duk_uint8_t duk_builtins_data[%d];", p, len(v.Data))
		if len(out.InitJS) > 0 {
			w.line("#ifdef %sUSE_BUILTIN_INITJS", p)
			w.line("%sINTERNAL_DECL const duk_uint8_t duk_initjs_data[%d];", p, len(out.InitJS))
			w.line("#endif  /* %sUSE_BUILTIN_INITJS */", p)
		}
		w.line("#endif  /* !%sSINGLE_FILE */", p)
		w.blank()
		w.define(p+"BUILTINS_DATA_LENGTH", len(v.Data), "")
		if len(out.InitJS) > 0 {
			w.line("#ifdef %sUSE_BUILTIN_INITJS", p)
			w.define(p+"BUILTIN_INITJS_DATA_LENGTH", len(out.InitJS), "")
			w.line("#endif  /* %sUSE_BUILTIN_INITJS */", p)
		}
		w.blank()
		for i, d := range defs {
			w.define(d, i, "")
		}
		w.blank()
		w.define(p+"NUM_BUILTINS", len(defs), "")
		w.blank()
	})
	w.line("#endif  /* %s */", guard)
	return w.bytes(), nil
}

func stringsHeader(w *cWriter, out *generator.Output) {
	p := out.DefinePrefix
	strs := out.Strings.Strings()

	w.line("#if !defined(%sSINGLE_FILE)", p)
	w.line("%sINTERNAL_DECL const duk_uint8_t duk_strings_data[%d];", p, len(out.StringData.Data))
	w.line("#endif  /* !%sSINGLE_FILE */", p)
	w.blank()
	w.define(p+"STRDATA_DATA_LENGTH", len(out.StringData.Data), "")
	w.define(p+"STRDATA_MAX_STRLEN", out.StringData.MaxLen, "")
	w.blank()
	for i, s := range strs {
		w.define(s.Define, i, strconv.Quote(s.Key))
	}
	w.blank()
	for _, s := range strs {
		suffix := strings.TrimPrefix(s.Define, out.StridxPrefix())
		w.define(p+"HEAP_STRING_"+suffix+"(heap)", p+"HEAP_GET_STRING((heap),"+s.Define+")", "")
		w.define(p+"HTHREAD_STRING_"+suffix+"(thr)", p+"HTHREAD_GET_STRING((thr),"+s.Define+")", "")
	}
	w.blank()
	w.define(p+"HEAP_NUM_STRINGS", len(strs), "")
	w.blank()
	w.define(out.StridxPrefix()+"START_RESERVED", out.Strings.StartReserved(), "")
	w.define(out.StridxPrefix()+"START_STRICT_RESERVED", out.Strings.StartStrictReserved(), "")
	w.define(out.StridxPrefix()+"END_RESERVED", out.Strings.EndReserved(), "exclusive endpoint")
}

// Source renders the C source defining the data arrays and the native
// function table.
func Source(out *generator.Output) ([]byte, error) {
	p := out.DefinePrefix
	w := &cWriter{}
	w.banner(out.GitDescribe)
	w.line(`#include "duk_internal.h"`)
	w.blank()
	eachVariant(w, out, func(v generator.Variant) {
		w.array(p+"INTERNAL const duk_uint8_t", "duk_strings_data", out.StringData.Data)
		w.blank()
		w.line("/* to convert a heap stridx to a token number, subtract")
		w.line(" * %sSTART_RESERVED and add %sTOK_START_RESERVED.", out.StridxPrefix(), p)
		w.line(" */")
		w.blank()
		w.line("/* native functions: %d */", out.Natives.Len())
		w.line("%sINTERNAL const duk_c_function duk_bi_native_functions[%d] = {", p, out.Natives.Len())
		for _, n := range out.Natives.Names() {
			w.line("\t%s,", n)
		}
		w.line("};")
		w.blank()
		w.array(p+"INTERNAL const duk_uint8_t", "duk_builtins_data", v.Data)
		if len(out.InitJS) > 0 {
			w.line("#ifdef %sUSE_BUILTIN_INITJS", p)
			w.array(p+"INTERNAL const duk_uint8_t", "duk_initjs_data", out.InitJS)
			w.line("#endif  /* %sUSE_BUILTIN_INITJS */", p)
		}
	})
	return w.bytes(), nil
}
