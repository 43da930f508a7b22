package emit

import (
	"bytes"
	"fmt"
	"strings"
)

// bytesPerLine is the number of array initializer values per line.
const bytesPerLine = 16

// cWriter accumulates C source text.
type cWriter struct {
	buf bytes.Buffer
}

func (w *cWriter) line(format string, args ...any) {
	fmt.Fprintf(&w.buf, format, args...)
	w.buf.WriteByte('\n')
}

func (w *cWriter) blank() { w.buf.WriteByte('\n') }

// define writes a #define, with an optional trailing comment.
func (w *cWriter) define(name string, value any, comment string) {
	if comment == "" {
		w.line("#define %-40s %v", name, value)
		return
	}
	w.line("#define %-40s %v  /* %s */", name, value, commentSafe(comment))
}

// array writes a byte array initializer. Values are decimal.
func (w *cWriter) array(decl, name string, data []byte) {
	w.line("%s %s[%d] = {", decl, name, len(data))
	for i := 0; i < len(data); i += bytesPerLine {
		end := min(i+bytesPerLine, len(data))
		var sb strings.Builder
		for j := i; j < end; j++ {
			fmt.Fprintf(&sb, "%d,", data[j])
		}
		w.line("%s", sb.String())
	}
	w.line("};")
}

// banner writes the generated-file header comment.
func (w *cWriter) banner(gitDescribe string) {
	w.line("/*")
	w.line(" *  Automatically generated by genbuiltins, do not edit!")
	w.line(" *")
	w.line(" *  Git describe: %s", commentSafe(gitDescribe))
	w.line(" */")
	w.blank()
}

func (w *cWriter) bytes() []byte { return w.buf.Bytes() }

// commentSafe keeps text from closing a C comment early.
func commentSafe(s string) string {
	return strings.ReplaceAll(s, "*/", "*\\/")
}
