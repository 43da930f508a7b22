package strtab

import (
	"strings"

	"github.com/svaarala/duktape-sub000/derrors"
)

// autoDefine derives a define suffix from a key: camelCase becomes
// CAMEL_CASE and internal keys get an INT_ prefix.
func autoDefine(key string) string {
	var sb strings.Builder
	if strings.HasPrefix(key, InternalMarker) {
		sb.WriteString("INT_")
		key = key[len(InternalMarker):]
	}
	prevUpper := false
	for i := 0; i < len(key); i++ {
		c := key[i]
		upper := c >= 'A' && c <= 'Z'
		if upper && i > 0 && !prevUpper {
			sb.WriteByte('_')
		}
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		sb.WriteByte(c)
		prevUpper = upper
	}
	return sb.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func (b *Builder) defineName(e Entry) (string, error) {
	suffix := e.Define
	if suffix == "" {
		if s, ok := b.special[e.Key()]; ok {
			suffix = s
		} else {
			suffix = autoDefine(e.Key())
		}
	}
	name := b.prefix + suffix
	if !isIdentifier(name) {
		return "", derrors.Schemaf(entity(e.Key()), "define", "%q is not a valid C identifier; add an explicit define name", name)
	}
	return name, nil
}
