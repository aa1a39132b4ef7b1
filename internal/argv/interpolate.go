package argv

import (
	"os"
	"strings"
)

// Interpolate expands $NAME and ${NAME} references in line using lookup.
// Unknown names expand to the empty string. "\$" produces a literal dollar
// sign, and a "$" not followed by a name is kept as is. Text inside single
// quotes is not expanded.
func Interpolate(line string, lookup func(string) (string, bool)) string {
	if !strings.ContainsRune(line, '$') {
		return line
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var b strings.Builder
	b.Grow(len(line))

	inSingle := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\'':
			inSingle = !inSingle
			b.WriteByte(c)
		case inSingle:
			b.WriteByte(c)
		case c == '\\' && i+1 < len(line) && line[i+1] == '$':
			b.WriteByte('$')
			i++
		case c == '$':
			name, n := scanName(line[i+1:])
			if n == 0 {
				b.WriteByte(c)
				continue
			}
			if v, ok := lookup(name); ok {
				b.WriteString(v)
			}
			i += n
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// scanName reads a variable name at the start of s, returning the name and
// the number of bytes consumed (0 if there is no valid reference).
func scanName(s string) (string, int) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end <= 1 {
			return "", 0
		}
		name := s[1:end]
		for i := 0; i < len(name); i++ {
			if !isNameByte(name[i], i == 0) {
				return "", 0
			}
		}
		return name, end + 1
	}
	n := 0
	for n < len(s) && isNameByte(s[n], n == 0) {
		n++
	}
	return s[:n], n
}

func isNameByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}
