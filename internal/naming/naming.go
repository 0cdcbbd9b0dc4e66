// Package naming derives filesystem-safe output names from part names and
// keeps them unique within one run.
package naming

import (
	"fmt"
	"strings"
)

// Sanitize rewrites a part name for filesystem use: anything outside
// [A-Za-z0-9_-] becomes an underscore. Empty results fall back to "part".
func Sanitize(name string) string {
	var out strings.Builder
	out.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
			out.WriteByte(c)
		default:
			out.WriteByte('_')
		}
	}
	if out.Len() == 0 {
		return "part"
	}
	return out.String()
}

// Table tracks claimed names and disambiguates collisions with a numeric
// suffix keyed by the claiming entity id.
type Table struct {
	used map[string]struct{}
}

// NewTable returns an empty claim table.
func NewTable() *Table {
	return &Table{used: make(map[string]struct{})}
}

// Claim sanitizes and reserves a name. On collision the entity id is
// appended, so two parts sharing a display name still produce distinct files.
func (t *Table) Claim(name string, entityID int) string {
	clean := Sanitize(name)
	if _, taken := t.used[clean]; taken {
		clean = Sanitize(fmt.Sprintf("%s-%d", name, entityID))
	}
	t.used[clean] = struct{}{}
	return clean
}
