package step

import (
	"strconv"
	"strings"
)

// ScanReferences extracts every `#<digits>` entity reference from parameter
// text, in order of first appearance with duplicates removed. Matches inside
// string literals are ignored; STEP strings are single-quoted and escape the
// quote by doubling it, which a plain toggle handles without lookahead.
func ScanReferences(text string) []int {
	var (
		refs     []int
		seen     map[int]struct{}
		inString bool
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\'' {
			inString = !inString
			continue
		}
		if inString || c != '#' {
			continue
		}
		j := i + 1
		for j < len(text) && text[j] >= '0' && text[j] <= '9' {
			j++
		}
		if j == i+1 {
			continue
		}
		id, err := strconv.Atoi(text[i+1 : j])
		if err != nil {
			continue
		}
		if seen == nil {
			seen = make(map[int]struct{})
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			refs = append(refs, id)
		}
		i = j - 1
	}
	return refs
}

// RewriteReferences copies text byte-exact except for `#<id>` tokens outside
// string literals, which are replaced through the lookup. A reference the
// lookup cannot resolve aborts the rewrite with a DependencyError carrying
// the dangling id.
func RewriteReferences(text string, lookup func(old int) (int, bool)) (string, error) {
	var (
		out      strings.Builder
		inString bool
	)
	out.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\'' {
			inString = !inString
			out.WriteByte(c)
			continue
		}
		if inString || c != '#' {
			out.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(text) && text[j] >= '0' && text[j] <= '9' {
			j++
		}
		if j == i+1 {
			out.WriteByte(c)
			continue
		}
		old, err := strconv.Atoi(text[i+1 : j])
		if err != nil {
			out.WriteByte(c)
			continue
		}
		replacement, ok := lookup(old)
		if !ok {
			return "", &DependencyError{EntityID: old, Msg: "reference escapes the reachable set"}
		}
		out.WriteByte('#')
		out.WriteString(strconv.Itoa(replacement))
		i = j - 1
	}
	return out.String(), nil
}

// FirstString returns the content of the first single-quoted string literal
// in params, with doubled quotes collapsed. Used for PRODUCT and solid names.
func FirstString(params string) (string, bool) {
	start := -1
	for i := 0; i < len(params); i++ {
		if params[i] != '\'' {
			continue
		}
		if start < 0 {
			start = i + 1
			continue
		}
		// A doubled quote continues the literal.
		if i+1 < len(params) && params[i+1] == '\'' {
			i++
			continue
		}
		value := strings.ReplaceAll(params[start:i], "''", "'")
		return value, true
	}
	return "", false
}

// QuoteString renders a value as a STEP string literal, doubling any
// embedded quotes.
func QuoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
