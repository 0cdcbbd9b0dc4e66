package serialize

import (
	"strings"

	"github.com/goliatone/go-stepsplit/pkg/step"
)

// rewriteFileName replaces the name slot (the first string literal) of the
// FILE_NAME header entity with the unit name, leaving every other header byte
// untouched. Headers without a FILE_NAME entity pass through unchanged.
func rewriteFileName(header, unitName string) string {
	at := indexOutsideStrings(header, "FILE_NAME")
	if at < 0 {
		return header
	}
	open := strings.IndexByte(header[at:], '(')
	if open < 0 {
		return header
	}
	start, end, ok := firstStringSpan(header[at+open:])
	if !ok {
		return header
	}
	start += at + open
	end += at + open
	return header[:start] + step.QuoteString(strings.ToUpper(unitName)) + header[end:]
}

// indexOutsideStrings finds the first occurrence of needle that is not inside
// a single-quoted string literal.
func indexOutsideStrings(s, needle string) int {
	inString := false
	for i := 0; i+len(needle) <= len(s); i++ {
		if s[i] == '\'' {
			inString = !inString
			continue
		}
		if !inString && strings.HasPrefix(s[i:], needle) {
			return i
		}
	}
	return -1
}

// firstStringSpan locates the first complete string literal, returning the
// offsets of its opening quote and one past its closing quote.
func firstStringSpan(s string) (int, int, bool) {
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] != '\'' {
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			i++
			continue
		}
		return start, i + 1, true
	}
	return 0, 0, false
}
