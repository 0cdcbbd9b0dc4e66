package parser

import (
	"errors"
	"strings"

	"github.com/goliatone/go-stepsplit/pkg/step"
)

var errEndOfInput = errors.New("end of input")

// statement is one `...;` span of the document with its source coordinates.
// Offsets address the underlying text so section bodies can be recovered
// verbatim.
type statement struct {
	text  string
	line  int
	start int
}

// scanner walks the raw document statement by statement, tracking paren depth
// and single-quote string state so `;`, `(`, and `)` inside parameter lists
// or string literals never terminate a statement early. STEP strings escape
// quotes by doubling them, which plain toggling handles correctly.
type scanner struct {
	src  string
	pos  int
	line int
}

func newScanner(src string) *scanner {
	return &scanner{src: src, line: 1}
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\n':
			s.line++
			s.pos++
		case ' ', '\t', '\r':
			s.pos++
		default:
			return
		}
	}
}

// next reads the next statement up to its terminating `;` at depth zero
// outside strings. The returned text excludes the terminator.
func (s *scanner) next() (statement, error) {
	s.skipSpace()
	if s.pos >= len(s.src) {
		return statement{line: s.line, start: s.pos}, errEndOfInput
	}

	stmt := statement{line: s.line, start: s.pos}
	depth := 0
	inString := false

	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == '\n' {
			s.line++
		}
		if inString {
			if c == '\'' {
				inString = false
			}
			s.pos++
			continue
		}
		switch c {
		case '\'':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return stmt, &step.ParseError{Line: s.line, Msg: "unbalanced ')'"}
			}
		case ';':
			if depth == 0 {
				stmt.text = strings.TrimSpace(s.src[stmt.start:s.pos])
				s.pos++
				return stmt, nil
			}
		}
		s.pos++
	}
	return stmt, &step.ParseError{Line: stmt.line, Msg: "unterminated statement"}
}

// matchParen returns the index of the `)` closing the `(` at open, honouring
// string literals, or -1 when the text is unbalanced.
func matchParen(s string, open int) int {
	depth := 0
	inString := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			if c == '\'' {
				inString = false
			}
			continue
		}
		switch c {
		case '\'':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
