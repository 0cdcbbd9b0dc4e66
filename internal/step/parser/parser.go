// Package parser implements the step.Parser contract: a depth- and
// quote-aware scan of ISO 10303-21 text into a verbatim header and an
// immutable entity table.
package parser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-stepsplit/pkg/step"
)

const (
	markerISO    = "ISO-10303-21"
	markerHeader = "HEADER"
	markerData   = "DATA"
	markerEndsec = "ENDSEC"
	markerEnd    = "END-ISO-10303-21"
)

// Parser implements step.Parser.
type Parser struct {
	options step.ParserOptions
}

// Ensure the implementation satisfies the public interface.
var _ step.Parser = (*Parser)(nil)

// New constructs a Parser with the given options.
func New(options step.ParserOptions) step.Parser {
	return &Parser{options: options}
}

// Parse scans the document into a File. The header is captured verbatim;
// DATA statements are split on depth-zero `;` terminators and parsed into
// entities with their reference lists extracted once.
func (p *Parser) Parse(ctx context.Context, doc step.Document) (*step.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("step parser: document payload is empty")
	}

	src := string(raw)
	sc := newScanner(src)

	if err := expectMarker(sc, markerISO); err != nil {
		return nil, err
	}
	if err := expectMarker(sc, markerHeader); err != nil {
		return nil, err
	}

	header, err := p.scanHeader(sc, src)
	if err != nil {
		return nil, err
	}

	if err := expectMarker(sc, markerData); err != nil {
		return nil, err
	}

	table, err := p.scanData(ctx, sc)
	if err != nil {
		return nil, err
	}

	if err := p.expectTerminator(sc); err != nil {
		return nil, err
	}

	return &step.File{
		Name:   step.BaseName(doc.Source()),
		Header: header,
		Table:  table,
	}, nil
}

// scanHeader consumes statements until ENDSEC and returns the section body
// byte-exact, trimmed only of surrounding blank space.
func (p *Parser) scanHeader(sc *scanner, src string) (step.Header, error) {
	bodyStart := sc.pos
	for {
		stmt, err := sc.next()
		if err != nil {
			if errors.Is(err, errEndOfInput) {
				return step.Header{}, &step.ParseError{Line: stmt.line, Msg: `missing "ENDSEC;" closing the HEADER section`}
			}
			return step.Header{}, err
		}
		if stmt.text == markerEndsec {
			rawBody := strings.TrimSpace(src[bodyStart:stmt.start])
			return step.Header{Raw: rawBody}, nil
		}
	}
}

func (p *Parser) scanData(ctx context.Context, sc *scanner) (*step.EntityTable, error) {
	table := step.NewEntityTable()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stmt, err := sc.next()
		if err != nil {
			if errors.Is(err, errEndOfInput) {
				return nil, &step.ParseError{Line: stmt.line, Msg: `missing "ENDSEC;" closing the DATA section`}
			}
			return nil, err
		}
		if stmt.text == markerEndsec {
			return table, nil
		}
		entity, err := parseEntity(stmt)
		if err != nil {
			return nil, err
		}
		if err := table.Add(entity); err != nil {
			return nil, &step.ParseError{Line: stmt.line, EntityID: entity.ID, Msg: err.Error()}
		}
	}
}

func (p *Parser) expectTerminator(sc *scanner) error {
	stmt, err := sc.next()
	if err != nil {
		if errors.Is(err, errEndOfInput) {
			if p.options.AllowMissingTerminator {
				return nil
			}
			return &step.ParseError{Line: stmt.line, Msg: `missing "END-ISO-10303-21;" terminator`}
		}
		return err
	}
	if stmt.text != markerEnd {
		return &step.ParseError{Line: stmt.line, Msg: fmt.Sprintf("unexpected statement %q after DATA section", clip(stmt.text))}
	}
	return nil
}

func expectMarker(sc *scanner, marker string) error {
	stmt, err := sc.next()
	if err != nil {
		if errors.Is(err, errEndOfInput) {
			return &step.ParseError{Line: stmt.line, Msg: fmt.Sprintf("missing %q marker", marker+";")}
		}
		return err
	}
	if stmt.text != marker {
		return &step.ParseError{Line: stmt.line, Msg: fmt.Sprintf("expected %q, found %q", marker+";", clip(stmt.text))}
	}
	return nil
}

// parseEntity splits `#<id> = <body>` into id, records, and references. The
// body text is retained unmodified so serialization stays byte-exact outside
// the rewritten reference tokens.
func parseEntity(stmt statement) (*step.Entity, error) {
	text := stmt.text
	if len(text) == 0 || text[0] != '#' {
		return nil, &step.ParseError{Line: stmt.line, Msg: fmt.Sprintf("expected entity statement, found %q", clip(text))}
	}

	i := 1
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	if i == 1 {
		return nil, &step.ParseError{Line: stmt.line, Msg: "entity id missing after '#'"}
	}
	id, err := strconv.Atoi(text[1:i])
	if err != nil {
		return nil, &step.ParseError{Line: stmt.line, Msg: fmt.Sprintf("invalid entity id: %v", err)}
	}

	rest := strings.TrimLeft(text[i:], " \t\r\n")
	if len(rest) == 0 || rest[0] != '=' {
		return nil, &step.ParseError{Line: stmt.line, EntityID: id, Msg: "expected '=' after entity id"}
	}
	body := strings.TrimSpace(rest[1:])
	if body == "" {
		return nil, &step.ParseError{Line: stmt.line, EntityID: id, Msg: "entity body is empty"}
	}

	records, err := parseRecords(body, id, stmt.line)
	if err != nil {
		return nil, err
	}

	var refs []int
	for _, ref := range step.ScanReferences(body) {
		if ref != id {
			refs = append(refs, ref)
		}
	}

	return &step.Entity{ID: id, Records: records, Body: body, Refs: refs}, nil
}

// parseRecords handles both ordinary `TYPE(params)` bodies and complex
// multi-typed `(TYPE1(p1)TYPE2(p2)...)` bodies.
func parseRecords(body string, id, line int) ([]step.Record, error) {
	if body[0] == '(' {
		end := matchParen(body, 0)
		if end != len(body)-1 {
			return nil, &step.ParseError{Line: line, EntityID: id, Msg: "unbalanced complex instance body"}
		}
		records, err := parseComplex(body[1:end], id, line)
		if err != nil {
			return nil, err
		}
		return records, nil
	}

	open := strings.IndexByte(body, '(')
	if open <= 0 {
		return nil, &step.ParseError{Line: line, EntityID: id, Msg: "entity body has no parameter list"}
	}
	name := strings.TrimSpace(body[:open])
	if !validTypeName(name) {
		return nil, &step.ParseError{Line: line, EntityID: id, Msg: fmt.Sprintf("invalid type name %q", clip(name))}
	}
	end := matchParen(body, open)
	if end != len(body)-1 {
		return nil, &step.ParseError{Line: line, EntityID: id, Msg: "unbalanced parameter list"}
	}
	return []step.Record{{Type: name, Params: body[open+1 : end]}}, nil
}

func parseComplex(inner string, id, line int) ([]step.Record, error) {
	var records []step.Record
	i := 0
	for i < len(inner) {
		for i < len(inner) && isSpace(inner[i]) {
			i++
		}
		if i >= len(inner) {
			break
		}
		start := i
		for i < len(inner) && isTypeChar(inner[i]) {
			i++
		}
		name := inner[start:i]
		if !validTypeName(name) {
			return nil, &step.ParseError{Line: line, EntityID: id, Msg: fmt.Sprintf("invalid type name %q in complex instance", clip(inner[start:]))}
		}
		for i < len(inner) && isSpace(inner[i]) {
			i++
		}
		if i >= len(inner) || inner[i] != '(' {
			return nil, &step.ParseError{Line: line, EntityID: id, Msg: fmt.Sprintf("missing parameter list for %q in complex instance", name)}
		}
		end := matchParen(inner, i)
		if end < 0 {
			return nil, &step.ParseError{Line: line, EntityID: id, Msg: fmt.Sprintf("unbalanced parameter list for %q in complex instance", name)}
		}
		records = append(records, step.Record{Type: name, Params: inner[i+1 : end]})
		i = end + 1
	}
	if len(records) == 0 {
		return nil, &step.ParseError{Line: line, EntityID: id, Msg: "complex instance declares no types"}
	}
	return records, nil
}

func validTypeName(name string) bool {
	if name == "" {
		return false
	}
	if name[0] < 'A' || name[0] > 'Z' {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isTypeChar(name[i]) {
			return false
		}
	}
	return true
}

func isTypeChar(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func clip(s string) string {
	const max = 40
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
