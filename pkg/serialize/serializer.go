// Package serialize turns one unit's reachable entity set into a complete
// STEP file: contiguous ids assigned in first-visit order, every reference
// rewritten through the renumber map, everything else byte-exact.
package serialize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-stepsplit/pkg/graph"
	"github.com/goliatone/go-stepsplit/pkg/step"
)

// Option customises the serializer.
type Option func(*Serializer)

// WithoutFileNameRewrite keeps the FILE_NAME header entity untouched instead
// of stamping the unit name into its name slot.
func WithoutFileNameRewrite() Option {
	return func(s *Serializer) {
		s.rewriteFileName = false
	}
}

// Serializer emits STEP text for extraction units. It is stateless across
// calls and safe for concurrent use.
type Serializer struct {
	rewriteFileName bool
}

// New constructs a Serializer.
func New(options ...Option) *Serializer {
	s := &Serializer{rewriteFileName: true}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Serialize renders the unit as a full ISO 10303-21 document. Output is
// deterministic: identical input and identical visit order produce identical
// bytes. A reference whose target is missing from the reachable set aborts
// with a DependencyError; the collector is supposed to hand over closed sets,
// so this signals a defect upstream, not a recoverable input condition.
func (s *Serializer) Serialize(table *step.EntityTable, header step.Header, reach *graph.Reachable, unitName string) ([]byte, error) {
	if table == nil {
		return nil, fmt.Errorf("serialize: entity table is required")
	}
	if reach == nil || reach.Len() == 0 {
		return nil, fmt.Errorf("serialize: unit %q has an empty reachable set", unitName)
	}

	order := reach.Order()
	renumber := make(map[int]int, len(order))
	for i, old := range order {
		renumber[old] = i + 1
	}
	lookup := func(old int) (int, bool) {
		fresh, ok := renumber[old]
		return fresh, ok
	}

	var out strings.Builder
	out.WriteString("ISO-10303-21;\n")
	out.WriteString("HEADER;\n")
	headerText := header.Raw
	if s.rewriteFileName && unitName != "" {
		headerText = rewriteFileName(headerText, unitName)
	}
	if headerText != "" {
		out.WriteString(headerText)
		out.WriteString("\n")
	}
	out.WriteString("ENDSEC;\n")
	out.WriteString("DATA;\n")

	for _, old := range order {
		entity, ok := table.Get(old)
		if !ok {
			return nil, &step.DependencyError{Unit: unitName, EntityID: old, Msg: "reachable id is not defined in the table"}
		}
		body, err := step.RewriteReferences(entity.Body, lookup)
		if err != nil {
			var depErr *step.DependencyError
			if errors.As(err, &depErr) {
				depErr.Unit = unitName
				return nil, depErr
			}
			return nil, fmt.Errorf("serialize: unit %q entity #%d: %w", unitName, old, err)
		}
		out.WriteString("#")
		out.WriteString(strconv.Itoa(renumber[old]))
		out.WriteString("=")
		out.WriteString(body)
		out.WriteString(";\n")
	}

	out.WriteString("ENDSEC;\n")
	out.WriteString("END-ISO-10303-21;\n")
	return []byte(out.String()), nil
}
