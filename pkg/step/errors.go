package step

import (
	"fmt"
)

// ParseError reports a malformed STEP document: a statement that never
// terminates, unbalanced nesting, or a missing section marker. Line is
// 1-based; EntityID is zero when the failure precedes id extraction.
type ParseError struct {
	Line     int
	EntityID int
	Msg      string
}

func (e *ParseError) Error() string {
	switch {
	case e.EntityID > 0 && e.Line > 0:
		return fmt.Sprintf("step: parse error at line %d (entity #%d): %s", e.Line, e.EntityID, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("step: parse error at line %d: %s", e.Line, e.Msg)
	default:
		return fmt.Sprintf("step: parse error: %s", e.Msg)
	}
}

// ClassificationError signals a document that is neither an assembly nor a
// multi-volume part: there is nothing to split.
type ClassificationError struct {
	SolidBodies   int
	AssemblyLinks int
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("step: nothing to split: %d assembly usage links, %d solid bodies", e.AssemblyLinks, e.SolidBodies)
}

// DependencyError reports an unresolved unit root or a reference that
// survived into serialization without a definition in the reachable set. The
// latter indicates a collector defect, not a recoverable input condition.
type DependencyError struct {
	Unit     string
	EntityID int
	Msg      string
}

func (e *DependencyError) Error() string {
	subject := e.Msg
	if e.EntityID > 0 {
		subject = fmt.Sprintf("#%d: %s", e.EntityID, e.Msg)
	}
	if e.Unit != "" {
		return fmt.Sprintf("step: unit %q: dependency error on %s", e.Unit, subject)
	}
	return fmt.Sprintf("step: dependency error on %s", subject)
}

// IOError wraps a filesystem failure with the operation and path so unit
// failures can be diagnosed without re-running.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("step: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
