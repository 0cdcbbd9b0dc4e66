// Package classify decides how a parsed STEP document should be split:
// per assembly component, per solid body, or not at all.
package classify

import (
	"github.com/goliatone/go-stepsplit/pkg/step"
)

// Kind labels the split strategy for a document.
type Kind string

const (
	// KindAssembly splits one file per distinct part definition referenced
	// through assembly usage links.
	KindAssembly Kind = "assembly"

	// KindMultiVolumePart splits one file per solid body.
	KindMultiVolumePart Kind = "multi_volume_part"

	// KindSinglePart marks a document with nothing to split.
	KindSinglePart Kind = "single_part"
)

// Stats carries the entity counts the decision was based on, for logging and
// report context.
type Stats struct {
	AssemblyLinks int
	SolidBodies   int
}

// Detect classifies the table. Assembly usage links take priority over solid
// body counts: an assembly file routinely contains one solid per component
// and must still be split along its product structure.
func Detect(table *step.EntityTable) (Kind, Stats) {
	stats := Stats{
		AssemblyLinks: len(table.ByType(step.TypeAssemblyUsage)),
		SolidBodies:   len(table.ByType(step.TypeSolidBRep)),
	}
	switch {
	case stats.AssemblyLinks > 0:
		return KindAssembly, stats
	case stats.SolidBodies > 1:
		return KindMultiVolumePart, stats
	default:
		return KindSinglePart, stats
	}
}
