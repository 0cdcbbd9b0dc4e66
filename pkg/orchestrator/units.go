package orchestrator

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-stepsplit/internal/geomhash"
	"github.com/goliatone/go-stepsplit/internal/naming"
	"github.com/goliatone/go-stepsplit/pkg/classify"
	"github.com/goliatone/go-stepsplit/pkg/graph"
	"github.com/goliatone/go-stepsplit/pkg/step"
)

// unit is one extraction target: a display name, the output file name, and
// the collect strategy bound to its root. File names are resolved up front,
// sequentially, so parallel processing cannot reorder collision suffixes.
type unit struct {
	name      string
	file      string
	root      int
	solid     bool
	instances int
}

func (u unit) collect(collector *graph.Collector) (*graph.Reachable, error) {
	if u.solid {
		return collector.CollectSolid(u.root)
	}
	return collector.CollectPart(u.root)
}

func (o *Orchestrator) discoverUnits(kind classify.Kind, collector *graph.Collector, file *step.File) []unit {
	if kind == classify.KindAssembly {
		return o.discoverAssemblyUnits(collector, file)
	}
	return o.discoverVolumeUnits(collector, file)
}

// discoverAssemblyUnits resolves one unit per distinct part definition
// referenced through assembly usage links. Multiple occurrences of the same
// definition collapse into one unit carrying the occurrence count.
func (o *Orchestrator) discoverAssemblyUnits(collector *graph.Collector, file *step.File) []unit {
	names := naming.NewTable()
	var units []unit
	for _, part := range collector.AssemblyParts() {
		name, ok := collector.ProductName(part.DefinitionID)
		if !ok {
			name = fmt.Sprintf("%s-%d", file.Name, part.DefinitionID)
		}
		clean := names.Claim(name, part.DefinitionID)
		units = append(units, unit{
			name:      clean,
			file:      clean + ".stp",
			root:      part.DefinitionID,
			instances: part.Occurrences,
		})
	}
	return units
}

// discoverVolumeUnits numbers every solid body in discovery order. The
// numbering scheme keeps multi-volume outputs predictable regardless of
// whether the bodies carry names.
func (o *Orchestrator) discoverVolumeUnits(collector *graph.Collector, file *step.File) []unit {
	solids := collector.Table().ByType(step.TypeSolidBRep)
	units := make([]unit, 0, len(solids))
	for i, solid := range solids {
		name := fmt.Sprintf("%s_%d", file.Name, i+1)
		units = append(units, unit{
			name:      name,
			file:      name + ".stp",
			root:      solid,
			solid:     true,
			instances: 1,
		})
	}
	return units
}

// mergeIdentical collapses units whose geometry fingerprints match. The
// first unit of each group survives with the summed instance count; the
// report then shows one line with the multiplicity instead of N identical
// files. Units whose set cannot be collected are left alone so the failure
// surfaces later with full context.
func (o *Orchestrator) mergeIdentical(collector *graph.Collector, units []unit) []unit {
	var (
		merged []unit
		groups = make(map[string]int)
	)
	for _, u := range units {
		reach, err := u.collect(collector)
		if err != nil {
			merged = append(merged, u)
			continue
		}
		digest := geomhash.Unit(collector.Table(), reach)
		if at, ok := groups[digest]; ok {
			merged[at].instances += u.instances
			o.logger.Info("merged duplicate unit",
				zap.String("unit", u.name),
				zap.String("into", merged[at].name))
			continue
		}
		groups[digest] = len(merged)
		merged = append(merged, u)
	}
	return merged
}
