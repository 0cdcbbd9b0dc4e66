package graph

import (
	"github.com/goliatone/go-stepsplit/pkg/step"
)

// The walks in this file mirror the product-structure conventions of AP203 /
// AP214 exports: a solid lives inside an ADVANCED_BREP_SHAPE_REPRESENTATION,
// which a SHAPE_DEFINITION_REPRESENTATION binds (directly, or through a
// SHAPE_REPRESENTATION_RELATIONSHIP) to the PRODUCT_DEFINITION_SHAPE of a
// PRODUCT_DEFINITION. Splitting a solid out without that wrapper produces a
// file most CAD kernels refuse to import.

// CollectSolid computes the full unit for one solid body: its geometry, the
// representation and unit contexts that anchor it, the product structure
// chain, and the presentation entities styled onto it.
func (c *Collector) CollectSolid(solidID int) (*Reachable, error) {
	r := newReachable()
	if err := c.addRoots(r, []int{solidID}); err != nil {
		return nil, err
	}
	c.forward(r)
	c.expandSolid(r, solidID)
	c.presentationFixedPoint(r)
	return r, nil
}

// CollectPart computes the unit for an assembly part definition: the union
// of the solid units resolving to that product definition, or the product
// structure alone for parts without geometry of their own.
func (c *Collector) CollectPart(definitionID int) (*Reachable, error) {
	r := newReachable()
	if err := c.addRoots(r, []int{definitionID}); err != nil {
		return nil, err
	}
	c.forward(r)

	solids := c.SolidsForProduct(definitionID)
	for _, solid := range solids {
		r.add(solid)
		c.forward(r)
		c.expandSolid(r, solid)
	}
	if len(solids) == 0 {
		c.expandDefinitionShape(r, definitionID)
	}

	c.presentationFixedPoint(r)
	return r, nil
}

// expandSolid pulls in the representation wrapper and product chain for one
// solid already present in the set.
func (c *Collector) expandSolid(r *Reachable, solidID int) {
	representation, ok := c.RepresentationOf(solidID)
	if !ok {
		return
	}
	r.add(representation)
	c.forward(r)

	definitionRep, extras, ok := c.definitionChain(representation)
	if !ok {
		return
	}
	for _, id := range extras {
		r.add(id)
	}
	r.add(definitionRep)
	c.forward(r)
	c.expandProperties(r, definitionRep)
}

// expandDefinitionShape walks from the product-definition side for parts
// that carry no solid: PRODUCT_DEFINITION_SHAPE entities referencing the
// definition, and the representations bound to them.
func (c *Collector) expandDefinitionShape(r *Reachable, definitionID int) {
	for _, shapeID := range c.table.ByType(step.TypeProductDefinitionShape) {
		shape, _ := c.table.Get(shapeID)
		if !shape.References(definitionID) {
			continue
		}
		r.add(shapeID)
		c.forward(r)
		for _, repID := range c.table.ByType(step.TypeShapeDefinitionRep) {
			rep, _ := c.table.Get(repID)
			if rep.References(shapeID) {
				r.add(repID)
				c.forward(r)
				c.expandProperties(r, repID)
			}
		}
	}
}

// expandProperties follows a SHAPE_DEFINITION_REPRESENTATION down to its
// PRODUCT_DEFINITION and attaches the property entities hanging off it.
func (c *Collector) expandProperties(r *Reachable, definitionRepID int) {
	rep, ok := c.table.Get(definitionRepID)
	if !ok {
		return
	}
	for _, ref := range rep.Refs {
		shape, ok := c.table.Get(ref)
		if !ok || !shape.HasType(step.TypeProductDefinitionShape) {
			continue
		}
		for _, shapeRef := range shape.Refs {
			definition, ok := c.table.Get(shapeRef)
			if !ok || !definition.HasType(step.TypeProductDefinition) {
				continue
			}
			for _, propID := range c.table.ByType(step.TypePropertyDefinition) {
				prop, _ := c.table.Get(propID)
				if !prop.References(definition.ID) {
					continue
				}
				r.add(propID)
				c.forward(r)
				for _, propRepID := range c.table.ByType(step.TypePropertyDefinitionRep) {
					propRep, _ := c.table.Get(propRepID)
					if propRep.References(propID) {
						r.add(propRepID)
						c.forward(r)
					}
				}
			}
		}
	}
}

// RepresentationOf returns the first ADVANCED_BREP_SHAPE_REPRESENTATION
// containing the solid, in document order.
func (c *Collector) RepresentationOf(solidID int) (int, bool) {
	for _, id := range c.table.ByType(step.TypeAdvancedBRepShapeRep) {
		entity, _ := c.table.Get(id)
		if entity.References(solidID) {
			return id, true
		}
	}
	return 0, false
}

// definitionChain finds the SHAPE_DEFINITION_REPRESENTATION bound to a
// representation, either directly or through a relationship entity linking
// it to a plain SHAPE_REPRESENTATION. The extras are the intermediates that
// must travel with the unit.
func (c *Collector) definitionChain(representationID int) (int, []int, bool) {
	for _, id := range c.table.ByType(step.TypeShapeDefinitionRep) {
		entity, _ := c.table.Get(id)
		if entity.References(representationID) {
			return id, nil, true
		}
	}
	for _, relID := range c.table.ByType(step.TypeShapeRepRelationship) {
		rel, _ := c.table.Get(relID)
		if !rel.References(representationID) {
			continue
		}
		for _, ref := range rel.Refs {
			if ref == representationID {
				continue
			}
			shapeRep, ok := c.table.Get(ref)
			if !ok || !shapeRep.HasType(step.TypeShapeRepresentation) {
				continue
			}
			for _, id := range c.table.ByType(step.TypeShapeDefinitionRep) {
				entity, _ := c.table.Get(id)
				if entity.References(ref) {
					return id, []int{relID, ref}, true
				}
			}
		}
	}
	return 0, nil, false
}

// ProductOf resolves the PRODUCT_DEFINITION a solid belongs to through the
// representation and definition chain.
func (c *Collector) ProductOf(solidID int) (int, bool) {
	representation, ok := c.RepresentationOf(solidID)
	if !ok {
		return 0, false
	}
	definitionRep, _, ok := c.definitionChain(representation)
	if !ok {
		return 0, false
	}
	rep, _ := c.table.Get(definitionRep)
	for _, ref := range rep.Refs {
		shape, ok := c.table.Get(ref)
		if !ok || !shape.HasType(step.TypeProductDefinitionShape) {
			continue
		}
		for _, shapeRef := range shape.Refs {
			definition, ok := c.table.Get(shapeRef)
			if ok && definition.HasType(step.TypeProductDefinition) {
				return definition.ID, true
			}
		}
	}
	return 0, false
}

// SolidsForProduct lists, in document order, the solids whose product chain
// resolves to the given definition.
func (c *Collector) SolidsForProduct(definitionID int) []int {
	var solids []int
	for _, solid := range c.table.ByType(step.TypeSolidBRep) {
		if pd, ok := c.ProductOf(solid); ok && pd == definitionID {
			solids = append(solids, solid)
		}
	}
	return solids
}

// ProductName resolves the human name of a part: the PRODUCT entity reached
// through the definition's formation record.
func (c *Collector) ProductName(definitionID int) (string, bool) {
	definition, ok := c.table.Get(definitionID)
	if !ok {
		return "", false
	}
	for _, ref := range definition.Refs {
		formation, ok := c.table.Get(ref)
		if !ok || !formation.HasTypePrefix(step.TypeProductFormationPrefix) {
			continue
		}
		for _, formationRef := range formation.Refs {
			product, ok := c.table.Get(formationRef)
			if !ok || !product.HasType(step.TypeProduct) {
				continue
			}
			if name, ok := product.Name(); ok {
				return name, true
			}
		}
	}
	return "", false
}

// PartUsage describes one distinct part definition referenced by assembly
// usage links, with its total occurrence count across the assembly.
type PartUsage struct {
	DefinitionID int
	Occurrences  int
}

// AssemblyParts returns the distinct child part definitions referenced by
// NEXT_ASSEMBLY_USAGE_OCCURRENCE entities, in first-seen order. Each usage
// link references the relating (parent) definition first and the related
// (child) second; only the child identifies a part to extract, which keeps
// the assembly root itself out of the unit list.
func (c *Collector) AssemblyParts() []PartUsage {
	var (
		parts []PartUsage
		index = make(map[int]int)
	)
	for _, usageID := range c.table.ByType(step.TypeAssemblyUsage) {
		usage, _ := c.table.Get(usageID)
		var definitions []int
		for _, ref := range usage.Refs {
			entity, ok := c.table.Get(ref)
			if ok && entity.HasType(step.TypeProductDefinition) {
				definitions = append(definitions, ref)
			}
		}
		var child int
		switch len(definitions) {
		case 0:
			continue
		case 1:
			child = definitions[0]
		default:
			child = definitions[1]
		}
		if at, ok := index[child]; ok {
			parts[at].Occurrences++
			continue
		}
		index[child] = len(parts)
		parts = append(parts, PartUsage{DefinitionID: child, Occurrences: 1})
	}
	return parts
}
