package step

import (
	"errors"
	"fmt"
	"strings"
)

// Well-known entity type names consumed by the classifier, the dependency
// collector, and the orchestrator. STEP type names are upper-case by grammar.
const (
	TypeAssemblyUsage = "NEXT_ASSEMBLY_USAGE_OCCURRENCE"
	TypeSolidBRep     = "MANIFOLD_SOLID_BREP"

	TypeProduct                   = "PRODUCT"
	TypeProductDefinition         = "PRODUCT_DEFINITION"
	TypeProductDefinitionShape    = "PRODUCT_DEFINITION_SHAPE"
	TypeShapeDefinitionRep        = "SHAPE_DEFINITION_REPRESENTATION"
	TypeShapeRepresentation       = "SHAPE_REPRESENTATION"
	TypeShapeRepRelationship      = "SHAPE_REPRESENTATION_RELATIONSHIP"
	TypeAdvancedBRepShapeRep      = "ADVANCED_BREP_SHAPE_REPRESENTATION"
	TypePropertyDefinition        = "PROPERTY_DEFINITION"
	TypePropertyDefinitionRep     = "PROPERTY_DEFINITION_REPRESENTATION"
	TypeStyledItem                = "STYLED_ITEM"
	TypeOverRidingStyledItem      = "OVER_RIDING_STYLED_ITEM"

	// TypeProductFormationPrefix matches the PRODUCT_DEFINITION_FORMATION
	// family, including the _WITH_SPECIFIED_SOURCE variant.
	TypeProductFormationPrefix = "PRODUCT_DEFINITION_FORMATION"
)

// DefaultPresentationTypes is the allow-list used to build the restricted
// reverse index. Only these types are pulled into a unit when they point back
// at geometry already in the unit's reachable set; a wider list risks
// re-merging independent units through shared presentation containers.
var DefaultPresentationTypes = []string{
	TypeStyledItem,
	TypeOverRidingStyledItem,
}

// Record is one (type name, parameter list) pair inside an entity instance.
// Ordinary instances carry exactly one record; complex multi-typed instances
// carry them in declaration order.
type Record struct {
	Type   string
	Params string
}

// Entity is a single DATA-section instance: its original id, the ordered
// records it declares, the raw body text between `=` and `;` (kept byte-exact
// for serialization), and the entity ids referenced from its parameters.
type Entity struct {
	ID      int
	Records []Record
	Body    string
	Refs    []int
}

// Complex reports whether the entity is a multi-typed instance.
func (e *Entity) Complex() bool {
	return len(e.Records) > 1
}

// Type returns the primary type name: the single record type for ordinary
// instances, the first declared type for complex ones.
func (e *Entity) Type() string {
	if len(e.Records) == 0 {
		return ""
	}
	return e.Records[0].Type
}

// HasType reports whether any record of the instance carries the given type.
func (e *Entity) HasType(name string) bool {
	for _, record := range e.Records {
		if record.Type == name {
			return true
		}
	}
	return false
}

// HasTypePrefix reports whether any record type starts with the given prefix.
// STEP schemas fan out families like PRODUCT_DEFINITION_FORMATION and
// PRODUCT_DEFINITION_FORMATION_WITH_SPECIFIED_SOURCE; callers match the stem.
func (e *Entity) HasTypePrefix(prefix string) bool {
	for _, record := range e.Records {
		if strings.HasPrefix(record.Type, prefix) {
			return true
		}
	}
	return false
}

// References reports whether the entity's parameters reference the given id.
func (e *Entity) References(id int) bool {
	for _, ref := range e.Refs {
		if ref == id {
			return true
		}
	}
	return false
}

// Name returns the first string literal of the primary record's parameters,
// the conventional slot for an instance name, or false when absent or empty.
func (e *Entity) Name() (string, bool) {
	if len(e.Records) == 0 {
		return "", false
	}
	value, ok := FirstString(e.Records[0].Params)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

func (e *Entity) String() string {
	return fmt.Sprintf("#%d=%s", e.ID, e.Type())
}

// EntityTable maps original ids to entities while preserving document order.
// It is populated once by the parser and read-only afterwards, which is what
// makes concurrent per-unit extraction safe without synchronization.
type EntityTable struct {
	entities map[int]*Entity
	order    []int
}

// NewEntityTable returns an empty table ready for population by a parser.
func NewEntityTable() *EntityTable {
	return &EntityTable{entities: make(map[int]*Entity)}
}

// Add appends an entity, rejecting duplicate ids.
func (t *EntityTable) Add(entity *Entity) error {
	if entity == nil {
		return errors.New("step: entity is nil")
	}
	if _, exists := t.entities[entity.ID]; exists {
		return fmt.Errorf("step: duplicate entity id #%d", entity.ID)
	}
	t.entities[entity.ID] = entity
	t.order = append(t.order, entity.ID)
	return nil
}

// Get returns the entity for an original id.
func (t *EntityTable) Get(id int) (*Entity, bool) {
	entity, ok := t.entities[id]
	return entity, ok
}

// Len reports the number of entities.
func (t *EntityTable) Len() int {
	return len(t.order)
}

// IDs returns the ids in document order. The slice is a copy.
func (t *EntityTable) IDs() []int {
	return append([]int(nil), t.order...)
}

// ByType returns, in document order, the ids of entities carrying the type.
func (t *EntityTable) ByType(name string) []int {
	var ids []int
	for _, id := range t.order {
		if t.entities[id].HasType(name) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Header is the verbatim HEADER section text (between `HEADER;` and
// `ENDSEC;`) carried unchanged into every output file.
type Header struct {
	Raw string
}

// File is the parsed form of one STEP document.
type File struct {
	Name   string
	Header Header
	Table  *EntityTable
}
