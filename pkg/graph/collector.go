// Package graph computes the reachable subgraph a split unit needs: a
// breadth-first walk over forward entity references, closed under the
// indirect presentation links (styled items pointing back at geometry) that
// forward traversal alone cannot see.
package graph

import (
	"github.com/goliatone/go-stepsplit/pkg/step"
)

// Option customises collector construction.
type Option func(*Collector)

// WithPresentationTypes overrides the allow-list of entity types admitted
// into the reverse index. An unrestricted reverse scan is a correctness
// hazard: entities that merely share a referenced coordinate system would
// re-merge otherwise independent units.
func WithPresentationTypes(types ...string) Option {
	return func(c *Collector) {
		c.presentation = make(map[string]struct{}, len(types))
		for _, name := range types {
			c.presentation[name] = struct{}{}
		}
	}
}

// Collector owns the traversal state shared by every unit: the immutable
// entity table and the restricted reverse index. Both are built once; Collect
// can then be called per unit, concurrently if desired.
type Collector struct {
	table        *step.EntityTable
	presentation map[string]struct{}

	// reverse maps a target id to the allow-listed entities referencing it.
	reverse map[int][]int

	// presentationIDs holds the allow-listed entity ids in document order so
	// fixed-point passes stay deterministic.
	presentationIDs []int
}

// NewCollector builds a Collector over the table, indexing reverse references
// for the presentation allow-list (step.DefaultPresentationTypes unless
// overridden).
func NewCollector(table *step.EntityTable, options ...Option) *Collector {
	c := &Collector{table: table}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.presentation == nil {
		c.presentation = make(map[string]struct{}, len(step.DefaultPresentationTypes))
		for _, name := range step.DefaultPresentationTypes {
			c.presentation[name] = struct{}{}
		}
	}
	c.buildReverseIndex()
	return c
}

func (c *Collector) buildReverseIndex() {
	c.reverse = make(map[int][]int)
	for _, id := range c.table.IDs() {
		entity, _ := c.table.Get(id)
		if !c.isPresentation(entity) {
			continue
		}
		c.presentationIDs = append(c.presentationIDs, id)
		for _, ref := range entity.Refs {
			c.reverse[ref] = append(c.reverse[ref], id)
		}
	}
}

func (c *Collector) isPresentation(entity *step.Entity) bool {
	for _, record := range entity.Records {
		if _, ok := c.presentation[record.Type]; ok {
			return true
		}
	}
	return false
}

// Table exposes the entity table the collector operates on.
func (c *Collector) Table() *step.EntityTable {
	return c.table
}

// Reachable is one unit's closed entity set in first-visit order. The order
// drives renumbering, so it must be reproducible for identical input and
// identical roots.
type Reachable struct {
	order   []int
	seen    map[int]struct{}
	pending []int
}

func newReachable() *Reachable {
	return &Reachable{seen: make(map[int]struct{})}
}

// Contains reports membership.
func (r *Reachable) Contains(id int) bool {
	_, ok := r.seen[id]
	return ok
}

// Order returns the ids in first-visit order. The slice is a copy.
func (r *Reachable) Order() []int {
	return append([]int(nil), r.order...)
}

// Len reports the number of entities in the set.
func (r *Reachable) Len() int {
	return len(r.order)
}

func (r *Reachable) add(id int) bool {
	if _, ok := r.seen[id]; ok {
		return false
	}
	r.seen[id] = struct{}{}
	r.order = append(r.order, id)
	r.pending = append(r.pending, id)
	return true
}

// Collect computes the closed reachable set for the given roots: forward
// traversal to a fixed point, then repeated presentation passes until no
// allow-listed entity pointing into the set remains outside it.
func (c *Collector) Collect(roots ...int) (*Reachable, error) {
	r := newReachable()
	if err := c.addRoots(r, roots); err != nil {
		return nil, err
	}
	c.forward(r)
	c.presentationFixedPoint(r)
	return r, nil
}

func (c *Collector) addRoots(r *Reachable, roots []int) error {
	if len(roots) == 0 {
		return &step.DependencyError{Msg: "no roots supplied"}
	}
	for _, root := range roots {
		if _, ok := c.table.Get(root); !ok {
			return &step.DependencyError{EntityID: root, Msg: "root entity is not defined"}
		}
		r.add(root)
	}
	return nil
}

// forward drains the pending queue breadth-first. The explicit queue plus the
// visited set guarantees termination on cyclic geometric contexts and keeps
// stack depth flat on long reference chains.
func (c *Collector) forward(r *Reachable) {
	for len(r.pending) > 0 {
		id := r.pending[0]
		r.pending = r.pending[1:]
		entity, ok := c.table.Get(id)
		if !ok {
			continue
		}
		for _, ref := range entity.Refs {
			if _, defined := c.table.Get(ref); defined {
				r.add(ref)
			}
		}
	}
}

// presentationFixedPoint admits allow-listed entities whose targets are
// already reachable, then re-runs forward traversal from them, until the set
// stops growing. Candidates are scanned in document order for determinism.
//
// Admission is checked against the set as it stood before presentation
// expansion, extended only by the admitted entities themselves. Checking
// against the full growing set would leak: style assignments are routinely
// shared between styled items of different units, and a sibling's styled
// item pointing at a shared assignment would chain the sibling's geometry in.
func (c *Collector) presentationFixedPoint(r *Reachable) {
	admissible := make(map[int]struct{}, len(r.seen))
	for id := range r.seen {
		admissible[id] = struct{}{}
	}
	for {
		added := false
		for _, id := range c.presentationIDs {
			if r.Contains(id) {
				continue
			}
			entity, _ := c.table.Get(id)
			for _, target := range entity.Refs {
				if _, ok := admissible[target]; ok {
					r.add(id)
					admissible[id] = struct{}{}
					added = true
					break
				}
			}
		}
		if !added {
			return
		}
		c.forward(r)
	}
}
