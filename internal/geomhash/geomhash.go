// Package geomhash fingerprints the geometry of a split unit so identical
// bodies can be merged into a single output. The fingerprint ignores entity
// ids and normalizes numeric formatting, so two copies of the same geometry
// with different numbering and float spelling hash equal.
package geomhash

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-stepsplit/pkg/graph"
	"github.com/goliatone/go-stepsplit/pkg/step"
)

// geometricTypes limits the fingerprint to shape-defining entities. Styles,
// colours, and product metadata vary between otherwise identical bodies and
// must not influence the hash.
var geometricTypes = map[string]struct{}{
	"CARTESIAN_POINT":     {},
	"DIRECTION":           {},
	"VECTOR":              {},
	"LINE":                {},
	"CIRCLE":              {},
	"ELLIPSE":             {},
	"B_SPLINE_CURVE":      {},
	"B_SPLINE_SURFACE":    {},
	"PLANE":               {},
	"CYLINDRICAL_SURFACE": {},
	"CONICAL_SURFACE":     {},
	"SPHERICAL_SURFACE":   {},
	"TOROIDAL_SURFACE":    {},
	"AXIS2_PLACEMENT_3D":  {},
	"AXIS1_PLACEMENT":     {},
	"VERTEX_POINT":        {},
	"EDGE_CURVE":          {},
	"ORIENTED_EDGE":       {},
	"EDGE_LOOP":           {},
	"FACE_OUTER_BOUND":    {},
	"FACE_BOUND":          {},
	"ADVANCED_FACE":       {},
	"CLOSED_SHELL":        {},
	"OPEN_SHELL":          {},
	step.TypeSolidBRep:    {},
}

var (
	refPattern    = regexp.MustCompile(`#\d+`)
	numberPattern = regexp.MustCompile(`-?\d+\.?\d*E?[+-]?\d*`)
)

// Unit hashes the geometric content of a reachable set. The result is stable
// across renumbering: references collapse to a placeholder and numbers are
// reformatted to six significant digits before hashing.
func Unit(table *step.EntityTable, reach *graph.Reachable) string {
	var entries []string
	for _, id := range reach.Order() {
		entity, ok := table.Get(id)
		if !ok {
			continue
		}
		for _, record := range entity.Records {
			if _, geometric := geometricTypes[record.Type]; !geometric {
				continue
			}
			entries = append(entries, record.Type+"("+normalize(record.Params)+")")
		}
	}
	sort.Strings(entries)

	digest := sha256.Sum256([]byte(strings.Join(entries, "\n")))
	return hex.EncodeToString(digest[:])
}

func normalize(params string) string {
	out := refPattern.ReplaceAllString(params, "#REF")
	return numberPattern.ReplaceAllStringFunc(out, func(token string) string {
		value, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return token
		}
		return strconv.FormatFloat(value, 'g', 6, 64)
	})
}
