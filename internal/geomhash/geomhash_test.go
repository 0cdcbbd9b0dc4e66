package geomhash

import (
	"context"
	"testing"

	"github.com/goliatone/go-stepsplit/internal/step/parser"
	"github.com/goliatone/go-stepsplit/pkg/graph"
	"github.com/goliatone/go-stepsplit/pkg/step"
)

// Two copies of the same box geometry with shifted entity ids, different
// float spelling, and different styling, plus a third body with different
// coordinates.
const hashDoc = `ISO-10303-21;
HEADER;
ENDSEC;
DATA;
#1=CARTESIAN_POINT('',(0.,0.,0.));
#2=DIRECTION('',(0.,0.,1.));
#3=DIRECTION('',(1.,0.,0.));
#4=AXIS2_PLACEMENT_3D('',#1,#2,#3);
#5=PLANE('',#4);
#6=ADVANCED_FACE('',(),#5,.T.);
#7=CLOSED_SHELL('',(#6));
#8=MANIFOLD_SOLID_BREP('block',#7);
#9=STYLED_ITEM('',(#60),#8);
#21=CARTESIAN_POINT('',(0.0,0.0,0.0));
#22=DIRECTION('',(0.0,0.0,1.0));
#23=DIRECTION('',(1.0,0.0,0.0));
#24=AXIS2_PLACEMENT_3D('',#21,#22,#23);
#25=PLANE('',#24);
#26=ADVANCED_FACE('',(),#25,.T.);
#27=CLOSED_SHELL('',(#26));
#28=MANIFOLD_SOLID_BREP('block',#27);
#41=CARTESIAN_POINT('',(75.,0.,0.));
#42=DIRECTION('',(0.,0.,1.));
#43=DIRECTION('',(1.,0.,0.));
#44=AXIS2_PLACEMENT_3D('',#41,#42,#43);
#45=PLANE('',#44);
#46=ADVANCED_FACE('',(),#45,.T.);
#47=CLOSED_SHELL('',(#46));
#48=MANIFOLD_SOLID_BREP('other',#47);
#60=PRESENTATION_STYLE_ASSIGNMENT((#61));
#61=SURFACE_STYLE_USAGE(.BOTH.,#62);
#62=SURFACE_SIDE_STYLE('',(#63));
#63=SURFACE_STYLE_FILL_AREA(#64);
#64=FILL_AREA_STYLE('',(#65));
#65=FILL_AREA_STYLE_COLOUR('',#66);
#66=COLOUR_RGB('',0.5,0.5,0.5);
ENDSEC;
END-ISO-10303-21;
`

func collectSolid(t *testing.T, collector *graph.Collector, table *step.EntityTable, solidID int) string {
	t.Helper()

	reach, err := collector.Collect(solidID)
	if err != nil {
		t.Fatalf("collect #%d: %v", solidID, err)
	}
	return Unit(table, reach)
}

func TestUnitHashIgnoresIDsFloatSpellingAndStyling(t *testing.T) {
	t.Parallel()

	p := parser.New(step.NewParserOptions())
	file, err := p.Parse(context.Background(), step.MustNewDocument(step.SourceFromBytes("hash.stp", []byte(hashDoc)), []byte(hashDoc)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	collector := graph.NewCollector(file.Table)

	copyA := collectSolid(t, collector, file.Table, 8)
	copyB := collectSolid(t, collector, file.Table, 28)
	other := collectSolid(t, collector, file.Table, 48)

	if copyA != copyB {
		t.Fatalf("identical geometry hashed differently:\n%s\n%s", copyA, copyB)
	}
	if copyA == other {
		t.Fatalf("distinct geometry collided: %s", copyA)
	}
}

func TestNormalizeFoldsReferencesAndNumbers(t *testing.T) {
	t.Parallel()

	a := normalize("'',(#12,#7),0.5,1.E-007")
	b := normalize("'',(#120,#99),0.50,1.0E-7")
	if a != b {
		t.Fatalf("normalization not stable:\n%q\n%q", a, b)
	}
}
