package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-stepsplit/internal/fsutil"
	"github.com/goliatone/go-stepsplit/pkg/classify"
	"github.com/goliatone/go-stepsplit/pkg/step"
)

// Part with two distinct solid bodies, the first one styled.
const twinBlockDoc = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION(('two volume part'),'2;1');
FILE_NAME('twin_block.stp','2024-03-14T09:00:00',('author'),(''),'processor','system','');
ENDSEC;
DATA;
#1=CARTESIAN_POINT('',(0.,0.,0.));
#2=DIRECTION('',(0.,0.,1.));
#3=DIRECTION('',(1.,0.,0.));
#4=AXIS2_PLACEMENT_3D('',#1,#2,#3);
#5=PLANE('',#4);
#6=ADVANCED_FACE('',(),#5,.T.);
#7=CLOSED_SHELL('',(#6));
#8=MANIFOLD_SOLID_BREP('block_a',#7);
#11=CARTESIAN_POINT('',(50.,0.,0.));
#12=DIRECTION('',(0.,0.,1.));
#13=DIRECTION('',(1.,0.,0.));
#14=AXIS2_PLACEMENT_3D('',#11,#12,#13);
#15=PLANE('',#14);
#16=ADVANCED_FACE('',(),#15,.T.);
#17=CLOSED_SHELL('',(#16));
#18=MANIFOLD_SOLID_BREP('block_b',#17);
#21=STYLED_ITEM('',(#22),#8);
#22=PRESENTATION_STYLE_ASSIGNMENT((#23));
#23=SURFACE_STYLE_USAGE(.BOTH.,#24);
#24=SURFACE_SIDE_STYLE('',(#25));
#25=SURFACE_STYLE_FILL_AREA(#26);
#26=FILL_AREA_STYLE('',(#27));
#27=FILL_AREA_STYLE_COLOUR('',#28);
#28=COLOUR_RGB('',0.5,0.5,0.5);
ENDSEC;
END-ISO-10303-21;
`

// Assembly with BOLT used twice and NUT used once.
const gearboxDoc = `ISO-10303-21;
HEADER;
FILE_NAME('gearbox.stp','2024-02-01T08:30:00',('author'),(''),'processor','system','');
ENDSEC;
DATA;
#1=APPLICATION_CONTEXT('automotive design');
#2=PRODUCT_DEFINITION_CONTEXT('part definition',#1,'design');
#3=PRODUCT_CONTEXT('',#1,'mechanical');
#100=PRODUCT('GEARBOX','GEARBOX','',(#3));
#101=PRODUCT_DEFINITION_FORMATION('','',#100);
#102=PRODUCT_DEFINITION('design','',#101,#2);
#200=PRODUCT('BOLT','BOLT','',(#3));
#201=PRODUCT_DEFINITION_FORMATION('','',#200);
#202=PRODUCT_DEFINITION('design','',#201,#2);
#203=PRODUCT_DEFINITION_SHAPE('','',#202);
#210=CARTESIAN_POINT('',(0.,0.,0.));
#211=DIRECTION('',(0.,0.,1.));
#212=DIRECTION('',(1.,0.,0.));
#213=AXIS2_PLACEMENT_3D('',#210,#211,#212);
#214=PLANE('',#213);
#215=ADVANCED_FACE('',(),#214,.T.);
#216=CLOSED_SHELL('',(#215));
#217=MANIFOLD_SOLID_BREP('bolt_body',#216);
#218=ADVANCED_BREP_SHAPE_REPRESENTATION('',(#217,#213),#220);
#219=SHAPE_DEFINITION_REPRESENTATION(#203,#218);
#220=(GEOMETRIC_REPRESENTATION_CONTEXT(3)GLOBAL_UNIT_ASSIGNED_CONTEXT((#221))REPRESENTATION_CONTEXT('','3D'));
#221=(LENGTH_UNIT()NAMED_UNIT(*)SI_UNIT(.MILLI.,.METRE.));
#300=PRODUCT('NUT','NUT','',(#3));
#301=PRODUCT_DEFINITION_FORMATION('','',#300);
#302=PRODUCT_DEFINITION('design','',#301,#2);
#303=PRODUCT_DEFINITION_SHAPE('','',#302);
#310=CARTESIAN_POINT('',(10.,0.,0.));
#311=DIRECTION('',(0.,0.,1.));
#312=DIRECTION('',(1.,0.,0.));
#313=AXIS2_PLACEMENT_3D('',#310,#311,#312);
#314=PLANE('',#313);
#315=ADVANCED_FACE('',(),#314,.T.);
#316=CLOSED_SHELL('',(#315));
#317=MANIFOLD_SOLID_BREP('nut_body',#316);
#318=ADVANCED_BREP_SHAPE_REPRESENTATION('',(#317,#313),#220);
#319=SHAPE_DEFINITION_REPRESENTATION(#303,#318);
#400=NEXT_ASSEMBLY_USAGE_OCCURRENCE('1','','',#102,#202,$);
#401=NEXT_ASSEMBLY_USAGE_OCCURRENCE('2','','',#102,#202,$);
#402=NEXT_ASSEMBLY_USAGE_OCCURRENCE('3','','',#102,#302,$);
ENDSEC;
END-ISO-10303-21;
`

// Part with two geometrically identical bodies at the same location.
const dupBlockDoc = `ISO-10303-21;
HEADER;
FILE_NAME('dup_block.stp','2024-03-14T09:00:00',('author'),(''),'processor','system','');
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
#11=CARTESIAN_POINT('',(0.0,0.0,0.0));
#12=DIRECTION('',(0.0,0.0,1.0));
#13=DIRECTION('',(1.0,0.0,0.0));
#14=AXIS2_PLACEMENT_3D('',#11,#12,#13);
#15=PLANE('',#14);
#16=ADVANCED_FACE('',(),#15,.T.);
#17=CLOSED_SHELL('',(#16));
#18=MANIFOLD_SOLID_BREP('block',#17);
ENDSEC;
END-ISO-10303-21;
`

const singlePartDoc = `ISO-10303-21;
HEADER;
FILE_NAME('washer.stp','2024-03-14T09:00:00',('author'),(''),'processor','system','');
ENDSEC;
DATA;
#1=CARTESIAN_POINT('',(0.,0.,0.));
#2=DIRECTION('',(0.,0.,1.));
#3=DIRECTION('',(1.,0.,0.));
#4=AXIS2_PLACEMENT_3D('',#1,#2,#3);
#5=PLANE('',#4);
#6=ADVANCED_FACE('',(),#5,.T.);
#7=CLOSED_SHELL('',(#6));
#8=MANIFOLD_SOLID_BREP('washer',#7);
ENDSEC;
END-ISO-10303-21;
`

func splitBytes(t *testing.T, fs *fsutil.MemoryFileSystem, name, doc string, options ...Option) (Result, error) {
	t.Helper()

	options = append([]Option{WithFileSystem(fs)}, options...)
	o := New(options...)
	return o.Split(context.Background(), Request{
		Source:    step.SourceFromBytes(name, []byte(doc)),
		OutputDir: "out",
	})
}

func TestSplitMultiVolumePart(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	result, err := splitBytes(t, fs, "twin_block.stp", twinBlockDoc)
	require.NoError(t, err)

	assert.Equal(t, classify.KindMultiVolumePart, result.Kind)
	assert.Equal(t, classify.Stats{SolidBodies: 2}, result.Stats)
	require.Len(t, result.Units, 2)

	first, err := fs.ReadFile(filepath.Join("out", "twin_block_1.stp"))
	require.NoError(t, err)
	second, err := fs.ReadFile(filepath.Join("out", "twin_block_2.stp"))
	require.NoError(t, err)

	// Each output carries its own body plus its own styling, nothing else.
	assert.Contains(t, string(first), "'block_a'")
	assert.NotContains(t, string(first), "'block_b'")
	assert.Contains(t, string(first), "COLOUR_RGB")
	assert.Contains(t, string(first), "FILE_NAME('TWIN_BLOCK_1'")
	assert.NotContains(t, string(second), "'block_a'")
	assert.NotContains(t, string(second), "COLOUR_RGB")

	report, err := fs.ReadFile(filepath.Join("out", "twin_block.txt"))
	require.NoError(t, err)
	assert.Equal(t, "twin_block_1;1\ntwin_block_2;1\n", string(report))
}

func TestSplitAssembly(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	result, err := splitBytes(t, fs, "gearbox.stp", gearboxDoc)
	require.NoError(t, err)

	assert.Equal(t, classify.KindAssembly, result.Kind)
	require.Len(t, result.Units, 2)
	assert.Equal(t, "BOLT", result.Units[0].Name)
	assert.Equal(t, 2, result.Units[0].Instances)
	assert.Equal(t, "NUT", result.Units[1].Name)
	assert.Equal(t, 1, result.Units[1].Instances)

	bolt, err := fs.ReadFile(filepath.Join("out", "BOLT.stp"))
	require.NoError(t, err)
	assert.Contains(t, string(bolt), "'bolt_body'")
	assert.NotContains(t, string(bolt), "'nut_body'")
	assert.NotContains(t, string(bolt), "NEXT_ASSEMBLY_USAGE_OCCURRENCE")
	assert.Contains(t, string(bolt), "FILE_NAME('BOLT'")

	report, err := fs.ReadFile(filepath.Join("out", "gearbox.txt"))
	require.NoError(t, err)
	assert.Equal(t, "BOLT;2\nNUT;1\n", string(report))
}

func TestSplitAssemblyParallel(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	_, err := splitBytes(t, fs, "gearbox.stp", gearboxDoc, WithParallelism(4))
	require.NoError(t, err)

	for _, name := range []string{"BOLT.stp", "NUT.stp", "gearbox.txt"} {
		assert.True(t, fs.Exists(filepath.Join("out", name)), "missing %s", name)
	}
}

func TestSplitSinglePartFails(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	result, err := splitBytes(t, fs, "washer.stp", singlePartDoc)

	var classErr *step.ClassificationError
	require.ErrorAs(t, err, &classErr)
	assert.Equal(t, 1, classErr.SolidBodies)
	assert.Equal(t, classify.KindSinglePart, result.Kind)
	assert.Empty(t, fs.Files())
}

func TestSplitMergesIdenticalBodies(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	result, err := splitBytes(t, fs, "dup_block.stp", dupBlockDoc, WithMergeDuplicates())
	require.NoError(t, err)

	require.Len(t, result.Units, 1)
	assert.Equal(t, 2, result.Units[0].Instances)
	assert.True(t, fs.Exists(filepath.Join("out", "dup_block_1.stp")))
	assert.False(t, fs.Exists(filepath.Join("out", "dup_block_2.stp")))

	report, err := fs.ReadFile(filepath.Join("out", "dup_block.txt"))
	require.NoError(t, err)
	assert.Equal(t, "dup_block_1;2\n", string(report))
}

func TestSplitWithoutMergeKeepsAllBodies(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	result, err := splitBytes(t, fs, "dup_block.stp", dupBlockDoc)
	require.NoError(t, err)

	require.Len(t, result.Units, 2)
	assert.True(t, fs.Exists(filepath.Join("out", "dup_block_2.stp")))
}

func TestSplitIsolatesUnitWriteFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	fs := fsutil.NewMemoryFileSystem()
	fs.FailWrites = func(name string) error {
		if strings.Contains(name, "twin_block_1") {
			return boom
		}
		return nil
	}

	result, err := splitBytes(t, fs, "twin_block.stp", twinBlockDoc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 units failed")

	require.Len(t, result.FailedUnits(), 1)
	assert.ErrorIs(t, result.FailedUnits()[0].Err, boom)
	assert.True(t, fs.Exists(filepath.Join("out", "twin_block_2.stp")))

	// The report lists only the units that made it to disk.
	report, err := fs.ReadFile(filepath.Join("out", "twin_block.txt"))
	require.NoError(t, err)
	assert.Equal(t, "twin_block_2;1\n", string(report))
}

func TestSplitReportDisabled(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	result, err := splitBytes(t, fs, "twin_block.stp", twinBlockDoc, WithReportRenderer(nil))
	require.NoError(t, err)

	assert.Empty(t, result.ReportPath)
	assert.False(t, fs.Exists(filepath.Join("out", "twin_block.txt")))
}

func TestSplitOutputIsNotSplittableAgain(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	_, err := splitBytes(t, fs, "twin_block.stp", twinBlockDoc)
	require.NoError(t, err)

	extracted, err := fs.ReadFile(filepath.Join("out", "twin_block_1.stp"))
	require.NoError(t, err)

	_, err = splitBytes(t, fs, "twin_block_1.stp", string(extracted))
	var classErr *step.ClassificationError
	require.ErrorAs(t, err, &classErr)
}

func TestSplitRequiresOutputDir(t *testing.T) {
	t.Parallel()

	o := New(WithFileSystem(fsutil.NewMemoryFileSystem()))
	_, err := o.Split(context.Background(), Request{
		Source: step.SourceFromBytes("x.stp", []byte(twinBlockDoc)),
	})
	require.Error(t, err)
}

func TestSplitReadsSourceThroughFileSystem(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFileAtomic("in/twin_block.stp", []byte(twinBlockDoc), 0o644))

	o := New(WithFileSystem(fs))
	result, err := o.Split(context.Background(), Request{
		Source:    step.SourceFromFile("in/twin_block.stp"),
		OutputDir: "out",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, len(result.Units))
	assert.True(t, fs.Exists(filepath.Join("out", "twin_block_1.stp")))
}

func TestSplitMissingInput(t *testing.T) {
	t.Parallel()

	o := New(WithFileSystem(fsutil.NewMemoryFileSystem()))
	_, err := o.Split(context.Background(), Request{
		Source:    step.SourceFromFile("absent.stp"),
		OutputDir: "out",
	})
	var ioErr *step.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "read", ioErr.Op)
}

func TestSplitParseFailure(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	_, err := splitBytes(t, fs, "broken.stp", "not a step file;")
	var parseErr *step.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Empty(t, fs.Files())
}
