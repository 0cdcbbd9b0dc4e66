// Package orchestrator coordinates the full splitting pipeline: load, parse,
// classify, discover units, and run one collect+serialize+write pass per
// unit. It applies sensible defaults while remaining open to dependency
// injection for advanced callers.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-stepsplit/internal/fsutil"
	internalParser "github.com/goliatone/go-stepsplit/internal/step/parser"
	"github.com/goliatone/go-stepsplit/pkg/classify"
	"github.com/goliatone/go-stepsplit/pkg/graph"
	"github.com/goliatone/go-stepsplit/pkg/report"
	"github.com/goliatone/go-stepsplit/pkg/serialize"
	"github.com/goliatone/go-stepsplit/pkg/step"
)

const outputPerm os.FileMode = 0o644

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithParser injects a custom STEP parser.
func WithParser(parser step.Parser) Option {
	return func(o *Orchestrator) {
		o.parser = parser
	}
}

// WithSerializer injects a custom serializer.
func WithSerializer(serializer *serialize.Serializer) Option {
	return func(o *Orchestrator) {
		o.serializer = serializer
	}
}

// WithFileSystem injects the filesystem used for input reads and output
// writes. Defaults to the operating system.
func WithFileSystem(fs fsutil.FileSystem) Option {
	return func(o *Orchestrator) {
		o.fs = fs
	}
}

// WithLogger injects a zap logger. The default is a no-op logger so library
// consumers stay silent unless they opt in.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithParallelism bounds concurrent unit extraction. Values below two keep
// the pipeline sequential. The entity table and reverse index are read-only
// once built, so units never contend.
func WithParallelism(n int) Option {
	return func(o *Orchestrator) {
		o.parallelism = n
	}
}

// WithMergeDuplicates collapses geometrically identical units into a single
// output file whose report entry carries the instance count.
func WithMergeDuplicates() Option {
	return func(o *Orchestrator) {
		o.mergeDuplicates = true
	}
}

// WithPresentationTypes overrides the presentation allow-list used by the
// dependency collector.
func WithPresentationTypes(types ...string) Option {
	return func(o *Orchestrator) {
		o.presentationTypes = append([]string(nil), types...)
	}
}

// WithReportRenderer injects the report renderer. Pass nil to disable the
// report file entirely.
func WithReportRenderer(renderer report.Renderer) Option {
	return func(o *Orchestrator) {
		o.reportRenderer = renderer
		o.reportSpecified = true
	}
}

// Orchestrator drives unit discovery and the per-unit pipeline.
type Orchestrator struct {
	parser            step.Parser
	serializer        *serialize.Serializer
	fs                fsutil.FileSystem
	logger            *zap.Logger
	parallelism       int
	mergeDuplicates   bool
	presentationTypes []string
	reportRenderer    report.Renderer
	reportSpecified   bool
	initialiseErr     error
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations so callers
// can start with a single constructor call.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

func (o *Orchestrator) applyDefaults() {
	if o.parser == nil {
		o.parser = internalParser.New(step.NewParserOptions())
	}
	if o.serializer == nil {
		o.serializer = serialize.New()
	}
	if o.fs == nil {
		o.fs = fsutil.OSFileSystem{}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.reportRenderer == nil && !o.reportSpecified {
		renderer, err := report.NewRenderer()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default report renderer: %w", err)
			return
		}
		o.reportRenderer = renderer
	}
}

// Request describes one splitting run.
type Request struct {
	// Source identifies where the STEP document lives. Optional when
	// Document is supplied.
	Source step.Source

	// Document allows callers to bypass loading when they already hold the
	// payload.
	Document *step.Document

	// OutputDir receives one file per unit plus the report.
	OutputDir string
}

// Split executes the parse → classify → discover → per-unit pipeline.
// Parse and classification failures abort before any output exists. Unit
// failures abort only that unit; the Result records every outcome, and the
// returned error is non-nil when any unit failed.
func (o *Orchestrator) Split(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := o.initialiseErr; err != nil {
		return Result{}, err
	}
	if req.OutputDir == "" {
		return Result{}, errors.New("orchestrator: output directory is required")
	}

	doc, err := o.resolveDocument(req)
	if err != nil {
		return Result{}, err
	}

	file, err := o.parser.Parse(ctx, doc)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: parse %s: %w", doc.Location(), err)
	}
	o.logger.Info("parsed document",
		zap.String("input", doc.Location()),
		zap.Int("entities", file.Table.Len()))

	kind, stats := classify.Detect(file.Table)
	result := Result{
		Input:     doc.Location(),
		OutputDir: req.OutputDir,
		Kind:      kind,
		Stats:     stats,
	}
	if kind == classify.KindSinglePart {
		return result, fmt.Errorf("orchestrator: %w", &step.ClassificationError{
			SolidBodies:   stats.SolidBodies,
			AssemblyLinks: stats.AssemblyLinks,
		})
	}
	o.logger.Info("classified document",
		zap.String("kind", string(kind)),
		zap.Int("assembly_links", stats.AssemblyLinks),
		zap.Int("solid_bodies", stats.SolidBodies))

	collector := graph.NewCollector(file.Table, graph.WithPresentationTypes(o.presentationList()...))

	units := o.discoverUnits(kind, collector, file)
	if len(units) == 0 {
		return result, fmt.Errorf("orchestrator: %w", &step.DependencyError{Msg: "no extractable units resolved"})
	}
	if o.mergeDuplicates {
		units = o.mergeIdentical(collector, units)
	}

	if err := o.fs.MkdirAll(req.OutputDir, 0o755); err != nil {
		return result, &step.IOError{Op: "mkdir", Path: req.OutputDir, Err: err}
	}

	result.Units = o.processUnits(ctx, collector, file, units, req.OutputDir)

	if o.reportRenderer != nil {
		path, err := o.writeReport(file, kind, result.Units, req.OutputDir)
		if err != nil {
			o.logger.Warn("report write failed", zap.Error(err))
		} else {
			result.ReportPath = path
		}
	}

	if failed := result.FailedUnits(); len(failed) > 0 {
		return result, fmt.Errorf("orchestrator: %d of %d units failed", len(failed), len(result.Units))
	}
	return result, nil
}

func (o *Orchestrator) resolveDocument(req Request) (step.Document, error) {
	if req.Document != nil {
		return *req.Document, nil
	}
	if req.Source == nil {
		return step.Document{}, errors.New("orchestrator: source or document is required")
	}
	if data, ok := step.Payload(req.Source); ok {
		return step.NewDocument(req.Source, data)
	}
	data, err := o.fs.ReadFile(req.Source.Location())
	if err != nil {
		return step.Document{}, &step.IOError{Op: "read", Path: req.Source.Location(), Err: err}
	}
	return step.NewDocument(req.Source, data)
}

func (o *Orchestrator) presentationList() []string {
	if len(o.presentationTypes) > 0 {
		return o.presentationTypes
	}
	return step.DefaultPresentationTypes
}

// processUnits runs the collect+serialize+write pass for every unit,
// sequentially or under a bounded errgroup. A unit failure is recorded and
// never stops the siblings.
func (o *Orchestrator) processUnits(ctx context.Context, collector *graph.Collector, file *step.File, units []unit, outputDir string) []UnitResult {
	results := make([]UnitResult, len(units))

	if o.parallelism > 1 {
		grp, grpCtx := errgroup.WithContext(ctx)
		grp.SetLimit(o.parallelism)
		for i := range units {
			i := i
			grp.Go(func() error {
				results[i] = o.processUnit(grpCtx, collector, file, units[i], outputDir)
				return nil
			})
		}
		// Workers never return errors; failures live in results.
		_ = grp.Wait()
		return results
	}

	for i := range units {
		results[i] = o.processUnit(ctx, collector, file, units[i], outputDir)
	}
	return results
}

func (o *Orchestrator) processUnit(ctx context.Context, collector *graph.Collector, file *step.File, u unit, outputDir string) UnitResult {
	result := UnitResult{Name: u.name, Instances: u.instances}
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	reach, err := u.collect(collector)
	if err != nil {
		result.Err = err
		o.logger.Error("unit collection failed", zap.String("unit", u.name), zap.Error(err))
		return result
	}
	result.Entities = reach.Len()

	data, err := o.serializer.Serialize(file.Table, file.Header, reach, u.name)
	if err != nil {
		result.Err = err
		o.logger.Error("unit serialization failed", zap.String("unit", u.name), zap.Error(err))
		return result
	}

	path := filepath.Join(outputDir, u.file)
	if err := o.fs.WriteFileAtomic(path, data, outputPerm); err != nil {
		result.Err = &step.IOError{Op: "write", Path: path, Err: err}
		o.logger.Error("unit write failed", zap.String("unit", u.name), zap.Error(err))
		return result
	}

	result.File = path
	o.logger.Info("unit extracted",
		zap.String("unit", u.name),
		zap.String("file", path),
		zap.Int("entities", reach.Len()),
		zap.Int("instances", u.instances))
	return result
}

func (o *Orchestrator) writeReport(file *step.File, kind classify.Kind, units []UnitResult, outputDir string) (string, error) {
	rep := report.Report{Source: file.Name, Kind: string(kind)}
	for _, u := range units {
		if u.Err != nil {
			continue
		}
		rep.Entries = append(rep.Entries, report.Entry{Name: u.Name, Count: u.Instances})
	}

	data, err := o.reportRenderer.Render(rep)
	if err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, file.Name+".txt")
	if err := o.fs.WriteFileAtomic(path, data, outputPerm); err != nil {
		return "", &step.IOError{Op: "write", Path: path, Err: err}
	}
	return path, nil
}
