// Package stepsplit splits ISO 10303-21 (STEP) CAD files into one
// self-contained file per part. Assemblies yield one file per distinct part
// definition, multi-volume parts one file per solid body. The root package
// re-exports the common entry points; pkg/orchestrator holds the full
// pipeline for callers that need dependency injection.
package stepsplit

import (
	"context"

	"github.com/goliatone/go-stepsplit/pkg/orchestrator"
	"github.com/goliatone/go-stepsplit/pkg/step"
)

// Option configures the splitter.
type Option = orchestrator.Option

// Request describes a single splitting run.
type Request = orchestrator.Request

// Result summarises a splitting run.
type Result = orchestrator.Result

// UnitResult records the outcome of one extracted unit.
type UnitResult = orchestrator.UnitResult

// Source identifies where a STEP document lives.
type Source = step.Source

// New constructs a splitter with the built-in parser, serializer, and
// filesystem, applying any provided options.
func New(options ...Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// SplitFile splits the STEP file at path into outputDir. It is the simplest
// entry point for callers that just want the per-part files on disk.
func SplitFile(ctx context.Context, path, outputDir string, options ...Option) (Result, error) {
	gen := orchestrator.New(options...)
	return gen.Split(ctx, Request{
		Source:    step.SourceFromFile(path),
		OutputDir: outputDir,
	})
}

// SplitBytes splits an in-memory STEP payload into outputDir. The name is
// used for output naming and the report, the way a file base name would be.
func SplitBytes(ctx context.Context, name string, data []byte, outputDir string, options ...Option) (Result, error) {
	gen := orchestrator.New(options...)
	return gen.Split(ctx, Request{
		Source:    step.SourceFromBytes(name, data),
		OutputDir: outputDir,
	})
}
