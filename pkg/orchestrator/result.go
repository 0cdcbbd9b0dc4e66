package orchestrator

import "github.com/goliatone/go-stepsplit/pkg/classify"

// UnitResult records the outcome of one extraction unit.
type UnitResult struct {
	// Name is the display name used in logs and the report.
	Name string

	// File is the absolute or relative path written, empty when Err is set.
	File string

	// Entities is the closed entity count serialized for this unit.
	Entities int

	// Instances is how many occurrences this unit represents.
	Instances int

	// Err holds the failure for this unit, nil on success.
	Err error
}

// Result summarises a splitting run.
type Result struct {
	Input      string
	OutputDir  string
	Kind       classify.Kind
	Stats      classify.Stats
	Units      []UnitResult
	ReportPath string
}

// FailedUnits returns the units whose pipeline failed.
func (r Result) FailedUnits() []UnitResult {
	var failed []UnitResult
	for _, u := range r.Units {
		if u.Err != nil {
			failed = append(failed, u)
		}
	}
	return failed
}

// SucceededUnits returns the units whose output file exists.
func (r Result) SucceededUnits() []UnitResult {
	var ok []UnitResult
	for _, u := range r.Units {
		if u.Err == nil {
			ok = append(ok, u)
		}
	}
	return ok
}
